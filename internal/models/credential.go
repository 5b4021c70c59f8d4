package models

import "time"

// Credential is an immutable bearer credential obtained from the vendor.
// Scope is "developer" for application-level tokens or the vehicle token id
// for vehicle-scoped tokens.
type Credential struct {
	token  string
	scope  string
	expiry time.Time
}

// NewCredential creates a credential value. Expiry is computed by the
// caller from the vendor's expires_in field.
func NewCredential(token, scope string, expiry time.Time) Credential {
	return Credential{token: token, scope: scope, expiry: expiry}
}

// Token returns the raw bearer token.
func (c Credential) Token() string {
	return c.token
}

// Scope returns the credential scope.
func (c Credential) Scope() string {
	return c.scope
}

// Expiry returns the expiry time reported by the vendor.
func (c Credential) Expiry() time.Time {
	return c.expiry
}

// IsZero reports whether the credential is unset.
func (c Credential) IsZero() bool {
	return c.token == ""
}
