// Package token holds JWT convenience helpers for the browser-facing API.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IsExpired reports whether a JWT's exp claim is at or before now. The
// token is decoded without signature verification: this is a client-side
// convenience, not a security boundary. Tokens that cannot be parsed or
// carry no exp claim are treated as expired.
func IsExpired(raw string, now time.Time) bool {
	parser := jwt.NewParser()
	tok, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return true
	}

	exp, err := tok.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return !exp.Time.After(now)
}
