package models

import "time"

// DefaultRedirectURI is used when a configuration is saved without one.
const DefaultRedirectURI = "http://localhost:3000/callback"

// APIConfig is the single credential record for the deployment.
// Exactly one instance exists at a time, last write wins.
type APIConfig struct {
	ClientID    string    `json:"clientId"`
	APIKey      string    `json:"apiKey"`
	RedirectURI string    `json:"redirectUri"`
	CreatedAt   time.Time `json:"createdAt"`
}
