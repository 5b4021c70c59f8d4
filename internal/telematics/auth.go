package telematics

import (
	"context"
	"strconv"

	"github.com/fleetlens/fleetlens/internal/errors"
	"github.com/fleetlens/fleetlens/internal/models"
)

// PrivilegeTelemetryRead is the vendor privilege code permitting telemetry
// reads on a vehicle.
const PrivilegeTelemetryRead = 1

// DeveloperToken is the vendor's application-level bearer credential.
type DeveloperToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// VehicleToken is a bearer credential scoped to one vehicle and a
// privilege set.
type VehicleToken struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

type developerTokenRequest struct {
	ClientID   string `json:"client_id"`
	Domain     string `json:"domain"`
	PrivateKey string `json:"private_key"`
}

type vehicleTokenRequest struct {
	TokenID    int64 `json:"tokenId"`
	Privileges []int `json:"privileges"`
}

// ExchangeDeveloperToken exchanges a stored credential record for a
// developer token. The exchange domain is the configured vendor domain,
// falling back to the record's redirect URI; every caller resolves it
// here so the same record always exchanges with the same domain.
func (c *Client) ExchangeDeveloperToken(ctx context.Context, record *models.APIConfig) (*DeveloperToken, error) {
	if record == nil {
		return nil, &errors.ErrConfigMissing{}
	}

	domain := c.snapshot().domain
	if domain == "" {
		domain = record.RedirectURI
	}

	return c.GetDeveloperToken(ctx, record.ClientID, record.APIKey, domain)
}

// GetDeveloperToken exchanges client credentials for a developer token.
// Nothing is cached; every call re-exchanges.
func (c *Client) GetDeveloperToken(ctx context.Context, clientID, apiKey, domain string) (*DeveloperToken, error) {
	if clientID == "" || apiKey == "" {
		return nil, &errors.ErrValidation{Msg: "clientId and apiKey are required"}
	}

	var token DeveloperToken
	body := developerTokenRequest{ClientID: clientID, Domain: domain, PrivateKey: apiKey}
	if err := c.postJSON(ctx, c.snapshot().auth+"/auth/token", "", body, &token); err != nil {
		c.logger.ErrorWithContext(ctx, "developer token exchange failed", "error", err.Error())
		return nil, &errors.ErrUpstreamAuth{Subject: "developer", Err: err}
	}

	return &token, nil
}

// GetVehicleToken mints a token scoped to one vehicle and the requested
// privileges from a developer token. Failures name the vehicle so batch
// callers can attribute them.
func (c *Client) GetVehicleToken(ctx context.Context, developerToken, vehicleID string, privileges []int) (*VehicleToken, error) {
	if developerToken == "" {
		return nil, &errors.ErrValidation{Msg: "developer token is required"}
	}

	tokenID, err := strconv.ParseInt(vehicleID, 10, 64)
	if err != nil {
		return nil, &errors.ErrValidation{Msg: "invalid vehicle token id: " + vehicleID}
	}

	var token VehicleToken
	body := vehicleTokenRequest{TokenID: tokenID, Privileges: privileges}
	if err := c.postJSON(ctx, c.snapshot().exchange+"/v1/tokens/exchange", developerToken, body, &token); err != nil {
		c.logger.ErrorWithContext(ctx, "vehicle token exchange failed",
			"token_id", vehicleID,
			"error", err.Error(),
		)
		return nil, &errors.ErrUpstreamAuth{Subject: "vehicle " + vehicleID, Err: err}
	}

	return &token, nil
}
