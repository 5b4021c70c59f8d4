// Package telematics implements the client side of the vehicle-telemetry
// vendor boundary: the two-step token exchange, the identity-graph vehicle
// listing, and the telemetry signal queries.
package telematics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/fleetlens/fleetlens/internal/config"
	"github.com/fleetlens/fleetlens/internal/logging"
)

// Client talks to the vendor's REST auth endpoints and GraphQL APIs.
// It holds no token state; every exchange call re-derives its token.
// Endpoints can be swapped at runtime via UpdateEndpoints.
type Client struct {
	mu           sync.RWMutex
	authURL      string
	exchangeURL  string
	identityURL  string
	telemetryURL string
	domain       string
	httpClient   *http.Client
	logger       *logging.Logger
}

// endpoints is a consistent snapshot of the client's vendor addressing.
type endpoints struct {
	auth      string
	exchange  string
	identity  string
	telemetry string
	domain    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a vendor client from the vendor configuration.
func NewClient(cfg config.VendorConfig, logger *logging.Logger, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		authURL:      cfg.AuthURL,
		exchangeURL:  cfg.TokenExchangeURL,
		identityURL:  cfg.IdentityURL,
		telemetryURL: cfg.TelemetryURL,
		domain:       cfg.Domain,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// UpdateEndpoints swaps the vendor addressing, typically after a config
// reload. In-flight requests finish against the old endpoints; the HTTP
// client and its timeout are not replaced.
func (c *Client) UpdateEndpoints(cfg config.VendorConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.authURL = cfg.AuthURL
	c.exchangeURL = cfg.TokenExchangeURL
	c.identityURL = cfg.IdentityURL
	c.telemetryURL = cfg.TelemetryURL
	c.domain = cfg.Domain
}

func (c *Client) snapshot() endpoints {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return endpoints{
		auth:      c.authURL,
		exchange:  c.exchangeURL,
		identity:  c.identityURL,
		telemetry: c.telemetryURL,
		domain:    c.domain,
	}
}

// vendorError is the vendor's JSON error envelope. Either field may carry
// the human-readable message.
type vendorError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e vendorError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// postJSON issues a JSON POST and decodes a JSON response into out.
// Non-2xx responses are returned as errors carrying the vendor message
// when one is present.
func (c *Client) postJSON(ctx context.Context, url, bearer string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var envelope vendorError
		if err := json.Unmarshal(raw, &envelope); err == nil && envelope.text() != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, envelope.text())
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// graphQLRequest is the body sent to the vendor's GraphQL endpoints.
type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphQLError represents an error returned by the GraphQL API.
type graphQLError struct {
	Message string `json:"message"`
}

// graphQLEnvelope is the generic GraphQL response wrapper.
type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// queryGraphQL posts a GraphQL query and unmarshals the data field into
// out. A vendor error envelope fails the whole call; nodes are never
// partially returned.
func (c *Client) queryGraphQL(ctx context.Context, url, bearer, query string, variables map[string]interface{}, out interface{}) error {
	var envelope graphQLEnvelope
	if err := c.postJSON(ctx, url, bearer, graphQLRequest{Query: query, Variables: variables}, &envelope); err != nil {
		return err
	}

	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	if envelope.Data == nil {
		return fmt.Errorf("graphql response missing data")
	}

	return json.Unmarshal(envelope.Data, out)
}
