package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fleetlens/fleetlens/internal/errors"
	"github.com/fleetlens/fleetlens/internal/models"
)

// ConfigStore persists the single credential record as one JSON blob on
// disk. Last write wins, no merge, no versioning.
type ConfigStore struct {
	path string
	mu   sync.Mutex
}

// NewConfigStore creates a config store backed by the given file path.
func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path}
}

// Save validates and stores a credential record, overwriting any prior
// record unconditionally. RedirectURI defaults when omitted.
func (s *ConfigStore) Save(clientID, apiKey, redirectURI string) (*models.APIConfig, error) {
	if clientID == "" || apiKey == "" {
		return nil, &errors.ErrValidation{Msg: "clientId and apiKey are required"}
	}
	if redirectURI == "" {
		redirectURI = models.DefaultRedirectURI
	}

	record := &models.APIConfig{
		ClientID:    clientID,
		APIKey:      apiKey,
		RedirectURI: redirectURI,
		CreatedAt:   time.Now().UTC(),
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, &errors.ErrFileWrite{Path: s.path, Err: err}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return nil, &errors.ErrFileWrite{Path: s.path, Err: err}
	}

	return record, nil
}

// Load returns the stored record, or nil (not an error) when no record has
// ever been saved or the blob is unreadable or corrupt.
func (s *ConfigStore) Load() *models.APIConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var record models.APIConfig
	if err := json.Unmarshal(data, &record); err != nil {
		return nil
	}

	return &record
}

// Delete removes the stored record. Returns ErrNotFound when none exists.
func (s *ConfigStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err != nil {
		return &errors.ErrNotFound{Resource: "API configuration"}
	}
	if err := os.Remove(s.path); err != nil {
		return &errors.ErrFileWrite{Path: s.path, Err: err}
	}
	return nil
}
