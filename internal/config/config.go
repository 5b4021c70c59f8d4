package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/fleetlens/fleetlens/internal/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	Version string        `yaml:"version"`
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Vendor  VendorConfig  `yaml:"vendor"`
	Storage StorageConfig `yaml:"storage"`
}

// ServerConfig contains server-related configuration.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	HTTPPort        int           `yaml:"http_port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`
	TLS             TLSConfig     `yaml:"tls"`
}

// TLSConfig contains TLS configuration.
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	MinVersion string `yaml:"min_version"` // "1.2" or "1.3"
}

// APIConfig contains API surface configuration.
type APIConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// VendorConfig contains the telemetry vendor endpoints and defaults.
type VendorConfig struct {
	AuthURL          string        `yaml:"auth_url"`
	TokenExchangeURL string        `yaml:"token_exchange_url"`
	IdentityURL      string        `yaml:"identity_url"`
	TelemetryURL     string        `yaml:"telemetry_url"`
	Domain           string        `yaml:"domain"`
	Timeout          time.Duration `yaml:"timeout"`
}

// StorageConfig contains flat-file storage locations.
type StorageConfig struct {
	ConfigPath string `yaml:"config_path"` // credential record JSON blob
	ReportsDir string `yaml:"reports_dir"` // generated CSV artifacts
}

// Default returns a configuration with sane local defaults.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Host:            "127.0.0.1",
			HTTPPort:        3001,
			ShutdownTimeout: 30 * time.Second,
			LogLevel:        "info",
		},
		API: APIConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 1000,
				Burst:             100,
			},
		},
		Vendor: VendorConfig{
			AuthURL:          "https://auth.telemetry.example",
			TokenExchangeURL: "https://token-exchange.telemetry.example",
			IdentityURL:      "https://identity.telemetry.example",
			TelemetryURL:     "https://telemetry.telemetry.example",
			Timeout:          30 * time.Second,
		},
		Storage: StorageConfig{
			ConfigPath: "./data/api-config.json",
			ReportsDir: "./data/reports",
		},
	}
}

// Parse parses YAML content into a Config, applying defaults for absent
// sections.
func Parse(content []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, &errors.ErrConfigParse{Err: err}
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Version == "" {
		return &errors.ErrConfigValidation{Err: fmt.Errorf("version is required")}
	}
	if c.Server.Host == "" {
		return &errors.ErrConfigValidation{Err: fmt.Errorf("server.host is required")}
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return &errors.ErrConfigValidation{Err: fmt.Errorf("server.http_port must be in 1-65535, got %d", c.Server.HTTPPort)}
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "" {
			return &errors.ErrConfigValidation{Err: fmt.Errorf("tls enabled but cert_file/key_file missing")}
		}
	}
	if c.Vendor.AuthURL == "" || c.Vendor.TokenExchangeURL == "" {
		return &errors.ErrConfigValidation{Err: fmt.Errorf("vendor auth_url and token_exchange_url are required")}
	}
	if c.Vendor.IdentityURL == "" || c.Vendor.TelemetryURL == "" {
		return &errors.ErrConfigValidation{Err: fmt.Errorf("vendor identity_url and telemetry_url are required")}
	}
	if c.Storage.ConfigPath == "" {
		return &errors.ErrConfigValidation{Err: fmt.Errorf("storage.config_path is required")}
	}
	if c.Storage.ReportsDir == "" {
		return &errors.ErrConfigValidation{Err: fmt.Errorf("storage.reports_dir is required")}
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substituteEnvVars replaces ${VAR} placeholders with environment values.
// Unset variables substitute to the empty string.
func substituteEnvVars(content []byte) []byte {
	return envVarPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}
