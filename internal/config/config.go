// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"pos-sales/internal/posapi"
)

// Config holds all service configuration.
// Environment determines whether the backend settings load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	StoreID    string

	// SessionTTL is how long an idle register session survives.
	SessionTTL time.Duration

	// Backend connection settings (loaded from secrets in production)
	Backend BackendConfig
}

// BackendConfig contains sales backend connection settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type BackendConfig struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	BrowserTLS     bool   `json:"browser_tls,omitempty"`
	DisableBreaker bool   `json:"disable_breaker,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		StoreID:     envOrDefault("STORE_ID", "default"),
	}

	ttl, err := parseSessionTTL(os.Getenv("SESSION_TTL_MINUTES"))
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = ttl

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading backend config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port              string        `json:"port"`
		Environment       string        `json:"environment"`
		LogLevel          string        `json:"log_level"`
		StoreID           string        `json:"store_id"`
		SessionTTLMinutes int           `json:"session_ttl_minutes"`
		Backend           BackendConfig `json:"backend"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		StoreID:     withDefault(fileConfig.StoreID, "default"),
		SessionTTL:  time.Duration(fileConfig.SessionTTLMinutes) * time.Minute,
		Backend:     fileConfig.Backend,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// parseSessionTTL converts a minutes string to a duration. Empty input
// returns zero, which downstream code replaces with the default TTL.
func parseSessionTTL(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0, fmt.Errorf("SESSION_TTL_MINUTES must be a positive integer, got %q", raw)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// loadFromSecretManager fetches backend config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Backend); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads backend config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Backend = BackendConfig{
		BaseURL:        os.Getenv("BACKEND_URL"),
		BrowserTLS:     os.Getenv("BACKEND_BROWSER_TLS") == "true",
		DisableBreaker: os.Getenv("BACKEND_DISABLE_BREAKER") == "true",
	}

	if raw := os.Getenv("BACKEND_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("BACKEND_TIMEOUT_SECONDS must be a positive integer, got %q", raw)
		}
		c.Backend.TimeoutSeconds = seconds
	}

	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url is required")
	}
	if _, err := url.Parse(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("invalid backend base_url: %w", err)
	}
	return nil
}

// ClientConfig converts the loaded backend settings into a posapi client
// configuration.
func (c *Config) ClientConfig() posapi.Config {
	return posapi.Config{
		BaseURL:        c.Backend.BaseURL,
		Timeout:        time.Duration(c.Backend.TimeoutSeconds) * time.Second,
		BrowserTLS:     c.Backend.BrowserTLS,
		DisableBreaker: c.Backend.DisableBreaker,
	}
}

// envOrDefault returns the env var value or a default when unset.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
