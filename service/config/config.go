package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Default public mainnet endpoints. Fine for experimenting; production runs
// should point SOLANA_RPC_URL / SOLANA_WS_URL at a premium provider.
const (
	DefaultRPCURL = "https://api.mainnet-beta.solana.com"
	DefaultWSURL  = "wss://api.mainnet-beta.solana.com"
)

// Config holds all application configuration loaded from environment variables.
// All fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Logging
	LogLevel string

	// Solana endpoints
	SolanaRPCURL string
	SolanaWSURL  string

	// NATS configuration. Empty disables event publishing.
	NATSURL string

	// MetricsAddr exposes a Prometheus endpoint when non-empty (e.g. ":9090").
	MetricsAddr string

	// LookupTimeout bounds each GetTransaction round trip. Zero means wait
	// indefinitely.
	LookupTimeout time.Duration
}

// Load reads configuration from environment variables and validates all fields.
// Returns an error if any configuration is invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.SolanaRPCURL = getEnvOrDefault("SOLANA_RPC_URL", DefaultRPCURL)
	if !strings.HasPrefix(cfg.SolanaRPCURL, "http://") && !strings.HasPrefix(cfg.SolanaRPCURL, "https://") {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL must be an http(s) URL, got %q", cfg.SolanaRPCURL))
	}

	cfg.SolanaWSURL = getEnvOrDefault("SOLANA_WS_URL", DefaultWSURL)
	if !strings.HasPrefix(cfg.SolanaWSURL, "ws://") && !strings.HasPrefix(cfg.SolanaWSURL, "wss://") {
		errs = append(errs, fmt.Errorf("SOLANA_WS_URL must be a ws(s) URL, got %q", cfg.SolanaWSURL))
	}

	// Optional collaborators
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	lookupTimeout, err := parseDuration("LOOKUP_TIMEOUT", "0s")
	if err != nil {
		errs = append(errs, err)
	} else if lookupTimeout < 0 {
		errs = append(errs, fmt.Errorf("LOOKUP_TIMEOUT cannot be negative"))
	} else {
		cfg.LookupTimeout = lookupTimeout
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for startup paths where misconfiguration should halt the process.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, value)
	}
	return duration, nil
}
