package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// Validate enforces the configuration rules.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateLink(cfg); err != nil {
		return fmt.Errorf("link validation failed: %w", err)
	}

	if err := validateBuffer(cfg); err != nil {
		return fmt.Errorf("buffer validation failed: %w", err)
	}

	if err := validateHTTP(cfg); err != nil {
		return fmt.Errorf("http validation failed: %w", err)
	}

	if err := validateLog(cfg); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}

	return nil
}

// validateLink validates the telemetry link and poll cadence parameters.
func validateLink(cfg *Config) error {
	if strings.TrimSpace(cfg.ConnectionURI) == "" {
		return fmt.Errorf("connection URI must not be empty")
	}
	if cfg.SystemID < 1 || cfg.SystemID > 255 {
		return fmt.Errorf("system id must be in [1, 255], got %d", cfg.SystemID)
	}
	if cfg.HandshakeTimeout < 0 {
		return fmt.Errorf("handshake timeout must be non-negative, got %v", cfg.HandshakeTimeout)
	}
	if cfg.UpdateInterval <= 0 {
		return fmt.Errorf("update interval must be positive, got %v", cfg.UpdateInterval)
	}
	if cfg.ParamRequestTimeout <= 0 {
		return fmt.Errorf("parameter request timeout must be positive, got %v", cfg.ParamRequestTimeout)
	}
	return nil
}

// validateBuffer validates rolling buffer parameters.
func validateBuffer(cfg *Config) error {
	if cfg.MaxDataLength < 1 {
		return fmt.Errorf("max data length must be at least 1, got %d", cfg.MaxDataLength)
	}
	if cfg.WindowSeconds <= 0 {
		return fmt.Errorf("window seconds must be positive, got %v", cfg.WindowSeconds)
	}
	if cfg.Chart.Width < 100 || cfg.Chart.Height < 50 {
		return fmt.Errorf("chart size %dx%d is below the 100x50 minimum", cfg.Chart.Width, cfg.Chart.Height)
	}
	return nil
}

// validateHTTP validates the chart surface server parameters.
func validateHTTP(cfg *Config) error {
	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("http address must not be empty")
	}
	if cfg.HTTP.SSEHeartbeat <= 0 {
		return fmt.Errorf("sse heartbeat must be positive, got %v", cfg.HTTP.SSEHeartbeat)
	}
	if cfg.HTTP.SSEBuffer < 1 {
		return fmt.Errorf("sse buffer must be at least 1, got %d", cfg.HTTP.SSEBuffer)
	}
	return nil
}

func validateLog(cfg *Config) error {
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	switch cfg.Log.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("invalid log format %q, must be one of: text, json, logfmt", cfg.Log.Format)
	}
	return nil
}
