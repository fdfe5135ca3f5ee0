package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// EnvConfigFile names the variable consulted when no explicit config path is given.
const EnvConfigFile = "PIDCAL_CONFIG"

// Load merges Baseline() + optional YAML file + PIDCAL_* env overrides, then validates.
// An explicit path must exist; without one, PIDCAL_CONFIG is tried.
func Load(path string) (*Config, error) {
	cfg := Baseline()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes YAML over cfg so absent keys keep their current values.
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.UnmarshalStrict(data, cfg)
}

// applyEnvOverrides applies PIDCAL_* environment variables to the config.
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("PIDCAL_CONNECTION_URI"); val != "" {
		cfg.ConnectionURI = val
	}

	if err := envDuration("PIDCAL_UPDATE_INTERVAL", &cfg.UpdateInterval); err != nil {
		return err
	}
	if err := envDuration("PIDCAL_PARAM_TIMEOUT", &cfg.ParamRequestTimeout); err != nil {
		return err
	}
	if err := envDuration("PIDCAL_HANDSHAKE_TIMEOUT", &cfg.HandshakeTimeout); err != nil {
		return err
	}
	if err := envInt("PIDCAL_MAX_DATA_LENGTH", &cfg.MaxDataLength); err != nil {
		return err
	}
	if err := envInt("PIDCAL_SYSTEM_ID", &cfg.SystemID); err != nil {
		return err
	}

	if val := os.Getenv("PIDCAL_WINDOW_SECONDS"); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("PIDCAL_WINDOW_SECONDS: %w", err)
		}
		cfg.WindowSeconds = f
	}

	if val := os.Getenv("PIDCAL_AUTO_CONNECT"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("PIDCAL_AUTO_CONNECT: %w", err)
		}
		cfg.AutoConnect = b
	}

	// HTTP surface
	if val := os.Getenv("PIDCAL_HTTP_ADDR"); val != "" {
		cfg.HTTP.Addr = val
	}
	if val := os.Getenv("PIDCAL_AUTH_SECRET"); val != "" {
		cfg.HTTP.AuthSecret = val
	}
	if err := envDuration("PIDCAL_SSE_HEARTBEAT", &cfg.HTTP.SSEHeartbeat); err != nil {
		return err
	}
	if err := envInt("PIDCAL_SSE_BUFFER", &cfg.HTTP.SSEBuffer); err != nil {
		return err
	}

	// Logging
	if val := os.Getenv("PIDCAL_LOG_LEVEL"); val != "" {
		cfg.Log.Level = val
	}
	if val := os.Getenv("PIDCAL_LOG_FILE"); val != "" {
		cfg.Log.File = val
	}
	if val := os.Getenv("PIDCAL_AUDIT_DIR"); val != "" {
		cfg.AuditDir = val
	}

	return nil
}

func envDuration(key string, dst *time.Duration) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func envInt(key string, dst *int) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
