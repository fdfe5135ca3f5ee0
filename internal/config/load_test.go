package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigFile, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ConnectionURI != "udp:0.0.0.0:14550" {
		t.Errorf("ConnectionURI = %q, want udp:0.0.0.0:14550", cfg.ConnectionURI)
	}
	if cfg.UpdateInterval != 50*time.Millisecond {
		t.Errorf("UpdateInterval = %v, want 50ms", cfg.UpdateInterval)
	}
	if cfg.ParamRequestTimeout != time.Second {
		t.Errorf("ParamRequestTimeout = %v, want 1s", cfg.ParamRequestTimeout)
	}
	if cfg.MaxDataLength != 1000 {
		t.Errorf("MaxDataLength = %d, want 1000", cfg.MaxDataLength)
	}
	if cfg.WindowSeconds != 10.0 {
		t.Errorf("WindowSeconds = %v, want 10.0", cfg.WindowSeconds)
	}
	if cfg.HandshakeTimeout != 0 {
		t.Errorf("HandshakeTimeout = %v, want 0 (unbounded)", cfg.HandshakeTimeout)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv("PIDCAL_CONNECTION_URI", "serial:/dev/ttyACM0:115200")
	t.Setenv("PIDCAL_UPDATE_INTERVAL", "100ms")
	t.Setenv("PIDCAL_MAX_DATA_LENGTH", "250")
	t.Setenv("PIDCAL_WINDOW_SECONDS", "5.5")
	t.Setenv("PIDCAL_AUTO_CONNECT", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() with env overrides failed: %v", err)
	}

	if cfg.ConnectionURI != "serial:/dev/ttyACM0:115200" {
		t.Errorf("ConnectionURI = %q", cfg.ConnectionURI)
	}
	if cfg.UpdateInterval != 100*time.Millisecond {
		t.Errorf("UpdateInterval = %v, want 100ms", cfg.UpdateInterval)
	}
	if cfg.MaxDataLength != 250 {
		t.Errorf("MaxDataLength = %d, want 250", cfg.MaxDataLength)
	}
	if cfg.WindowSeconds != 5.5 {
		t.Errorf("WindowSeconds = %v, want 5.5", cfg.WindowSeconds)
	}
	if !cfg.AutoConnect {
		t.Error("AutoConnect = false, want true")
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv("PIDCAL_UPDATE_INTERVAL", "fast")

	if _, err := Load(""); err == nil {
		t.Fatal("Load() accepted a malformed duration")
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	t.Setenv(EnvConfigFile, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "pidcal.yaml")
	data := `
connection_uri: tcp:127.0.0.1:5760
update_interval: 20ms
max_data_length: 400
http:
  addr: 0.0.0.0:9000
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.ConnectionURI != "tcp:127.0.0.1:5760" {
		t.Errorf("ConnectionURI = %q", cfg.ConnectionURI)
	}
	if cfg.UpdateInterval != 20*time.Millisecond {
		t.Errorf("UpdateInterval = %v, want 20ms", cfg.UpdateInterval)
	}
	if cfg.MaxDataLength != 400 {
		t.Errorf("MaxDataLength = %d, want 400", cfg.MaxDataLength)
	}
	if cfg.HTTP.Addr != "0.0.0.0:9000" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	// Keys absent from the file keep their defaults.
	if cfg.WindowSeconds != DefaultWindowSeconds {
		t.Errorf("WindowSeconds = %v, want default", cfg.WindowSeconds)
	}
	if cfg.HTTP.SSEBuffer != 50 {
		t.Errorf("HTTP.SSEBuffer = %d, want 50", cfg.HTTP.SSEBuffer)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pidcal.yaml")
	if err := os.WriteFile(path, []byte("max_data_length: 400\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigFile, path)
	t.Setenv("PIDCAL_MAX_DATA_LENGTH", "800")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.MaxDataLength != 800 {
		t.Errorf("MaxDataLength = %d, want 800", cfg.MaxDataLength)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	t.Setenv(EnvConfigFile, "")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("max_data_lenght: 10\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() accepted an unknown key")
	}
	if !strings.Contains(err.Error(), "bad.yaml") {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() accepted a missing explicit config file")
	}
}
