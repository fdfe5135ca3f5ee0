package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FlyingRobots-Pequi/pidcal/internal/config"
)

func TestNewWritesToStderr(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(config.LogConfig{Level: "debug", Format: "logfmt"}, &buf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer closer.Close()

	logger.Debug("handshake complete", "system", 1)
	out := buf.String()
	if !strings.Contains(out, "handshake complete") || !strings.Contains(out, "system=1") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(config.LogConfig{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("ignored")
	if buf.Len() != 0 {
		t.Errorf("info written at warn level: %q", buf.String())
	}
}

func TestNewRejectsBadLevel(t *testing.T) {
	if _, _, err := New(config.LogConfig{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Error("New() accepted an unknown level")
	}
}

func TestNewFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pidcal.log")
	logger, closer, err := New(config.LogConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 1}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	logger.Info("connected", "uri", "udp:0.0.0.0:14550")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"uri":"udp:0.0.0.0:14550"`) {
		t.Errorf("log file = %q", data)
	}
}
