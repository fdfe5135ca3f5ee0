package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/FlyingRobots-Pequi/pidcal/internal/auth"
	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
)

func newServeFlagsCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	t.Setenv("PIDCAL_CONFIG", "")
	cmd := &cobra.Command{Use: "test"}
	addServeFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error: %v", err)
	}
	return cmd
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	cmd := newServeFlagsCmd(t, "--uri", "tcp:127.0.0.1:5760", "--window", "20", "--interval", "100ms", "--auto-connect")

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.ConnectionURI != "tcp:127.0.0.1:5760" || cfg.WindowSeconds != 20 ||
		cfg.UpdateInterval != 100*time.Millisecond || !cfg.AutoConnect {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestLoadConfigUnsetFlagsKeepEnv(t *testing.T) {
	t.Setenv("PIDCAL_CONNECTION_URI", "udp:0.0.0.0:14600")
	cmd := newServeFlagsCmd(t)

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.ConnectionURI != "udp:0.0.0.0:14600" {
		t.Errorf("ConnectionURI = %q, env override lost", cfg.ConnectionURI)
	}
}

func TestLoadConfigRejectsInvalidFlags(t *testing.T) {
	cmd := newServeFlagsCmd(t, "--max-data-length", "0")
	if _, err := loadConfig(cmd); err == nil {
		t.Error("loadConfig() accepted max-data-length 0")
	}
}

func TestReportedTotal(t *testing.T) {
	entries := []link.ParamEntry{{ID: "A", TotalCount: 3}, {ID: "B", TotalCount: 3}}
	if got := reportedTotal(entries); got != 3 {
		t.Errorf("reportedTotal() = %d", got)
	}
	if got := reportedTotal(nil); got != 0 {
		t.Errorf("reportedTotal(nil) = %d", got)
	}
}

func TestTokenCommand(t *testing.T) {
	var out bytes.Buffer
	tokenCmd.SetOut(&out)
	tokenSecret, tokenSubject, tokenScopes, tokenTTL = "s3cret", "alice", []string{auth.ScopeControl}, time.Hour

	if err := tokenCmd.RunE(tokenCmd, nil); err != nil {
		t.Fatalf("token error: %v", err)
	}

	v, _ := auth.NewVerifier("s3cret")
	claims, err := v.VerifyToken(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("VerifyToken() error: %v", err)
	}
	if claims.Subject != "alice" || !claims.Has(auth.ScopeControl) {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(out.String(), "pidcal "+Version) {
		t.Errorf("version output = %q", out.String())
	}
}
