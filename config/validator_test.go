package config

import (
	"errors"
	"strings"
	"testing"

	nkerr "nodekit/internal/errors"
)

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages with hints.
func TestValidate_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string // substring expected in error
	}{
		{
			name:    "interval has hint",
			mutate:  func(c *Config) { c.PayloadInterval = 0 },
			wantSub: "hint:",
		},
		{
			name:    "bad listen has hint",
			mutate:  func(c *Config) { c.ListenAddr = "[::1" },
			wantSub: "hint:",
		},
		{
			name:    "agent conflict",
			mutate:  func(c *Config) { c.SSHPassword = true; c.UseSSHAgent = true },
			wantSub: "mutually exclusive",
		},
		{
			name:    "names the flag",
			mutate:  func(c *Config) { c.MaxPeers = -2 },
			wantSub: "--max-peers=-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

// TestValidate_ReturnsConfigError verifies callers can inspect the
// failing field.
func TestValidate_ReturnsConfigError(t *testing.T) {
	cfg := Default()
	cfg.PoolMaxSize = 0

	var ce *nkerr.ConfigError
	if !errors.As(cfg.Validate(), &ce) {
		t.Fatal("expected *ConfigError")
	}
	if ce.Field != "pool-size" {
		t.Errorf("Field = %q, want pool-size", ce.Field)
	}
}
