package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the NODEKIT_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Durations accept Go
// syntax ("1500ms", "2s") or a plain number of seconds.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flags are applied so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	// Network
	if v := os.Getenv("NODEKIT_LISTEN"); v != "" {
		cfg.ListenAddr = v
	}
	if v := envList("NODEKIT_BOOTNODES"); len(v) > 0 {
		cfg.Bootnodes = v
	}
	if v := envInt("NODEKIT_MAX_PEERS"); v > 0 {
		cfg.MaxPeers = v
	}
	if v := envDuration("NODEKIT_DIAL_TIMEOUT"); v > 0 {
		cfg.DialTimeout = v
	}
	if v := envInt("NODEKIT_DIAL_ATTEMPTS"); v > 0 {
		cfg.DialAttempts = v
	}

	// SSH gateway
	if v := os.Getenv("NODEKIT_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("NODEKIT_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("NODEKIT_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("NODEKIT_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("NODEKIT_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("NODEKIT_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Pool
	if v := envInt("NODEKIT_POOL_SIZE"); v > 0 {
		cfg.PoolMaxSize = v
	}

	// Payload
	if v := envDuration("NODEKIT_PAYLOAD_INTERVAL"); v > 0 {
		cfg.PayloadInterval = v
	}
	if v := envInt("NODEKIT_PAYLOAD_MAX_TXS"); v > 0 {
		cfg.PayloadMaxTxs = v
	}
	if envBool("NODEKIT_PAYLOAD_EMPTY") {
		cfg.PayloadAllowEmpty = true
	}

	// Assembly
	if v := envDuration("NODEKIT_BUILD_TIMEOUT"); v > 0 {
		cfg.BuildTimeout = v
	}

	// Output
	if v, ok := os.LookupEnv("NODEKIT_VERBOSE"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Verbose = n
		}
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return secondsDuration(n)
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

// envList splits a comma-separated value, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
