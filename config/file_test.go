package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_HCL(t *testing.T) {
	t.Setenv("NODEKIT_TEST_KEYDIR", "/keys")
	path := writeFile(t, "node.hcl", `
verbose       = 2
build_timeout = "45s"

network {
  listen       = "0.0.0.0:4000"
  bootnodes    = ["10.0.0.2:30303", "10.0.0.3"]
  max_peers    = 10
  dial_timeout = "3s"
}

ssh {
  tunnel          = "ops@bastion:2222"
  key             = "${env.NODEKIT_TEST_KEYDIR}/id_ed25519"
  strict_host_key = true
}

pool {
  max_size = 512
}

payload {
  interval         = "500ms"
  max_transactions = 64
  allow_empty      = true
}
`)

	cfg := Default()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	want := Default()
	want.Verbose = 2
	want.BuildTimeout = 45 * time.Second
	want.ListenAddr = "0.0.0.0:4000"
	want.Bootnodes = []string{"10.0.0.2:30303", "10.0.0.3"}
	want.MaxPeers = 10
	want.DialTimeout = 3 * time.Second
	want.TunnelSpec = "ops@bastion:2222"
	want.SSHKeyPath = "/keys/id_ed25519"
	want.StrictHostKey = true
	want.PoolMaxSize = 512
	want.PayloadInterval = 500 * time.Millisecond
	want.PayloadMaxTxs = 64
	want.PayloadAllowEmpty = true

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, "node.hcl", `
pool {
  max_size = 100
}
`)
	cfg := Default()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	want := Default()
	want.PoolMaxSize = 100
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "node.json", `{
  "verbose": 3,
  "payload": {"interval": "250ms"}
}`)
	cfg := Default()
	if err := LoadFile(path, cfg); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Verbose != 3 || cfg.PayloadInterval != 250*time.Millisecond {
		t.Errorf("got verbose=%d interval=%v", cfg.Verbose, cfg.PayloadInterval)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantSub string
	}{
		{"syntax", `network {`, "config file"},
		{"unknown attribute", `colour = "blue"`, "config file"},
		{"wrong type", `verbose = "loud"`, "config file"},
		{"bad duration", `payload { interval = "soon" }`, "payload.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "node.hcl", tt.body)
			err := LoadFile(path, Default())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if err := LoadFile(filepath.Join(t.TempDir(), "absent.hcl"), Default()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
