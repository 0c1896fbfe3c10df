package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodekit/config"
	nkerr "nodekit/internal/errors"
)

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	err := Execute(context.Background(), []string{"--version"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_Help verifies --help and -h return without error.
func TestExecute_Help(t *testing.T) {
	for _, arg := range []string{"--help", "-h"} {
		t.Run(arg, func(t *testing.T) {
			if err := Execute(context.Background(), []string{arg}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	err := Execute(context.Background(), []string{
		"-l", "127.0.0.1:4000", "-b", "10.0.0.2", "--dry-run",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"pool size", []string{"--pool-size", "0"}, "pool-size"},
		{"max txs over pool", []string{"--pool-size", "8", "--payload-max-txs", "9"}, "payload-max-txs"},
		{"password and agent", []string{"--ssh-password", "--ssh-agent"}, "ssh-password"},
		{"bad listen port", []string{"-l", "127.0.0.1:99999"}, "listen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Execute(context.Background(), append(tt.args, "--dry-run"))
			var ce *nkerr.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	err := Execute(context.Background(), []string{"--nonexistent-flag"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestExecute_StrayArgument(t *testing.T) {
	err := Execute(context.Background(), []string{"--dry-run", "extra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"extra"`)
}

func TestParseArgs_Defaults(t *testing.T) {
	inv, err := parseArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), inv.cfg)
	assert.False(t, inv.dryRun)
}

func TestParseArgs_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
pool {
  max_size = 100
}
payload {
  max_transactions = 10
  interval         = "5s"
}
network {
  max_peers = 3
}
`), 0o600))

	// env beats the file, flags beat env
	t.Setenv("NODEKIT_POOL_SIZE", "200")
	t.Setenv("NODEKIT_PAYLOAD_MAX_TXS", "20")

	inv, err := parseArgs([]string{"-c", path, "--payload-max-txs", "30"})
	require.NoError(t, err)

	cfg := inv.cfg
	assert.Equal(t, 3, cfg.MaxPeers, "file only")
	assert.Equal(t, 5*time.Second, cfg.PayloadInterval, "file only")
	assert.Equal(t, 200, cfg.PoolMaxSize, "env over file")
	assert.Equal(t, 30, cfg.PayloadMaxTxs, "flag over env")
	assert.Equal(t, config.DefaultListenAddr, cfg.ListenAddr, "default")
}

func TestParseArgs_UnchangedFlagKeepsEnv(t *testing.T) {
	t.Setenv("NODEKIT_LISTEN", "127.0.0.1:5000")

	inv, err := parseArgs([]string{"--max-peers", "4"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5000", inv.cfg.ListenAddr)
	assert.Equal(t, 4, inv.cfg.MaxPeers)
}

func TestParseArgs_Verbosity(t *testing.T) {
	tests := []struct {
		args []string
		want int
	}{
		{nil, 1},
		{[]string{"-v"}, 2},
		{[]string{"-vv"}, 3},
		{[]string{"-vvvv"}, 3},
		{[]string{"-q"}, 0},
		{[]string{"-vv", "-q"}, 0},
	}
	for _, tt := range tests {
		inv, err := parseArgs(tt.args)
		require.NoError(t, err)
		assert.Equal(t, tt.want, inv.cfg.Verbose, "args %v", tt.args)
	}
}

func TestParseArgs_Bootnodes(t *testing.T) {
	inv, err := parseArgs([]string{"-b", "10.0.0.2:30303", "--bootnode", "10.0.0.3,10.0.0.4"})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.2:30303", "10.0.0.3", "10.0.0.4"}, inv.cfg.Bootnodes)
}

func TestParseArgs_Tunnel(t *testing.T) {
	inv, err := parseArgs([]string{"-T", "ops@bastion:2222"})
	require.NoError(t, err)

	cfg := inv.cfg
	assert.True(t, cfg.TunnelEnabled)
	assert.Equal(t, "ops", cfg.TunnelUser)
	assert.Equal(t, "bastion", cfg.TunnelHost)
	assert.Equal(t, 2222, cfg.TunnelPort)
}

func TestParseArgs_MissingConfigFile(t *testing.T) {
	_, err := parseArgs([]string{"-c", filepath.Join(t.TempDir(), "absent.hcl")})
	require.Error(t, err)
}

// TestExecute_RunsUntilCancelled starts a real node on loopback and
// stops it through the context.
func TestExecute_RunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := Execute(ctx, []string{
		"-q",
		"--listen", "127.0.0.1:0",
		"--payload-interval", "50ms",
		"--payload-empty",
	})
	require.NoError(t, err)
}
