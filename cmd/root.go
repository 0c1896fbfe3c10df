// Package cmd wires up the CLI flags and launches a node.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"nodekit/config"
	"nodekit/node"
	"nodekit/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X nodekit/cmd.version=2.0.0"
var version = "0.1.0" //nolint:gochecknoglobals

// invocation is the outcome of parsing the command line.
type invocation struct {
	cfg         *config.Config
	fs          *flag.FlagSet
	dryRun      bool
	showVersion bool
	showHelp    bool
}

// Execute parses args and runs a node until ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	inv, err := parseArgs(args)
	if err != nil {
		return err
	}

	if inv.showHelp {
		printUsage(os.Stderr, inv.fs)
		return nil
	}
	if inv.showVersion {
		fmt.Printf("nodekit %s\n", version)
		return nil
	}

	cfg := inv.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	if inv.dryRun {
		printConfig(os.Stdout, cfg)
		return nil
	}

	logger := util.NewLogger(cfg.Verbose)
	n, err := node.LaunchFull(ctx, cfg, logger, node.DefaultComponents())
	if err != nil {
		return err
	}
	logger.Info("node %s listening on %s", n.ID, n.Components.Network.Addr())

	payloads, unsubscribe := n.Components.Payload.Subscribe(16)
	defer unsubscribe()
	go func() {
		for p := range payloads {
			logger.Info("payload #%d: %d transactions", p.Number, len(p.Transactions))
		}
	}()

	return n.Wait(ctx)
}

// parseArgs builds the effective config.  Precedence, highest first:
// flags, NODEKIT_* environment, --config file, defaults.
func parseArgs(args []string) (*invocation, error) {
	flags := config.Default()
	inv := &invocation{fs: flag.NewFlagSet("nodekit", flag.ContinueOnError)}
	fs := inv.fs

	var configPath string
	fs.StringVarP(&configPath, "config", "c", "", "HCL config file")

	// ── network ──────────────────────────────────────────────────
	fs.StringVarP(&flags.ListenAddr, "listen", "l", flags.ListenAddr, "Peer listen address")
	fs.StringSliceVarP(&flags.Bootnodes, "bootnode", "b", nil, "Bootnode host:port (repeatable)")
	fs.IntVar(&flags.MaxPeers, "max-peers", flags.MaxPeers, "Maximum connected peers")
	fs.DurationVar(&flags.DialTimeout, "dial-timeout", flags.DialTimeout, "Per-attempt dial timeout")
	fs.IntVar(&flags.DialAttempts, "dial-attempts", flags.DialAttempts, "Bootnode dial attempts")

	// ── SSH gateway ──────────────────────────────────────────────
	fs.StringVarP(&flags.TunnelSpec, "tunnel", "T", "", "Reach peers via SSH gateway [user@]host[:port]")
	fs.StringVar(&flags.SSHKeyPath, "ssh-key", "", "SSH private key file")
	fs.BoolVar(&flags.SSHPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&flags.UseSSHAgent, "ssh-agent", false, "Use SSH agent")
	fs.BoolVar(&flags.StrictHostKey, "strict-hostkey", false, "Verify SSH host keys")
	fs.StringVar(&flags.KnownHostsPath, "known-hosts", "", "Custom known_hosts path")

	// ── pool / payload ───────────────────────────────────────────
	fs.IntVar(&flags.PoolMaxSize, "pool-size", flags.PoolMaxSize, "Maximum pending transactions")
	fs.DurationVar(&flags.PayloadInterval, "payload-interval", flags.PayloadInterval, "Time between payloads")
	fs.IntVar(&flags.PayloadMaxTxs, "payload-max-txs", flags.PayloadMaxTxs, "Transactions per payload")
	fs.BoolVar(&flags.PayloadAllowEmpty, "payload-empty", false, "Build payloads with no transactions")
	fs.DurationVar(&flags.BuildTimeout, "build-timeout", flags.BuildTimeout, "Component assembly timeout (0 = none)")

	// ── output ───────────────────────────────────────────────────
	var verbose int
	var quiet bool
	fs.CountVarP(&verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVarP(&quiet, "quiet", "q", false, "Only print errors")

	fs.BoolVar(&inv.dryRun, "dry-run", false, "Validate configuration and exit")
	fs.BoolVar(&inv.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&inv.showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(os.Stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	cfg := config.Default()
	if configPath != "" {
		if err := config.LoadFile(configPath, cfg); err != nil {
			return nil, err
		}
	}
	config.LoadFromEnv(cfg)

	// Only flags given on the command line override file and env.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.ListenAddr = flags.ListenAddr
		case "bootnode":
			cfg.Bootnodes = flags.Bootnodes
		case "max-peers":
			cfg.MaxPeers = flags.MaxPeers
		case "dial-timeout":
			cfg.DialTimeout = flags.DialTimeout
		case "dial-attempts":
			cfg.DialAttempts = flags.DialAttempts
		case "tunnel":
			cfg.TunnelSpec = flags.TunnelSpec
		case "ssh-key":
			cfg.SSHKeyPath = flags.SSHKeyPath
		case "ssh-password":
			cfg.SSHPassword = flags.SSHPassword
		case "ssh-agent":
			cfg.UseSSHAgent = flags.UseSSHAgent
		case "strict-hostkey":
			cfg.StrictHostKey = flags.StrictHostKey
		case "known-hosts":
			cfg.KnownHostsPath = flags.KnownHostsPath
		case "pool-size":
			cfg.PoolMaxSize = flags.PoolMaxSize
		case "payload-interval":
			cfg.PayloadInterval = flags.PayloadInterval
		case "payload-max-txs":
			cfg.PayloadMaxTxs = flags.PayloadMaxTxs
		case "payload-empty":
			cfg.PayloadAllowEmpty = flags.PayloadAllowEmpty
		case "build-timeout":
			cfg.BuildTimeout = flags.BuildTimeout
		case "verbose":
			cfg.Verbose = min(1+verbose, 3)
		}
	})
	if quiet {
		cfg.Verbose = 0
	}

	if err := cfg.ResolveTunnel(); err != nil {
		return nil, err
	}

	inv.cfg = cfg
	return inv, nil
}

// ── helpers ──────────────────────────────────────────────────────────

func printConfig(w io.Writer, cfg *config.Config) {
	tunnel := "off"
	if cfg.TunnelEnabled {
		tunnel = fmt.Sprintf("%s@%s:%d", cfg.TunnelUser, cfg.TunnelHost, cfg.TunnelPort)
	}
	bootnodes := "none"
	if len(cfg.Bootnodes) > 0 {
		bootnodes = strings.Join(cfg.Bootnodes, ", ")
	}
	fmt.Fprintf(w, `configuration OK
  listen            %s
  bootnodes         %s
  max peers         %d
  ssh gateway       %s
  pool size         %d
  payload interval  %v (max %d txs, empty=%t)
  build timeout     %v
`, cfg.ListenAddr, bootnodes, cfg.MaxPeers, tunnel, cfg.PoolMaxSize,
		cfg.PayloadInterval, cfg.PayloadMaxTxs, cfg.PayloadAllowEmpty, cfg.BuildTimeout)
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `nodekit v%s

A small node runtime: transaction pool, peer gossip and payload
building, assembled in dependency order.

Usage:
  nodekit [options]

Options:
`, version)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Environment:
  Every option can also be set as NODEKIT_<NAME>, e.g. NODEKIT_POOL_SIZE.

Examples:
  nodekit -l 0.0.0.0:30303                         Start a node
  nodekit -b 10.0.0.2:30303 -b 10.0.0.3:30303      Join via bootnodes
  nodekit -T ops@bastion -b 10.1.0.5:30303         Reach peers via SSH
  nodekit -c node.hcl --dry-run                    Check a config file
`)
}
