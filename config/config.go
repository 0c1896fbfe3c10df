// Package config defines the runtime configuration for a node and
// provides helpers for parsing tunnel specifications and addresses.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	nkerr "nodekit/internal/errors"
	"nodekit/util"
)

// Config holds every tuneable for a single node.
type Config struct {
	// ── Network ──────────────────────────────────────────────────────
	ListenAddr   string
	Bootnodes    []string
	MaxPeers     int
	DialTimeout  time.Duration
	DialAttempts int

	// ── SSH gateway ──────────────────────────────────────────────────
	TunnelSpec     string // raw [user@]host[:port]
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Pool ─────────────────────────────────────────────────────────
	PoolMaxSize int

	// ── Payload ──────────────────────────────────────────────────────
	PayloadInterval   time.Duration
	PayloadMaxTxs     int
	PayloadAllowEmpty bool

	// ── Assembly ─────────────────────────────────────────────────────
	BuildTimeout time.Duration // 0 = no limit

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		ListenAddr:      DefaultListenAddr,
		MaxPeers:        DefaultMaxPeers,
		DialTimeout:     DefaultDialTimeout,
		DialAttempts:    DefaultDialAttempts,
		PoolMaxSize:     DefaultPoolMaxSize,
		PayloadInterval: DefaultPayloadInterval,
		PayloadMaxTxs:   DefaultPayloadMaxTxs,
		BuildTimeout:    DefaultBuildTimeout,
		Verbose:         1,
	}
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ResolveTunnel parses TunnelSpec into the Tunnel* fields.  An empty
// spec disables the gateway.
func (c *Config) ResolveTunnel() error {
	if c.TunnelSpec == "" {
		c.TunnelEnabled = false
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return nkerr.Invalid("tunnel", c.TunnelSpec, err.Error(),
			"use --tunnel admin@bastion.example.com:2222")
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Listen and bootnode addresses are normalised in place.
func (c *Config) Validate() error {
	addr, err := util.NormalizeAddr(c.ListenAddr, DefaultPeerPort)
	if err != nil {
		return nkerr.Invalid("listen", c.ListenAddr, err.Error(),
			"use host:port, e.g. --listen 0.0.0.0:30303")
	}
	c.ListenAddr = addr

	for i, b := range c.Bootnodes {
		addr, err := util.NormalizeAddr(b, DefaultPeerPort)
		if err != nil {
			return nkerr.Invalid("bootnode", b, err.Error(), "")
		}
		c.Bootnodes[i] = addr
	}

	if c.MaxPeers < 1 {
		return nkerr.Invalid("max-peers", c.MaxPeers, "must be at least 1", "")
	}
	if c.DialTimeout < 0 {
		return nkerr.Invalid("dial-timeout", c.DialTimeout, "must not be negative", "")
	}
	if c.DialAttempts < 1 {
		return nkerr.Invalid("dial-attempts", c.DialAttempts, "must be at least 1", "")
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return nkerr.Invalid("tunnel", c.TunnelSpec, "tunnel host is required",
			"use --tunnel [user@]host[:port]")
	}
	if c.SSHPassword && c.UseSSHAgent {
		return nkerr.Invalid("ssh-password", nil,
			"--ssh-password and --ssh-agent are mutually exclusive", "")
	}

	if c.PoolMaxSize < 1 {
		return nkerr.Invalid("pool-size", c.PoolMaxSize, "must be at least 1", "")
	}
	if c.PayloadInterval <= 0 {
		return nkerr.Invalid("payload-interval", c.PayloadInterval, "must be positive",
			"use a duration such as --payload-interval 2s")
	}
	if c.PayloadMaxTxs < 1 {
		return nkerr.Invalid("payload-max-txs", c.PayloadMaxTxs, "must be at least 1", "")
	}
	if c.PayloadMaxTxs > c.PoolMaxSize {
		return nkerr.Invalid("payload-max-txs", c.PayloadMaxTxs,
			fmt.Sprintf("exceeds pool size %d", c.PoolMaxSize),
			"raise --pool-size or lower --payload-max-txs")
	}
	if c.BuildTimeout < 0 {
		return nkerr.Invalid("build-timeout", c.BuildTimeout, "must not be negative",
			"use 0 to disable the limit")
	}

	if c.Verbose < 0 || c.Verbose > 3 {
		return nkerr.Invalid("verbose", c.Verbose, "must be between 0 and 3", "")
	}
	return nil
}
