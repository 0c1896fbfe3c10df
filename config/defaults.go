package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultPeerPort is appended to listen and bootnode addresses
	// that carry no port.
	DefaultPeerPort = 30303

	// DefaultListenAddr is where the peer network accepts connections.
	DefaultListenAddr = "127.0.0.1:30303"

	// DefaultMaxPeers bounds inbound plus outbound peer sessions.
	DefaultMaxPeers = 25

	// DefaultDialTimeout is the TCP/SSH connection timeout for a
	// single bootnode dial attempt.
	DefaultDialTimeout = 10 * time.Second

	// DefaultDialAttempts is how many times a bootnode is dialled
	// before it is given up on.
	DefaultDialAttempts = 5

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultPoolMaxSize caps the number of pending transactions.
	DefaultPoolMaxSize = 4096

	// DefaultPayloadInterval is how often the payload service builds.
	DefaultPayloadInterval = 2 * time.Second

	// DefaultPayloadMaxTxs caps the transactions packed per payload.
	DefaultPayloadMaxTxs = 256

	// DefaultBuildTimeout bounds component assembly at launch.
	DefaultBuildTimeout = 30 * time.Second

	// DefaultGracePeriod is how long Close waits for peer sessions
	// to finish.
	DefaultGracePeriod = 5 * time.Second
)
