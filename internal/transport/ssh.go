package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	nkerr "nodekit/internal/errors"
	"nodekit/util"
)

// SSHConfig holds everything needed to dial an SSH gateway.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration

	// Auth overrides the methods derived from the fields above.
	Auth []ssh.AuthMethod
}

// SSHDialer routes peer connections through an SSH gateway.  The
// gateway is connected lazily on the first Dial and reconnected on the
// next Dial after it drops.
type SSHDialer struct {
	config *SSHConfig
	logger *util.Logger

	mu     sync.Mutex
	client *ssh.Client
	alive  bool
}

// NewSSHDialer creates a dialer that forwards connections through an
// SSH gateway.  Nothing is dialled until the first Dial.
func NewSSHDialer(cfg *SSHConfig, logger *util.Logger) *SSHDialer {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &SSHDialer{config: cfg, logger: logger}
}

// Dial connects to address through the gateway, establishing the SSH
// session first if needed.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	client, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("dialing %s %s through gateway", network, address)
	conn, err := client.Dial(network, address)
	if err != nil {
		ne := nkerr.Wrap("tunnel dial", address, err)
		// The gateway could not reach the target; it may come up later.
		var oce *ssh.OpenChannelError
		if errors.As(err, &oce) && oce.Reason == ssh.ConnectionFailed {
			ne.Retryable = true
		}
		return nil, ne
	}
	return conn, nil
}

// Close tears down the SSH session.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.alive = false
	if d.client != nil {
		err := d.client.Close()
		d.client = nil
		return err
	}
	return nil
}

// IsAlive reports whether the gateway session is up.
func (d *SSHDialer) IsAlive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alive
}

func (d *SSHDialer) connect(ctx context.Context) (*ssh.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.alive && d.client != nil {
		return d.client, nil
	}

	cfg := d.config
	auth := cfg.Auth
	if len(auth) == 0 {
		var err error
		if auth, err = BuildAuthMethods(cfg); err != nil {
			return nil, nkerr.WrapSSH("auth", cfg.Host, cfg.Port, err)
		}
	}

	hkCallback, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, nkerr.WrapSSH("hostkey", cfg.Host, cfg.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hkCallback,
		Timeout:         cfg.ConnTimeout,
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	d.logger.Verbose("establishing SSH gateway to %s@%s", cfg.User, addr)

	// Context-aware TCP dial so callers can cancel.
	dialer := net.Dialer{Timeout: cfg.ConnTimeout}
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nkerr.Wrap("dial", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return nil, classifyHandshake(cfg, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)
	d.client = client
	d.alive = true
	go d.monitor(client)

	d.logger.Verbose("SSH gateway established")
	return client, nil
}

// monitor blocks until the SSH connection closes and flips the alive
// flag so the next Dial reconnects.
func (d *SSHDialer) monitor(client *ssh.Client) {
	err := client.Wait()

	d.mu.Lock()
	if d.client == client {
		d.alive = false
		d.client = nil
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Debug("SSH gateway closed: %v", err)
	} else {
		d.logger.Debug("SSH gateway closed")
	}
}

// classifyHandshake attaches the auth or host-key sentinel to a failed
// handshake so callers can stop retrying.
func classifyHandshake(cfg *SSHConfig, err error) error {
	var keyErr *knownhosts.KeyError
	switch {
	case errors.As(err, &keyErr), strings.Contains(err.Error(), "knownhosts: key"):
		err = fmt.Errorf("%w: %v", nkerr.ErrHostKeyMismatch, err)
	case strings.Contains(err.Error(), "unable to authenticate"):
		err = fmt.Errorf("%w: %v", nkerr.ErrAuthFailed, err)
	}
	return nkerr.WrapSSH("handshake", cfg.Host, cfg.Port, err)
}
