// Package transport provides abstractions for outbound peer connection
// establishment.  Transports handle how a peer is reached, over plain
// TCP or through an SSH gateway, independent of the peer protocol
// spoken over the connection.
package transport

import (
	"context"
	"net"

	"nodekit/config"
	"nodekit/util"
)

// Dialer opens outbound network connections.  Implementations include
// a plain TCP dialer and an SSH-tunnelled dialer that routes traffic
// through an encrypted gateway.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

// ForConfig returns the dialer a node should use to reach its peers:
// an SSHDialer when a gateway is configured, a TCPDialer otherwise.
func ForConfig(cfg *config.Config, logger *util.Logger) Dialer {
	if !cfg.TunnelEnabled {
		return &TCPDialer{Timeout: cfg.DialTimeout}
	}
	return NewSSHDialer(&SSHConfig{
		User:          cfg.TunnelUser,
		Host:          cfg.TunnelHost,
		Port:          cfg.TunnelPort,
		KeyPath:       cfg.SSHKeyPath,
		PromptPass:    cfg.SSHPassword,
		UseAgent:      cfg.UseSSHAgent,
		StrictHostKey: cfg.StrictHostKey,
		KnownHosts:    cfg.KnownHostsPath,
		ConnTimeout:   cfg.DialTimeout,
	}, logger.Named("ssh"))
}
