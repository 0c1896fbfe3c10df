package network

import (
	"context"

	"nodekit/components"
	"nodekit/config"
	"nodekit/internal/transport"
	"nodekit/txpool"
)

// Builder starts the peer network for node variant N.  Zero fields
// fall back to the node configuration.
type Builder[N components.NodeTypes] struct {
	ListenAddr string
	Bootnodes  []string
	MaxPeers   int

	// Dialer overrides the TCP or SSH dialer chosen from the config.
	// The network closes it on shutdown.
	Dialer transport.Dialer
}

// BuildNetwork implements components.NetworkBuilder.  The network
// outlives ctx; it stops on Handle.Close.
func (b Builder[N]) BuildNetwork(ctx context.Context, bc *components.BuilderContext[N], pool *txpool.Pool) (*Handle, error) {
	cfg := bc.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := bc.Logger.Named("network")

	opts := Options{
		NodeID:       bc.ID.String(),
		Kind:         bc.NodeKind(),
		ListenAddr:   first(b.ListenAddr, cfg.ListenAddr),
		Bootnodes:    b.Bootnodes,
		MaxPeers:     b.MaxPeers,
		Dialer:       b.Dialer,
		DialAttempts: cfg.DialAttempts,
		Logger:       logger,
		Metrics:      bc.Metrics,
	}
	if opts.Bootnodes == nil {
		opts.Bootnodes = cfg.Bootnodes
	}
	if opts.MaxPeers <= 0 {
		opts.MaxPeers = cfg.MaxPeers
	}
	if opts.Dialer == nil {
		opts.Dialer = transport.ForConfig(cfg, logger)
	}

	return Listen(context.WithoutCancel(ctx), pool, opts)
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
