package payload

import (
	"context"
	"time"

	"nodekit/components"
	"nodekit/config"
	"nodekit/txpool"
)

// Builder starts the payload service for node variant N.  Zero fields
// fall back to the node configuration.
type Builder[N components.NodeTypes] struct {
	Interval        time.Duration
	MaxTransactions int
	AllowEmpty      bool
}

// SpawnPayloadService implements components.PayloadServiceBuilder.
// The service outlives ctx; it stops on Handle.Close.
func (b Builder[N]) SpawnPayloadService(ctx context.Context, bc *components.BuilderContext[N], pool *txpool.Pool) (*Handle, error) {
	cfg := bc.Config
	if cfg == nil {
		cfg = config.Default()
	}

	opts := Options{
		Interval:        b.Interval,
		MaxTransactions: b.MaxTransactions,
		AllowEmpty:      b.AllowEmpty || cfg.PayloadAllowEmpty,
		Logger:          bc.Logger.Named("payload"),
		Metrics:         bc.Metrics,
	}
	if opts.Interval == 0 {
		opts.Interval = cfg.PayloadInterval
	}
	if opts.MaxTransactions == 0 {
		opts.MaxTransactions = cfg.PayloadMaxTxs
	}

	return Start(context.WithoutCancel(ctx), pool, opts)
}
