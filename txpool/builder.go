package txpool

import (
	"context"

	"nodekit/components"
	"nodekit/config"
)

// Builder constructs a Pool for node variant N.
type Builder[N components.NodeTypes] struct {
	// MaxSize overrides Config.PoolMaxSize when positive.
	MaxSize int
}

// BuildPool implements components.PoolBuilder.
func (b Builder[N]) BuildPool(ctx context.Context, bc *components.BuilderContext[N]) (*Pool, error) {
	size := b.MaxSize
	if size <= 0 && bc.Config != nil {
		size = bc.Config.PoolMaxSize
	}
	if size <= 0 {
		size = config.DefaultPoolMaxSize
	}

	pool := New(size, bc.Logger.Named("txpool"), bc.Metrics)
	bc.Logger.Named("txpool").Verbose("ready, capacity %d", size)
	return pool, nil
}
