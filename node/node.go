// Package node launches a node from a components builder and owns the
// running components until shutdown.
package node

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"nodekit/components"
	"nodekit/config"
	nkerr "nodekit/internal/errors"
	"nodekit/internal/metrics"
	"nodekit/network"
	"nodekit/payload"
	"nodekit/txpool"
	"nodekit/util"
)

// Full is the marker for a full node.
type Full struct{}

// NodeKind implements components.NodeTypes.
func (Full) NodeKind() string { return "full" }

// DefaultBuilder is the staged builder type DefaultComponents returns.
type DefaultBuilder = components.Builder[
	Full,
	*txpool.Pool, *network.Handle, *payload.Handle,
	txpool.Builder[Full], network.Builder[Full], payload.Builder[Full],
]

// FullNode is a node assembled from the default component types.
type FullNode = Node[Full, *txpool.Pool, *network.Handle, *payload.Handle]

// DefaultComponents returns a builder wired with the default pool,
// network and payload builders.  Customise it with the components
// Map* and With* functions before launching.
func DefaultComponents() DefaultBuilder {
	b := components.WithNodeTypes[Full](components.New())
	b1 := components.WithPool[*txpool.Pool](b, txpool.Builder[Full]{})
	b2 := components.WithNetwork[*network.Handle](b1, network.Builder[Full]{})
	return components.WithPayload[*payload.Handle](b2, payload.Builder[Full]{})
}

// Node is a running set of components.
type Node[N components.NodeTypes, P, Net, Pay any] struct {
	ID         uuid.UUID
	Config     *config.Config
	Metrics    *metrics.Collector
	Components components.Components[P, Net, Pay]

	logger *util.Logger

	once        sync.Once
	shutdownErr error
}

// Launch assembles cb under cfg.BuildTimeout and returns the running
// node.  The components themselves keep running after Launch returns.
func Launch[N components.NodeTypes, P, Net, Pay any](
	ctx context.Context, cfg *config.Config, logger *util.Logger,
	cb components.ComponentsBuilder[N, P, Net, Pay],
) (*Node[N, P, Net, Pay], error) {
	if cfg == nil {
		cfg = config.Default()
	}
	bc := components.NewBuilderContext[N](cfg, logger, metrics.New())
	logger.Info("launching %s node %s", bc.NodeKind(), bc.ID)

	buildCtx := ctx
	if cfg.BuildTimeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, cfg.BuildTimeout)
		defer cancel()
	}

	c, err := cb.BuildComponents(buildCtx, bc)
	if err != nil {
		return nil, fmt.Errorf("launch: %w", err)
	}

	return &Node[N, P, Net, Pay]{
		ID:         bc.ID,
		Config:     cfg,
		Metrics:    bc.Metrics,
		Components: c,
		logger:     logger,
	}, nil
}

// LaunchFull launches b, typically DefaultComponents customised by the
// caller.
func LaunchFull(ctx context.Context, cfg *config.Config, logger *util.Logger, b DefaultBuilder) (*FullNode, error) {
	return Launch[Full, *txpool.Pool, *network.Handle, *payload.Handle](ctx, cfg, logger, components.Finish(b))
}

// Kind reports the node variant.
func (n *Node[N, P, Net, Pay]) Kind() string {
	var kind N
	return kind.NodeKind()
}

// Wait blocks until ctx is done, then shuts the node down.
func (n *Node[N, P, Net, Pay]) Wait(ctx context.Context) error {
	<-ctx.Done()
	return n.Shutdown()
}

// Shutdown closes the payload service, the network and the pool, in
// that order, and returns every close error joined.  Shutdown is
// idempotent.
func (n *Node[N, P, Net, Pay]) Shutdown() error {
	n.once.Do(func() {
		n.logger.Info("shutting down node %s", n.ID)

		var errs []error
		for _, c := range []struct {
			name string
			v    any
		}{
			{"payload", n.Components.Payload},
			{"network", n.Components.Network},
			{"pool", n.Components.Pool},
		} {
			closer, ok := c.v.(io.Closer)
			if !ok {
				continue
			}
			if err := closer.Close(); err != nil {
				n.logger.Warn("closing %s: %v", c.name, err)
				errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
			}
		}
		n.shutdownErr = nkerr.Join(errs...)
		n.logger.Verbose("metrics at shutdown:\n%s", n.Metrics.JSON())
	})
	return n.shutdownErr
}

// Submit admits tx to the local pool and gossips it to every peer.
func Submit[N components.NodeTypes, Pay any](n *Node[N, *txpool.Pool, *network.Handle, Pay], tx *txpool.Transaction) error {
	if err := n.Components.Pool.Add(tx); err != nil {
		return err
	}
	peers := n.Components.Network.Broadcast(tx)
	n.logger.Debug("submitted %s to %d peers", tx.ID, peers)
	return nil
}
