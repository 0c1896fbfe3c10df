package components

import "context"

// PoolBuilder constructs the transaction pool.  The returned P is
// handed to both the network and payload stages, so it should be a
// reference type (pointer or interface).
type PoolBuilder[N NodeTypes, P any] interface {
	BuildPool(ctx context.Context, bc *BuilderContext[N]) (P, error)
}

// NetworkBuilder constructs the peer network on top of a running pool.
type NetworkBuilder[N NodeTypes, P, Net any] interface {
	BuildNetwork(ctx context.Context, bc *BuilderContext[N], pool P) (Net, error)
}

// PayloadServiceBuilder starts the payload service on top of a running
// pool and returns a handle to it.
type PayloadServiceBuilder[N NodeTypes, P, Pay any] interface {
	SpawnPayloadService(ctx context.Context, bc *BuilderContext[N], pool P) (Pay, error)
}

// ComponentsBuilder assembles all three components in one call.
type ComponentsBuilder[N NodeTypes, P, Net, Pay any] interface {
	BuildComponents(ctx context.Context, bc *BuilderContext[N]) (Components[P, Net, Pay], error)
}

// Components bundles one pool, one network and one payload service
// handle.  It is only ever returned fully populated.
type Components[P, Net, Pay any] struct {
	Pool    P
	Network Net
	Payload Pay
}

// ── func adapters ────────────────────────────────────────────────────

// PoolBuilderFunc adapts a function to [PoolBuilder].
type PoolBuilderFunc[N NodeTypes, P any] func(ctx context.Context, bc *BuilderContext[N]) (P, error)

// BuildPool calls f.
func (f PoolBuilderFunc[N, P]) BuildPool(ctx context.Context, bc *BuilderContext[N]) (P, error) {
	return f(ctx, bc)
}

// NetworkBuilderFunc adapts a function to [NetworkBuilder].
type NetworkBuilderFunc[N NodeTypes, P, Net any] func(ctx context.Context, bc *BuilderContext[N], pool P) (Net, error)

// BuildNetwork calls f.
func (f NetworkBuilderFunc[N, P, Net]) BuildNetwork(ctx context.Context, bc *BuilderContext[N], pool P) (Net, error) {
	return f(ctx, bc, pool)
}

// PayloadServiceBuilderFunc adapts a function to [PayloadServiceBuilder].
type PayloadServiceBuilderFunc[N NodeTypes, P, Pay any] func(ctx context.Context, bc *BuilderContext[N], pool P) (Pay, error)

// SpawnPayloadService calls f.
func (f PayloadServiceBuilderFunc[N, P, Pay]) SpawnPayloadService(ctx context.Context, bc *BuilderContext[N], pool P) (Pay, error) {
	return f(ctx, bc, pool)
}

// ComponentsBuilderFunc adapts a hand-written assembly function to
// [ComponentsBuilder].  No staging or ordering checks are applied.
type ComponentsBuilderFunc[N NodeTypes, P, Net, Pay any] func(ctx context.Context, bc *BuilderContext[N]) (Components[P, Net, Pay], error)

// BuildComponents calls f.
func (f ComponentsBuilderFunc[N, P, Net, Pay]) BuildComponents(ctx context.Context, bc *BuilderContext[N]) (Components[P, Net, Pay], error) {
	return f(ctx, bc)
}
