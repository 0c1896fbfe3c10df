package components

import (
	"context"
	"io"
	"sync/atomic"
	"time"
)

// Staged is a fully configured builder ready to run.  It runs at most
// once; later calls return [ErrConsumed].
type Staged[N NodeTypes, P, Net, Pay any] struct {
	pool     PoolBuilder[N, P]
	network  NetworkBuilder[N, P, Net]
	payload  PayloadServiceBuilder[N, P, Pay]
	consumed atomic.Bool
}

// Finish seals b into a single-use [ComponentsBuilder].  It only
// compiles when every slot holds a builder of the matching contract.
func Finish[
	N NodeTypes, P, Net, Pay any,
	PB PoolBuilder[N, P],
	NB NetworkBuilder[N, P, Net],
	YB PayloadServiceBuilder[N, P, Pay],
](b Builder[N, P, Net, Pay, PB, NB, YB]) *Staged[N, P, Net, Pay] {
	return &Staged[N, P, Net, Pay]{
		pool:    b.pool,
		network: b.network,
		payload: b.payload,
	}
}

// Build finishes b and runs it once.
func Build[
	N NodeTypes, P, Net, Pay any,
	PB PoolBuilder[N, P],
	NB NetworkBuilder[N, P, Net],
	YB PayloadServiceBuilder[N, P, Pay],
](ctx context.Context, b Builder[N, P, Net, Pay, PB, NB, YB], bc *BuilderContext[N]) (Components[P, Net, Pay], error) {
	return Finish(b).BuildComponents(ctx, bc)
}

// BuildComponents runs the pool, network and payload stages in that
// order.  The first failure stops assembly and is returned as an
// *AssemblyError; components built before it are closed if they
// implement io.Closer and are never returned.
func (s *Staged[N, P, Net, Pay]) BuildComponents(ctx context.Context, bc *BuilderContext[N]) (Components[P, Net, Pay], error) {
	var none Components[P, Net, Pay]
	if !s.consumed.CompareAndSwap(false, true) {
		return none, ErrConsumed
	}

	log := bc.logger().Named("components")
	start := time.Now()

	pool, err := runStage(ctx, bc, StagePool, func() (P, error) {
		return s.pool.BuildPool(ctx, bc)
	})
	if err != nil {
		return none, err
	}

	network, err := runStage(ctx, bc, StageNetwork, func() (Net, error) {
		return s.network.BuildNetwork(ctx, bc, pool)
	})
	if err != nil {
		release(bc, pool)
		return none, err
	}

	payload, err := runStage(ctx, bc, StagePayload, func() (Pay, error) {
		return s.payload.SpawnPayloadService(ctx, bc, pool)
	})
	if err != nil {
		release(bc, network, pool)
		return none, err
	}

	log.Verbose("components ready in %v", time.Since(start))
	return Components[P, Net, Pay]{Pool: pool, Network: network, Payload: payload}, nil
}

// runStage checks ctx, runs build and records the outcome.
func runStage[N NodeTypes, T any](ctx context.Context, bc *BuilderContext[N], stage Stage, build func() (T, error)) (T, error) {
	var zero T
	log := bc.logger().Named("components")

	if err := ctx.Err(); err != nil {
		log.Warn("%s stage not started: %v", stage, err)
		return zero, &AssemblyError{Stage: stage, Err: err}
	}

	log.Debug("building %s", stage)
	started := time.Now()
	v, err := build()
	if err != nil {
		err = &AssemblyError{Stage: stage, Err: err}
		bc.metrics().RecordError(err.Error())
		log.Error("%v", err)
		return zero, err
	}

	elapsed := time.Since(started)
	bc.metrics().StageBuilt(stage.String(), elapsed)
	log.Debug("built %s in %v", stage, elapsed)
	return v, nil
}

// release closes earlier components after a later stage failed, newest
// first.  Close errors are logged only.
func release[N NodeTypes](bc *BuilderContext[N], built ...any) {
	log := bc.logger().Named("components")
	for _, c := range built {
		closer, ok := c.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			log.Warn("releasing %T: %v", c, err)
		}
	}
}
