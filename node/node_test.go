package node

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodekit/components"
	"nodekit/config"
	"nodekit/network"
	"nodekit/payload"
	"nodekit/txpool"
)

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.PayloadInterval = time.Hour // build on demand only
	cfg.DialAttempts = 20
	return cfg
}

func launch(t *testing.T, cfg *config.Config, b DefaultBuilder) *FullNode {
	t.Helper()
	n, err := LaunchFull(context.Background(), cfg, nil, b)
	require.NoError(t, err)
	t.Cleanup(func() { n.Shutdown() })
	return n
}

func TestFull_NodeKind(t *testing.T) {
	assert.Equal(t, "full", Full{}.NodeKind())
}

func TestLaunch_DefaultComponents(t *testing.T) {
	n := launch(t, testConfig(), DefaultComponents())

	assert.Equal(t, "full", n.Kind())
	require.NotNil(t, n.Components.Pool)
	require.NotNil(t, n.Components.Network)
	require.NotNil(t, n.Components.Payload)

	tx := &txpool.Transaction{Sender: "alice", GasPrice: 4}
	require.NoError(t, Submit(n, tx))

	p, err := n.Components.Payload.BuildNow()
	require.NoError(t, err)
	require.Len(t, p.Transactions, 1)
	assert.Equal(t, tx.ID, p.Transactions[0].ID)

	for _, stage := range []string{"pool", "network", "payload"} {
		_, ok := n.Metrics.StageDuration(stage)
		assert.True(t, ok, "stage %s not timed", stage)
	}
}

func TestLaunch_TwoNodesGossip(t *testing.T) {
	a := launch(t, testConfig(), DefaultComponents())

	cfgB := testConfig()
	cfgB.Bootnodes = []string{a.Components.Network.Addr()}
	b := launch(t, cfgB, DefaultComponents())

	require.Eventually(t, func() bool {
		return a.Components.Network.PeerCount() == 1 && b.Components.Network.PeerCount() == 1
	}, waitFor, tick)

	tx := &txpool.Transaction{Sender: "bob", GasPrice: 2}
	require.NoError(t, Submit(a, tx))

	require.Eventually(t, func() bool {
		_, ok := b.Components.Pool.Get(tx.ID)
		return ok
	}, waitFor, tick)

	p, err := b.Components.Payload.BuildNow()
	require.NoError(t, err)
	assert.Equal(t, tx.ID, p.Transactions[0].ID)
}

func TestLaunch_CustomisedPreset(t *testing.T) {
	b := components.MapPool(DefaultComponents(), func(pb txpool.Builder[Full]) txpool.Builder[Full] {
		pb.MaxSize = 1
		return pb
	})
	n := launch(t, testConfig(), b)

	require.NoError(t, Submit(n, &txpool.Transaction{Sender: "a", GasPrice: 1}))
	assert.ErrorIs(t, Submit(n, &txpool.Transaction{Sender: "b", GasPrice: 1}), txpool.ErrPoolFull)
}

func TestSubmit_Nil(t *testing.T) {
	n := launch(t, testConfig(), DefaultComponents())

	assert.ErrorIs(t, Submit(n, nil), txpool.ErrInvalid)
	assert.Equal(t, 0, n.Components.Pool.Len())
}

func TestLaunch_NetworkFailureReleasesPool(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	var built *txpool.Pool
	cfg := testConfig()
	cfg.ListenAddr = ln.Addr().String()

	// Capture the pool through a wrapping builder.
	wrapped := components.WithPool[*txpool.Pool](DefaultComponents(), components.PoolBuilderFunc[Full, *txpool.Pool](
		func(ctx context.Context, bc *components.BuilderContext[Full]) (*txpool.Pool, error) {
			p, err := txpool.Builder[Full]{}.BuildPool(ctx, bc)
			built = p
			return p, err
		}))

	_, err = Launch[Full, *txpool.Pool, *network.Handle, *payload.Handle](
		context.Background(), cfg, nil, components.Finish(wrapped))
	require.Error(t, err)

	stage, ok := components.StageOf(err)
	require.True(t, ok)
	assert.Equal(t, components.StageNetwork, stage)

	require.NotNil(t, built)
	assert.ErrorIs(t, built.Add(&txpool.Transaction{Sender: "x", GasPrice: 1}), txpool.ErrClosed)
}

func TestLaunch_BuildTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.BuildTimeout = 20 * time.Millisecond

	slow := components.ComponentsBuilderFunc[Full, int, int, int](
		func(ctx context.Context, _ *components.BuilderContext[Full]) (components.Components[int, int, int], error) {
			<-ctx.Done()
			return components.Components[int, int, int]{}, ctx.Err()
		})

	_, err := Launch[Full, int, int, int](context.Background(), cfg, nil, slow)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// closer records Close calls in order.
type closer struct {
	name  string
	order *[]string
	err   error
}

func (c *closer) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestShutdown_ReverseOrderAndJoin(t *testing.T) {
	var order []string
	poolErr := errors.New("pool stuck")
	payErr := errors.New("payload stuck")

	cb := components.ComponentsBuilderFunc[Full, *closer, *closer, *closer](
		func(context.Context, *components.BuilderContext[Full]) (components.Components[*closer, *closer, *closer], error) {
			return components.Components[*closer, *closer, *closer]{
				Pool:    &closer{name: "pool", order: &order, err: poolErr},
				Network: &closer{name: "network", order: &order},
				Payload: &closer{name: "payload", order: &order, err: payErr},
			}, nil
		})

	n, err := Launch[Full, *closer, *closer, *closer](context.Background(), testConfig(), nil, cb)
	require.NoError(t, err)

	err = n.Shutdown()
	assert.ErrorIs(t, err, poolErr)
	assert.ErrorIs(t, err, payErr)
	assert.Equal(t, []string{"payload", "network", "pool"}, order)

	assert.Equal(t, err, n.Shutdown(), "second call returns the same result")
	assert.Len(t, order, 3, "components are closed once")
}

func TestWait_ShutsDownOnCancel(t *testing.T) {
	n, err := LaunchFull(context.Background(), testConfig(), nil, DefaultComponents())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Wait(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Wait did not return")
	}

	_, err = n.Components.Payload.BuildNow()
	assert.ErrorIs(t, err, payload.ErrClosed)
	assert.Equal(t, 0, n.Components.Pool.Len())
}
