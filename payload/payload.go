// Package payload periodically packs the best pending transactions
// from the pool into numbered payloads.
package payload

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	nkerr "nodekit/internal/errors"
	"nodekit/internal/metrics"
	"nodekit/txpool"
	"nodekit/util"
)

var (
	// ErrEmpty means the pool had nothing to pack and empty payloads
	// are disabled.
	ErrEmpty = nkerr.New("payload: no pending transactions")
	// ErrClosed is returned by BuildNow after Close.
	ErrClosed = nkerr.New("payload: service closed")
)

// Payload is one packed batch of transactions.  Numbers start at 1 and
// each payload names its predecessor as Parent.
type Payload struct {
	ID            uuid.UUID
	Number        uint64
	Parent        uuid.UUID
	Transactions  []*txpool.Transaction
	GasPriceTotal uint64
	BuiltAt       time.Time
}

// Options configures the payload service.
type Options struct {
	Interval        time.Duration
	MaxTransactions int // <= 0 packs everything
	AllowEmpty      bool

	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Handle controls a running payload service.
type Handle struct {
	pool    *txpool.Pool
	opts    Options
	logger  *util.Logger
	metrics *metrics.Collector

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	buildMu sync.Mutex // one build at a time

	mu      sync.Mutex
	latest  *Payload
	subs    map[int]chan *Payload
	nextSub int
	closed  bool
}

// Start launches the service, which builds a payload every
// opts.Interval until Close or until ctx is cancelled.
func Start(ctx context.Context, pool *txpool.Pool, opts Options) (*Handle, error) {
	if opts.Interval <= 0 {
		return nil, nkerr.Invalid("payload-interval", opts.Interval, "must be positive", "")
	}

	h := &Handle{
		pool:    pool,
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		done:    make(chan struct{}),
		subs:    make(map[int]chan *Payload),
	}
	h.ctx, h.cancel = context.WithCancel(ctx)

	go h.run()
	h.logger.Info("building every %v (max %d transactions)", opts.Interval, opts.MaxTransactions)
	return h, nil
}

func (h *Handle) run() {
	defer close(h.done)
	defer h.shutdown()

	ticker := time.NewTicker(h.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			if _, err := h.build(); err != nil && !nkerr.Is(err, ErrEmpty) && !nkerr.Is(err, ErrClosed) {
				h.logger.Warn("build: %v", err)
				h.metrics.RecordError(err.Error())
			}
		}
	}
}

// Latest returns the most recent payload.
func (h *Handle) Latest() (*Payload, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest, h.latest != nil
}

// BuildNow builds a payload immediately instead of waiting for the
// next tick.
func (h *Handle) BuildNow() (*Payload, error) {
	return h.build()
}

// Subscribe returns a channel receiving every new payload.  A
// subscriber that falls behind by more than buffer payloads misses
// the newest ones.  The returned func unsubscribes and closes the
// channel; the channel is also closed when the service stops.
func (h *Handle) Subscribe(buffer int) (<-chan *Payload, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan *Payload, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

// Close stops the service and waits for the build loop to exit.
// Close is idempotent.
func (h *Handle) Close() error {
	h.once.Do(func() {
		h.cancel()
		<-h.done
		h.logger.Verbose("stopped")
	})
	return nil
}

func (h *Handle) build() (*Payload, error) {
	h.buildMu.Lock()
	defer h.buildMu.Unlock()

	if h.ctx.Err() != nil {
		return nil, ErrClosed
	}

	txs := h.pool.Best(h.opts.MaxTransactions)
	if len(txs) == 0 && !h.opts.AllowEmpty {
		return nil, ErrEmpty
	}

	p := &Payload{
		ID:           uuid.New(),
		Number:       1,
		Transactions: txs,
		BuiltAt:      time.Now(),
	}
	ids := make([]uuid.UUID, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
		p.GasPriceTotal += tx.GasPrice
	}
	h.pool.Remove(ids...)

	h.mu.Lock()
	if prev := h.latest; prev != nil {
		p.Parent = prev.ID
		p.Number = prev.Number + 1
	}
	h.latest = p
	for _, ch := range h.subs {
		select {
		case ch <- p:
		default:
		}
	}
	h.mu.Unlock()

	h.metrics.PayloadBuilt(len(txs))
	h.logger.Verbose("payload #%d: %d transactions, gas %d", p.Number, len(txs), p.GasPriceTotal)
	return p, nil
}

// shutdown closes every subscriber channel.
func (h *Handle) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
