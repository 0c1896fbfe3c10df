// Package txpool holds pending transactions until the payload service
// packs them.  A Pool is safe for concurrent use by the network and
// payload components at once.
package txpool

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	nkerr "nodekit/internal/errors"
	"nodekit/internal/metrics"
	"nodekit/util"
)

// MaxDataSize caps the payload carried by one transaction.
const MaxDataSize = 128 * 1024

// recentPerSlot sizes the memory of removed transactions relative to
// the pool capacity.
const recentPerSlot = 4

var (
	ErrDuplicate = nkerr.New("txpool: transaction already known")
	ErrInvalid   = nkerr.New("txpool: invalid transaction")
	ErrPoolFull  = nkerr.New("txpool: pool is full")
	ErrClosed    = nkerr.New("txpool: pool is closed")
)

// Transaction is a signed-off unit of work submitted by Sender.
type Transaction struct {
	ID       uuid.UUID `json:"id"`
	Sender   string    `json:"sender"`
	Nonce    uint64    `json:"nonce"`
	GasPrice uint64    `json:"gas_price"`
	Data     []byte    `json:"data,omitempty"`
}

// Validate checks the fields a pool requires.
func (tx *Transaction) Validate() error {
	switch {
	case tx.Sender == "":
		return fmt.Errorf("%w: missing sender", ErrInvalid)
	case tx.GasPrice == 0:
		return fmt.Errorf("%w: zero gas price", ErrInvalid)
	case len(tx.Data) > MaxDataSize:
		return fmt.Errorf("%w: data exceeds %d bytes", ErrInvalid, MaxDataSize)
	}
	return nil
}

type entry struct {
	tx  *Transaction
	seq uint64
	at  time.Time
}

// Pool is a bounded, concurrency-safe transaction store.
type Pool struct {
	maxSize int
	logger  *util.Logger
	metrics *metrics.Collector

	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
	senders map[senderNonce]uuid.UUID
	recent  *recentSet
	seq     uint64
	closed  bool
}

type senderNonce struct {
	sender string
	nonce  uint64
}

// New returns an empty pool holding at most maxSize transactions.
func New(maxSize int, logger *util.Logger, m *metrics.Collector) *Pool {
	return &Pool{
		maxSize: maxSize,
		logger:  logger,
		metrics: m,
		entries: make(map[uuid.UUID]*entry),
		senders: make(map[senderNonce]uuid.UUID),
		recent:  newRecentSet(max(maxSize, 1) * recentPerSlot),
	}
}

// Add admits tx.  A zero ID is replaced with a fresh one.  A second
// transaction with the same ID, or the same sender and nonce, is
// rejected with ErrDuplicate, and so is one that was recently removed.
func (p *Pool) Add(tx *Transaction) error {
	if tx == nil {
		p.metrics.TxRejected()
		return fmt.Errorf("%w: nil transaction", ErrInvalid)
	}
	if err := p.add(tx); err != nil {
		p.metrics.TxRejected()
		p.logger.Debug("rejected %s: %v", tx.ID, err)
		return err
	}
	p.metrics.TxAccepted()
	p.logger.Debug("accepted %s from %s (nonce %d)", tx.ID, tx.Sender, tx.Nonce)
	return nil
}

func (p *Pool) add(tx *Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if _, ok := p.entries[tx.ID]; ok {
		return ErrDuplicate
	}
	key := senderNonce{tx.Sender, tx.Nonce}
	if _, ok := p.senders[key]; ok {
		return fmt.Errorf("%w: nonce %d from %s", ErrDuplicate, tx.Nonce, tx.Sender)
	}
	if p.recent.has(tx.ID, key) {
		return fmt.Errorf("%w: already removed", ErrDuplicate)
	}
	if len(p.entries) >= p.maxSize {
		return ErrPoolFull
	}

	p.seq++
	p.entries[tx.ID] = &entry{tx: tx, seq: p.seq, at: time.Now()}
	p.senders[key] = tx.ID
	p.metrics.SetPoolSize(len(p.entries))
	return nil
}

// Get returns the transaction with the given ID.
func (p *Pool) Get(id uuid.UUID) (*Transaction, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[id]
	if !ok {
		return nil, false
	}
	return e.tx, true
}

// Best returns up to limit transactions, highest gas price first and
// oldest first among equals.  limit <= 0 returns every transaction.
func (p *Pool) Best(limit int) []*Transaction {
	p.mu.RLock()
	sorted := make([]*entry, 0, len(p.entries))
	for _, e := range p.entries {
		sorted = append(sorted, e)
	}
	p.mu.RUnlock()

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].tx.GasPrice != sorted[j].tx.GasPrice {
			return sorted[i].tx.GasPrice > sorted[j].tx.GasPrice
		}
		return sorted[i].seq < sorted[j].seq
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]*Transaction, len(sorted))
	for i, e := range sorted {
		out[i] = e.tx
	}
	return out
}

// Remove drops the given transactions and reports how many were
// present.  Removed IDs and sender/nonce pairs are remembered, so a
// peer relaying one of them later cannot re-admit it.
func (p *Pool) Remove(ids ...uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, id := range ids {
		e, ok := p.entries[id]
		if !ok {
			continue
		}
		key := senderNonce{e.tx.Sender, e.tx.Nonce}
		delete(p.entries, id)
		delete(p.senders, key)
		p.recent.add(id, key)
		n++
	}
	p.metrics.SetPoolSize(len(p.entries))
	return n
}

// Len returns the number of pending transactions.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Close drops every pending transaction.  Later Adds fail with
// ErrClosed.  Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	dropped := len(p.entries)
	p.entries = make(map[uuid.UUID]*entry)
	p.senders = make(map[senderNonce]uuid.UUID)
	p.recent = newRecentSet(p.recent.size)
	p.metrics.SetPoolSize(0)
	p.logger.Verbose("closed, dropped %d pending transactions", dropped)
	return nil
}

// recentSet is a fixed-size FIFO memory of removed transactions.
type recentSet struct {
	size int
	ring []recentEntry
	next int
	ids  map[uuid.UUID]struct{}
	keys map[senderNonce]struct{}
}

type recentEntry struct {
	id  uuid.UUID
	key senderNonce
}

func newRecentSet(size int) *recentSet {
	return &recentSet{
		size: size,
		ring: make([]recentEntry, 0, size),
		ids:  make(map[uuid.UUID]struct{}, size),
		keys: make(map[senderNonce]struct{}, size),
	}
}

func (r *recentSet) has(id uuid.UUID, key senderNonce) bool {
	if _, ok := r.ids[id]; ok {
		return true
	}
	_, ok := r.keys[key]
	return ok
}

// add records id, evicting the oldest entry once full.
func (r *recentSet) add(id uuid.UUID, key senderNonce) {
	e := recentEntry{id: id, key: key}
	if len(r.ring) < r.size {
		r.ring = append(r.ring, e)
	} else {
		old := r.ring[r.next]
		delete(r.ids, old.id)
		delete(r.keys, old.key)
		r.ring[r.next] = e
		r.next = (r.next + 1) % r.size
	}
	r.ids[id] = struct{}{}
	r.keys[key] = struct{}{}
}
