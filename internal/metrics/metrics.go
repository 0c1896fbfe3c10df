// Package metrics provides lightweight, lock-free counters and gauges
// for tracking runtime statistics of a running node.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a node.
// A nil Collector is safe to use: all methods become no-ops.
type Collector struct {
	peersActive   atomic.Int64
	peersTotal    atomic.Int64
	bytesIn       atomic.Int64
	bytesOut      atomic.Int64
	txsAccepted   atomic.Int64
	txsRejected   atomic.Int64
	poolSize      atomic.Int64
	payloadsBuilt atomic.Int64
	payloadTxs    atomic.Int64
	errorsTotal   atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	stages       map[string]time.Duration
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{
		startTime: time.Now(),
		stages:    make(map[string]time.Duration),
	}
}

// ── Peer metrics ─────────────────────────────────────────────────────

// PeerConnected increments both the active and total peer counters.
func (c *Collector) PeerConnected() {
	if c == nil {
		return
	}
	c.peersActive.Add(1)
	c.peersTotal.Add(1)
}

// PeerDisconnected decrements the active peer counter.
func (c *Collector) PeerDisconnected() {
	if c == nil {
		return
	}
	c.peersActive.Add(-1)
}

// ActivePeers returns the current number of connected peers.
func (c *Collector) ActivePeers() int64 {
	if c == nil {
		return 0
	}
	return c.peersActive.Load()
}

// TotalPeers returns the lifetime peer count.
func (c *Collector) TotalPeers() int64 {
	if c == nil {
		return 0
	}
	return c.peersTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from peers.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to peers.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Pool metrics ─────────────────────────────────────────────────────

// TxAccepted records a transaction admitted to the pool.
func (c *Collector) TxAccepted() {
	if c == nil {
		return
	}
	c.txsAccepted.Add(1)
}

// TxRejected records a transaction the pool refused.
func (c *Collector) TxRejected() {
	if c == nil {
		return
	}
	c.txsRejected.Add(1)
}

// SetPoolSize updates the pool size gauge.
func (c *Collector) SetPoolSize(n int) {
	if c == nil {
		return
	}
	c.poolSize.Store(int64(n))
}

// TxsAccepted returns the number of admitted transactions.
func (c *Collector) TxsAccepted() int64 {
	if c == nil {
		return 0
	}
	return c.txsAccepted.Load()
}

// TxsRejected returns the number of refused transactions.
func (c *Collector) TxsRejected() int64 {
	if c == nil {
		return 0
	}
	return c.txsRejected.Load()
}

// PoolSize returns the last recorded pool size.
func (c *Collector) PoolSize() int64 {
	if c == nil {
		return 0
	}
	return c.poolSize.Load()
}

// ── Payload metrics ──────────────────────────────────────────────────

// PayloadBuilt records a payload containing txs transactions.
func (c *Collector) PayloadBuilt(txs int) {
	if c == nil {
		return
	}
	c.payloadsBuilt.Add(1)
	c.payloadTxs.Add(int64(txs))
}

// PayloadsBuilt returns the number of payloads produced.
func (c *Collector) PayloadsBuilt() int64 {
	if c == nil {
		return 0
	}
	return c.payloadsBuilt.Load()
}

// ── Assembly metrics ─────────────────────────────────────────────────

// StageBuilt records how long one component stage took to build.
func (c *Collector) StageBuilt(stage string, d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.stages[stage] = d
	c.mu.Unlock()
}

// StageDuration returns the recorded build time of stage.
func (c *Collector) StageDuration(stage string) (time.Duration, bool) {
	if c == nil {
		return 0, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.stages[stage]
	return d, ok
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string            `json:"uptime"`
	PeersActive      int64             `json:"peers_active"`
	PeersTotal       int64             `json:"peers_total"`
	BytesIn          int64             `json:"bytes_in"`
	BytesOut         int64             `json:"bytes_out"`
	TxsAccepted      int64             `json:"txs_accepted"`
	TxsRejected      int64             `json:"txs_rejected"`
	PoolSize         int64             `json:"pool_size"`
	PayloadsBuilt    int64             `json:"payloads_built"`
	PayloadTxs       int64             `json:"payload_txs"`
	Stages           map[string]string `json:"stages,omitempty"`
	ErrorsTotal      int64             `json:"errors_total"`
	LastError        string            `json:"last_error,omitempty"`
	LastErrorMessage string            `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:        time.Since(c.startTime).Truncate(time.Second).String(),
		PeersActive:   c.peersActive.Load(),
		PeersTotal:    c.peersTotal.Load(),
		BytesIn:       c.bytesIn.Load(),
		BytesOut:      c.bytesOut.Load(),
		TxsAccepted:   c.txsAccepted.Load(),
		TxsRejected:   c.txsRejected.Load(),
		PoolSize:      c.poolSize.Load(),
		PayloadsBuilt: c.payloadsBuilt.Load(),
		PayloadTxs:    c.payloadTxs.Load(),
		ErrorsTotal:   c.errorsTotal.Load(),
	}
	if len(c.stages) > 0 {
		s.Stages = make(map[string]string, len(c.stages))
		for stage, d := range c.stages {
			s.Stages[stage] = d.String()
		}
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
