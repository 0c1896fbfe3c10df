// Package network connects a node to its peers over TCP and gossips
// pool transactions between them.
package network

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	nkerr "nodekit/internal/errors"
	"nodekit/internal/metrics"
	"nodekit/internal/retry"
	"nodekit/internal/transport"
	"nodekit/txpool"
	"nodekit/util"
)

var (
	errSelfDial     = nkerr.New("network: connected to self")
	errDuplicate    = nkerr.New("network: peer already connected")
	errIncompatible = nkerr.New("network: incompatible node kind")
	errHandshake    = nkerr.New("network: bad handshake")
)

// Options configures a Handle.
type Options struct {
	NodeID     string
	Kind       string
	ListenAddr string
	Bootnodes  []string
	MaxPeers   int

	// Dialer reaches bootnodes and Connect targets.  The Handle owns
	// it: it is closed with the Handle, or at once if Listen fails.
	Dialer transport.Dialer

	// DialAttempts bounds bootnode dial retries; RetryDelay is the
	// first backoff step.
	DialAttempts int
	RetryDelay   time.Duration

	HandshakeTimeout time.Duration

	Logger  *util.Logger
	Metrics *metrics.Collector
}

func (o *Options) setDefaults() {
	if o.MaxPeers <= 0 {
		o.MaxPeers = 25
	}
	if o.Dialer == nil {
		o.Dialer = &transport.TCPDialer{Timeout: 10 * time.Second}
	}
	if o.DialAttempts <= 0 {
		o.DialAttempts = 5
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 500 * time.Millisecond
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 5 * time.Second
	}
}

// Handle is a running peer network bound to one pool.
type Handle struct {
	opts     Options
	pool     *txpool.Pool
	ln       net.Listener
	hello    []byte
	logger   *util.Logger
	metrics  *metrics.Collector
	breakers *retry.BreakerSet

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	peers  map[string]*peer
	closed bool

	closeOnce sync.Once
	closeErr  error
}

// Listen starts accepting peers on opts.ListenAddr and dials every
// bootnode in the background.  The Handle runs until Close or until
// ctx is cancelled.
func Listen(ctx context.Context, pool *txpool.Pool, opts Options) (*Handle, error) {
	opts.setDefaults()

	hello, err := encode(message{Type: msgHello, Node: opts.NodeID, Kind: opts.Kind})
	if err != nil {
		opts.Dialer.Close() //nolint:errcheck
		return nil, err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", opts.ListenAddr)
	if err != nil {
		if cerr := opts.Dialer.Close(); cerr != nil {
			opts.Logger.Warn("closing dialer: %v", cerr)
		}
		return nil, nkerr.Wrap("listen", opts.ListenAddr, err)
	}

	h := &Handle{
		opts:     opts,
		pool:     pool,
		ln:       ln,
		hello:    hello,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		breakers: retry.NewBreakerSet(retry.DefaultCircuitBreakerConfig()),
		peers:    make(map[string]*peer),
	}
	h.ctx, h.cancel = context.WithCancel(ctx)

	h.wg.Add(1)
	go h.acceptLoop()

	for _, addr := range opts.Bootnodes {
		h.wg.Add(1)
		go h.maintain(addr)
	}

	// Tear down when the parent context ends.
	go func() {
		<-h.ctx.Done()
		h.Close() //nolint:errcheck
	}()

	h.logger.Info("listening on %s (node %s)", h.Addr(), opts.NodeID)
	return h, nil
}

// Addr returns the bound listen address.
func (h *Handle) Addr() string { return h.ln.Addr().String() }

// PeerCount returns the number of connected peers.
func (h *Handle) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Peers lists the connected peers.
func (h *Handle) Peers() []PeerInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]PeerInfo, 0, len(h.peers))
	for _, p := range h.peers {
		out = append(out, p.PeerInfo)
	}
	return out
}

// Broadcast sends tx to every connected peer and returns how many
// peers it was queued for.
func (h *Handle) Broadcast(tx *txpool.Transaction) int {
	return h.relay(tx, nil)
}

// Close stops accepting, disconnects every peer and waits for all
// peer goroutines to exit.  Close is idempotent.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.cancel()

		h.mu.Lock()
		h.closed = true
		peers := make([]*peer, 0, len(h.peers))
		for _, p := range h.peers {
			peers = append(peers, p)
		}
		h.mu.Unlock()

		if err := h.ln.Close(); err != nil && !util.IsClosed(err) {
			h.closeErr = err
		}
		for _, p := range peers {
			p.close()
		}
		h.wg.Wait()

		if err := h.opts.Dialer.Close(); err != nil {
			h.closeErr = nkerr.Join(h.closeErr, err)
		}
		h.logger.Verbose("closed")
	})
	return h.closeErr
}

// ── connection lifecycle ─────────────────────────────────────────────

func (h *Handle) acceptLoop() {
	defer h.wg.Done()
	for {
		conn, err := h.ln.Accept()
		if err != nil {
			if h.ctx.Err() != nil || util.IsClosed(err) {
				return
			}
			h.logger.Warn("accept: %v", err)
			h.metrics.RecordError(err.Error())
			continue
		}

		if h.PeerCount() >= h.opts.MaxPeers {
			h.logger.Verbose("rejecting %s: %v", conn.RemoteAddr(), nkerr.ErrPeerLimit)
			conn.Close()
			continue
		}

		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			if _, err := h.attach(conn, conn.RemoteAddr().String(), true); err != nil {
				h.logger.Verbose("inbound %s: %v", conn.RemoteAddr(), err)
			}
		}()
	}
}

// attach runs the handshake on conn and, on success, registers the
// peer and starts its goroutines.  conn is closed on failure.
func (h *Handle) attach(conn net.Conn, addr string, inbound bool) (*peer, error) {
	sc, release := util.NewLineScanner(conn)

	remote, err := h.handshake(conn, sc, addr)
	if err != nil {
		conn.Close()
		release()
		return nil, err
	}

	p := newPeer(conn, remote, addr, inbound)
	if err := h.register(p); err != nil {
		conn.Close()
		release()
		return nil, err
	}

	h.metrics.PeerConnected()
	dir := "outbound"
	if inbound {
		dir = "inbound"
	}
	h.logger.Verbose("peer %s connected (%s %s)", remote, dir, addr)

	go func() {
		defer h.wg.Done()
		h.writeLoop(p)
	}()
	go func() {
		defer h.wg.Done()
		h.readLoop(p, sc, release)
	}()
	return p, nil
}

func (h *Handle) handshake(conn net.Conn, sc *bufio.Scanner, addr string) (string, error) {
	conn.SetDeadline(time.Now().Add(h.opts.HandshakeTimeout)) //nolint:errcheck
	defer conn.SetDeadline(time.Time{})                       //nolint:errcheck

	if _, err := conn.Write(h.hello); err != nil {
		return "", hangup(addr, err)
	}
	if !sc.Scan() {
		err := sc.Err()
		if err == nil {
			err = io.EOF
		}
		return "", hangup(addr, err)
	}

	m, err := decode(sc.Bytes())
	switch {
	case err != nil:
		return "", fmt.Errorf("%w: %v", errHandshake, err)
	case m.Type != msgHello || m.Node == "":
		return "", fmt.Errorf("%w: expected hello, got %q", errHandshake, m.Type)
	case m.Node == h.opts.NodeID:
		return "", errSelfDial
	case m.Kind != h.opts.Kind:
		return "", fmt.Errorf("%w: %q", errIncompatible, m.Kind)
	}
	return m.Node, nil
}

// hangup reports an I/O failure before hello.  A peer at its limit
// hangs up this way, so the dial is worth repeating.
func hangup(addr string, err error) error {
	ne := nkerr.Wrap("handshake", addr, err)
	ne.Retryable = true
	return ne
}

// register adds p to the peer set and reserves its two goroutines.
func (h *Handle) register(p *peer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.closed:
		return nkerr.ErrClosed
	case h.peers[p.ID] != nil:
		return errDuplicate
	case len(h.peers) >= h.opts.MaxPeers:
		return nkerr.ErrPeerLimit
	}
	h.peers[p.ID] = p
	h.wg.Add(2)
	return nil
}

func (h *Handle) drop(p *peer) {
	h.mu.Lock()
	if h.peers[p.ID] == p {
		delete(h.peers, p.ID)
	}
	h.mu.Unlock()

	h.metrics.PeerDisconnected()
	h.logger.Verbose("peer %s disconnected", p.ID)
}

// ── gossip ───────────────────────────────────────────────────────────

// receive admits a transaction from p and relays it to everyone else
// if it was new.
func (h *Handle) receive(from *peer, tx *txpool.Transaction) {
	if err := h.pool.Add(tx); err != nil {
		if !nkerr.Is(err, txpool.ErrDuplicate) {
			h.logger.Verbose("peer %s sent rejected tx: %v", from.ID, err)
		}
		return
	}
	h.relay(tx, from)
}

func (h *Handle) relay(tx *txpool.Transaction, except *peer) int {
	line, err := encode(message{Type: msgTx, Tx: tx})
	if err != nil {
		h.logger.Error("%v", err)
		return 0
	}

	h.mu.Lock()
	targets := make([]*peer, 0, len(h.peers))
	for _, p := range h.peers {
		if p != except {
			targets = append(targets, p)
		}
	}
	h.mu.Unlock()

	sent := 0
	for _, p := range targets {
		if p.send(line) {
			sent++
		} else {
			h.logger.Debug("dropped tx %s for slow peer %s", tx.ID, p.ID)
		}
	}
	return sent
}
