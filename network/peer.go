package network

import (
	"bufio"
	"net"
	"sync"
	"time"

	"nodekit/util"
)

// sendQueue bounds the lines buffered for a slow peer.  Lines beyond it
// are dropped rather than stalling gossip to everyone else.
const sendQueue = 256

// writeTimeout bounds a single write to a peer.
const writeTimeout = 10 * time.Second

// PeerInfo describes one connected peer.
type PeerInfo struct {
	ID      string
	Addr    string
	Inbound bool
}

type peer struct {
	PeerInfo
	conn net.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newPeer(conn net.Conn, id, addr string, inbound bool) *peer {
	return &peer{
		PeerInfo: PeerInfo{ID: id, Addr: addr, Inbound: inbound},
		conn:     conn,
		out:      make(chan []byte, sendQueue),
		done:     make(chan struct{}),
	}
}

// send queues line without blocking and reports whether it was queued.
func (p *peer) send(line []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.out <- line:
		return true
	default:
		return false
	}
}

func (p *peer) close() {
	p.once.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}

// writeLoop drains the send queue until the peer closes.
func (h *Handle) writeLoop(p *peer) {
	for {
		select {
		case <-p.done:
			return
		case line := <-p.out:
			p.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			n, err := p.conn.Write(line)
			h.metrics.BytesSent(int64(n))
			if err != nil {
				if !util.IsClosed(err) {
					h.logger.Verbose("write to %s: %v", p.ID, err)
				}
				p.close()
				return
			}
		}
	}
}

// readLoop handles lines from p until the connection ends, then
// unregisters it.
func (h *Handle) readLoop(p *peer, sc *bufio.Scanner, release func()) {
	defer release()
	defer h.drop(p)
	defer p.close()

	for sc.Scan() {
		line := sc.Bytes()
		h.metrics.BytesReceived(int64(len(line) + 1))

		m, err := decode(line)
		if err != nil {
			h.logger.Verbose("peer %s: %v", p.ID, err)
			continue
		}
		switch m.Type {
		case msgTx:
			if m.Tx != nil {
				h.receive(p, m.Tx)
			}
		case msgHello:
			// Repeated hellos carry nothing new.
		default:
			h.logger.Debug("peer %s: unknown message %q", p.ID, m.Type)
		}
	}
	if err := sc.Err(); err != nil && !util.IsClosed(err) {
		h.logger.Verbose("read from %s: %v", p.ID, err)
	}
}
