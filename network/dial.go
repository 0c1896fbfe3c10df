package network

import (
	"context"
	"time"

	nkerr "nodekit/internal/errors"
	"nodekit/internal/retry"
)

// Connect dials addr and completes the peer handshake.
func (h *Handle) Connect(ctx context.Context, addr string) error {
	if h.PeerCount() >= h.opts.MaxPeers {
		return nkerr.ErrPeerLimit
	}
	conn, err := h.opts.Dialer.Dial(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	_, err = h.attach(conn, addr, false)
	return err
}

// maintain keeps a connection to the bootnode at addr, redialling with
// backoff whenever it drops, until the Handle closes or the dial
// budget runs out.
func (h *Handle) maintain(addr string) {
	defer h.wg.Done()

	breaker := h.breakers.For(addr)
	backoff := &retry.Backoff{
		InitialDelay: h.opts.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  h.opts.DialAttempts,
		Jitter:       true,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			h.logger.Verbose("bootnode %s: attempt %d failed (%d in a row): %v (retry in %v)",
				addr, attempt, breaker.Failures(), err, wait.Truncate(time.Millisecond))
		},
	}

	for {
		p, err := retry.Value(h.ctx, backoff, func(int) (*peer, error) {
			var p *peer
			err := breaker.Execute(func() error {
				conn, err := h.opts.Dialer.Dial(h.ctx, "tcp", addr)
				if err != nil {
					return err
				}
				p, err = h.attach(conn, addr, false)
				return err
			})
			if err != nil && !redialable(err) {
				return nil, retry.Permanent(err)
			}
			return p, err
		})
		if err != nil {
			if h.ctx.Err() == nil {
				h.logger.Warn("bootnode %s: giving up: %v", addr, err)
				h.metrics.RecordError(err.Error())
				if open := h.breakers.Open(); len(open) > 0 {
					h.logger.Verbose("unreachable peers: %v", open)
				}
			}
			return
		}

		select {
		case <-p.done:
		case <-h.ctx.Done():
			return
		}

		h.logger.Verbose("bootnode %s dropped, redialling", addr)
		timer := time.NewTimer(h.opts.RetryDelay)
		select {
		case <-timer.C:
		case <-h.ctx.Done():
			timer.Stop()
			return
		}
	}
}

// redialable reports whether a failed bootnode dial is worth another
// attempt.  Dial and handshake failures carry their own retryability;
// identity and authentication failures never change.
func redialable(err error) bool {
	if nkerr.Is(err, nkerr.ErrCircuitOpen) || nkerr.Is(err, nkerr.ErrPeerLimit) {
		return true
	}
	return nkerr.IsRetryable(err)
}
