package util

import (
	"bufio"
	"errors"
	"io"
	"net"
)

// DefaultBufSize is the initial read buffer for a peer stream (32 KiB).
const DefaultBufSize = 32 * 1024

// MaxLineSize caps a single newline-delimited message (1 MiB).
const MaxLineSize = 1024 * 1024

// NewLineScanner returns a scanner over r that splits on newlines and
// grows its buffer up to MaxLineSize.  The initial buffer comes from
// [Buffers]; call release when the scanner is no longer used.
func NewLineScanner(r io.Reader) (sc *bufio.Scanner, release func()) {
	buf := Buffers.Get()
	sc = bufio.NewScanner(r)
	sc.Buffer(*buf, MaxLineSize)
	return sc, func() { Buffers.Put(buf) }
}

// IsClosed reports whether err is what a read or write returns once the
// connection has been closed by either side.  Such errors are expected
// during shutdown and are not worth logging.
func IsClosed(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
