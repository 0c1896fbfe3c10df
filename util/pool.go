package util

import "sync"

// Pool is a typed wrapper around sync.Pool.
type Pool[T any] struct {
	p sync.Pool
}

// NewPool returns a Pool whose empty state is filled by newFn.
func NewPool[T any](newFn func() T) *Pool[T] {
	return &Pool[T]{p: sync.Pool{New: func() any { return newFn() }}}
}

// Get returns a pooled value or a fresh one.
func (p *Pool[T]) Get() T {
	return p.p.Get().(T)
}

// Put hands v back for reuse.
func (p *Pool[T]) Put(v T) {
	p.p.Put(v)
}

// Buffers holds reusable read buffers for peer streams, reducing GC
// pressure when many peers connect and disconnect.
var Buffers = NewPool(func() *[]byte {
	buf := make([]byte, DefaultBufSize)
	return &buf
})
