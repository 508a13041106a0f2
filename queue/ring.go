// Package queue implements the bounded single-producer single-consumer queue
// that carries rendered frames from a track worker to the realtime mixer.
package queue

import (
	"errors"
	"sync/atomic"
)

var ErrFull = errors.New("queue is full")

// Ring is a lock-free SPSC ring buffer with an exact capacity. TryPush may only
// be called from one goroutine (the producer) and TryPop from one other
// goroutine (the consumer). Neither ever blocks.
//
// head and tail grow monotonically; the producer stores tail after writing the
// slot and the consumer stores head after reading it, so each side sees the
// slot contents published by the other.
type Ring[T any] struct {
	tail atomic.Uint64 // next slot to write, owned by the producer
	_    [56]byte
	head atomic.Uint64 // next slot to read, owned by the consumer
	_    [56]byte

	buf []T
}

// New returns a Ring that holds at most capacity items. capacity must be
// positive.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		panic("queue: capacity must be positive")
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// TryPush appends v, or returns ErrFull without modifying the ring.
func (r *Ring[T]) TryPush(v T) error {
	t := r.tail.Load()
	if t-r.head.Load() == uint64(len(r.buf)) {
		return ErrFull
	}
	r.buf[t%uint64(len(r.buf))] = v
	r.tail.Store(t + 1)
	return nil
}

// TryPop removes and returns the oldest item; ok is false if the ring is
// empty.
func (r *Ring[T]) TryPop() (v T, ok bool) {
	h := r.head.Load()
	if h == r.tail.Load() {
		return v, false
	}
	i := h % uint64(len(r.buf))
	v = r.buf[i]
	var zero T
	r.buf[i] = zero
	r.head.Store(h + 1)
	return v, true
}

// Len returns the number of items currently queued. The value is a snapshot
// and may be stale by the time it is used.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the capacity of the ring.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Free returns the number of items that can be pushed without failing. Only
// meaningful on the producer side.
func (r *Ring[T]) Free() int {
	return len(r.buf) - r.Len()
}
