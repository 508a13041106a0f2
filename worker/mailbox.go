package worker

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("mailbox closed")

type (
	// Mailbox is an unbounded multi-producer queue. Send never blocks on the
	// receiver, so the editor side can always issue commands and the workers
	// can always report feedback, no matter how far behind the other side is.
	// The receiver polls with TryRecv and waits on Signal.
	Mailbox[T any] struct {
		mu     sync.Mutex
		items  []T
		closed bool
		signal chan struct{}
	}

	RecvStatus int
)

const (
	RecvOK RecvStatus = iota
	RecvEmpty
	// RecvClosed is only returned after every item sent before Close has been
	// received.
	RecvClosed
)

func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{signal: make(chan struct{}, 1)}
}

// Send appends v to the mailbox. It fails with ErrClosed after Close.
func (m *Mailbox[T]) Send(v T) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.items = append(m.items, v)
	m.mu.Unlock()
	m.notify()
	return nil
}

// TryRecv returns the oldest item without waiting.
func (m *Mailbox[T]) TryRecv() (v T, status RecvStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		if m.closed {
			return v, RecvClosed
		}
		return v, RecvEmpty
	}
	v = m.items[0]
	var zero T
	m.items[0] = zero
	m.items = m.items[1:]
	if len(m.items) == 0 {
		m.items = m.items[:0:0]
	}
	return v, RecvOK
}

// Signal returns a channel that receives a value after Send or Close. A
// receive from it does not guarantee an item: always check with TryRecv.
func (m *Mailbox[T]) Signal() <-chan struct{} {
	return m.signal
}

// Recv waits for an item, the mailbox being closed and drained, or done being
// closed; in the last case status is RecvEmpty.
func (m *Mailbox[T]) Recv(done <-chan struct{}) (v T, status RecvStatus) {
	for {
		if v, status = m.TryRecv(); status != RecvEmpty {
			return v, status
		}
		select {
		case <-m.signal:
		case <-done:
			return v, RecvEmpty
		}
	}
}

// Len returns the number of queued items.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close closes the mailbox for sending. Items already sent can still be
// received. Close is idempotent.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.notify()
}

func (m *Mailbox[T]) notify() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}
