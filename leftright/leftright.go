// Package leftright implements a two-copy concurrent store: one writer mutates
// its private copy while any number of readers read the other one without
// ever waiting. Publish atomically makes the writer's copy the one readers
// see; the operations written since the last publish are then replayed onto
// the copy the readers just left, once the last of them has left it.
package leftright

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Absorber applies operations of type O to a copy of T. AbsorbFirst is called
// when the operation is appended, on the writer's copy. AbsorbSecond is called
// later, when the same operation is replayed onto the other copy; other is the
// copy readers currently see and already contains the effect of every
// operation being replayed.
type Absorber[T, O any] interface {
	AbsorbFirst(dst *T, op O, other *T)
	AbsorbSecond(dst *T, op O, other *T)
}

type (
	store[T, O any] struct {
		copies [2]T
		live   atomic.Uint32 // index of the copy readers see
		absorb Absorber[T, O]

		mu      sync.Mutex // guards readers
		readers map[*epoch]struct{}
	}

	// epoch counts the reader's entries and exits; it is odd while the reader
	// is inside a read section.
	epoch struct {
		n atomic.Uint64
		_ [56]byte
	}

	waitEntry struct {
		e *epoch
		n uint64
	}

	// WriteHandle is the single writer of a store. It is not safe for
	// concurrent use.
	WriteHandle[T, O any] struct {
		s       *store[T, O]
		oplog   []O
		pending []O
		waitFor []waitEntry
	}

	// ReadHandle reads a store. Each goroutine needs its own ReadHandle, see
	// Clone.
	ReadHandle[T, O any] struct {
		s      *store[T, O]
		e      *epoch
		closed bool
	}
)

// New returns the write handle and a first read handle of a store. left and
// right must be equal, independent copies of the initial value.
func New[T, O any](left, right T, absorb Absorber[T, O]) (*WriteHandle[T, O], *ReadHandle[T, O]) {
	s := &store[T, O]{absorb: absorb, readers: map[*epoch]struct{}{}}
	s.copies[0] = left
	s.copies[1] = right
	return &WriteHandle[T, O]{s: s}, s.newReader()
}

func (s *store[T, O]) newReader() *ReadHandle[T, O] {
	e := &epoch{}
	s.mu.Lock()
	s.readers[e] = struct{}{}
	s.mu.Unlock()
	return &ReadHandle[T, O]{s: s, e: e}
}

// Append applies op to the writer's copy and records it for replay. op must
// be valid for the writer's copy, see Raw. Readers do not see op before the
// next Publish.
func (w *WriteHandle[T, O]) Append(op O) {
	w.catchUp()
	live := w.s.live.Load()
	w.s.absorb.AbsorbFirst(&w.s.copies[1-live], op, &w.s.copies[live])
	w.oplog = append(w.oplog, op)
}

// Publish makes every appended operation visible to readers at once. It does
// not wait for readers.
func (w *WriteHandle[T, O]) Publish() {
	if len(w.oplog) == 0 {
		return
	}
	w.catchUp()
	live := w.s.live.Load()
	w.s.live.Store(1 - live)
	w.pending, w.oplog = w.oplog, w.pending[:0]
	// readers inside a read section right now may be holding the old copy
	w.s.mu.Lock()
	for e := range w.s.readers {
		if n := e.n.Load(); n%2 == 1 {
			w.waitFor = append(w.waitFor, waitEntry{e: e, n: n})
		}
	}
	w.s.mu.Unlock()
}

// Raw returns the writer's copy, with every appended operation applied. The
// returned value must not be modified and is only valid until the next call
// on w.
func (w *WriteHandle[T, O]) Raw() *T {
	w.catchUp()
	return &w.s.copies[1-w.s.live.Load()]
}

// Pending returns the number of appended operations not yet published.
func (w *WriteHandle[T, O]) Pending() int {
	return len(w.oplog)
}

// Reader returns a new read handle of the store.
func (w *WriteHandle[T, O]) Reader() *ReadHandle[T, O] {
	return w.s.newReader()
}

// catchUp waits for the readers that may still be reading the writer's copy
// and then replays the operations of the last publish onto it.
func (w *WriteHandle[T, O]) catchUp() {
	if len(w.pending) == 0 {
		return
	}
	for _, we := range w.waitFor {
		for we.e.n.Load() == we.n {
			runtime.Gosched()
		}
	}
	clear(w.waitFor)
	w.waitFor = w.waitFor[:0]
	live := w.s.live.Load()
	for _, op := range w.pending {
		w.s.absorb.AbsorbSecond(&w.s.copies[1-live], op, &w.s.copies[live])
	}
	clear(w.pending)
	w.pending = w.pending[:0]
}

// Enter starts a read section and returns the current published copy. The
// copy stays unchanged until Exit. Enter never waits and must not be nested.
func (r *ReadHandle[T, O]) Enter() *T {
	r.e.n.Add(1)
	return &r.s.copies[r.s.live.Load()]
}

// Exit ends the read section started by Enter.
func (r *ReadHandle[T, O]) Exit() {
	r.e.n.Add(1)
}

// Read calls f with the current published copy. f must not retain the
// pointer.
func (r *ReadHandle[T, O]) Read(f func(*T)) {
	t := r.Enter()
	defer r.Exit()
	f(t)
}

// Clone returns a new read handle of the same store, for use by another
// goroutine.
func (r *ReadHandle[T, O]) Clone() *ReadHandle[T, O] {
	return r.s.newReader()
}

// Close unregisters the handle. It must not be inside a read section.
func (r *ReadHandle[T, O]) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.s.mu.Lock()
	delete(r.s.readers, r.e)
	r.s.mu.Unlock()
}
