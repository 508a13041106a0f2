package mixer

import "sync/atomic"

// Cell publishes Snapshots from one writer to any number of readers, latest
// value wins. Publish never waits for readers and readers never wait for the
// writer: a reader either sees the previous snapshot or the new one, never a
// mix of both.
type Cell struct {
	value   atomic.Pointer[Snapshot]
	version atomic.Uint64
	closed  atomic.Bool
}

func NewCell(initial Snapshot) *Cell {
	c := &Cell{}
	c.value.Store(&initial)
	c.version.Add(1)
	return c
}

// Publish replaces the published snapshot. Publishing to a closed cell is
// ignored.
func (c *Cell) Publish(s Snapshot) {
	if c.closed.Load() {
		return
	}
	c.value.Store(&s)
	c.version.Add(1)
}

// Load returns a copy of the currently published snapshot.
func (c *Cell) Load() Snapshot {
	return *c.value.Load()
}

// Close marks the publishing side as gone. Readers keep their last snapshot.
func (c *Cell) Close() {
	c.closed.Store(true)
}

// Reader returns a new reader that has not yet seen any snapshot, so its first
// ReadIfChanged always succeeds.
func (c *Cell) Reader() *CellReader {
	return &CellReader{cell: c, last: DefaultSnapshot()}
}

// CellReader is the read side of a Cell, owned by a single goroutine. It keeps
// the last snapshot it has read.
type CellReader struct {
	cell    *Cell
	version uint64
	last    Snapshot
}

// ReadIfChanged returns the published snapshot if one was published since the
// last successful read. Otherwise it returns false and Last keeps the
// previously read value. It does not allocate.
func (r *CellReader) ReadIfChanged() (Snapshot, bool) {
	v := r.cell.version.Load()
	if v == r.version {
		return Snapshot{}, false
	}
	// the pointer may already be newer than v; that only means the next call
	// reports a change that was already seen, which is harmless
	r.last = *r.cell.value.Load()
	r.version = v
	return r.last, true
}

// Last returns the last snapshot read. The pointer is owned by the reader and
// stays valid until the next ReadIfChanged.
func (r *CellReader) Last() *Snapshot {
	return &r.last
}

// Closed reports whether the publishing side has been closed.
func (r *CellReader) Closed() bool {
	return r.cell.closed.Load()
}
