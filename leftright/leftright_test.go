package leftright_test

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/leftright"
)

func newSongStore() (*leftright.WriteHandle[torque.Song, torque.SongOperation], *leftright.ReadHandle[torque.Song, torque.SongOperation]) {
	song := torque.NewSong()
	return leftright.New[torque.Song, torque.SongOperation](song.Copy(), song.Copy(), torque.SongAbsorber{})
}

func TestSetEventThenRemoveEvent(t *testing.T) {
	w, r := newSongStore()
	w.Append(torque.SetEvent{Row: 0, Channel: 1, Event: torque.NoteEvent(60)})
	w.Publish()
	w.Append(torque.RemoveEvent{Row: 0, Channel: 1})
	w.Publish()
	r.Read(func(s *torque.Song) {
		if e, ok := s.Patterns[0].Event(0, 1); ok {
			t.Fatalf("got event %v, expected none", e)
		}
	})
	// the writer's copy gets the replay on the next access
	if _, ok := w.Raw().Patterns[0].Event(0, 1); ok {
		t.Fatalf("writer copy still has the event")
	}
}

func TestReplayMatchesLastSubmitted(t *testing.T) {
	w, r := newSongStore()
	rnd := rand.New(rand.NewSource(1))
	type cell struct {
		row int
		ch  uint8
	}
	want := map[cell]uint8{}
	for i := 0; i < 2000; i++ {
		c := cell{rnd.Intn(torque.DefaultPatternRows), uint8(rnd.Intn(8))}
		note := uint8(rnd.Intn(torque.MaxNote + 1))
		w.Append(torque.SetEvent{Row: c.row, Channel: c.ch, Event: torque.NoteEvent(note)})
		want[c] = note
		if rnd.Intn(7) == 0 {
			w.Publish()
		}
	}
	w.Publish()
	check := func(name string, s *torque.Song) {
		count := 0
		for row, rowEvents := range s.Patterns[0].Rows {
			for _, ce := range rowEvents {
				count++
				note, ok := want[cell{row, ce.Channel}]
				if !ok {
					t.Fatalf("%s: unexpected event at row %d channel %d", name, row, ce.Channel)
				}
				if ce.Event.Note != note {
					t.Fatalf("%s: row %d channel %d has note %d, expected %d", name, row, ce.Channel, ce.Event.Note, note)
				}
			}
		}
		if count != len(want) {
			t.Fatalf("%s: got %d events, expected %d", name, count, len(want))
		}
	}
	r.Read(func(s *torque.Song) { check("reader", s) })
	check("writer", w.Raw())
}

func TestUnpublishedIsInvisible(t *testing.T) {
	w, r := newSongStore()
	w.Append(torque.SetEvent{Row: 5, Channel: 0, Event: torque.NoteEvent(60)})
	r.Read(func(s *torque.Song) {
		if _, ok := s.Patterns[0].Event(5, 0); ok {
			t.Fatalf("reader saw an unpublished operation")
		}
	})
	if w.Pending() != 1 {
		t.Fatalf("got %d pending, expected 1", w.Pending())
	}
	w.Publish()
	r.Read(func(s *torque.Song) {
		if _, ok := s.Patterns[0].Event(5, 0); !ok {
			t.Fatalf("reader did not see the published operation")
		}
	})
}

func TestSetLengthDuringPlayback(t *testing.T) {
	w, r := newSongStore()
	w.Append(torque.SetEvent{Row: 60, Channel: 0, Event: torque.NoteEvent(60)})
	w.Publish()
	w.Append(torque.SetLength{Rows: 16})
	w.Append(torque.SetLength{Rows: 128})
	w.Append(torque.SetEvent{Row: 100, Channel: 2, Event: torque.NoteEvent(40)})
	w.Publish()
	w.Append(torque.SetLength{Rows: 32})
	w.Publish()
	r.Read(func(s *torque.Song) {
		if s.Patterns[0].Len() != 32 {
			t.Fatalf("got %d rows, expected 32", s.Patterns[0].Len())
		}
	})
	if got := w.Raw().Patterns[0].Len(); got != 32 {
		t.Fatalf("writer copy has %d rows, expected 32", got)
	}
}

// fill sets every element of a block to the same value in one operation.
type (
	block  [64]int
	fill   int
	filler struct{}
)

func (filler) AbsorbFirst(dst *block, op fill, _ *block) {
	for i := range dst {
		dst[i] = int(op)
	}
}

func (f filler) AbsorbSecond(dst *block, op fill, other *block) { f.AbsorbFirst(dst, op, other) }

// Readers running concurrently with the writer must see each operation either
// fully applied or not at all.
func TestConcurrentReadersSeeWholeOperations(t *testing.T) {
	w, r := leftright.New[block, fill](block{}, block{}, filler{})
	var wg sync.WaitGroup
	done := make(chan struct{})
	for n := 0; n < 4; n++ {
		reader := r.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer reader.Close()
			last := 0
			for {
				select {
				case <-done:
					return
				default:
				}
				b := reader.Enter()
				first := b[0]
				for i := range b {
					if b[i] != first {
						reader.Exit()
						t.Errorf("torn read: b[%d]=%d b[0]=%d", i, b[i], first)
						return
					}
				}
				reader.Exit()
				if first < last {
					t.Errorf("went back in time: %d after %d", first, last)
					return
				}
				last = first
			}
		}()
	}
	for i := 1; i <= 5000; i++ {
		w.Append(fill(i))
		w.Publish()
	}
	close(done)
	wg.Wait()
	r.Read(func(b *block) {
		if b[0] != 5000 {
			t.Fatalf("got %d, expected 5000", b[0])
		}
	})
}
