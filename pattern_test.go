package torque_test

import (
	"reflect"
	"testing"

	"github.com/torque-tracker/torque"
)

func TestPatternSetAndRemoveEvent(t *testing.T) {
	p := torque.NewPattern(4)
	p.SetEvent(0, 1, torque.NoteEvent(60))
	p.SetEvent(0, 5, torque.NoteEvent(62).WithInstr(2))
	p.SetEvent(0, 1, torque.NoteEvent(64))
	if len(p.Rows[0]) != 2 {
		t.Fatalf("expected 2 events in row 0, got %d", len(p.Rows[0]))
	}
	if e, ok := p.Event(0, 1); !ok || e.Note != 64 {
		t.Fatalf("got %v %v, expected note 64", e, ok)
	}
	p.RemoveEvent(0, 1)
	if _, ok := p.Event(0, 1); ok {
		t.Fatalf("event on channel 1 survived removal")
	}
	if e, ok := p.Event(0, 5); !ok || e.Instr != 2 {
		t.Fatalf("removal touched channel 5: got %v %v", e, ok)
	}
	p.RemoveEvent(0, 1) // no-op
	if _, ok := p.Event(7, 0); ok {
		t.Fatalf("out of range row returned an event")
	}
}

func TestPatternSetLength(t *testing.T) {
	p := torque.NewPattern(4)
	p.SetEvent(3, 0, torque.NoteEvent(60))
	p.SetLength(2)
	if p.Len() != 2 {
		t.Fatalf("truncate: got %d rows", p.Len())
	}
	p.SetLength(6)
	if p.Len() != 6 {
		t.Fatalf("pad: got %d rows", p.Len())
	}
	if _, ok := p.Event(3, 0); ok {
		t.Fatalf("truncated event reappeared after padding")
	}
}

func TestPatternCopyFrom(t *testing.T) {
	a := torque.NewPattern(8)
	a.SetEvent(1, 2, torque.NoteEvent(50))
	b := torque.NewPattern(2)
	b.SetEvent(0, 0, torque.NoteEvent(40))
	b.CopyFrom(&a)
	if b.Rows[0] != nil {
		t.Fatalf("row emptied by CopyFrom is not nil: %v", b.Rows[0])
	}
	if !reflect.DeepEqual(a.Rows, b.Rows) {
		t.Fatalf("CopyFrom mismatch: got %v expected %v", b.Rows, a.Rows)
	}
	b.SetEvent(1, 2, torque.NoteEvent(70))
	if e, _ := a.Event(1, 2); e.Note != 50 {
		t.Fatalf("CopyFrom shares rows with the source")
	}
}

func TestEventVolPan(t *testing.T) {
	if v, ok := torque.NoteEvent(60).WithVolPan(32).Volume(); !ok || v != 32 {
		t.Fatalf("volume: got %v %v", v, ok)
	}
	if p, ok := torque.NoteEvent(60).WithVolPan(torque.PanBase).Pan(); !ok || p != -32 {
		t.Fatalf("hard left pan: got %v %v", p, ok)
	}
	if p, ok := torque.NoteEvent(60).WithVolPan(torque.PanRangeLast).Pan(); !ok || p != 32 {
		t.Fatalf("hard right pan: got %v %v", p, ok)
	}
	if _, ok := torque.NoteEvent(60).Pan(); ok {
		t.Fatalf("event without vol/pan column reported a pan")
	}
}

func TestOrderNext(t *testing.T) {
	o := torque.Order{torque.OrderSkip, 2, torque.OrderEnd, 1}
	if i, ok := o.Next(0); !ok || i != 1 {
		t.Fatalf("got %v %v, expected 1 true", i, ok)
	}
	if _, ok := o.Next(2); ok {
		t.Fatalf("order end was not honored")
	}
	if _, ok := o.Next(10); ok {
		t.Fatalf("past the end returned a row")
	}
	o.Set(6, 3)
	if len(o) != 7 || o[5] != torque.OrderSkip {
		t.Fatalf("Set did not pad with skips: %v", o)
	}
}
