package torque_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/torque-tracker/torque"
)

func TestOperationValidate(t *testing.T) {
	song := torque.NewSong()
	tests := []struct {
		name string
		op   torque.SongOperation
		err  error
	}{
		{"ok", torque.SetEvent{Row: 3, Channel: 1, Event: torque.NoteEvent(60)}, nil},
		{"row", torque.SetEvent{Row: 64, Channel: 1}, torque.ErrRowOutOfRange},
		{"negative row", torque.RemoveEvent{Row: -1}, torque.ErrRowOutOfRange},
		{"channel", torque.SetEvent{Channel: torque.MaxChannels}, torque.ErrChannelOutOfRange},
		{"pattern", torque.RemoveEvent{Pattern: 1}, torque.ErrPatternOutOfRange},
		{"length", torque.SetLength{Rows: 0}, torque.ErrInvalidLength},
		{"too long", torque.SetLength{Rows: torque.MaxPatternRows + 1}, torque.ErrInvalidLength},
		{"order", torque.SetOrder{Index: torque.MaxOrders}, torque.ErrOrderOutOfRange},
		{"order pattern", torque.SetOrder{Index: 1, Pattern: 3}, torque.ErrPatternOutOfRange},
		{"order end", torque.SetOrder{Index: 1, Pattern: torque.OrderEnd}, nil},
		{"truncate order", torque.TruncateOrder{Length: torque.MaxOrders + 1}, torque.ErrOrderOutOfRange},
		{"reset", torque.ResetPattern{Index: 4, Rows: 32}, nil},
		{"reset slot", torque.ResetPattern{Index: torque.MaxPatterns, Rows: 32}, torque.ErrPatternOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate(&song)
			if !errors.Is(err, tt.err) {
				t.Fatalf("got error %v, expected %v", err, tt.err)
			}
		})
	}
}

func TestSongAbsorberSetLength(t *testing.T) {
	first := torque.NewSong()
	second := first.Copy()
	ops := []torque.SongOperation{
		torque.SetEvent{Row: 10, Channel: 0, Event: torque.NoteEvent(60)},
		torque.SetLength{Rows: 8},
		torque.SetEvent{Row: 2, Channel: 3, Event: torque.NoteEvent(61)},
		torque.SetLength{Rows: 16},
	}
	var a torque.SongAbsorber
	for _, op := range ops {
		a.AbsorbFirst(&first, op, &second)
	}
	for _, op := range ops {
		a.AbsorbSecond(&second, op, &first)
	}
	if !reflect.DeepEqual(first.Patterns, second.Patterns) {
		t.Fatalf("copies diverged: %v vs %v", first.Patterns, second.Patterns)
	}
	if second.Patterns[0].Len() != 16 {
		t.Fatalf("got %d rows, expected 16", second.Patterns[0].Len())
	}
	if _, ok := second.Patterns[0].Event(10, 0); ok {
		t.Fatalf("event truncated by SetLength reappeared")
	}
}

func TestResetPatternGrowsSong(t *testing.T) {
	song := torque.NewSong()
	torque.ResetPattern{Index: 3, Rows: 16}.Apply(&song)
	if len(song.Patterns) != 4 || song.Patterns[3].Len() != 16 {
		t.Fatalf("got %d patterns, last with %d rows", len(song.Patterns), song.Patterns[len(song.Patterns)-1].Len())
	}
}

func TestSongAbsorberSkipsRowsCutByLaterSetLength(t *testing.T) {
	first := torque.NewSong()
	second := first.Copy()
	ops := []torque.SongOperation{
		torque.SetLength{Rows: 100},
		torque.SetEvent{Row: 90, Channel: 0, Event: torque.NoteEvent(60)},
		torque.SetLength{Rows: 50},
	}
	var a torque.SongAbsorber
	for _, op := range ops {
		if err := op.Validate(&first); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		a.AbsorbFirst(&first, op, &second)
	}
	for _, op := range ops {
		a.AbsorbSecond(&second, op, &first)
	}
	if !reflect.DeepEqual(first.Patterns, second.Patterns) {
		t.Fatalf("copies diverged")
	}
}
