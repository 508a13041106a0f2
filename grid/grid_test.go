package grid_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/grid"
)

func TestNoteName(t *testing.T) {
	tests := []struct {
		note uint8
		want string
	}{
		{60, "C-5"},
		{61, "C#5"},
		{0, "C-0"},
		{119, "B-9"},
		{torque.NoteCut, "^^^"},
		{torque.NoteOff, "==="},
		{torque.NoteFade, "~~~"},
	}
	for _, tt := range tests {
		if got := grid.NoteName(tt.note); got != tt.want {
			t.Errorf("NoteName(%d) = %q, want %q", tt.note, got, tt.want)
		}
	}
}

func TestCell(t *testing.T) {
	e := torque.NoteEvent(60).WithInstr(1).WithVolPan(64).WithCommand(1, 0x0F)
	if got := grid.Cell(e); got != "C-5 01 v64 A0F" {
		t.Fatalf("expected %q, got %q", "C-5 01 v64 A0F", got)
	}
	if got := grid.Cell(torque.Event{}); got != "... .. ... ..." {
		t.Fatalf("expected an empty cell, got %q", got)
	}
	if got := grid.Cell(torque.Event{}.WithVolPan(torque.PanBase)); got != "... .. p00 ..." {
		t.Fatalf("expected hard left pan, got %q", got)
	}
}

func TestPrintSong(t *testing.T) {
	p, err := grid.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	song := torque.NewSong()
	song.Name = "my song"
	song.Order = torque.Order{0, torque.OrderSkip, 0}
	song.Patterns[0] = torque.NewPattern(2)
	song.Patterns[0].SetEvent(1, 2, torque.NoteEvent(torque.NoteOff))
	var buf bytes.Buffer
	if err := p.Song(&buf, &song); err != nil {
		t.Fatalf("Song failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"My Song\n",
		"Order: 0 +++ 0\n",
		"Pattern 0, 2 rows\n",
		"Row | Channel 3",
		"000 | ... .. ... ...\n",
		"001 | === .. ... ...\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintPatternOutOfRange(t *testing.T) {
	p, err := grid.New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	song := torque.NewSong()
	if err := p.Pattern(&bytes.Buffer{}, &song, 3); err == nil {
		t.Fatalf("expected an error for a missing pattern")
	}
}
