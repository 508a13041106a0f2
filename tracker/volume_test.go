package tracker_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/torque-tracker/torque/tracker"
)

func TestPeak(t *testing.T) {
	if p := tracker.Peak([]float32{0.1, -0.7, 0.5, 0.2}); p != 0.7 {
		t.Fatalf("expected peak 0.7, got %v", p)
	}
	if p := tracker.Peak(nil); p != 0 {
		t.Fatalf("expected peak 0 of an empty buffer, got %v", p)
	}
}

func TestLevelMeter(t *testing.T) {
	m := tracker.LevelMeter{SampleRate: 1000, Window: 10 * time.Millisecond, Floor: -90}
	block := make([]float32, 2*100)
	for i := 0; i < len(block); i += 2 {
		block[i] = 0.5
	}
	for range 20 {
		if err := m.Add(block); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	l := m.Level()
	if want := tracker.Decibel(0.5); math.Abs(l[0]-want) > 0.1 {
		t.Fatalf("expected left level near %v dB, got %v", want, l[0])
	}
	if l[1] != -90 {
		t.Fatalf("expected silent right channel at the floor, got %v", l[1])
	}
	block[4] = -0.9
	m.Add(block)
	if p := m.PeakLevel(); math.Abs(p[0]-tracker.Decibel(0.9)) > 1e-6 {
		t.Fatalf("expected left peak %v dB, got %v", tracker.Decibel(0.9), p[0])
	}
	block[0] = float32(math.NaN())
	if err := m.Add(block); !errors.Is(err, tracker.ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
	m.Reset()
	if l := m.Level(); l[0] != -90 {
		t.Fatalf("expected the floor after Reset, got %v", l[0])
	}
}
