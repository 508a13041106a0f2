package oto_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/oto"
)

func TestOutputReadEncodesLittleEndian(t *testing.T) {
	var frames []uint64
	cb := func(out []float32, info torque.CallbackInfo) {
		frames = append(frames, info.Frame)
		for i := range out {
			out[i] = float32(i) - 1.5
		}
	}
	o := oto.NewOutput(cb, 8000, 4)
	defer o.Close()
	p := make([]byte, 3*32+12)
	if n, err := o.Read(p); err != nil || n != len(p) {
		t.Fatalf("Read returned %d, %v", n, err)
	}
	for i := 0; i < len(p)/4; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[4*i:]))
		if want := float32(i%8) - 1.5; got != want {
			t.Fatalf("sample %d: got %v, expected %v", i, got, want)
		}
	}
	if len(frames) != 4 || frames[3] != 12 {
		t.Fatalf("expected callbacks at frames 0, 4, 8 and 12, got %v", frames)
	}
}
