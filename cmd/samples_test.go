package cmd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/cmd"
	"github.com/torque-tracker/torque/tracker"
)

func TestLoadSongSamples(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "click.wav"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := torque.WriteWav(f, make([]float32, 2*64), 8000); err != nil {
		t.Fatalf("WriteWav failed: %v", err)
	}
	f.Close()
	song := torque.NewSong()
	song.Samples = []torque.SampleInfo{{Path: "click.wav"}, {}, {Path: "missing.wav"}}
	e, err := tracker.NewEngine(song, tracker.Config{SampleRate: 8000, BufferSize: 64, Offline: true}, tracker.NewBroker())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	defer e.Close()
	if err := cmd.LoadSongSamples(e, &song, dir); err == nil {
		t.Fatalf("expected the missing sample to be reported")
	}
	if err := e.PlaySample(1, 0, torque.MidNote, 1); err != nil {
		t.Fatalf("expected slot 0 to be loaded, got %v", err)
	}
	if err := e.PlaySample(1, 2, torque.MidNote, 1); err == nil {
		t.Fatalf("expected slot 2 to stay empty")
	}
}
