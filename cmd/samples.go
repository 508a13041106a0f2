package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/sampleio"
	"github.com/torque-tracker/torque/tracker"
)

// ReadSongFile reads a .json or .yml song file.
func ReadSongFile(path string) (torque.Song, error) {
	f, err := os.Open(path)
	if err != nil {
		return torque.Song{}, fmt.Errorf("could not read file %v: %v", path, err)
	}
	return tracker.ReadSong(f)
}

// LoadSongSamples decodes the sample files the song refers to and loads them
// into the engine, slot i getting song.Samples[i]. Relative paths are
// resolved against dir. A failing sample does not stop the others from
// loading; all the errors are returned together.
func LoadSongSamples(e *tracker.Engine, song *torque.Song, dir string) error {
	var errs []error
	for i, info := range song.Samples {
		if info.Path == "" {
			continue
		}
		path := info.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		s, err := sampleio.LoadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("sample %d: %w", i+1, err))
			continue
		}
		if err := e.LoadSample(i, s); err != nil {
			errs = append(errs, fmt.Errorf("sample %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}
