package tracker

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/torque-tracker/torque"
)

// ReadSong reads a song file, trying JSON first and YAML second, and closes r.
func ReadSong(r io.ReadCloser) (torque.Song, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		r.Close()
		return torque.Song{}, fmt.Errorf("cannot read song file: %w", err)
	}
	if err := r.Close(); err != nil {
		return torque.Song{}, fmt.Errorf("cannot close song file: %w", err)
	}
	return UnmarshalSong(b)
}

// UnmarshalSong parses a song from JSON or YAML. Missing tempo, speed and
// order are given their defaults.
func UnmarshalSong(b []byte) (torque.Song, error) {
	var song torque.Song
	if errJSON := json.Unmarshal(b, &song); errJSON != nil {
		song = torque.Song{}
		if errYaml := yaml.Unmarshal(b, &song); errYaml != nil {
			return torque.Song{}, fmt.Errorf("the song could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if song.Tempo == 0 {
		song.Tempo = torque.DefaultTempo
	}
	if song.Speed == 0 {
		song.Speed = torque.DefaultSpeed
	}
	if len(song.Patterns) == 0 {
		song.Patterns = []torque.Pattern{torque.NewPattern(torque.DefaultPatternRows)}
	}
	if len(song.Order) == 0 {
		song.Order = torque.Order{0}
	}
	if err := (torque.ReplaceSong{Song: &song}).Validate(nil); err != nil {
		return torque.Song{}, fmt.Errorf("invalid song: %w", err)
	}
	return song, nil
}

// WriteSong writes song to w as JSON if path has a .json extension and as YAML
// otherwise.
func WriteSong(w io.Writer, song *torque.Song, path string) error {
	var contents []byte
	var err error
	if filepath.Ext(path) == ".json" {
		contents, err = json.Marshal(song)
	} else {
		contents, err = yaml.Marshal(song)
	}
	if err != nil {
		return fmt.Errorf("cannot marshal song: %w", err)
	}
	if _, err := w.Write(contents); err != nil {
		return fmt.Errorf("cannot write song: %w", err)
	}
	return nil
}
