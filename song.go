// Package torque defines the song data model and the audio types shared by
// the engine packages.
package torque

type (
	// Song is the fully parsed in-memory composition handed to the engine by a
	// file decoder or created in the editor. Tempo and Speed set how fast the
	// song is played, following the Impulse Tracker convention: a tick lasts
	// 2.5 / Tempo seconds and a row lasts Speed ticks.
	Song struct {
		Name     string       `yaml:",omitempty"`
		Tempo    int          // initial tempo, 32..255
		Speed    int          // initial ticks per row, 1..255
		Order    Order        `yaml:",flow"`
		Patterns []Pattern
		Samples  []SampleInfo `yaml:",omitempty"`
	}

	// SampleInfo describes a sample slot of a song. The decoded audio itself is
	// kept outside the song, see SampleData.
	SampleInfo struct {
		Name   string `yaml:",omitempty"`
		Path   string `yaml:",omitempty"`
		Volume int    // default volume, 1..64; 0 means 64
	}

	// SongPos represents a position in a song, in terms of order row and
	// pattern row. The order row is the index of the pattern in the order list,
	// and the pattern row is the index of the row in the pattern.
	SongPos struct {
		OrderRow   int
		PatternRow int
	}
)

const (
	DefaultTempo = 125
	DefaultSpeed = 6
	MinTempo     = 32
	MaxTempo     = 255
	MaxSpeed     = 255
	MaxSamples   = 100
	MaxPatterns  = 200
)

// NewSong returns an empty song with one pattern of DefaultPatternRows rows.
func NewSong() Song {
	return Song{
		Tempo:    DefaultTempo,
		Speed:    DefaultSpeed,
		Order:    Order{0},
		Patterns: []Pattern{NewPattern(DefaultPatternRows)},
	}
}

// Copy makes a deep copy of a Song.
func (s *Song) Copy() Song {
	patterns := make([]Pattern, len(s.Patterns))
	for i := range s.Patterns {
		patterns[i] = s.Patterns[i].Copy()
	}
	samples := make([]SampleInfo, len(s.Samples))
	copy(samples, s.Samples)
	return Song{
		Name:     s.Name,
		Tempo:    s.Tempo,
		Speed:    s.Speed,
		Order:    s.Order.Copy(),
		Patterns: patterns,
		Samples:  samples,
	}
}

// Pattern returns the pattern with the given index, or nil if there is none.
func (s *Song) Pattern(index int) *Pattern {
	if index < 0 || index >= len(s.Patterns) {
		return nil
	}
	return &s.Patterns[index]
}

// SamplesPerRow returns the number of audio frames a row lasts at the given
// sample rate, using the initial tempo and speed of the song.
func (s *Song) SamplesPerRow(sampleRate int) int {
	tempo := s.Tempo
	if tempo < MinTempo {
		tempo = DefaultTempo
	}
	speed := s.Speed
	if speed < 1 {
		speed = DefaultSpeed
	}
	return sampleRate * 5 * speed / (tempo * 2)
}
