package torque

import (
	"errors"
	"fmt"
)

// SampleData is a decoded sample buffer, handed to the engine by a file
// decoder. Data holds interleaved frames of Channels samples each. If LoopEnd >
// LoopStart, playback loops the frame range [LoopStart, LoopEnd).
type SampleData struct {
	SampleRate int
	Channels   int
	Data       []float32
	LoopStart  int
	LoopEnd    int
}

var ErrInvalidSample = errors.New("invalid sample data")

// NewSampleData validates and wraps an interleaved buffer.
func NewSampleData(sampleRate, channels int, data []float32) (*SampleData, error) {
	if sampleRate <= 0 || channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%d Hz, %d channels: %w", sampleRate, channels, ErrInvalidSample)
	}
	if len(data)%channels != 0 {
		return nil, fmt.Errorf("%d samples is not a whole number of frames: %w", len(data), ErrInvalidSample)
	}
	return &SampleData{SampleRate: sampleRate, Channels: channels, Data: data}, nil
}

// NewPlanarSampleData interleaves planar channel buffers into a SampleData.
// All planes must have the same length.
func NewPlanarSampleData(sampleRate int, planes ...[]float32) (*SampleData, error) {
	if len(planes) < 1 || len(planes) > 2 {
		return nil, fmt.Errorf("%d planes: %w", len(planes), ErrInvalidSample)
	}
	n := len(planes[0])
	for _, p := range planes[1:] {
		if len(p) != n {
			return nil, fmt.Errorf("planes of different length: %w", ErrInvalidSample)
		}
	}
	data := make([]float32, n*len(planes))
	for c, p := range planes {
		for i, v := range p {
			data[i*len(planes)+c] = v
		}
	}
	return NewSampleData(sampleRate, len(planes), data)
}

// Frames returns the number of frames in the sample.
func (s *SampleData) Frames() int {
	if s.Channels == 0 {
		return 0
	}
	return len(s.Data) / s.Channels
}

// Looped reports whether the sample has a valid loop.
func (s *SampleData) Looped() bool {
	return s.LoopEnd > s.LoopStart && s.LoopStart >= 0 && s.LoopEnd <= s.Frames()
}

// At returns the left and right values of a frame. Mono samples return the
// same value for both.
func (s *SampleData) At(frame int) (l, r float32) {
	if s.Channels == 1 {
		v := s.Data[frame]
		return v, v
	}
	return s.Data[frame*2], s.Data[frame*2+1]
}
