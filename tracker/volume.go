package tracker

import (
	"errors"
	"math"
	"time"

	"github.com/viterin/vek/vek32"
)

// LevelMeter follows the loudness of interleaved stereo audio, one block at a
// time. The RMS level is smoothed over Window; the peak level holds the
// largest sample seen since the last Reset.
type LevelMeter struct {
	SampleRate int
	Window     time.Duration
	Floor      float64 // level in dB reported for silence

	meanSquare [2]float64
	peak       [2]float32
	split      [2][]float32
}

var ErrNonFinite = errors.New("non-finite sample in audio")

// Add feeds a block of interleaved stereo frames to the meter. Blocks with
// NaN or infinite samples are not measured; Add reports them with
// ErrNonFinite.
func (m *LevelMeter) Add(block []float32) error {
	frames := len(block) / 2
	if frames == 0 {
		return nil
	}
	for c := range m.split {
		m.split[c] = m.split[c][:0]
		for i := c; i < 2*frames; i += 2 {
			m.split[c] = append(m.split[c], block[i])
		}
	}
	var ms [2]float64
	for c, s := range m.split {
		ms[c] = float64(vek32.Dot(s, s)) / float64(frames)
		if math.IsNaN(ms[c]) || math.IsInf(ms[c], 0) {
			return ErrNonFinite
		}
	}
	window := m.Window.Seconds() * float64(max(m.SampleRate, 1))
	a := 1.0
	if window > 0 {
		a = 1 - math.Exp(-float64(frames)/window)
	}
	for c, s := range m.split {
		m.meanSquare[c] += (ms[c] - m.meanSquare[c]) * a
		m.peak[c] = max(m.peak[c], Peak(s))
	}
	return nil
}

// Level returns the smoothed RMS level of the left and right channels in dB.
func (m *LevelMeter) Level() [2]float64 {
	var l [2]float64
	for c, ms := range m.meanSquare {
		l[c] = max(10*math.Log10(ms), m.Floor)
	}
	return l
}

// PeakLevel returns the held peak of the left and right channels in dB.
func (m *LevelMeter) PeakLevel() [2]float64 {
	var l [2]float64
	for c, p := range m.peak {
		l[c] = max(Decibel(p), m.Floor)
	}
	return l
}

func (m *LevelMeter) Reset() {
	m.meanSquare = [2]float64{}
	m.peak = [2]float32{}
}

// Peak returns the largest absolute sample value of buffer.
func Peak(buffer []float32) float32 {
	if len(buffer) == 0 {
		return 0
	}
	return max(vek32.Max(buffer), -vek32.Min(buffer))
}

// Decibel converts an amplitude to decibels relative to full scale.
func Decibel(amplitude float32) float64 {
	return 20 * math.Log10(float64(amplitude))
}
