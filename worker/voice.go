package worker

import (
	"math"

	"github.com/torque-tracker/torque"
)

// voice is a sample playing on a track.
type voice struct {
	sample *torque.SampleData
	pos    float64
	step   float64
	volume float32
}

func newVoice(c PlaySample, deviceRate int) *voice {
	return &voice{
		sample: c.Sample,
		step:   stepSize(c.Sample.SampleRate, deviceRate, c.Note),
		volume: min(max(c.Volume, 0), 1),
	}
}

// stepSize returns how many sample frames to advance per output frame, so that
// the sample plays at the pitch of note.
func stepSize(sampleRate, deviceRate int, note uint8) float64 {
	return float64(sampleRate) / float64(deviceRate) * math.Exp2((float64(note)-torque.MidNote)/12)
}

// render fills buf with interleaved stereo frames, at unity gain. It returns
// the number of frames rendered; done is true if the sample ended.
func (v *voice) render(buf []float32) (n int, done bool) {
	s := v.sample
	frames := s.Frames()
	looped := s.Looped()
	for n = 0; n < len(buf)/2; n++ {
		if !looped && v.pos >= float64(frames) {
			return n, true
		}
		i := int(v.pos)
		frac := float32(v.pos - float64(i))
		j := i + 1
		switch {
		case looped && j >= s.LoopEnd:
			j = s.LoopStart
		case j >= frames:
			j = i
		}
		l0, r0 := s.At(i)
		l1, r1 := s.At(j)
		buf[2*n] = l0 + (l1-l0)*frac
		buf[2*n+1] = r0 + (r1-r0)*frac
		v.pos += v.step
		for looped && v.pos >= float64(s.LoopEnd) {
			v.pos -= float64(s.LoopEnd - s.LoopStart)
		}
	}
	return n, !looped && v.pos >= float64(frames)
}

func (v *voice) state() VoiceState {
	return VoiceState{Position: int(v.pos), Volume: v.volume}
}
