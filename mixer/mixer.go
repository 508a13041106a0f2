package mixer

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/queue"
	"github.com/viterin/vek/vek32"
)

// Attenuation is the fixed gain applied to the sum of all tracks.
const Attenuation = 1.0 / torque.TrackCount

type (
	// Mixer is the realtime output callback. Every device buffer it takes at
	// most one frame per output frame from each track queue, weighs it with the
	// volume and pan of the latest mixer snapshot and sums the tracks.
	// Muted tracks are not skipped: their frames are still popped and then
	// dropped, so a track stays in step with its worker while muted and
	// unmuting never plays stale audio.
	//
	// Process is the only method that may be called from the realtime thread,
	// and only from one goroutine at a time. It never blocks or allocates.
	Mixer struct {
		reader    *CellReader
		queues    [torque.TrackCount]*queue.Ring[torque.AudioFrame]
		ticks     []chan<- struct{}
		active    [torque.TrackCount]bool
		maxFrames int

		stats struct {
			ticks, dropouts, faults, lateFrames, frames atomic.Uint64
		}
	}

	// Stats are counters of the realtime side. They can be read from any
	// goroutine.
	Stats struct {
		Ticks      uint64 // number of processed buffers
		Frames     uint64 // number of output frames written
		Dropouts   uint64 // times an active track ran out of frames, including samples ending
		Faults     uint64 // buffers replaced with silence because they were malformed
		LateFrames uint64 // frames mixed at a different position than they were rendered for
	}
)

var ErrQueueCount = errors.New("wrong number of track queues")

// New returns a Mixer that reads cell and drains queues, one queue per track.
// maxFrames is the largest buffer, in frames, Process accepts. After every
// processed buffer, a tick is sent to each of ticks without blocking.
func New(cell *Cell, queues []*queue.Ring[torque.AudioFrame], maxFrames int, ticks ...chan<- struct{}) (*Mixer, error) {
	if len(queues) != torque.TrackCount {
		return nil, fmt.Errorf("mixer.New: got %d, expected %d: %w", len(queues), torque.TrackCount, ErrQueueCount)
	}
	m := &Mixer{reader: cell.Reader(), ticks: ticks, maxFrames: maxFrames}
	copy(m.queues[:], queues)
	return m, nil
}

// Process mixes one buffer of interleaved stereo samples into out. It matches
// torque.AudioCallback.
func (m *Mixer) Process(out []float32, info torque.CallbackInfo) {
	m.stats.ticks.Add(1)
	defer m.tick()
	if len(out)%2 != 0 || len(out)/2 > m.maxFrames {
		clear(out)
		m.stats.faults.Add(1)
		return
	}
	m.reader.ReadIfChanged()
	snap := m.reader.Last()
	frames := len(out) / 2
	var dropouts, late uint64
	for i := 0; i < frames; i++ {
		var l, r float32
		for t := torque.TrackCount - 1; t >= 0; t-- {
			q := m.queues[t]
			if q == nil {
				continue
			}
			f, ok := q.TryPop()
			if !ok {
				if m.active[t] {
					dropouts++
					m.active[t] = false
				}
				continue
			}
			m.active[t] = true
			// muted tracks are still drained so that they resume in time
			if snap.Muted[t] || f.Channels == 0 {
				continue
			}
			if f.Num != i {
				late++
			}
			fl, fr := f.Data[0], f.Data[0]
			if f.Channels == 2 {
				fr = f.Data[1]
			}
			gl, gr := PanGains(snap.Pan[t])
			v := snap.Volume[t]
			l += fl * v * gl
			r += fr * v * gr
		}
		out[2*i] = l
		out[2*i+1] = r
	}
	vek32.MulNumber_Inplace(out, Attenuation)
	for i, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			out[i] = 0
		}
	}
	m.stats.frames.Add(uint64(frames))
	if dropouts > 0 {
		m.stats.dropouts.Add(dropouts)
	}
	if late > 0 {
		m.stats.lateFrames.Add(late)
	}
}

func (m *Mixer) tick() {
	for _, c := range m.ticks {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

// Snapshot returns the snapshot the mixer used for the last processed buffer.
// Only safe to call from the goroutine that calls Process.
func (m *Mixer) Snapshot() Snapshot {
	return *m.reader.Last()
}

func (m *Mixer) Stats() Stats {
	return Stats{
		Ticks:      m.stats.ticks.Load(),
		Frames:     m.stats.frames.Load(),
		Dropouts:   m.stats.dropouts.Load(),
		Faults:     m.stats.faults.Load(),
		LateFrames: m.stats.lateFrames.Load(),
	}
}
