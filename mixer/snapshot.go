// Package mixer holds the per-track mixer state, its lock-free publication
// cell and the realtime output callback that mixes the track queues.
package mixer

import "github.com/torque-tracker/torque"

const (
	MinPan = -32
	MaxPan = 32
)

// Snapshot is the complete per-track mixer state. It is a plain value: copying
// it never shares memory, so a published Snapshot cannot be mutated by anyone
// holding a copy.
type Snapshot struct {
	Volume [torque.TrackCount]float32 // 0..1
	Pan    [torque.TrackCount]int8    // MinPan..MaxPan, 0 is center
	Muted  [torque.TrackCount]bool
}

// DefaultSnapshot has every track at full volume, centered and unmuted.
func DefaultSnapshot() Snapshot {
	var s Snapshot
	for i := range s.Volume {
		s.Volume[i] = 1
	}
	return s
}

type (
	// Change is a single edit of one track parameter. Changes are only made with
	// the constructors, which clamp the values into range.
	Change struct {
		kind  changeKind
		track int
		vol   float32
		pan   int8
		muted bool
	}

	changeKind int
)

const (
	volumeChange changeKind = iota
	panChange
	muteChange
)

// VolumeChange sets the volume of a track. volume is clamped to 0..1.
func VolumeChange(track int, volume float32) Change {
	if volume != volume { // NaN
		volume = 0
	}
	return Change{kind: volumeChange, track: clampTrack(track), vol: min(max(volume, 0), 1)}
}

// PanChange sets the pan of a track. pan is clamped to MinPan..MaxPan.
func PanChange(track int, pan int) Change {
	return Change{kind: panChange, track: clampTrack(track), pan: int8(min(max(pan, MinPan), MaxPan))}
}

func MuteChange(track int, muted bool) Change {
	return Change{kind: muteChange, track: clampTrack(track), muted: muted}
}

func (c Change) Track() int { return c.track }

// Apply returns a copy of s with c applied.
func (s Snapshot) Apply(c Change) Snapshot {
	switch c.kind {
	case volumeChange:
		s.Volume[c.track] = c.vol
	case panChange:
		s.Pan[c.track] = c.pan
	case muteChange:
		s.Muted[c.track] = c.muted
	}
	return s
}

func clampTrack(track int) int {
	return min(max(track, 0), torque.TrackCount-1)
}
