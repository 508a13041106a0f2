package worker

import "github.com/torque-tracker/torque"

type (
	// Command is a playback command for the track workers. The set of commands
	// is closed.
	Command interface {
		command()
	}

	// PlaySample starts playing a sample on a track, replacing whatever the
	// track was playing. Note MidNote plays the sample at its recorded pitch.
	PlaySample struct {
		Track  int
		Sample *torque.SampleData
		Note   uint8
		Volume float32 // 0..1
	}

	// VoiceVolume changes the volume of the sample playing on a track.
	VoiceVolume struct {
		Track  int
		Volume float32
	}

	// StopPlayback stops the sample playing on a track. Frames already queued
	// for the track still play; mute the track for immediate silence.
	StopPlayback struct {
		Track int
	}

	StopAll struct{}

	// syncRequest is answered by closing done once the worker has handled all
	// earlier commands and filled its queues.
	syncRequest struct {
		done chan struct{}
	}

	// TrackFeedback is sent by a worker when a track stops playing a sample.
	TrackFeedback struct {
		Track  int
		Reason FeedbackReason
		State  VoiceState
	}

	// VoiceState is the state of a voice when it stopped.
	VoiceState struct {
		Position int // frames into the sample
		Volume   float32
	}

	FeedbackReason int
)

const (
	Finished FeedbackReason = iota // the sample played to its end
	Stopped                        // a StopPlayback or StopAll
	Replaced                       // a new PlaySample on the same track
)

func (r FeedbackReason) String() string {
	switch r {
	case Finished:
		return "finished"
	case Stopped:
		return "stopped"
	case Replaced:
		return "replaced"
	}
	return "unknown"
}

func (PlaySample) command()   {}
func (VoiceVolume) command()  {}
func (StopPlayback) command() {}
func (StopAll) command()      {}
func (syncRequest) command()  {}
