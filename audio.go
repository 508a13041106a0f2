package torque

type (
	// AudioFrame is one stereo or mono sample unit produced by a track renderer
	// and consumed once by the realtime mixer. Num is the position of the frame
	// within the output buffer it was rendered for.
	AudioFrame struct {
		Num      int
		Channels int8 // 0 = empty, 1 = mono (Data[0]), 2 = stereo
		Data     [2]float32
	}

	// CallbackInfo is the timing information handed to an AudioCallback by the
	// device layer. Frame is the index of the first frame of the buffer since
	// the output was started.
	CallbackInfo struct {
		Frame      uint64
		SampleRate int
	}

	// AudioCallback fills out with interleaved stereo float32 samples, left
	// channel first. It is called on the device's realtime thread, so it must
	// not block, allocate or panic.
	AudioCallback func(out []float32, info CallbackInfo)

	// AudioContext is an opened audio device.
	AudioContext interface {
		// Play starts pulling audio from cb. The returned AudioOutput stops it.
		Play(cb AudioCallback) (AudioOutput, error)
		SampleRate() int
		// BufferSize returns the number of frames per callback.
		BufferSize() int
		Close() error
	}

	AudioOutput interface {
		Close() error
	}
)

const (
	// TrackCount is the number of mixer tracks. Track 0 is reserved for direct
	// input monitoring, pattern channels map to tracks 1..TrackCount-1.
	TrackCount = 64
	// MaxChannels is the number of pattern channels.
	MaxChannels = TrackCount - 1
)

// ChannelTrack returns the mixer track a pattern channel plays on.
func ChannelTrack(channel uint8) int {
	return int(channel) + 1
}

// Mono returns a mono frame.
func Mono(num int, v float32) AudioFrame {
	return AudioFrame{Num: num, Channels: 1, Data: [2]float32{v, v}}
}

// Stereo returns a stereo frame.
func Stereo(num int, l, r float32) AudioFrame {
	return AudioFrame{Num: num, Channels: 2, Data: [2]float32{l, r}}
}
