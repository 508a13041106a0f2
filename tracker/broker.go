package tracker

import (
	"sync"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/worker"
)

type (
	// Broker is the centralized message broker of the tracker. It is used to
	// communicate between the engine, the sequencer, the MIDI monitor and the
	// model. Each recipient has its own channel. Additionally, the broker has a
	// sync.Pool for audio buffers used by offline rendering, so that buffers
	// can be passed around without allocating new memory every time.
	//
	// For closing goroutines, the broker has two channels for each goroutine:
	// CloseXXX and FinishedXXX. The CloseXXX channel has a capacity of 1, so
	// you can always send a empty message (struct{}{}) to it without blocking.
	// If the channel is already full, someone else has already requested its
	// closure and dropping the message is fine. FinishedXXX is closed by the
	// goroutine when it is done; wait for it with a timeout.
	//
	// Feedback is unbounded: the workers must never have to wait for the
	// model to catch up.
	Broker struct {
		ToModel     chan MsgToModel
		ToSequencer chan any
		ToMonitor   chan NoteEvent
		Feedback    *worker.Mailbox[worker.TrackFeedback]

		CloseSequencer chan struct{}
		CloseMonitor   chan struct{}

		FinishedSequencer chan struct{}
		FinishedMonitor   chan struct{}

		bufferPool sync.Pool
	}

	// MsgToModel is a message sent to the model. The song position is sent
	// unboxed as it is sent every row; everything else goes in Data.
	MsgToModel struct {
		HasPosition bool
		Position    torque.SongPos
		Playing     bool

		Data any
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToModel:           make(chan MsgToModel, 1024),
		ToSequencer:       make(chan any, 1024),
		ToMonitor:         make(chan NoteEvent, 1024),
		Feedback:          worker.NewMailbox[worker.TrackFeedback](),
		CloseSequencer:    make(chan struct{}, 1),
		CloseMonitor:      make(chan struct{}, 1),
		FinishedSequencer: make(chan struct{}),
		FinishedMonitor:   make(chan struct{}),
		bufferPool:        sync.Pool{New: func() any { return &[]float32{} }},
	}
}

// GetAudioBuffer returns an interleaved stereo buffer of frames frames from
// the buffer pool. After use, return it with PutAudioBuffer.
func (b *Broker) GetAudioBuffer(frames int) *[]float32 {
	buf := b.bufferPool.Get().(*[]float32)
	if cap(*buf) < 2*frames {
		*buf = make([]float32, 2*frames)
	}
	*buf = (*buf)[:2*frames]
	clear(*buf)
	return buf
}

func (b *Broker) PutAudioBuffer(buf *[]float32) {
	b.bufferPool.Put(buf)
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
