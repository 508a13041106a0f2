package tracker

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/leftright"
	"github.com/torque-tracker/torque/mixer"
	"github.com/torque-tracker/torque/queue"
	"github.com/torque-tracker/torque/worker"
)

type (
	// Engine owns the whole audio side of the tracker: the song store, the
	// mixer state, the track queues, the workers and the sequencer. It is
	// constructed explicitly and handed to whoever needs it; there is no global
	// state.
	//
	// Engine methods are safe for concurrent use, except Process, which must
	// only be called by the audio device. Engine locks are only ever taken by
	// non-realtime goroutines; Process touches nothing but the track queues
	// and the mixer cell.
	Engine struct {
		cfg    Config
		broker *Broker

		mu        sync.Mutex // guards the fields below
		writer    *leftright.WriteHandle[torque.Song, torque.SongOperation]
		snapshot  mixer.Snapshot
		stopMuted [torque.TrackCount]bool
		closed    bool

		seqMu sync.Mutex // guards seq
		seq   *Sequencer // only set in offline mode

		samples [torque.MaxSamples]atomic.Pointer[torque.SampleData]
		cell    *mixer.Cell
		mixer   *mixer.Mixer
		pool    *worker.Pool
	}

	Config struct {
		SampleRate int
		BufferSize int // frames per device buffer and per track queue
		Workers    int
		// Offline engines are not driven by a device; the song is rendered
		// with Render instead.
		Offline bool
	}
)

var (
	ErrNoSample        = errors.New("no sample in slot")
	ErrTrackOutOfRange = errors.New("track out of range")
	ErrEngineClosed    = errors.New("engine closed")
	ErrNotOffline      = errors.New("engine is not offline")
)

const closeTimeout = 3 * time.Second

// NewEngine starts an engine playing song. Feedback from the workers and song
// positions from the sequencer are delivered through broker.
func NewEngine(song torque.Song, cfg Config, broker *Broker) (*Engine, error) {
	if cfg.SampleRate <= 0 || cfg.BufferSize <= 0 {
		return nil, fmt.Errorf("tracker.NewEngine: invalid config %+v", cfg)
	}
	cfg.Workers = max(cfg.Workers, 1)
	e := &Engine{cfg: cfg, broker: broker, snapshot: mixer.DefaultSnapshot()}
	writer, reader := leftright.New[torque.Song, torque.SongOperation](song.Copy(), song.Copy(), torque.SongAbsorber{})
	e.writer = writer
	e.cell = mixer.NewCell(e.snapshot)
	queues := make([]*queue.Ring[torque.AudioFrame], torque.TrackCount)
	for i := range queues {
		queues[i] = queue.New[torque.AudioFrame](cfg.BufferSize)
	}
	pool, err := worker.NewPool(worker.Config{Workers: cfg.Workers, SampleRate: cfg.SampleRate, BufferSize: cfg.BufferSize, OnDemand: cfg.Offline}, queues, broker.Feedback)
	if err != nil {
		return nil, fmt.Errorf("tracker.NewEngine: %w", err)
	}
	e.pool = pool
	seq := newSequencer(reader, e, broker, cfg.SampleRate)
	var ticks []chan<- struct{}
	var seqTick chan struct{}
	if cfg.Offline {
		// workers only render when Render syncs them
		e.seq = seq
	} else {
		seqTick = make(chan struct{}, 1)
		ticks = append(pool.Ticks(), seqTick)
	}
	e.mixer, err = mixer.New(e.cell, queues, cfg.BufferSize, ticks...)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("tracker.NewEngine: %w", err)
	}
	if !cfg.Offline {
		go seq.run(seqTick, cfg.BufferSize)
	}
	return e, nil
}

// Process is the realtime audio callback; it matches torque.AudioCallback.
func (e *Engine) Process(out []float32, info torque.CallbackInfo) {
	e.mixer.Process(out, info)
}

// Stats returns the counters of the realtime mixer.
func (e *Engine) Stats() mixer.Stats {
	return e.mixer.Stats()
}

// Append validates op against the current song and, if it is valid, applies it
// to the editor's copy. Invalid operations are rejected without any effect.
// The sequencer does not see the operation before Publish.
func (e *Engine) Append(op torque.SongOperation) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	if err := op.Validate(e.writer.Raw()); err != nil {
		return err
	}
	e.writer.Append(op)
	return nil
}

// Publish makes all appended operations visible to the sequencer at once.
func (e *Engine) Publish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writer.Publish()
}

// Submit appends and publishes a single operation.
func (e *Engine) Submit(op torque.SongOperation) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	if err := op.Validate(e.writer.Raw()); err != nil {
		return err
	}
	e.writer.Append(op)
	e.writer.Publish()
	return nil
}

// View calls f with the editor's copy of the song, which includes appended
// but unpublished operations. f must not modify or retain the song.
func (e *Engine) View(f func(song *torque.Song)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f(e.writer.Raw())
}

// Song returns a deep copy of the editor's copy of the song.
func (e *Engine) Song() torque.Song {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writer.Raw().Copy()
}

// NewReader returns a new read handle of the song, e.g. for a UI goroutine
// that needs to draw the song while it is being edited.
func (e *Engine) NewReader() *leftright.ReadHandle[torque.Song, torque.SongOperation] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writer.Reader()
}

// Apply publishes a mixer change. The realtime side picks it up at its next
// buffer.
func (e *Engine) Apply(c mixer.Change) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.apply(c)
}

func (e *Engine) apply(c mixer.Change) {
	e.snapshot = e.snapshot.Apply(c)
	e.cell.Publish(e.snapshot)
}

func (e *Engine) SetVolume(track int, volume float32) { e.Apply(mixer.VolumeChange(track, volume)) }
func (e *Engine) SetPan(track int, pan int)           { e.Apply(mixer.PanChange(track, pan)) }

func (e *Engine) SetMuted(track int, muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if track >= 0 && track < torque.TrackCount {
		e.stopMuted[track] = false
	}
	e.apply(mixer.MuteChange(track, muted))
}

// Mixer returns the last published mixer state.
func (e *Engine) Mixer() mixer.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

// LoadSample puts a decoded sample into slot, replacing what was there. A nil
// sample empties the slot. Voices already playing the old sample keep it.
func (e *Engine) LoadSample(slot int, s *torque.SampleData) error {
	if slot < 0 || slot >= torque.MaxSamples {
		return fmt.Errorf("LoadSample: slot %d: %w", slot, ErrNoSample)
	}
	if s != nil && (s.SampleRate <= 0 || s.Channels < 1 || s.Channels > 2) {
		return fmt.Errorf("LoadSample: %w", torque.ErrInvalidSample)
	}
	e.samples[slot].Store(s)
	return nil
}

// sample returns the sample in slot or nil.
func (e *Engine) sample(slot int) *torque.SampleData {
	if slot < 0 || slot >= torque.MaxSamples {
		return nil
	}
	return e.samples[slot].Load()
}

func (e *Engine) send(c worker.Command) error {
	return e.pool.Send(c)
}

// PlaySample starts playing the sample of slot on track at the given note. A
// track muted by StopImmediately is unmuted first.
func (e *Engine) PlaySample(track, slot int, note uint8, volume float32) error {
	if track < 0 || track >= torque.TrackCount {
		return fmt.Errorf("PlaySample: track %d: %w", track, ErrTrackOutOfRange)
	}
	s := e.sample(slot)
	if s == nil {
		return fmt.Errorf("PlaySample: slot %d: %w", slot, ErrNoSample)
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if e.stopMuted[track] {
		e.stopMuted[track] = false
		e.apply(mixer.MuteChange(track, false))
	}
	e.mu.Unlock()
	return e.send(worker.PlaySample{Track: track, Sample: s, Note: note, Volume: volume})
}

// Stop asks the worker to stop the track. Frames already rendered still play.
func (e *Engine) Stop(track int) error {
	if track < 0 || track >= torque.TrackCount {
		return fmt.Errorf("Stop: track %d: %w", track, ErrTrackOutOfRange)
	}
	return e.send(worker.StopPlayback{Track: track})
}

// StopAll asks every worker to stop all of its tracks, the input track
// included.
func (e *Engine) StopAll() error {
	return e.send(worker.StopAll{})
}

// StopImmediately mutes the track in the mixer, which silences it at the next
// device buffer, and stops it in the worker. The next PlaySample on the track
// unmutes it.
func (e *Engine) StopImmediately(track int) error {
	if track < 0 || track >= torque.TrackCount {
		return fmt.Errorf("StopImmediately: track %d: %w", track, ErrTrackOutOfRange)
	}
	e.mu.Lock()
	if !e.snapshot.Muted[track] {
		e.stopMuted[track] = true
		e.apply(mixer.MuteChange(track, true))
	}
	e.mu.Unlock()
	return e.send(worker.StopPlayback{Track: track})
}

// PlayFrom starts the sequencer at pos.
func (e *Engine) PlayFrom(pos torque.SongPos) {
	if e.cfg.Offline {
		e.seqMu.Lock()
		defer e.seqMu.Unlock()
		e.seq.PlayFrom(pos)
		return
	}
	TrySend(e.broker.ToSequencer, any(playFromMsg(pos)))
}

// StopSequencer stops the song and all the tracks it plays on.
func (e *Engine) StopSequencer() {
	if e.cfg.Offline {
		e.seqMu.Lock()
		defer e.seqMu.Unlock()
		e.seq.Stop()
		return
	}
	TrySend(e.broker.ToSequencer, any(stopMsg{}))
}

// Feedback returns the mailbox the workers report finished and stopped tracks
// to.
func (e *Engine) Feedback() *worker.Mailbox[worker.TrackFeedback] {
	return e.broker.Feedback
}

// Playing reports whether the sequencer of an offline engine is playing.
func (e *Engine) Playing() bool {
	e.seqMu.Lock()
	defer e.seqMu.Unlock()
	return e.seq != nil && e.seq.Playing()
}

// Render renders frames frames of an offline engine into out, which it
// returns extended. Rendering is deterministic: the sequencer and the workers
// are stepped in lock step with the mixer, one buffer at a time, and every row
// starts on its own frame.
func (e *Engine) Render(out []float32, frames int) ([]float32, error) {
	if !e.cfg.Offline {
		return out, ErrNotOffline
	}
	e.seqMu.Lock()
	defer e.seqMu.Unlock()
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return out, ErrEngineClosed
	}
	buf := e.broker.GetAudioBuffer(e.cfg.BufferSize)
	defer e.broker.PutAudioBuffer(buf)
	info := torque.CallbackInfo{SampleRate: e.cfg.SampleRate}
	for frames > 0 {
		n := min(frames, e.cfg.BufferSize)
		// blocks end at row boundaries so that rows start on their exact frame
		if r := e.seq.FramesToRow(); r > 0 {
			n = min(n, r)
		}
		e.seq.Advance(n)
		if err := e.pool.Sync(); err != nil {
			return out, fmt.Errorf("Render: %w", err)
		}
		block := (*buf)[:2*n]
		e.mixer.Process(block, info)
		out = append(out, block...)
		info.Frame += uint64(n)
		frames -= n
	}
	return out, nil
}

// Close stops the sequencer and the workers and waits for them to finish.
// After Close, the realtime callback keeps running on the last mixer state and
// plays silence once the queues run dry.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()
	if !e.cfg.Offline {
		TrySend(e.broker.CloseSequencer, struct{}{})
		if !waitFinished(e.broker.FinishedSequencer) {
			log.Printf("sequencer did not finish in %v", closeTimeout)
		}
	} else {
		e.seqMu.Lock()
		e.seq.reader.Close()
		e.seqMu.Unlock()
	}
	e.pool.Close()
	if !waitFinished(e.pool.Finished()) {
		log.Printf("track workers did not finish in %v", closeTimeout)
	}
	e.cell.Close()
	e.broker.Feedback.Close()
}

func waitFinished(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	case <-time.After(closeTimeout):
		return false
	}
}
