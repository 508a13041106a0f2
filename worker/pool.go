// Package worker renders playing samples into the track queues. Each worker
// goroutine owns the voices of a fixed subset of tracks, so every track queue
// has exactly one producer.
package worker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/queue"
	"github.com/viterin/vek/vek32"
)

type (
	Config struct {
		Workers    int // number of worker goroutines, at least 1
		SampleRate int // device sample rate
		BufferSize int // frames per device buffer; also the track queue capacity
		// OnDemand workers only render when Sync asks them to, which makes
		// offline rendering deterministic.
		OnDemand bool
	}

	// Pool is a set of worker goroutines. Commands for track t go to worker
	// t % Workers.
	Pool struct {
		workers  []*worker
		feedback *Mailbox[TrackFeedback]
		wg       sync.WaitGroup
		finished chan struct{}
	}

	worker struct {
		cmds       *Mailbox[Command]
		tick       chan struct{}
		queues     []*queue.Ring[torque.AudioFrame]
		voices     map[int]*voice
		frameNum   map[int]int
		scratch    []float32
		feedback   *Mailbox[TrackFeedback]
		sampleRate int
		bufferSize int
		onDemand   bool
		syncs      []syncRequest
	}
)

var ErrTrackOutOfRange = errors.New("track out of range")

// NewPool starts cfg.Workers goroutines rendering into queues, one queue per
// track. Feedback about stopped voices is sent to feedback.
func NewPool(cfg Config, queues []*queue.Ring[torque.AudioFrame], feedback *Mailbox[TrackFeedback]) (*Pool, error) {
	if cfg.Workers < 1 || cfg.SampleRate < 1 || cfg.BufferSize < 1 {
		return nil, fmt.Errorf("worker.NewPool: invalid config %+v", cfg)
	}
	p := &Pool{feedback: feedback, finished: make(chan struct{})}
	for i := 0; i < cfg.Workers; i++ {
		w := &worker{
			cmds:       NewMailbox[Command](),
			tick:       make(chan struct{}, 1),
			queues:     queues,
			voices:     map[int]*voice{},
			frameNum:   map[int]int{},
			scratch:    make([]float32, 2*cfg.BufferSize),
			feedback:   feedback,
			sampleRate: cfg.SampleRate,
			bufferSize: cfg.BufferSize,
			onDemand:   cfg.OnDemand,
		}
		p.workers = append(p.workers, w)
	}
	p.wg.Add(len(p.workers))
	for _, w := range p.workers {
		go func() {
			defer p.wg.Done()
			w.run()
		}()
	}
	go func() {
		p.wg.Wait()
		close(p.finished)
	}()
	return p, nil
}

// Ticks returns one channel per worker; a value sent on it tells the worker
// that the queues have been drained and it should render more.
func (p *Pool) Ticks() []chan<- struct{} {
	ret := make([]chan<- struct{}, len(p.workers))
	for i, w := range p.workers {
		ret[i] = w.tick
	}
	return ret
}

// Send routes a command to the worker owning its track. StopAll goes to every
// worker.
func (p *Pool) Send(c Command) error {
	var track int
	switch c := c.(type) {
	case PlaySample:
		track = c.Track
	case VoiceVolume:
		track = c.Track
	case StopPlayback:
		track = c.Track
	default:
		for _, w := range p.workers {
			if err := w.cmds.Send(c); err != nil {
				return err
			}
		}
		return nil
	}
	if track < 0 || track >= torque.TrackCount {
		return fmt.Errorf("worker: track %d: %w", track, ErrTrackOutOfRange)
	}
	return p.workers[track%len(p.workers)].cmds.Send(c)
}

// Sync waits until every worker has handled the commands sent before the call
// and filled the queues of its playing tracks.
func (p *Pool) Sync() error {
	reqs := make([]syncRequest, len(p.workers))
	for i, w := range p.workers {
		reqs[i] = syncRequest{done: make(chan struct{})}
		if err := w.cmds.Send(reqs[i]); err != nil {
			return err
		}
	}
	for _, r := range reqs {
		<-r.done
	}
	return nil
}

// Close closes the command mailboxes; the workers exit after handling the
// commands already sent. Wait on Finished to know when they are gone.
func (p *Pool) Close() {
	for _, w := range p.workers {
		w.cmds.Close()
	}
}

// Finished is closed after all workers have exited.
func (p *Pool) Finished() <-chan struct{} {
	return p.finished
}

func (w *worker) run() {
	defer func() {
		for _, s := range w.syncs {
			close(s.done)
		}
	}()
	for {
		if !w.handleCommands() {
			return
		}
		if !w.onDemand || len(w.syncs) > 0 {
			w.render()
		}
		for _, s := range w.syncs {
			close(s.done)
		}
		clear(w.syncs)
		w.syncs = w.syncs[:0]
		select {
		case <-w.cmds.Signal():
		case <-w.tick:
		}
	}
}

// handleCommands drains the command mailbox without waiting. It returns false
// once the mailbox is closed and empty.
func (w *worker) handleCommands() bool {
	for {
		c, status := w.cmds.TryRecv()
		switch status {
		case RecvEmpty:
			return true
		case RecvClosed:
			return false
		}
		switch c := c.(type) {
		case PlaySample:
			if c.Sample == nil {
				continue
			}
			w.stop(c.Track, Replaced)
			w.voices[c.Track] = newVoice(c, w.sampleRate)
		case VoiceVolume:
			if v, ok := w.voices[c.Track]; ok {
				v.volume = min(max(c.Volume, 0), 1)
			}
		case StopPlayback:
			w.stop(c.Track, Stopped)
		case StopAll:
			for t := range w.voices {
				w.stop(t, Stopped)
			}
		case syncRequest:
			w.syncs = append(w.syncs, c)
		}
	}
}

func (w *worker) stop(track int, reason FeedbackReason) {
	v, ok := w.voices[track]
	if !ok {
		return
	}
	delete(w.voices, track)
	w.feedback.Send(TrackFeedback{Track: track, Reason: reason, State: v.state()})
}

// render fills the queue of every playing track as far as it has room.
func (w *worker) render() {
	for track, v := range w.voices {
		q := w.queues[track]
		for {
			free := min(q.Free(), w.bufferSize)
			if free == 0 {
				break
			}
			n, done := v.render(w.scratch[:2*free])
			buf := w.scratch[:2*n]
			vek32.MulNumber_Inplace(buf, v.volume)
			num := w.frameNum[track]
			for i := 0; i < n; i++ {
				if q.TryPush(torque.Stereo(num, buf[2*i], buf[2*i+1])) != nil {
					break // cannot happen, the worker is the only producer
				}
				num = (num + 1) % w.bufferSize
			}
			w.frameNum[track] = num
			if done {
				w.stop(track, Finished)
				break
			}
		}
	}
}
