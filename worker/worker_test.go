package worker_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/queue"
	"github.com/torque-tracker/torque/worker"
)

const (
	sampleRate = 44100
	bufferSize = 32
)

func newPool(t *testing.T, workers int) (*worker.Pool, []*queue.Ring[torque.AudioFrame], *worker.Mailbox[worker.TrackFeedback]) {
	t.Helper()
	queues := make([]*queue.Ring[torque.AudioFrame], torque.TrackCount)
	for i := range queues {
		queues[i] = queue.New[torque.AudioFrame](bufferSize)
	}
	feedback := worker.NewMailbox[worker.TrackFeedback]()
	p, err := worker.NewPool(worker.Config{Workers: workers, SampleRate: sampleRate, BufferSize: bufferSize}, queues, feedback)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	t.Cleanup(func() {
		p.Close()
		select {
		case <-p.Finished():
		case <-time.After(3 * time.Second):
			t.Errorf("workers did not finish")
		}
	})
	return p, queues, feedback
}

func constSample(t *testing.T, frames int, v float32) *torque.SampleData {
	t.Helper()
	data := make([]float32, frames)
	for i := range data {
		data[i] = v
	}
	s, err := torque.NewSampleData(sampleRate, 1, data)
	if err != nil {
		t.Fatalf("NewSampleData failed: %v", err)
	}
	return s
}

func TestPoolRendersSample(t *testing.T) {
	p, queues, feedback := newPool(t, 2)
	if err := p.Send(worker.PlaySample{Track: 3, Sample: constSample(t, 10, 1), Note: torque.MidNote, Volume: 0.5}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := p.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if n := queues[3].Len(); n != 10 {
		t.Fatalf("got %d frames, expected 10", n)
	}
	for i := 0; i < 10; i++ {
		f, _ := queues[3].TryPop()
		if f.Num != i || f.Channels != 2 || f.Data[0] != 0.5 || f.Data[1] != 0.5 {
			t.Fatalf("frame %d: got %+v", i, f)
		}
	}
	fb, status := feedback.TryRecv()
	if status != worker.RecvOK || fb.Track != 3 || fb.Reason != worker.Finished {
		t.Fatalf("got feedback %+v %v, expected track 3 finished", fb, status)
	}
}

func TestPoolBackpressure(t *testing.T) {
	p, queues, _ := newPool(t, 1)
	s := constSample(t, 1000, 1)
	p.Send(worker.PlaySample{Track: 1, Sample: s, Note: torque.MidNote, Volume: 1})
	p.Sync()
	if n := queues[1].Len(); n != bufferSize {
		t.Fatalf("got %d frames, expected a full queue of %d", n, bufferSize)
	}
	for i := 0; i < bufferSize; i++ {
		queues[1].TryPop()
	}
	p.Sync()
	if n := queues[1].Len(); n != bufferSize {
		t.Fatalf("queue not refilled, %d frames", n)
	}
}

func TestPoolStopAndReplace(t *testing.T) {
	p, _, feedback := newPool(t, 1)
	s := constSample(t, 1000, 1)
	p.Send(worker.PlaySample{Track: 5, Sample: s, Note: torque.MidNote, Volume: 1})
	p.Send(worker.PlaySample{Track: 5, Sample: s, Note: torque.MidNote, Volume: 1})
	p.Send(worker.StopPlayback{Track: 5})
	p.Send(worker.StopPlayback{Track: 6}) // nothing playing
	p.Sync()
	want := []worker.FeedbackReason{worker.Replaced, worker.Stopped}
	for _, reason := range want {
		fb, status := feedback.TryRecv()
		if status != worker.RecvOK || fb.Reason != reason || fb.Track != 5 {
			t.Fatalf("got %+v %v, expected %v", fb, status, reason)
		}
	}
	if _, status := feedback.TryRecv(); status != worker.RecvEmpty {
		t.Fatalf("unexpected extra feedback")
	}
}

func TestPoolRejectsBadTrack(t *testing.T) {
	p, _, _ := newPool(t, 1)
	if err := p.Send(worker.StopPlayback{Track: torque.TrackCount}); !errors.Is(err, worker.ErrTrackOutOfRange) {
		t.Fatalf("got %v, expected ErrTrackOutOfRange", err)
	}
}

func TestPoolPitch(t *testing.T) {
	p, queues, _ := newPool(t, 1)
	data := make([]float32, 8)
	for i := range data {
		data[i] = float32(i)
	}
	s, _ := torque.NewSampleData(sampleRate, 1, data)
	// an octave up plays every second frame
	p.Send(worker.PlaySample{Track: 2, Sample: s, Note: torque.MidNote + 12, Volume: 1})
	p.Sync()
	for i := 0; i < 4; i++ {
		f, ok := queues[2].TryPop()
		if !ok || f.Data[0] != float32(2*i) {
			t.Fatalf("frame %d: got %+v %v", i, f, ok)
		}
	}
	if _, ok := queues[2].TryPop(); ok {
		t.Fatalf("too many frames")
	}
}

func TestMailbox(t *testing.T) {
	m := worker.NewMailbox[int]()
	for i := 0; i < 100; i++ {
		if err := m.Send(i); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	}
	m.Close()
	if err := m.Send(100); !errors.Is(err, worker.ErrClosed) {
		t.Fatalf("Send after Close: got %v", err)
	}
	for i := 0; i < 100; i++ {
		v, status := m.TryRecv()
		if status != worker.RecvOK || v != i {
			t.Fatalf("got %v %v, expected %v", v, status, i)
		}
	}
	if _, status := m.TryRecv(); status != worker.RecvClosed {
		t.Fatalf("got %v, expected RecvClosed", status)
	}
}

func TestMailboxRecvWakesUp(t *testing.T) {
	m := worker.NewMailbox[int]()
	var wg sync.WaitGroup
	got := make([]int, 0, 3)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			v, status := m.Recv(nil)
			if status == worker.RecvClosed {
				return
			}
			got = append(got, v)
		}
	}()
	for i := 0; i < 3; i++ {
		m.Send(i)
		time.Sleep(time.Millisecond)
	}
	m.Close()
	wg.Wait()
	if len(got) != 3 || got[0] != 0 || got[2] != 2 {
		t.Fatalf("got %v", got)
	}
}
