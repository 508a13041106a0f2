// Package oto connects a torque.AudioCallback to the audio device using oto.
package oto

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/torque-tracker/torque"
)

type (
	// Context is the opened audio device. It satisfies torque.AudioContext.
	Context struct {
		ctx        *oto.Context
		sampleRate int
		bufferSize int
	}

	// Output pulls audio from a callback into an oto player. The player calls
	// Read on its own goroutine, which makes that goroutine the realtime
	// thread of the callback.
	Output struct {
		player *oto.Player
		cb     torque.AudioCallback
		info   torque.CallbackInfo
		buf    []float32
		bytes  []byte // buf encoded as little-endian float32
		pos    int    // read position in bytes

		closeOnce sync.Once
		done      chan struct{}
	}
)

const errorPollInterval = 500 * time.Millisecond

// NewContext opens the default device for interleaved stereo float32 output.
// bufferSize is the number of frames per callback.
func NewContext(sampleRate, bufferSize int) (*Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(bufferSize) * time.Second / time.Duration(sampleRate),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx, sampleRate: sampleRate, bufferSize: bufferSize}, nil
}

func (c *Context) SampleRate() int { return c.sampleRate }
func (c *Context) BufferSize() int { return c.bufferSize }

// Play starts a player pulling from cb.
func (c *Context) Play(cb torque.AudioCallback) (torque.AudioOutput, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, fmt.Errorf("cannot play: %w", err)
	}
	o := NewOutput(cb, c.sampleRate, c.bufferSize)
	o.player = c.ctx.NewPlayer(o)
	o.player.Play()
	go o.pollErrors()
	return o, nil
}

// NewOutput returns an Output calling cb for bufferSize frames at a time. It
// is not connected to a device until Play hands it to a player; until then it
// is only an io.Reader.
func NewOutput(cb torque.AudioCallback, sampleRate, bufferSize int) *Output {
	o := &Output{
		cb:    cb,
		info:  torque.CallbackInfo{SampleRate: sampleRate},
		buf:   make([]float32, 2*bufferSize),
		bytes: make([]byte, 8*bufferSize),
		done:  make(chan struct{}),
	}
	o.pos = len(o.bytes)
	return o
}

// Close suspends the device; oto contexts cannot be reopened within a process.
func (c *Context) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Read implements io.Reader for the oto player. It hands out the rendered
// buffer and calls the callback whenever the buffer has been used up, so the
// callback always sees buffers of exactly the configured size. The bytes are
// little-endian whatever the byte order of the host.
func (o *Output) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if o.pos == len(o.bytes) {
			o.cb(o.buf, o.info)
			o.info.Frame += uint64(len(o.buf) / 2)
			for i, v := range o.buf {
				binary.LittleEndian.PutUint32(o.bytes[4*i:], math.Float32bits(v))
			}
			o.pos = 0
		}
		c := copy(p[n:], o.bytes[o.pos:])
		n += c
		o.pos += c
	}
	return n, nil
}

// pollErrors logs device errors. The player keeps pulling, so the callback
// keeps running and the device presents silence while it is failing.
func (o *Output) pollErrors() {
	t := time.NewTicker(errorPollInterval)
	defer t.Stop()
	var last error
	for {
		select {
		case <-o.done:
			return
		case <-t.C:
			if err := o.player.Err(); err != nil && err != last {
				log.Printf("audio output error: %v", err)
				last = err
			}
		}
	}
}

func (o *Output) Close() error {
	var err error
	o.closeOnce.Do(func() {
		close(o.done)
		if o.player == nil {
			return
		}
		if e := o.player.Close(); e != nil {
			err = fmt.Errorf("cannot close oto player: %w", e)
		}
	})
	return err
}
