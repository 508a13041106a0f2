package gomidi

import (
	"errors"
	"fmt"

	"github.com/torque-tracker/torque/tracker"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	RTMIDIContext struct {
		driver    *rtmididrv.Driver
		broker    *tracker.Broker
		currentIn drivers.In
		stop      func()
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}
)

// NewContext opens the driver. Notes received from the open input are sent to
// broker.ToMonitor.
func NewContext(broker *tracker.Broker) *RTMIDIContext {
	m := RTMIDIContext{broker: broker}
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	return &m
}

func (m *RTMIDIContext) Inputs(yield func(tracker.MIDIInputDevice) bool) {
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return
	}
	for i := 0; i < len(ins); i++ {
		if !yield(RTMIDIDevice{context: m, in: ins[i]}) {
			break
		}
	}
}

func (m *RTMIDIContext) Support() tracker.MIDISupport {
	if m.driver == nil {
		return tracker.MIDISupportNoDriver
	}
	return tracker.MIDISupported
}

// Open an input device while closing the currently open if necessary.
func (d RTMIDIDevice) Open() error {
	c := d.context
	if c.currentIn == d.in {
		return nil
	}
	if c.driver == nil {
		return errors.New("no driver available")
	}
	c.closeCurrent()
	if err := d.in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(d.in, c.HandleMessage)
	if err != nil {
		d.in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.currentIn = d.in
	c.stop = stop
	return nil
}

func (d RTMIDIDevice) Close() error {
	if d.context.currentIn != d.in {
		return nil
	}
	return d.context.closeCurrent()
}

func (d RTMIDIDevice) IsOpen() bool {
	return d.context.currentIn == d.in && d.in.IsOpen()
}

func (d RTMIDIDevice) String() string {
	return d.in.String()
}

func (c *RTMIDIContext) closeCurrent() error {
	if c.currentIn == nil {
		return nil
	}
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	err := c.currentIn.Close()
	c.currentIn = nil
	return err
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	c.closeCurrent()
	c.driver.Close()
}

// HandleMessage is called by the driver for every received message. Note
// events are forwarded to the monitor; if its channel is full, the event is
// dropped.
func (c *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		tracker.TrySend(c.broker.ToMonitor, tracker.NoteEvent{On: true, Channel: int(channel), Note: key, Velocity: velocity})
	case msg.GetNoteOff(&channel, &key, &velocity):
		tracker.TrySend(c.broker.ToMonitor, tracker.NoteEvent{Channel: int(channel), Note: key, Velocity: velocity})
	}
}
