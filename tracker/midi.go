package tracker

import (
	"fmt"
	"strings"
)

type (
	MIDIContext interface {
		Inputs(yield func(input MIDIInputDevice) bool)
		Close()
		Support() MIDISupport
	}

	MIDIInputDevice interface {
		Open() error
		Close() error
		IsOpen() bool
		String() string
	}

	MIDISupport int

	// NoteEvent is a note on or off received from a MIDI input. Channel is the
	// MIDI channel, 0..15.
	NoteEvent struct {
		On       bool
		Channel  int
		Note     uint8
		Velocity uint8
	}
)

const (
	MIDISupportNotCompiled MIDISupport = iota
	MIDISupportNoDriver
	MIDISupported
)

func (s MIDISupport) String() string {
	switch s {
	case MIDISupportNotCompiled:
		return "Not compiled"
	case MIDISupportNoDriver:
		return "No driver"
	default:
		return "Supported"
	}
}

// OpenMIDIInputByPrefix opens the first input of context whose name starts
// with prefix. An empty prefix opens the first input there is.
func OpenMIDIInputByPrefix(context MIDIContext, prefix string) (MIDIInputDevice, error) {
	if s := context.Support(); s != MIDISupported {
		return nil, fmt.Errorf("MIDI input %q: %v", prefix, s)
	}
	for input := range context.Inputs {
		if !strings.HasPrefix(input.String(), prefix) {
			continue
		}
		if err := input.Open(); err != nil {
			return nil, fmt.Errorf("opening MIDI input %q failed: %w", input.String(), err)
		}
		return input, nil
	}
	return nil, fmt.Errorf("could not find any MIDI input starting with %q", prefix)
}

// NullMIDIContext is a mockup MIDIContext if you don't want to create a real
// one.
type NullMIDIContext struct{}

func (m NullMIDIContext) Inputs(yield func(input MIDIInputDevice) bool) {}
func (m NullMIDIContext) Close()                                        {}
func (m NullMIDIContext) Support() MIDISupport                          { return MIDISupportNotCompiled }
