//go:build cgo

package cmd

import (
	"github.com/torque-tracker/torque/tracker"
	"github.com/torque-tracker/torque/tracker/gomidi"
)

func NewMidiContext(broker *tracker.Broker) tracker.MIDIContext {
	return gomidi.NewContext(broker)
}
