package tracker

import "github.com/torque-tracker/torque"

type (
	// Monitor plays the notes coming from a MIDI input directly on track 0,
	// bypassing the song.
	Monitor struct {
		engine monitorTarget
		broker *Broker
		slot   int
		note   uint8
		on     bool
	}

	monitorTarget interface {
		PlaySample(track, slot int, note uint8, volume float32) error
		Stop(track int) error
	}
)

// MonitorTrack is the mixer track the monitor plays on.
const MonitorTrack = 0

func NewMonitor(engine *Engine, broker *Broker, slot int) *Monitor {
	return &Monitor{engine: engine, broker: broker, slot: slot}
}

// Run handles note events until broker.CloseMonitor is signaled. Run it in its
// own goroutine.
func (m *Monitor) Run() {
	for {
		select {
		case <-m.broker.CloseMonitor:
			close(m.broker.FinishedMonitor)
			return
		case e := <-m.broker.ToMonitor:
			m.handle(e)
		}
	}
}

func (m *Monitor) handle(e NoteEvent) {
	if e.On && e.Velocity > 0 {
		if e.Note > torque.MaxNote {
			return
		}
		err := m.engine.PlaySample(MonitorTrack, m.slot, e.Note, float32(e.Velocity)/127)
		m.on = err == nil
		m.note = e.Note
		if err != nil {
			TrySend(m.broker.ToModel, MsgToModel{Data: Alert{Priority: Warning, Message: err.Error()}})
		}
		return
	}
	// note on with zero velocity is a note off too
	if m.on && e.Note == m.note {
		m.on = false
		m.engine.Stop(MonitorTrack)
	}
}
