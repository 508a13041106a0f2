package tracker

import (
	"fmt"
	"io"
	"os"

	"github.com/torque-tracker/torque"
	"github.com/torque-tracker/torque/worker"
)

type (
	// Model is the editor's view of the tracker. Every edit goes through it, so
	// that it can record the inverse of the edit for undo before submitting
	// the edit to the engine. Model is not safe for concurrent use; it belongs
	// to the UI goroutine.
	Model struct {
		engine *Engine
		broker *Broker

		undoStack []edit
		redoStack []edit

		filePath         string
		changedSinceSave bool

		playing  bool
		position torque.SongPos
		alerts   []Alert
	}

	// edit is one undoable change: the operations that were submitted and the
	// operations that revert them, in submission order.
	edit struct {
		do, undo []torque.SongOperation
	}

	Alert struct {
		Priority AlertPriority
		Message  string
	}

	AlertPriority int
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

const maxUndo = 256

func NewModel(engine *Engine, broker *Broker) *Model {
	return &Model{engine: engine, broker: broker}
}

func (m *Model) Engine() *Engine { return m.engine }

// SetEvent sets the event of a pattern cell.
func (m *Model) SetEvent(pattern, row int, channel uint8, e torque.Event) error {
	return m.do(torque.SetEvent{Pattern: pattern, Row: row, Channel: channel, Event: e})
}

// RemoveEvent clears a pattern cell.
func (m *Model) RemoveEvent(pattern, row int, channel uint8) error {
	return m.do(torque.RemoveEvent{Pattern: pattern, Row: row, Channel: channel})
}

// SetLength resizes a pattern. Events in truncated rows come back on undo.
func (m *Model) SetLength(pattern, rows int) error {
	return m.do(torque.SetLength{Pattern: pattern, Rows: rows})
}

func (m *Model) SetOrder(index, pattern int) error {
	return m.do(torque.SetOrder{Index: index, Pattern: pattern})
}

func (m *Model) ResetPattern(index, rows int) error {
	return m.do(torque.ResetPattern{Index: index, Rows: rows})
}

// do submits op and records its inverse. A rejected op leaves the song and the
// history untouched.
func (m *Model) do(op torque.SongOperation) error {
	var undo []torque.SongOperation
	var err error
	m.engine.View(func(song *torque.Song) {
		if err = op.Validate(song); err == nil {
			undo = inverse(song, op)
		}
	})
	if err != nil {
		return err
	}
	if err := m.engine.Submit(op); err != nil {
		return err
	}
	m.undoStack = pushEdit(m.undoStack, edit{do: []torque.SongOperation{op}, undo: undo})
	m.redoStack = m.redoStack[:0]
	m.changedSinceSave = true
	return nil
}

func pushEdit(stack []edit, e edit) []edit {
	if len(stack) >= maxUndo {
		copy(stack, stack[len(stack)-maxUndo+1:])
		stack = stack[:maxUndo-1]
	}
	return append(stack, e)
}

// inverse returns the operations that undo op on song. op must be valid for
// song.
func inverse(song *torque.Song, op torque.SongOperation) []torque.SongOperation {
	restore := func(pattern, row int, channel uint8) torque.SongOperation {
		if e, ok := song.Patterns[pattern].Event(row, channel); ok {
			return torque.SetEvent{Pattern: pattern, Row: row, Channel: channel, Event: e}
		}
		return torque.RemoveEvent{Pattern: pattern, Row: row, Channel: channel}
	}
	switch o := op.(type) {
	case torque.SetEvent:
		return []torque.SongOperation{restore(o.Pattern, o.Row, o.Channel)}
	case torque.RemoveEvent:
		return []torque.SongOperation{restore(o.Pattern, o.Row, o.Channel)}
	case torque.SetLength:
		p := &song.Patterns[o.Pattern]
		ret := []torque.SongOperation{torque.SetLength{Pattern: o.Pattern, Rows: p.Len()}}
		for r := o.Rows; r < p.Len(); r++ {
			for _, ce := range p.Rows[r] {
				ret = append(ret, torque.SetEvent{Pattern: o.Pattern, Row: r, Channel: ce.Channel, Event: ce.Event})
			}
		}
		return ret
	case torque.SetOrder:
		if o.Index >= len(song.Order) {
			return []torque.SongOperation{torque.TruncateOrder{Length: len(song.Order)}}
		}
		return []torque.SongOperation{torque.SetOrder{Index: o.Index, Pattern: song.Order[o.Index]}}
	}
	// the rest: restore the whole song
	old := song.Copy()
	return []torque.SongOperation{torque.ReplaceSong{Song: &old}}
}

// submitAll submits ops in order, publishing once at the end so that the
// sequencer sees the whole group at once.
func (m *Model) submitAll(ops []torque.SongOperation) error {
	defer m.engine.Publish()
	for _, op := range ops {
		if err := m.engine.Append(op); err != nil {
			return err
		}
	}
	return nil
}

func (m *Model) undo() {
	if len(m.undoStack) == 0 {
		return
	}
	e := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	if err := m.submitAll(e.undo); err != nil {
		m.Alert(Error, fmt.Sprintf("Undo failed: %v", err))
		return
	}
	m.redoStack = pushEdit(m.redoStack, e)
	m.changedSinceSave = true
}

func (m *Model) redo() {
	if len(m.redoStack) == 0 {
		return
	}
	e := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	if err := m.submitAll(e.do); err != nil {
		m.Alert(Error, fmt.Sprintf("Redo failed: %v", err))
		return
	}
	m.undoStack = pushEdit(m.undoStack, e)
	m.changedSinceSave = true
}

// LoadSong replaces the song with the one read from r. The undo history is
// cleared.
func (m *Model) LoadSong(r io.ReadCloser) error {
	song, err := ReadSong(r)
	if err != nil {
		return err
	}
	if err := m.engine.Submit(torque.ReplaceSong{Song: &song}); err != nil {
		return fmt.Errorf("cannot load song: %w", err)
	}
	m.undoStack = m.undoStack[:0]
	m.redoStack = m.redoStack[:0]
	m.filePath = ""
	if f, ok := r.(*os.File); ok {
		m.filePath = f.Name()
	}
	m.changedSinceSave = false
	return nil
}

// SaveSong writes the song to w, as JSON if w is a .json file and as YAML
// otherwise.
func (m *Model) SaveSong(w io.WriteCloser) error {
	path := ""
	if f, ok := w.(*os.File); ok {
		path = f.Name()
	}
	song := m.engine.Song()
	if err := WriteSong(w, &song, path); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("cannot close song file: %w", err)
	}
	m.filePath = path
	m.changedSinceSave = false
	return nil
}

func (m *Model) FilePath() string         { return m.filePath }
func (m *Model) ChangedSinceSave() bool   { return m.changedSinceSave }
func (m *Model) Position() torque.SongPos { return m.position }
func (m *Model) IsPlaying() bool          { return m.playing }

// Alert records a message for the UI.
func (m *Model) Alert(p AlertPriority, msg string) {
	m.alerts = append(m.alerts, Alert{Priority: p, Message: msg})
}

// Alerts returns and clears the recorded alerts.
func (m *Model) Alerts() []Alert {
	ret := m.alerts
	m.alerts = nil
	return ret
}

// ProcessMsg handles a message sent to the model through the broker.
func (m *Model) ProcessMsg(msg MsgToModel) {
	if msg.HasPosition {
		m.position = msg.Position
		m.playing = msg.Playing
	}
	switch d := msg.Data.(type) {
	case songEnded:
		m.playing = false
		m.Alert(Info, "Song ended")
	case Alert:
		m.alerts = append(m.alerts, d)
	}
}

// ProcessFeedback drains the worker feedback and returns it. It never waits.
func (m *Model) ProcessFeedback() []worker.TrackFeedback {
	var ret []worker.TrackFeedback
	for {
		fb, status := m.engine.Feedback().TryRecv()
		if status != worker.RecvOK {
			return ret
		}
		ret = append(ret, fb)
	}
}
