package tracker

import "github.com/torque-tracker/torque"

type (
	// Action describes a user action that can be performed on the model, which
	// can be initiated by calling the Do() method. It is usually initiated by a
	// key press or a menu item. Action advertises whether it is enabled, so
	// UI can e.g. gray out menu items when the underlying action is not allowed.
	// The underlying Doer can optionally implement the Enabler interface to
	// decide if the action is enabled or not; if it does not implement the
	// Enabler interface, the action is always allowed.
	Action struct {
		doer Doer
	}

	// Doer is an interface that defines a single Do() method, which is called
	// when an action is performed.
	Doer interface {
		Do()
	}

	// Enabler is an interface that defines a single Enabled() method, which
	// is used by the UI to check if an Action is enabled or not.
	Enabler interface {
		Enabled() bool
	}
)

// Action methods

func MakeAction(doer Doer) Action {
	return Action{doer: doer}
}

func (a Action) Do() {
	e, ok := a.doer.(Enabler)
	if ok && !e.Enabled() {
		return
	}
	if a.doer != nil {
		a.doer.Do()
	}
}

func (a Action) Enabled() bool {
	if a.doer == nil {
		return false // no doer, not allowed
	}
	e, ok := a.doer.(Enabler)
	if !ok {
		return true // not enabler, always allowed
	}
	return e.Enabled()
}

// undo
type undo Model

func (m *Model) Undo() Action { return MakeAction((*undo)(m)) }
func (m *undo) Enabled() bool { return len(m.undoStack) > 0 }
func (m *undo) Do()           { (*Model)(m).undo() }

// redo
type redo Model

func (m *Model) Redo() Action { return MakeAction((*redo)(m)) }
func (m *redo) Enabled() bool { return len(m.redoStack) > 0 }
func (m *redo) Do()           { (*Model)(m).redo() }

// playSong
type playSong Model

func (m *Model) PlaySong() Action { return MakeAction((*playSong)(m)) }
func (m *playSong) Do() {
	m.engine.PlayFrom(torque.SongPos{})
	m.playing = true
}

// playFrom
type playFrom struct {
	m   *Model
	pos torque.SongPos
}

func (m *Model) PlayFrom(pos torque.SongPos) Action {
	return MakeAction(&playFrom{m: m, pos: pos})
}
func (p *playFrom) Do() {
	p.m.engine.PlayFrom(p.pos)
	p.m.playing = true
}

// stopSong
type stopSong Model

func (m *Model) StopSong() Action { return MakeAction((*stopSong)(m)) }
func (m *stopSong) Enabled() bool { return m.playing }
func (m *stopSong) Do() {
	m.engine.StopSequencer()
	m.playing = false
}
