package torque

type (
	// Event is a single cell in a pattern. Every field is optional: Mask tells
	// which of them are present. An absent field means "no change", i.e. the
	// playback inherits the previous state of the channel.
	Event struct {
		Mask    EventMask `yaml:",flow"`
		Note    uint8     `yaml:",omitempty"`
		Instr   uint8     `yaml:",omitempty"`
		VolPan  uint8     `yaml:",omitempty"`
		Command uint8     `yaml:",omitempty"`
		Param   uint8     `yaml:",omitempty"`
	}

	// EventMask is a bit set telling which fields of an Event are present.
	EventMask uint8

	// ChannelEvent binds an Event to a channel within a Row.
	ChannelEvent struct {
		Channel uint8
		Event   Event `yaml:",flow"`
	}

	// Row is a sparse mapping from channel number to Event. The order of the
	// entries carries no meaning and a channel appears at most once.
	Row []ChannelEvent

	// Pattern is an ordered sequence of rows.
	Pattern struct {
		Rows []Row `yaml:",flow"`
	}
)

const (
	HasNote EventMask = 1 << iota
	HasInstr
	HasVolPan
	HasCommand
)

// Special note values. Notes 0..119 are playable, C-5 = 60 plays a sample at
// its recorded pitch.
const (
	MaxNote  = 119
	MidNote  = 60
	NoteFade = 253
	NoteCut  = 254
	NoteOff  = 255
)

// Volume/pan column ranges, in the Impulse Tracker layout.
const (
	MaxVolume    = 64
	PanBase      = 128
	PanRangeLast = PanBase + 64
)

const (
	DefaultPatternRows = 64
	MaxPatternRows     = 200
)

// NoteEvent returns an event that only has a note.
func NoteEvent(note uint8) Event {
	return Event{Mask: HasNote, Note: note}
}

func (e Event) WithInstr(instr uint8) Event {
	e.Mask |= HasInstr
	e.Instr = instr
	return e
}

func (e Event) WithVolPan(volPan uint8) Event {
	e.Mask |= HasVolPan
	e.VolPan = volPan
	return e
}

func (e Event) WithCommand(command, param uint8) Event {
	e.Mask |= HasCommand
	e.Command = command
	e.Param = param
	return e
}

// IsEmpty reports whether the event carries no fields at all.
func (e Event) IsEmpty() bool {
	return e.Mask == 0
}

// Volume returns the volume column value (0..64), if the vol/pan column holds
// a volume.
func (e Event) Volume() (uint8, bool) {
	if e.Mask&HasVolPan == 0 || e.VolPan > MaxVolume {
		return 0, false
	}
	return e.VolPan, true
}

// Pan returns the pan column value mapped to -32..32, if the vol/pan column
// holds a panning.
func (e Event) Pan() (int8, bool) {
	if e.Mask&HasVolPan == 0 || e.VolPan < PanBase || e.VolPan > PanRangeLast {
		return 0, false
	}
	return int8(int(e.VolPan) - PanBase - 32), true
}

// NewPattern returns a pattern with the given number of empty rows.
func NewPattern(rows int) Pattern {
	return Pattern{Rows: make([]Row, rows)}
}

// Len returns the number of rows in the pattern.
func (p *Pattern) Len() int {
	return len(p.Rows)
}

// Event returns the event at row and channel; ok is false if there is none or
// the row is out of range.
func (p *Pattern) Event(row int, channel uint8) (event Event, ok bool) {
	if row < 0 || row >= len(p.Rows) {
		return Event{}, false
	}
	for _, ce := range p.Rows[row] {
		if ce.Channel == channel {
			return ce.Event, true
		}
	}
	return Event{}, false
}

// SetEvent sets the event at row and channel, replacing any existing event on
// that channel. row must be within range.
func (p *Pattern) SetEvent(row int, channel uint8, event Event) {
	r := p.Rows[row]
	for i := range r {
		if r[i].Channel == channel {
			r[i].Event = event
			return
		}
	}
	p.Rows[row] = append(r, ChannelEvent{Channel: channel, Event: event})
}

// RemoveEvent removes the event at row and channel; if there is no event, it
// does nothing. row must be within range.
func (p *Pattern) RemoveEvent(row int, channel uint8) {
	r := p.Rows[row]
	for i := range r {
		if r[i].Channel == channel {
			last := len(r) - 1
			r[i] = r[last]
			r[last] = ChannelEvent{}
			p.Rows[row] = r[:last]
			return
		}
	}
}

// SetLength truncates the pattern or pads it with empty rows.
func (p *Pattern) SetLength(rows int) {
	switch {
	case rows < len(p.Rows):
		for i := rows; i < len(p.Rows); i++ {
			p.Rows[i] = nil
		}
		p.Rows = p.Rows[:rows]
	case rows > len(p.Rows):
		p.Rows = append(p.Rows, make([]Row, rows-len(p.Rows))...)
	}
}

// Copy returns a deep copy of the pattern.
func (p *Pattern) Copy() Pattern {
	rows := make([]Row, len(p.Rows))
	for i, r := range p.Rows {
		if len(r) > 0 {
			rows[i] = make(Row, len(r))
			copy(rows[i], r)
		}
	}
	return Pattern{Rows: rows}
}

// CopyFrom makes p a deep copy of other, reusing the row slices of p where
// possible.
func (p *Pattern) CopyFrom(other *Pattern) {
	if cap(p.Rows) < len(other.Rows) {
		p.Rows = append(p.Rows[:cap(p.Rows)], make([]Row, len(other.Rows)-cap(p.Rows))...)
	}
	p.Rows = p.Rows[:len(other.Rows)]
	for i, r := range other.Rows {
		if len(r) == 0 {
			p.Rows[i] = nil
			continue
		}
		p.Rows[i] = append(p.Rows[i][:0], r...)
	}
}
