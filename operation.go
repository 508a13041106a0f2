package torque

import (
	"errors"
	"fmt"
)

type (
	// SongOperation is a single mutation of a Song. Operations are validated
	// against the song before they are applied, so that an invalid operation is
	// rejected as a whole and never partially applied. The set of operations is
	// closed: SetEvent, RemoveEvent, SetLength, SetOrder, TruncateOrder,
	// ResetPattern and ReplaceSong.
	SongOperation interface {
		Validate(s *Song) error
		Apply(s *Song)
		songOperation()
	}

	// SetEvent sets the event on one channel of a pattern row.
	SetEvent struct {
		Pattern int
		Row     int
		Channel uint8
		Event   Event
	}

	// RemoveEvent clears one channel of a pattern row.
	RemoveEvent struct {
		Pattern int
		Row     int
		Channel uint8
	}

	// SetLength truncates a pattern or pads it with empty rows.
	SetLength struct {
		Pattern int
		Rows    int
	}

	// SetOrder sets one entry of the order list.
	SetOrder struct {
		Index   int
		Pattern int
	}

	// TruncateOrder cuts the order list to at most Length entries.
	TruncateOrder struct {
		Length int
	}

	// ResetPattern (re)creates the pattern slot Index as an empty pattern with
	// the given number of rows, appending empty slots to the song if needed.
	ResetPattern struct {
		Index int
		Rows  int
	}

	// ReplaceSong replaces the whole song, e.g. when a file is loaded. Each
	// copy of the song gets its own deep copy of Song.
	ReplaceSong struct {
		Song *Song
	}
)

var (
	ErrPatternOutOfRange = errors.New("pattern index out of range")
	ErrRowOutOfRange     = errors.New("row out of range")
	ErrChannelOutOfRange = errors.New("channel out of range")
	ErrInvalidLength     = errors.New("invalid pattern length")
	ErrOrderOutOfRange   = errors.New("order index out of range")
)

// MaxOrders is the maximum length of the order list.
const MaxOrders = 256

func (o SetEvent) Validate(s *Song) error {
	p := s.Pattern(o.Pattern)
	if p == nil {
		return fmt.Errorf("SetEvent: pattern %d: %w", o.Pattern, ErrPatternOutOfRange)
	}
	if o.Row < 0 || o.Row >= p.Len() {
		return fmt.Errorf("SetEvent: row %d: %w", o.Row, ErrRowOutOfRange)
	}
	if o.Channel >= MaxChannels {
		return fmt.Errorf("SetEvent: channel %d: %w", o.Channel, ErrChannelOutOfRange)
	}
	return nil
}

func (o SetEvent) Apply(s *Song) { s.Patterns[o.Pattern].SetEvent(o.Row, o.Channel, o.Event) }

func (o RemoveEvent) Validate(s *Song) error {
	p := s.Pattern(o.Pattern)
	if p == nil {
		return fmt.Errorf("RemoveEvent: pattern %d: %w", o.Pattern, ErrPatternOutOfRange)
	}
	if o.Row < 0 || o.Row >= p.Len() {
		return fmt.Errorf("RemoveEvent: row %d: %w", o.Row, ErrRowOutOfRange)
	}
	if o.Channel >= MaxChannels {
		return fmt.Errorf("RemoveEvent: channel %d: %w", o.Channel, ErrChannelOutOfRange)
	}
	return nil
}

func (o RemoveEvent) Apply(s *Song) { s.Patterns[o.Pattern].RemoveEvent(o.Row, o.Channel) }

func (o SetLength) Validate(s *Song) error {
	if s.Pattern(o.Pattern) == nil {
		return fmt.Errorf("SetLength: pattern %d: %w", o.Pattern, ErrPatternOutOfRange)
	}
	if o.Rows < 1 || o.Rows > MaxPatternRows {
		return fmt.Errorf("SetLength: %d rows: %w", o.Rows, ErrInvalidLength)
	}
	return nil
}

func (o SetLength) Apply(s *Song) { s.Patterns[o.Pattern].SetLength(o.Rows) }

func (o SetOrder) Validate(s *Song) error {
	if o.Index < 0 || o.Index >= MaxOrders {
		return fmt.Errorf("SetOrder: index %d: %w", o.Index, ErrOrderOutOfRange)
	}
	if o.Pattern == OrderSkip || o.Pattern == OrderEnd {
		return nil
	}
	if s.Pattern(o.Pattern) == nil {
		return fmt.Errorf("SetOrder: pattern %d: %w", o.Pattern, ErrPatternOutOfRange)
	}
	return nil
}

func (o SetOrder) Apply(s *Song) { s.Order.Set(o.Index, o.Pattern) }

func (o TruncateOrder) Validate(*Song) error {
	if o.Length < 0 || o.Length > MaxOrders {
		return fmt.Errorf("TruncateOrder: length %d: %w", o.Length, ErrOrderOutOfRange)
	}
	return nil
}

func (o TruncateOrder) Apply(s *Song) {
	if len(s.Order) > o.Length {
		s.Order = s.Order[:o.Length]
	}
}

func (o ResetPattern) Validate(s *Song) error {
	if o.Index < 0 || o.Index >= MaxPatterns {
		return fmt.Errorf("ResetPattern: pattern %d: %w", o.Index, ErrPatternOutOfRange)
	}
	if o.Rows < 1 || o.Rows > MaxPatternRows {
		return fmt.Errorf("ResetPattern: %d rows: %w", o.Rows, ErrInvalidLength)
	}
	return nil
}

func (o ResetPattern) Apply(s *Song) {
	for len(s.Patterns) <= o.Index {
		s.Patterns = append(s.Patterns, NewPattern(DefaultPatternRows))
	}
	s.Patterns[o.Index] = NewPattern(o.Rows)
}

func (o ReplaceSong) Validate(*Song) error {
	if o.Song == nil {
		return fmt.Errorf("ReplaceSong: no song: %w", ErrPatternOutOfRange)
	}
	if len(o.Song.Patterns) > MaxPatterns {
		return fmt.Errorf("ReplaceSong: %d patterns: %w", len(o.Song.Patterns), ErrPatternOutOfRange)
	}
	if len(o.Song.Order) > MaxOrders {
		return fmt.Errorf("ReplaceSong: %d orders: %w", len(o.Song.Order), ErrOrderOutOfRange)
	}
	for i := range o.Song.Patterns {
		p := &o.Song.Patterns[i]
		if p.Len() < 1 || p.Len() > MaxPatternRows {
			return fmt.Errorf("ReplaceSong: pattern %d has %d rows: %w", i, p.Len(), ErrInvalidLength)
		}
		for r, row := range p.Rows {
			seen := map[uint8]bool{}
			for _, ce := range row {
				if ce.Channel >= MaxChannels {
					return fmt.Errorf("ReplaceSong: pattern %d row %d channel %d: %w", i, r, ce.Channel, ErrChannelOutOfRange)
				}
				if seen[ce.Channel] {
					return fmt.Errorf("ReplaceSong: pattern %d row %d has channel %d twice: %w", i, r, ce.Channel, ErrChannelOutOfRange)
				}
				seen[ce.Channel] = true
			}
		}
	}
	return nil
}

func (o ReplaceSong) Apply(s *Song) { *s = o.Song.Copy() }

func (SetEvent) songOperation()      {}
func (RemoveEvent) songOperation()   {}
func (SetLength) songOperation()     {}
func (SetOrder) songOperation()      {}
func (TruncateOrder) songOperation() {}
func (ResetPattern) songOperation()  {}
func (ReplaceSong) songOperation()   {}

// SongAbsorber replays SongOperations onto the two copies of a song kept by a
// leftright store. The first copy gets every operation applied as is. On the
// second copy, a SetLength is not replayed incrementally; instead the whole
// pattern is copied from the first copy, which already holds the final state.
// The remaining operations are idempotent, so replaying them after such a copy
// is harmless; ones that no longer fit the copied pattern are skipped, as the
// copy already holds their effect.
type SongAbsorber struct{}

func (SongAbsorber) AbsorbFirst(dst *Song, op SongOperation, _ *Song) {
	op.Apply(dst)
}

func (SongAbsorber) AbsorbSecond(dst *Song, op SongOperation, first *Song) {
	if l, ok := op.(SetLength); ok {
		if src := first.Pattern(l.Pattern); src != nil && l.Pattern < len(dst.Patterns) {
			dst.Patterns[l.Pattern].CopyFrom(src)
			return
		}
	}
	if op.Validate(dst) != nil {
		return
	}
	op.Apply(dst)
}
