package torque

// Order is the play order of the patterns in a song, in practice just a slice
// of pattern indices. Two marker values are recognized: OrderSkip entries are
// passed over during playback and OrderEnd terminates the song.
type Order []int

const (
	OrderSkip = 254
	OrderEnd  = 255
)

// Get returns the value at index; or OrderEnd if the index is out of range
func (s Order) Get(index int) int {
	if index < 0 || index >= len(s) {
		return OrderEnd
	}
	return s[index]
}

// Set sets the value at index; appending OrderSkips until the slice is long
// enough.
func (s *Order) Set(index, value int) {
	for len(*s) <= index {
		*s = append(*s, OrderSkip)
	}
	(*s)[index] = value
}

// Next returns the first order row at or after index that refers to a pattern,
// skipping OrderSkip entries. ok is false if the song ends before such a row
// is found.
func (s Order) Next(index int) (orderRow int, ok bool) {
	for i := max(index, 0); i < len(s); i++ {
		switch v := s[i]; v {
		case OrderSkip:
			continue
		case OrderEnd:
			return i, false
		default:
			return i, true
		}
	}
	return len(s), false
}

// Copy returns a copy of the order list.
func (s Order) Copy() Order {
	ret := make(Order, len(s))
	copy(ret, s)
	return ret
}
