package token

type expectation uint8

const (
	expValue expectation = iota
	expFirstName
	expFirstElem
	expNext
	expDone
)

// bitStack records, per nesting level, whether the container is an object.
// Bits deeper than the current depth are stale and never read, so a State
// copied by value remains valid for rollback.
type bitStack struct {
	lo uint64
	hi []uint64
}

func (b *bitStack) set(i int, v bool) {
	if i < 64 {
		if v {
			b.lo |= 1 << uint(i)
		} else {
			b.lo &^= 1 << uint(i)
		}
		return
	}
	i -= 64
	w := i / 64
	for len(b.hi) <= w {
		b.hi = append(b.hi, 0)
	}
	if v {
		b.hi[w] |= 1 << uint(i%64)
	} else {
		b.hi[w] &^= 1 << uint(i%64)
	}
}

func (b *bitStack) get(i int) bool {
	if i < 64 {
		return b.lo&(1<<uint(i)) != 0
	}
	i -= 64
	w := i / 64
	if w >= len(b.hi) {
		return false
	}
	return b.hi[w]&(1<<uint(i%64)) != 0
}

// State is the resumable position of a [Reader]: nesting, what token may
// come next, and the absolute offset of the next unread byte.
type State struct {
	depth  int
	bits   bitStack
	expect expectation
	offset int64
}

// Clone returns a copy that shares no storage with s.
func (s State) Clone() State {
	if s.bits.hi != nil {
		hi := make([]uint64, len(s.bits.hi))
		copy(hi, s.bits.hi)
		s.bits.hi = hi
	}
	return s
}

// Depth is the number of open containers.
func (s State) Depth() int {
	return s.depth
}

// Offset is the absolute offset of the next unread byte.
func (s State) Offset() int64 {
	return s.offset
}

// InObject reports whether the innermost open container is an object.
func (s State) InObject() bool {
	return s.depth > 0 && s.bits.get(s.depth-1)
}

// Done reports whether a complete top-level value has been read.
func (s State) Done() bool {
	return s.expect == expDone
}

func (s *State) push(obj bool) {
	s.bits.set(s.depth, obj)
	s.depth++
	if obj {
		s.expect = expFirstName
	} else {
		s.expect = expFirstElem
	}
}

func (s *State) pop() {
	s.depth--
	s.afterValue()
}

func (s *State) afterValue() {
	if s.depth == 0 {
		s.expect = expDone
		return
	}
	s.expect = expNext
}

// Next returns the state for reading another top-level value after the
// one s completed, as in a newline-delimited sequence.
func (s State) Next() State {
	return State{offset: s.offset}
}
