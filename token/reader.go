package token

import (
	"io"
	"unicode/utf8"
)

// Reader is a forward-only JSON token cursor over one block of input.
//
// A Reader never consumes part of a token: when the block ends inside a
// token, Read returns false with a nil error and the reader is unchanged.
// The caller then builds a new Reader over the unconsumed bytes plus more
// input, seeded with [Reader.State].
//
// When final is true the block is the end of the input, and a truncated
// token is a syntax error instead.
type Reader struct {
	buf   []byte
	final bool
	base  int64
	pos   int
	st    State

	typ     TokenType
	tokOff  int
	start   int
	end     int
	escaped bool
	scratch []byte
}

// NewReader creates a Reader over buf resuming from st. Use the zero State
// to start a document.
func NewReader(buf []byte, final bool, st State) *Reader {
	r := &Reader{}
	r.Reset(buf, final, st)
	return r
}

// Reset reuses r for a new block.
func (r *Reader) Reset(buf []byte, final bool, st State) {
	r.buf = buf
	r.final = final
	r.base = st.offset
	r.pos = 0
	r.st = st
	r.typ = TNone
	r.tokOff, r.start, r.end = 0, 0, 0
	r.escaped = false
}

// Read advances to the next token. It returns false and a nil error when
// the block holds no complete token and more input may follow. At the end
// of a final block after a complete top-level value it returns io.EOF.
func (r *Reader) Read() (bool, error) {
	st := r.st
	p := skipSpace(r.buf, r.pos)
	if st.expect == expDone {
		if p < len(r.buf) {
			return false, charErr(ErrTrailing, r.abs(p), r.buf[p])
		}
		r.pos = p
		r.st.offset = r.abs(p)
		if r.final {
			return false, io.EOF
		}
		return false, nil
	}
	if p == len(r.buf) {
		return r.short()
	}
	c := r.buf[p]
	switch st.expect {
	case expValue:
		return r.value(&st, p)
	case expFirstElem:
		if c == ']' {
			return r.close(&st, p, TRSquare)
		}
		return r.value(&st, p)
	case expFirstName:
		switch c {
		case '}':
			return r.close(&st, p, TRCurl)
		case '"':
			return r.key(&st, p)
		}
		return false, charErr(ErrUnexpected, r.abs(p), c)
	}
	// expNext
	inObj := st.InObject()
	switch {
	case c == ',':
		q := skipSpace(r.buf, p+1)
		if q == len(r.buf) {
			return r.short()
		}
		if !inObj {
			return r.value(&st, q)
		}
		if r.buf[q] != '"' {
			return false, charErr(ErrUnexpected, r.abs(q), r.buf[q])
		}
		return r.key(&st, q)
	case c == '}' && inObj:
		return r.close(&st, p, TRCurl)
	case c == ']' && !inObj:
		return r.close(&st, p, TRSquare)
	}
	return false, charErr(ErrUnexpected, r.abs(p), c)
}

func (r *Reader) short() (bool, error) {
	if r.final {
		return false, syntaxErr(ErrUnterminated, r.abs(len(r.buf)))
	}
	return false, nil
}

func (r *Reader) abs(i int) int64 {
	return r.base + int64(i)
}

func (r *Reader) commit(st *State, typ TokenType, tokOff, start, end, pos int, esc bool) {
	st.offset = r.abs(pos)
	r.st = *st
	r.typ = typ
	r.tokOff = tokOff
	r.start = start
	r.end = end
	r.pos = pos
	r.escaped = esc
}

func (r *Reader) close(st *State, p int, typ TokenType) (bool, error) {
	st.pop()
	r.commit(st, typ, p, p, p+1, p+1, false)
	return true, nil
}

func (r *Reader) key(st *State, p int) (bool, error) {
	end, esc, ok, err := r.scanString(p)
	if err != nil || !ok {
		if err != nil {
			return false, err
		}
		return r.short()
	}
	q := skipSpace(r.buf, end)
	if q == len(r.buf) {
		return r.short()
	}
	if r.buf[q] != ':' {
		return false, charErr(ErrUnexpected, r.abs(q), r.buf[q])
	}
	st.expect = expValue
	r.commit(st, TKey, p, p+1, end-1, q+1, esc)
	return true, nil
}

func (r *Reader) value(st *State, p int) (bool, error) {
	c := r.buf[p]
	switch c {
	case '{':
		st.push(true)
		r.commit(st, TLCurl, p, p, p+1, p+1, false)
		return true, nil
	case '[':
		st.push(false)
		r.commit(st, TLSquare, p, p, p+1, p+1, false)
		return true, nil
	case '"':
		end, esc, ok, err := r.scanString(p)
		if err != nil {
			return false, err
		}
		if !ok {
			return r.short()
		}
		st.afterValue()
		r.commit(st, TString, p, p+1, end-1, end, esc)
		return true, nil
	case 't':
		return r.literal(st, p, "true", TTrue)
	case 'f':
		return r.literal(st, p, "false", TFalse)
	case 'n':
		return r.literal(st, p, "null", TNull)
	}
	if c == '-' || asciiDigit(c) {
		end, isFloat, ok, err := r.scanNumber(p)
		if err != nil {
			return false, err
		}
		if !ok {
			return r.short()
		}
		typ := TInteger
		if isFloat {
			typ = TFloat
		}
		st.afterValue()
		r.commit(st, typ, p, p, end, end, false)
		return true, nil
	}
	return false, charErr(ErrUnexpected, r.abs(p), c)
}

func (r *Reader) literal(st *State, p int, lit string, typ TokenType) (bool, error) {
	for k := 0; k < len(lit); k++ {
		if p+k >= len(r.buf) {
			return r.short()
		}
		if r.buf[p+k] != lit[k] {
			return false, charErr(ErrLiteral, r.abs(p+k), r.buf[p+k])
		}
	}
	st.afterValue()
	r.commit(st, typ, p, p, p+len(lit), p+len(lit), false)
	return true, nil
}

// scanString scans the string starting at the quote at p, returning the
// index just past the closing quote.
func (r *Reader) scanString(p int) (int, bool, bool, error) {
	buf := r.buf
	esc := false
	i := p + 1
	for i < len(buf) {
		c := buf[i]
		switch {
		case c == '"':
			return i + 1, esc, true, nil
		case c == '\\':
			esc = true
			if i+1 >= len(buf) {
				return 0, esc, false, nil
			}
			switch buf[i+1] {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				i += 2
			case 'u':
				for k := 0; k < 4; k++ {
					j := i + 2 + k
					if j >= len(buf) {
						return 0, esc, false, nil
					}
					if !isHex(buf[j]) {
						return 0, esc, false, charErr(ErrBadUnicode, r.abs(j), buf[j])
					}
				}
				i += 6
			default:
				return 0, esc, false, charErr(ErrBadEscape, r.abs(i+1), buf[i+1])
			}
		case c < 0x20:
			return 0, esc, false, charErr(ErrControl, r.abs(i), c)
		case c < utf8.RuneSelf:
			i++
		default:
			if !utf8.FullRune(buf[i:]) {
				return 0, esc, false, nil
			}
			rn, size := utf8.DecodeRune(buf[i:])
			if rn == utf8.RuneError && size == 1 {
				return 0, esc, false, charErr(ErrBadUTF8, r.abs(i), c)
			}
			i += size
		}
	}
	return 0, esc, false, nil
}

// scanNumber scans an RFC 8259 number starting at p.
func (r *Reader) scanNumber(p int) (int, bool, bool, error) {
	buf := r.buf
	i := p
	isFloat := false
	if buf[i] == '-' {
		i++
		if i == len(buf) {
			return 0, false, false, nil
		}
	}
	switch {
	case buf[i] == '0':
		i++
	case asciiDigit(buf[i]):
		i += asciiDigits(buf[i:])
	default:
		return 0, false, false, charErr(ErrNumber, r.abs(i), buf[i])
	}
	if i == len(buf) {
		return i, false, r.final, nil
	}
	if buf[i] == '.' {
		isFloat = true
		i++
		if i == len(buf) {
			return 0, false, false, nil
		}
		if !asciiDigit(buf[i]) {
			return 0, false, false, charErr(ErrNumber, r.abs(i), buf[i])
		}
		i += asciiDigits(buf[i:])
		if i == len(buf) {
			return i, true, r.final, nil
		}
	}
	if buf[i] == 'e' || buf[i] == 'E' {
		isFloat = true
		i++
		if i == len(buf) {
			return 0, false, false, nil
		}
		if buf[i] == '+' || buf[i] == '-' {
			i++
			if i == len(buf) {
				return 0, false, false, nil
			}
		}
		if !asciiDigit(buf[i]) {
			return 0, false, false, charErr(ErrNumber, r.abs(i), buf[i])
		}
		i += asciiDigits(buf[i:])
		if i == len(buf) {
			return i, true, r.final, nil
		}
	}
	return i, isFloat, true, nil
}

// Skip moves past the current value. On a property name it skips the
// property's value; on an opening bracket it skips to the matching close.
// Skip is atomic: if the block ends first, the reader is restored and Skip
// returns false.
func (r *Reader) Skip() (bool, error) {
	cp := r.Checkpoint()
	if r.typ == TKey {
		ok, err := r.Read()
		if err != nil {
			return false, err
		}
		if !ok {
			r.Rollback(cp)
			return false, nil
		}
	}
	if !r.typ.IsBegin() {
		return true, nil
	}
	depth := r.st.depth
	for r.st.depth >= depth {
		ok, err := r.Read()
		if err != nil {
			return false, err
		}
		if !ok {
			r.Rollback(cp)
			return false, nil
		}
	}
	return true, nil
}

// Checkpoint is a saved reader position within the current block.
type Checkpoint struct {
	pos     int
	st      State
	typ     TokenType
	tokOff  int
	start   int
	end     int
	escaped bool
}

// Pos is the block index of the first byte not consumed at the checkpoint.
func (c Checkpoint) Pos() int {
	return c.pos
}

// State is the reader state at the checkpoint.
func (c Checkpoint) State() State {
	return c.st
}

// Checkpoint saves the current position for a later Rollback.
func (r *Reader) Checkpoint() Checkpoint {
	st := r.st
	if st.bits.hi != nil {
		st = st.Clone()
	}
	return Checkpoint{
		pos:     r.pos,
		st:      st,
		typ:     r.typ,
		tokOff:  r.tokOff,
		start:   r.start,
		end:     r.end,
		escaped: r.escaped,
	}
}

// Rollback restores a checkpoint taken on this block.
func (r *Reader) Rollback(c Checkpoint) {
	r.pos = c.pos
	r.st = c.st
	r.typ = c.typ
	r.tokOff = c.tokOff
	r.start = c.start
	r.end = c.end
	r.escaped = c.escaped
}

// Type is the kind of the current token.
func (r *Reader) Type() TokenType {
	return r.typ
}

// Bytes is the raw current token. For strings and property names it is
// the content between the quotes with escapes intact.
func (r *Reader) Bytes() []byte {
	return r.buf[r.start:r.end]
}

// Escaped reports whether the current string token contains escapes.
func (r *Reader) Escaped() bool {
	return r.escaped
}

// Value returns the current string or name with escapes decoded. The
// result may alias the block or an internal scratch buffer and is only
// valid until the next Read.
func (r *Reader) Value() []byte {
	if !r.escaped {
		return r.buf[r.start:r.end]
	}
	r.scratch = unescape(r.scratch[:0], r.buf[r.start:r.end])
	return r.scratch
}

// String returns the current string or name as a Go string.
func (r *Reader) String() string {
	return string(r.Value())
}

// State returns the resumable state at the current position.
func (r *Reader) State() State {
	return r.st
}

// Consumed is the number of block bytes consumed so far.
func (r *Reader) Consumed() int {
	return r.pos
}

// Offset is the absolute offset of the next unread byte.
func (r *Reader) Offset() int64 {
	return r.abs(r.pos)
}

// TokenOffset is the absolute offset of the first byte of the current token.
func (r *Reader) TokenOffset() int64 {
	return r.abs(r.tokOff)
}

// Depth is the current nesting depth.
func (r *Reader) Depth() int {
	return r.st.depth
}

// Final reports whether the block is the end of the input.
func (r *Reader) Final() bool {
	return r.final
}

// Block returns the underlying block.
func (r *Reader) Block() []byte {
	return r.buf
}

func skipSpace(d []byte, i int) int {
	for i < len(d) {
		switch d[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}

func isHex(c byte) bool {
	return asciiDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
