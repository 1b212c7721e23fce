package token

import (
	"errors"
	"fmt"
)

var (
	ErrBadUTF8      = errors.New("bad utf8")
	ErrUnterminated = errors.New("unexpected end of input")
	ErrUnexpected   = errors.New("unexpected character")
	ErrLiteral      = errors.New("bad literal")
	ErrBadEscape    = errors.New("bad escape")
	ErrBadUnicode   = errors.New("bad unicode")
	ErrControl      = errors.New("control character in string")
	ErrNumber       = errors.New("bad number")
	ErrTrailing     = errors.New("data after top-level value")
)

// SyntaxError reports malformed input at an absolute byte offset.
//
// The offset and cause depend only on the input bytes, never on how the
// input was split into blocks.
type SyntaxError struct {
	Err    error
	Offset int64
	Char   byte
	HasChr bool
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func (e *SyntaxError) Error() string {
	if e.HasChr {
		return fmt.Sprintf("%s %q at offset %d", e.Err.Error(), e.Char, e.Offset)
	}
	return fmt.Sprintf("%s at offset %d", e.Err.Error(), e.Offset)
}

func syntaxErr(err error, off int64) error {
	return &SyntaxError{Err: err, Offset: off}
}

func charErr(err error, off int64, c byte) error {
	return &SyntaxError{Err: err, Offset: off, Char: c, HasChr: true}
}
