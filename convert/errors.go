package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/signadot/rjson/kpath"
	"github.com/signadot/rjson/token"
)

// FormatError reports input that does not fit the target type, or is not
// valid JSON. Path locates the member being read.
type FormatError struct {
	Path   *kpath.KPath
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unmarshal error at %s: %v", PathString(e.Path), e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// MissingRequiredDataError reports required properties or constructor
// parameters absent from an object.
type MissingRequiredDataError struct {
	Path   *kpath.KPath
	Offset int64
	Names  []string
}

func (e *MissingRequiredDataError) Error() string {
	return fmt.Sprintf("unmarshal error at %s: missing required %s", PathString(e.Path), strings.Join(e.Names, ", "))
}

// MarshalError reports a value that cannot be written.
type MarshalError struct {
	Path *kpath.KPath
	Err  error
}

func (e *MarshalError) Error() string {
	return fmt.Sprintf("marshal error at %s: %v", PathString(e.Path), e.Err)
}

func (e *MarshalError) Unwrap() error {
	return e.Err
}

// PathString renders a member path from the document root, e.g.
// "$.Child.Items[2].Key".
func PathString(p *kpath.KPath) string {
	if p == nil {
		return "$"
	}
	if p.Index != nil {
		return "$" + p.String()
	}
	return "$." + p.String()
}

var (
	// ErrUnknownField is the cause of a FormatError for an unmatched field
	// when unknown fields are disallowed.
	ErrUnknownField = errors.New("unknown field")
	// ErrCycle is the cause of a MarshalError for a value containing
	// itself.
	ErrCycle = errors.New("value contains itself")
)

// located reports whether err already carries a member path.
func located(err error) bool {
	var (
		fe *FormatError
		me *MissingRequiredDataError
		we *MarshalError
	)
	return errors.As(err, &fe) || errors.As(err, &me) || errors.As(err, &we)
}

func errOffset(err error, r *token.Reader) int64 {
	var se *token.SyntaxError
	if errors.As(err, &se) {
		return se.Offset
	}
	return r.TokenOffset()
}
