package typemodel

import (
	"fmt"
	"reflect"

	"github.com/signadot/rjson/token"
)

// DuplicateBindingError reports two properties, or two constructor
// parameters, of one type that resolve to the same name.
type DuplicateBindingError struct {
	Type   reflect.Type
	Name   string
	First  string
	Second string
	Folded bool
}

func (e *DuplicateBindingError) Error() string {
	how := ""
	if e.Folded {
		how = " (case-insensitive)"
	}
	return fmt.Sprintf("%s: %s and %s both bind name %q%s", e.Type, e.First, e.Second, e.Name, how)
}

// UnsupportedShapeError reports a type that cannot be converted.
type UnsupportedShapeError struct {
	Type   reflect.Type
	Via    string
	Reason string
}

func (e *UnsupportedShapeError) Error() string {
	if e.Via != "" {
		return fmt.Sprintf("unsupported type %s at %s: %s", e.Type, e.Via, e.Reason)
	}
	return fmt.Sprintf("unsupported type %s: %s", e.Type, e.Reason)
}

// ConstructorError reports an invalid constructor registration.
type ConstructorError struct {
	Func    reflect.Type
	Message string
}

func (e *ConstructorError) Error() string {
	return fmt.Sprintf("constructor %s: %s", e.Func, e.Message)
}

// MismatchError reports a token that cannot be stored in a Go type.
type MismatchError struct {
	Got  token.TokenType
	Want reflect.Type
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("cannot decode %s into %s", e.Got.Describe(), e.Want)
}

// RangeError reports a number that does not fit its Go type.
type RangeError struct {
	Number string
	Want   reflect.Type
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("number %s overflows %s", e.Number, e.Want)
}
