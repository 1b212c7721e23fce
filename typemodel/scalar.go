package typemodel

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/signadot/rjson/token"
)

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	numberType          = reflect.TypeFor[json.Number]()
)

// scalarFor returns the scalar converter of t, or nil when t is not a
// scalar.
func scalarFor(t reflect.Type) *Scalar {
	if t == numberType {
		return numberScalar
	}
	if implementsText(t) {
		return textScalar
	}
	switch t.Kind() {
	case reflect.String:
		return stringScalar
	case reflect.Bool:
		return boolScalar
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intScalar
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintScalar
	case reflect.Float32, reflect.Float64:
		return floatScalar
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && !implementsText(t.Elem()) {
			return bytesScalar
		}
	}
	return nil
}

func implementsText(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	canRead := t.Implements(textUnmarshalerType) || pt.Implements(textUnmarshalerType)
	canWrite := t.Implements(textMarshalerType) || pt.Implements(textMarshalerType)
	return canRead && canWrite && t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface
}

var stringScalar = &Scalar{
	Read: func(r *token.Reader, dst reflect.Value, _ ReadOptions) error {
		if r.Type() != token.TString {
			return &MismatchError{Got: r.Type(), Want: dst.Type()}
		}
		dst.SetString(r.String())
		return nil
	},
	Write: func(w token.Sink, v reflect.Value) error {
		w.String(v.String())
		return nil
	},
}

var boolScalar = &Scalar{
	Read: func(r *token.Reader, dst reflect.Value, _ ReadOptions) error {
		switch r.Type() {
		case token.TTrue:
			dst.SetBool(true)
		case token.TFalse:
			dst.SetBool(false)
		default:
			return &MismatchError{Got: r.Type(), Want: dst.Type()}
		}
		return nil
	},
	Write: func(w token.Sink, v reflect.Value) error {
		w.Bool(v.Bool())
		return nil
	},
}

var intScalar = &Scalar{
	Read: func(r *token.Reader, dst reflect.Value, _ ReadOptions) error {
		if r.Type() != token.TInteger {
			return &MismatchError{Got: r.Type(), Want: dst.Type()}
		}
		n, err := r.Int(dst.Type().Bits())
		if err != nil {
			return numberErr(err, r, dst.Type())
		}
		dst.SetInt(n)
		return nil
	},
	Write: func(w token.Sink, v reflect.Value) error {
		w.Int(v.Int())
		return nil
	},
}

var uintScalar = &Scalar{
	Read: func(r *token.Reader, dst reflect.Value, _ ReadOptions) error {
		if r.Type() != token.TInteger {
			return &MismatchError{Got: r.Type(), Want: dst.Type()}
		}
		n, err := r.Uint(dst.Type().Bits())
		if err != nil {
			return numberErr(err, r, dst.Type())
		}
		dst.SetUint(n)
		return nil
	},
	Write: func(w token.Sink, v reflect.Value) error {
		w.Uint(v.Uint())
		return nil
	},
}

var floatScalar = &Scalar{
	Read: func(r *token.Reader, dst reflect.Value, _ ReadOptions) error {
		if !r.Type().IsNumber() {
			return &MismatchError{Got: r.Type(), Want: dst.Type()}
		}
		f, err := r.Float(dst.Type().Bits())
		if err != nil {
			return numberErr(err, r, dst.Type())
		}
		dst.SetFloat(f)
		return nil
	},
	Write: func(w token.Sink, v reflect.Value) error {
		if err := w.Float(v.Float(), v.Type().Bits()); err != nil {
			return fmt.Errorf("%w: %v", err, v.Float())
		}
		return nil
	},
}

func numberErr(err error, r *token.Reader, t reflect.Type) error {
	if errors.Is(err, strconv.ErrRange) {
		return &RangeError{Number: string(r.Bytes()), Want: t}
	}
	return err
}

var bytesScalar = &Scalar{
	Read: func(r *token.Reader, dst reflect.Value, _ ReadOptions) error {
		if r.Type() != token.TString {
			return &MismatchError{Got: r.Type(), Want: dst.Type()}
		}
		v := r.Value()
		b := make([]byte, base64.StdEncoding.DecodedLen(len(v)))
		n, err := base64.StdEncoding.Decode(b, v)
		if err != nil {
			return fmt.Errorf("bad base64 for %s: %w", dst.Type(), err)
		}
		dst.SetBytes(b[:n])
		return nil
	},
	Write: func(w token.Sink, v reflect.Value) error {
		if v.IsNil() {
			w.Null()
			return nil
		}
		w.String(base64.StdEncoding.EncodeToString(v.Bytes()))
		return nil
	},
}

var textScalar = &Scalar{
	Read: func(r *token.Reader, dst reflect.Value, _ ReadOptions) error {
		if r.Type() != token.TString {
			return &MismatchError{Got: r.Type(), Want: dst.Type()}
		}
		u, ok := dst.Addr().Interface().(encoding.TextUnmarshaler)
		if !ok {
			u = dst.Interface().(encoding.TextUnmarshaler)
		}
		if err := u.UnmarshalText(r.Value()); err != nil {
			return fmt.Errorf("%s: %w", dst.Type(), err)
		}
		return nil
	},
	Write: func(w token.Sink, v reflect.Value) error {
		m, ok := v.Interface().(encoding.TextMarshaler)
		if !ok {
			p := reflect.New(v.Type())
			p.Elem().Set(v)
			m = p.Interface().(encoding.TextMarshaler)
		}
		text, err := m.MarshalText()
		if err != nil {
			return fmt.Errorf("%s: %w", v.Type(), err)
		}
		w.String(string(text))
		return nil
	},
}

var numberScalar = &Scalar{
	Read: func(r *token.Reader, dst reflect.Value, _ ReadOptions) error {
		if !r.Type().IsNumber() {
			return &MismatchError{Got: r.Type(), Want: dst.Type()}
		}
		dst.SetString(string(r.Bytes()))
		return nil
	},
	Write: func(w token.Sink, v reflect.Value) error {
		s := v.String()
		if s == "" {
			s = "0"
		}
		if !ValidNumber(s) {
			return fmt.Errorf("invalid number literal %q", s)
		}
		w.Raw([]byte(s))
		return nil
	},
}

// ValidNumber reports whether s is a JSON number.
func ValidNumber(s string) bool {
	r := token.NewReader([]byte(s), true, token.State{})
	ok, err := r.Read()
	if err != nil || !ok || !r.Type().IsNumber() {
		return false
	}
	_, err = r.Read()
	return err == io.EOF
}

// DynamicScalar decodes the current scalar token of r into the Go value a
// dynamic destination receives: string, float64 (or json.Number), bool or
// nil.
func DynamicScalar(r *token.Reader, opts ReadOptions) (any, error) {
	switch r.Type() {
	case token.TString:
		return r.String(), nil
	case token.TTrue:
		return true, nil
	case token.TFalse:
		return false, nil
	case token.TNull:
		return nil, nil
	case token.TInteger, token.TFloat:
		if opts.UseNumber {
			return json.Number(r.Bytes()), nil
		}
		f, err := r.Float(64)
		if err != nil {
			return nil, numberErr(err, r, reflect.TypeFor[float64]())
		}
		return f, nil
	}
	return nil, &MismatchError{Got: r.Type(), Want: reflect.TypeFor[any]()}
}
