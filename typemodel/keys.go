package typemodel

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
)

// keyConverter returns the converter for dictionary keys of type t, or nil
// when t cannot be a JSON name.
func keyConverter(t reflect.Type) *KeyConverter {
	switch {
	case t.Kind() == reflect.String:
		return &KeyConverter{
			Parse: func(name string) (reflect.Value, error) {
				return reflect.ValueOf(name).Convert(t), nil
			},
			Format: func(k reflect.Value) (string, error) {
				return k.String(), nil
			},
		}
	case implementsText(t):
		return &KeyConverter{
			Parse: func(name string) (reflect.Value, error) {
				p := reflect.New(t)
				if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(name)); err != nil {
					return reflect.Value{}, fmt.Errorf("key %q: %w", name, err)
				}
				return p.Elem(), nil
			},
			Format: func(k reflect.Value) (string, error) {
				m, ok := k.Interface().(encoding.TextMarshaler)
				if !ok {
					p := reflect.New(t)
					p.Elem().Set(k)
					m = p.Interface().(encoding.TextMarshaler)
				}
				text, err := m.MarshalText()
				if err != nil {
					return "", err
				}
				return string(text), nil
			},
		}
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &KeyConverter{
			Parse: func(name string) (reflect.Value, error) {
				n, err := strconv.ParseInt(name, 10, t.Bits())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("key %q is not a valid %s", name, t)
				}
				v := reflect.New(t).Elem()
				v.SetInt(n)
				return v, nil
			},
			Format: func(k reflect.Value) (string, error) {
				return strconv.FormatInt(k.Int(), 10), nil
			},
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &KeyConverter{
			Parse: func(name string) (reflect.Value, error) {
				n, err := strconv.ParseUint(name, 10, t.Bits())
				if err != nil {
					return reflect.Value{}, fmt.Errorf("key %q is not a valid %s", name, t)
				}
				v := reflect.New(t).Elem()
				v.SetUint(n)
				return v, nil
			},
			Format: func(k reflect.Value) (string, error) {
				return strconv.FormatUint(k.Uint(), 10), nil
			},
		}
	}
	return nil
}
