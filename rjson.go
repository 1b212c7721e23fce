// Package rjson converts between JSON and Go values through a resumable
// engine: reads may stop at any byte boundary and writes may stop whenever
// the output wants flushing, and both continue later from an explicit
// stack.
//
// Marshal and Unmarshal work on whole buffers. NewDecoder and NewEncoder
// stream over io.Reader and io.Writer. Types are described by a
// typemodel.Registry; the default one is shared by the whole process and
// holds constructors registered with RegisterConstructor.
package rjson

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/signadot/rjson/convert"
	"github.com/signadot/rjson/stream"
	"github.com/signadot/rjson/token"
	"github.com/signadot/rjson/typemodel"
)

type Config struct {
	Registry *typemodel.Registry
	Indent   string
	convert.Options
}

type Opt func(*Config)

func WithRegistry(r *typemodel.Registry) Opt {
	return func(c *Config) { c.Registry = r }
}
func WithIndent(indent string) Opt {
	return func(c *Config) { c.Indent = indent }
}
func CaseInsensitive(v bool) Opt {
	return func(c *Config) { c.CaseInsensitive = v }
}
func DisallowUnknownFields(v bool) Opt {
	return func(c *Config) { c.DisallowUnknownFields = v }
}
func UseNumber(v bool) Opt {
	return func(c *Config) { c.UseNumber = v }
}
func RequireConstructorArgs(v bool) Opt {
	return func(c *Config) { c.RequireConstructorArgs = v }
}
func IgnoreParameterDefaults(v bool) Opt {
	return func(c *Config) { c.IgnoreParameterDefaults = v }
}
func KeyPolicy(p typemodel.NamingPolicy) Opt {
	return func(c *Config) { c.KeyPolicy = p }
}
func Logger(l *slog.Logger) Opt {
	return func(c *Config) { c.Logger = l }
}

func newConfig(opts []Opt) *Config {
	c := &Config{Registry: typemodel.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// DefaultRegistry is the registry used when no other is given.
func DefaultRegistry() *typemodel.Registry {
	return typemodel.Default()
}

// RegisterConstructor registers fn as the constructor of the type it
// returns in the default registry. See typemodel.Registry.RegisterConstructor.
func RegisterConstructor(fn any, params ...typemodel.ParamSpec) error {
	return typemodel.Default().RegisterConstructor(fn, params...)
}

var errIncomplete = errors.New("rjson: conversion did not complete")

// Marshal returns the JSON encoding of v.
func Marshal(v any, opts ...Opt) ([]byte, error) {
	cfg := newConfig(opts)
	rv := reflect.ValueOf(&v).Elem()
	if v != nil {
		rv = rv.Elem()
	}
	ti, err := cfg.Registry.TypeOf(rv.Type())
	if err != nil {
		return nil, err
	}
	st, err := convert.NewWriteStack(ti, rv, cfg.Options)
	if err != nil {
		return nil, err
	}
	w := token.NewWriter(0, cfg.Indent)
	status, err := convert.Write(st, w)
	if err != nil {
		return nil, err
	}
	if status != convert.Complete {
		return nil, errIncomplete
	}
	return w.Bytes(), nil
}

// MarshalIndent is Marshal with pretty printing.
func MarshalIndent(v any, indent string, opts ...Opt) ([]byte, error) {
	return Marshal(v, append(opts, WithIndent(indent))...)
}

// Unmarshal decodes the single JSON value in data into v, which must be a
// non-nil pointer. v is only assigned when decoding succeeds.
func Unmarshal(data []byte, v any, opts ...Opt) error {
	cfg := newConfig(opts)
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("rjson: Unmarshal needs a non-nil pointer, got %T", v)
	}
	ti, err := cfg.Registry.TypeOf(rv.Type().Elem())
	if err != nil {
		return err
	}
	scratch := reflect.New(ti.Type).Elem()
	st, err := convert.NewReadStack(ti, scratch, cfg.Options)
	if err != nil {
		return err
	}
	defer st.Release()
	r := token.NewReader(data, true, token.State{})
	status, err := convert.Read(st, r)
	if err != nil {
		return err
	}
	if status != convert.Complete {
		return errIncomplete
	}
	if _, err := r.Read(); err != io.EOF {
		return err
	}
	rv.Elem().Set(scratch)
	return nil
}

// Valid reports whether data holds exactly one JSON value.
func Valid(data []byte) bool {
	r := token.NewReader(data, true, token.State{})
	ok, err := r.Read()
	if err != nil || !ok {
		return false
	}
	if ok, err := r.Skip(); err != nil || !ok {
		return false
	}
	_, err = r.Read()
	return err == io.EOF
}

// NewDecoder creates a stream decoder over r.
func NewDecoder(r io.Reader, opts ...stream.StreamOption) (*stream.Decoder, error) {
	return stream.NewDecoder(r, opts...)
}

// NewEncoder creates a stream encoder writing to w.
func NewEncoder(w io.Writer, opts ...stream.StreamOption) (*stream.Encoder, error) {
	return stream.NewEncoder(w, opts...)
}
