package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/signadot/rjson/token"
	"github.com/signadot/rjson/typemodel"
)

type point struct {
	X     int            `rjson:"field=x"`
	Y     int            `rjson:"field=y"`
	Label string         `rjson:"field=label"`
	Extra map[string]any `rjson:"extension"`
}

func newPoint(x, y int) point {
	return point{X: x, Y: y}
}

func testRegistry(t *testing.T) *typemodel.Registry {
	t.Helper()
	reg := typemodel.NewRegistry()
	err := reg.RegisterConstructor(newPoint,
		typemodel.Param("x"),
		typemodel.Param("y", typemodel.ParamDefault(7)))
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

// feed drives st over input split into chunks of the given size, recycling
// one buffer the way a streaming decoder does.
func feed(st *ReadStack, input []byte, chunk int) error {
	if chunk <= 0 || chunk > len(input) {
		chunk = len(input)
	}
	buf := make([]byte, 0, 16)
	var state token.State
	pos := 0
	for {
		n := min(chunk, len(input)-pos)
		buf = append(buf, input[pos:pos+n]...)
		pos += n
		final := pos == len(input)
		r := token.NewReader(buf, final, state)
		status, err := Read(st, r)
		if err != nil {
			return err
		}
		if status == Complete {
			return nil
		}
		if final {
			return fmt.Errorf("read incomplete after final block")
		}
		state = r.State()
		rest := copy(buf, buf[r.Consumed():])
		buf = buf[:rest]
	}
}

func decode[T any](t *testing.T, reg *typemodel.Registry, input string, chunk int, opts Options) (T, error) {
	t.Helper()
	var out T
	ti, err := typemodel.For[T](reg)
	if err != nil {
		t.Fatal(err)
	}
	st, err := NewReadStack(ti, reflect.ValueOf(&out).Elem(), opts)
	if err != nil {
		return out, err
	}
	return out, feed(st, []byte(input), chunk)
}

// suspendEvery asks for suspension on every n-th check.
type suspendEvery struct {
	*token.Writer
	n      int
	checks int
}

func (s *suspendEvery) ShouldSuspend() bool {
	s.checks++
	return s.checks%s.n == 0
}

// encode drives a write of v, flushing on every suspension, and returns the
// output and the number of suspensions.
func encode(t *testing.T, reg *typemodel.Registry, v any, w *token.Writer, sink token.Sink, opts Options) ([]byte, int, error) {
	t.Helper()
	ti, err := reg.TypeOf(reflect.TypeOf(v))
	if err != nil {
		t.Fatal(err)
	}
	st, err := NewWriteStack(ti, reflect.ValueOf(v), opts)
	if err != nil {
		t.Fatal(err)
	}
	if sink == nil {
		sink = w
	}
	var out bytes.Buffer
	suspensions := 0
	for {
		status, err := Write(st, sink)
		if err != nil {
			return nil, suspensions, err
		}
		if err := w.Flush(&out); err != nil {
			t.Fatal(err)
		}
		if status == Complete {
			return out.Bytes(), suspensions, nil
		}
		suspensions++
	}
}

func reflectValue(p any) reflect.Value {
	return reflect.ValueOf(p).Elem()
}

func numberOf(s string) any {
	return json.Number(s)
}

func reflectValueOf(v any) reflect.Value {
	return reflect.ValueOf(v)
}
