package convert

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/signadot/rjson/token"
	"github.com/signadot/rjson/typemodel"
)

func TestWriteObject(t *testing.T) {
	reg := testRegistry(t)
	p := point{X: 1, Y: 2, Label: "a", Extra: map[string]any{"b": true, "x": 99.0, "a": nil}}
	got, _, err := encode(t, reg, p, token.NewWriter(0, ""), nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"x":1,"y":2,"label":"a","a":null,"b":true}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestWriteTags(t *testing.T) {
	type tagged struct {
		Plain   string
		Renamed string `rjson:"field=renamed"`
		Skipped string `rjson:"omit"`
		Empty   []int  `rjson:"field=empty omitempty"`
		Zero    int    `rjson:"field=zero omitempty"`
		Out     string `rjson:"field=out encodeonly"`
		In      string `rjson:"field=in decodeonly"`
	}
	reg := typemodel.NewRegistry()
	v := tagged{Plain: "p", Renamed: "r", Skipped: "s", Out: "o", In: "i"}
	got, _, err := encode(t, reg, v, token.NewWriter(0, ""), nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"Plain":"p","renamed":"r","out":"o"}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
	back, err := decode[tagged](t, reg, `{"Plain":"p","out":"o","in":"i","Skipped":"s"}`, 0, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(tagged{Plain: "p", In: "i"}, back); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestWriteKeyPolicy(t *testing.T) {
	type withMap struct {
		FieldName int            `rjson:"field=FieldName"`
		Counts    map[string]int `rjson:"field=Counts"`
	}
	reg := typemodel.NewRegistry()
	v := withMap{FieldName: 1, Counts: map[string]int{"FooBar": 1, "Baz": 2}}
	got, _, err := encode(t, reg, v, token.NewWriter(0, ""), nil, Options{KeyPolicy: typemodel.SnakeCase})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"FieldName":1,"Counts":{"baz":2,"foo_bar":1}}`
	if string(got) != want {
		t.Errorf("got %s, want %s", got, want)
	}
	// keys are read as written
	back, err := decode[withMap](t, reg, want, 3, Options{KeyPolicy: typemodel.SnakeCase})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]int{"baz": 2, "foo_bar": 1}, back.Counts); diff != "" {
		t.Errorf("keys changed on read (-want +got):\n%s", diff)
	}
}

func TestWriteSuspendLargeCollection(t *testing.T) {
	reg := typemodel.NewRegistry()
	v := make([]int, 100000)
	for i := range v {
		v[i] = i * 7
	}
	whole, n, err := encode(t, reg, v, token.NewWriter(0, ""), nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("%d suspensions without a threshold", n)
	}
	w := token.NewWriter(0, "")
	pieces, n, err := encode(t, reg, v, w, &suspendEvery{Writer: w, n: 10}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if n < len(v)/10 {
		t.Errorf("only %d suspensions", n)
	}
	if string(pieces) != string(whole) {
		t.Error("suspended output differs from uninterrupted output")
	}
	oracle, _ := json.Marshal(v)
	if string(whole) != string(oracle) {
		t.Error("output differs from encoding/json")
	}
}

func TestWriteSuspendEverywhere(t *testing.T) {
	reg := testRegistry(t)
	in := sampleRecord()
	whole, _, err := encode(t, reg, in, token.NewWriter(0, "  "), nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, every := range []int{2, 3, 5} {
		w := token.NewWriter(0, "  ")
		got, _, err := encode(t, reg, in, w, &suspendEvery{Writer: w, n: every}, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != string(whole) {
			t.Errorf("every %d: got\n%s\nwant\n%s", every, got, whole)
		}
	}
	back, err := decode[record](t, reg, string(whole), 5, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, back); diff != "" {
		t.Errorf("indented round trip (-want +got):\n%s", diff)
	}
}

func TestWriteErrorPath(t *testing.T) {
	reg := testRegistry(t)
	in := record{Next: &record{Ratio: math.NaN()}}
	_, _, err := encode(t, reg, in, token.NewWriter(0, ""), nil, Options{})
	var me *MarshalError
	if !errors.As(err, &me) {
		t.Fatalf("expected MarshalError, got %v", err)
	}
	if got := PathString(me.Path); got != "$.next.ratio" {
		t.Errorf("path %q", got)
	}
}

type node struct {
	Name string `rjson:"field=name"`
	Next *node  `rjson:"field=next"`
}

func TestWriteCycle(t *testing.T) {
	reg := typemodel.NewRegistry()
	n := &node{Name: "loop"}
	n.Next = n
	_, _, err := encode(t, reg, n, token.NewWriter(0, ""), nil, Options{})
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}

	var chain *node
	for i := 0; i < 1500; i++ {
		chain = &node{Next: chain}
	}
	if _, _, err := encode(t, reg, chain, token.NewWriter(0, ""), nil, Options{}); err != nil {
		t.Errorf("deep acyclic value: %v", err)
	}
}

func TestWriteErrorSticks(t *testing.T) {
	reg := typemodel.NewRegistry()
	v := []float64{1, math.Inf(1)}
	ti, _ := typemodel.For[[]float64](reg)
	st, err := NewWriteStack(ti, reflectValueOf(v), Options{})
	if err != nil {
		t.Fatal(err)
	}
	w := token.NewWriter(0, "")
	_, first := Write(st, w)
	if first == nil {
		t.Fatal("expected error")
	}
	if _, again := Write(st, w); again != first {
		t.Errorf("second call returned %v, want %v", again, first)
	}
}
