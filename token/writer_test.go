package token

import (
	"bytes"
	"math"
	"testing"
)

func TestWriterCompact(t *testing.T) {
	w := NewWriter(0, "")
	w.BeginObject()
	w.Name("a")
	w.BeginArray()
	w.Int(1)
	w.Uint(2)
	if err := w.Float(2.5, 64); err != nil {
		t.Fatal(err)
	}
	w.EndArray()
	w.Name("b")
	w.BeginObject()
	w.EndObject()
	w.Name("c\"")
	w.String("x\ny")
	w.Name("d")
	w.Bool(true)
	w.Name("e")
	w.Null()
	w.EndObject()
	want := `{"a":[1,2,2.5],"b":{},"c\"":"x\ny","d":true,"e":null}`
	if got := string(w.Bytes()); got != want {
		t.Errorf("got %s want %s", got, want)
	}
}

func TestWriterIndent(t *testing.T) {
	w := NewWriter(0, "  ")
	w.BeginObject()
	w.Name("a")
	w.BeginArray()
	w.Int(1)
	w.Int(2)
	w.EndArray()
	w.Name("b")
	w.BeginArray()
	w.EndArray()
	w.EndObject()
	want := "{\n  \"a\": [\n    1,\n    2\n  ],\n  \"b\": []\n}"
	if got := string(w.Bytes()); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestWriterFloats(t *testing.T) {
	tests := []struct {
		v    float64
		bits int
		want string
	}{
		{1e21, 64, "1e+21"},
		{1e-7, 64, "1e-7"},
		{123.456, 64, "123.456"},
		{0, 64, "0"},
		{float64(float32(0.1)), 32, "0.1"},
	}
	for _, tc := range tests {
		w := NewWriter(0, "")
		if err := w.Float(tc.v, tc.bits); err != nil {
			t.Fatal(err)
		}
		if got := string(w.Bytes()); got != tc.want {
			t.Errorf("Float(%v, %d) = %s, want %s", tc.v, tc.bits, got, tc.want)
		}
	}
	w := NewWriter(0, "")
	if err := w.Float(math.NaN(), 64); err == nil {
		t.Errorf("expected error for NaN")
	}
}

func TestWriterSuspendAndFlush(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(8, "")
	w.BeginArray()
	for i := 0; i < 20; i++ {
		if w.ShouldSuspend() {
			if err := w.Flush(&out); err != nil {
				t.Fatal(err)
			}
		}
		w.Int(int64(i))
	}
	w.EndArray()
	if err := w.Flush(&out); err != nil {
		t.Fatal(err)
	}
	want := "[0,1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19]"
	if out.String() != want {
		t.Errorf("got %s want %s", out.String(), want)
	}
	if w.Offset() != int64(len(want)) {
		t.Errorf("offset %d, want %d", w.Offset(), len(want))
	}
}

func TestWriterTopLevelSequence(t *testing.T) {
	w := NewWriter(0, "")
	w.Int(1)
	w.BeginObject()
	w.EndObject()
	if got := string(w.Bytes()); got != "1\n{}" {
		t.Errorf("got %q", got)
	}
}

func TestWriterNewline(t *testing.T) {
	w := NewWriter(0, "")
	w.Newline()
	w.Int(1)
	w.Newline()
	w.BeginArray()
	w.Newline()
	w.EndArray()
	w.Newline()
	if got := string(w.Bytes()); got != "1\n[]\n" {
		t.Errorf("got %q", got)
	}
}
