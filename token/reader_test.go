package token

import (
	"errors"
	"io"
	"testing"
)

type tok struct {
	typ TokenType
	val string
}

func tokenizeAll(doc []byte) ([]tok, error) {
	r := NewReader(doc, true, State{})
	var out []tok
	for {
		ok, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if !ok {
			return out, errors.New("no progress on final block")
		}
		out = append(out, tok{r.Type(), r.String()})
	}
}

func tokenizeChunked(doc []byte, chunk int) ([]tok, error) {
	var (
		st      State
		pending []byte
		out     []tok
		i       int
	)
	for {
		final := i >= len(doc)
		r := NewReader(pending, final, st)
		for {
			ok, err := r.Read()
			if err == io.EOF {
				return out, nil
			}
			if err != nil {
				return out, err
			}
			if !ok {
				break
			}
			out = append(out, tok{r.Type(), r.String()})
		}
		if final {
			return out, errors.New("no progress on final block")
		}
		st = r.State()
		pending = append([]byte(nil), pending[r.Consumed():]...)
		n := min(chunk, len(doc)-i)
		pending = append(pending, doc[i:i+n]...)
		i += n
	}
}

func TestReaderTokens(t *testing.T) {
	doc := `{"a": [1, -2.5e3, true, false, null], "b\n": {"c": "xé😀"}, "d": []}`
	want := []tok{
		{TLCurl, "{"},
		{TKey, "a"},
		{TLSquare, "["},
		{TInteger, "1"},
		{TFloat, "-2.5e3"},
		{TTrue, "true"},
		{TFalse, "false"},
		{TNull, "null"},
		{TRSquare, "]"},
		{TKey, "b\n"},
		{TLCurl, "{"},
		{TKey, "c"},
		{TString, "xé😀"},
		{TRCurl, "}"},
		{TKey, "d"},
		{TLSquare, "["},
		{TRSquare, "]"},
		{TRCurl, "}"},
	}
	got, err := tokenizeAll([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestReaderChunkedEquivalence(t *testing.T) {
	docs := []string{
		`{"name": "value", "n": 12345, "f": 1.5e-7, "arr": [1, [2, [3]], {"k": null}]}`,
		`  [ "é\"\\", 0, -0.0, 1E+2, "日本語" ]  `,
		`"top"`,
		`42`,
		`{"a":1,}`,
		`[1 2]`,
		`{"a" 1}`,
		`[tru]`,
		`[1.]`,
		`{"a": "\x"}`,
		`{"a": "unterminated`,
		`[01]`,
		`{} {}`,
		"[\"\xff\"]",
		``,
	}
	for _, doc := range docs {
		whole, wholeErr := tokenizeAll([]byte(doc))
		for _, chunk := range []int{1, 2, 3, 7} {
			got, err := tokenizeChunked([]byte(doc), chunk)
			if (err == nil) != (wholeErr == nil) || (err != nil && err.Error() != wholeErr.Error()) {
				t.Errorf("%q chunk %d: error %v, whole error %v", doc, chunk, err, wholeErr)
				continue
			}
			if len(got) != len(whole) {
				t.Errorf("%q chunk %d: %d tokens, whole %d", doc, chunk, len(got), len(whole))
				continue
			}
			for i := range got {
				if got[i] != whole[i] {
					t.Errorf("%q chunk %d: token %d %v, whole %v", doc, chunk, i, got[i], whole[i])
				}
			}
		}
	}
}

func TestReaderSyntaxErrors(t *testing.T) {
	tests := []struct {
		doc    string
		cause  error
		offset int64
	}{
		{`{"a":1,}`, ErrUnexpected, 7},
		{`[1 2]`, ErrUnexpected, 3},
		{`[tru]`, ErrLiteral, 4},
		{`{"a": "\x"}`, ErrBadEscape, 8},
		{`{"a": "abc`, ErrUnterminated, 10},
		{`{} x`, ErrTrailing, 3},
		{`[-]`, ErrNumber, 2},
		{"\"\x01\"", ErrControl, 1},
	}
	for _, tc := range tests {
		_, err := tokenizeAll([]byte(tc.doc))
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("%q: expected SyntaxError, got %v", tc.doc, err)
			continue
		}
		if !errors.Is(err, tc.cause) {
			t.Errorf("%q: got cause %v want %v", tc.doc, se.Err, tc.cause)
		}
		if se.Offset != tc.offset {
			t.Errorf("%q: got offset %d want %d", tc.doc, se.Offset, tc.offset)
		}
	}
}

func TestReaderIncompleteConsumesNothing(t *testing.T) {
	r := NewReader([]byte(`{"abc": "de`), false, State{})
	ok, err := r.Read()
	if !ok || err != nil || r.Type() != TLCurl {
		t.Fatalf("expected TLCurl, got %v %v %v", r.Type(), ok, err)
	}
	ok, err = r.Read()
	if !ok || err != nil || r.Type() != TKey {
		t.Fatalf("expected TKey, got %v %v %v", r.Type(), ok, err)
	}
	before := r.Consumed()
	ok, err = r.Read()
	if ok || err != nil {
		t.Fatalf("expected incomplete, got %v %v", ok, err)
	}
	if r.Consumed() != before {
		t.Errorf("consumed moved from %d to %d", before, r.Consumed())
	}
	if r.Type() != TKey {
		t.Errorf("current token changed to %v", r.Type())
	}
}

func TestReaderSkipAtomic(t *testing.T) {
	r := NewReader([]byte(`{"a": {"b": [1, 2, {"c": 3}]`), false, State{})
	for i := 0; i < 2; i++ {
		if ok, err := r.Read(); !ok || err != nil {
			t.Fatalf("read %d: %v %v", i, ok, err)
		}
	}
	before := r.Consumed()
	ok, err := r.Skip()
	if ok || err != nil {
		t.Fatalf("expected incomplete skip, got %v %v", ok, err)
	}
	if r.Consumed() != before || r.Type() != TKey || r.Depth() != 1 {
		t.Fatalf("skip did not roll back: consumed %d type %v depth %d", r.Consumed(), r.Type(), r.Depth())
	}

	r = NewReader([]byte(`{"a": {"b": [1, 2, {"c": 3}]}, "z": 1}`), true, State{})
	r.Read()
	r.Read()
	ok, err = r.Skip()
	if !ok || err != nil {
		t.Fatalf("skip: %v %v", ok, err)
	}
	if r.Type() != TRCurl || r.Depth() != 1 {
		t.Fatalf("after skip: type %v depth %d", r.Type(), r.Depth())
	}
	r.Read()
	if r.Type() != TKey || r.String() != "z" {
		t.Fatalf("expected key z, got %v %q", r.Type(), r.String())
	}
}

func TestReaderReplayFromCheckpoint(t *testing.T) {
	doc := []byte(`{"x": 1, "extra": [true, {"q": "w"}], "y": 2}`)
	r := NewReader(doc, true, State{})
	r.Read() // {
	r.Read() // x
	r.Read() // 1
	cp := r.Checkpoint()
	r.Read() // extra
	if ok, err := r.Skip(); !ok || err != nil {
		t.Fatalf("skip: %v %v", ok, err)
	}
	retained := doc[cp.Pos():r.Consumed()]

	rr := NewReader(retained, true, cp.State().Clone())
	var got []tok
	for {
		ok, err := rr.Read()
		if err != nil {
			if !errors.Is(err, ErrUnterminated) {
				t.Fatalf("replay: %v", err)
			}
			break
		}
		if !ok {
			break
		}
		got = append(got, tok{rr.Type(), rr.String()})
	}
	want := []tok{
		{TKey, "extra"}, {TLSquare, "["}, {TTrue, "true"}, {TLCurl, "{"},
		{TKey, "q"}, {TString, "w"}, {TRCurl, "}"}, {TRSquare, "]"},
	}
	if len(got) != len(want) {
		t.Fatalf("replay got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("replay token %d: got %v want %v", i, got[i], want[i])
		}
	}
	if rr.TokenOffset() != r.TokenOffset() {
		t.Errorf("replay end offset %d, original %d", rr.TokenOffset(), r.TokenOffset())
	}
}

func TestReaderDeepNesting(t *testing.T) {
	depth := 300
	doc := make([]byte, 0, depth*4)
	for i := 0; i < depth; i++ {
		if i%2 == 0 {
			doc = append(doc, `{"k":`...)
		} else {
			doc = append(doc, '[')
		}
	}
	doc = append(doc, '0')
	for i := depth - 1; i >= 0; i-- {
		if i%2 == 0 {
			doc = append(doc, '}')
		} else {
			doc = append(doc, ']')
		}
	}
	whole, err := tokenizeAll(doc)
	if err != nil {
		t.Fatalf("whole: %v", err)
	}
	chunked, err := tokenizeChunked(doc, 5)
	if err != nil {
		t.Fatalf("chunked: %v", err)
	}
	if len(whole) != len(chunked) {
		t.Fatalf("token counts differ: %d vs %d", len(whole), len(chunked))
	}
}

func TestReaderNumbers(t *testing.T) {
	r := NewReader([]byte(`[9223372036854775807, 255, 1.25, 300]`), true, State{})
	r.Read()
	r.Read()
	if v, err := r.Int(64); err != nil || v != 9223372036854775807 {
		t.Errorf("Int: %v %v", v, err)
	}
	r.Read()
	if v, err := r.Uint(8); err != nil || v != 255 {
		t.Errorf("Uint: %v %v", v, err)
	}
	r.Read()
	if _, err := r.Int(64); err == nil {
		t.Errorf("expected error reading float as int")
	}
	if v, err := r.Float(64); err != nil || v != 1.25 {
		t.Errorf("Float: %v %v", v, err)
	}
	r.Read()
	if _, err := r.Int(8); err == nil {
		t.Errorf("expected overflow error")
	}
}
