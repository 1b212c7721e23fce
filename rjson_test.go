package rjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/signadot/rjson/convert"
	"github.com/signadot/rjson/stream"
	"github.com/signadot/rjson/token"
	"github.com/signadot/rjson/typemodel"
)

type account struct {
	Owner   string    `rjson:"field=owner"`
	Balance int64     `rjson:"field=balance"`
	Opened  time.Time `rjson:"field=opened"`
	Limits  []int     `rjson:"field=limits omitempty"`
	Note    string    `rjson:"field=note"`
}

func newAccount(owner string, balance int64) (*account, error) {
	if owner == "" {
		return nil, errors.New("owner is empty")
	}
	return &account{Owner: owner, Balance: balance}, nil
}

func testRegistry(t *testing.T) *typemodel.Registry {
	t.Helper()
	reg := typemodel.NewRegistry()
	err := reg.RegisterConstructor(newAccount,
		typemodel.Param("owner", typemodel.ParamRequired()),
		typemodel.Param("balance"))
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

type ledger struct {
	Accounts []*account        `rjson:"field=accounts"`
	ByName   map[string]string `rjson:"field=by_name"`
}

func TestMarshalUnmarshal(t *testing.T) {
	reg := testRegistry(t)
	in := ledger{
		Accounts: []*account{
			{Owner: "ann", Balance: 10, Opened: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), Limits: []int{1}},
			{Owner: "bob", Balance: -3, Note: "overdrawn"},
		},
		ByName: map[string]string{"bob": "b", "ann": "a"},
	}
	data, err := Marshal(in, WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"accounts":[{"owner":"ann","balance":10,"opened":"2020-01-02T03:04:05Z","limits":[1],"note":""},` +
		`{"owner":"bob","balance":-3,"opened":"0001-01-01T00:00:00Z","note":"overdrawn"}],"by_name":{"ann":"a","bob":"b"}}`
	if string(data) != want {
		t.Errorf("got\n%s\nwant\n%s", data, want)
	}
	var out ledger
	if err := Unmarshal(data, &out, WithRegistry(reg)); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestUnmarshalConstructorErrors(t *testing.T) {
	reg := testRegistry(t)
	var a *account
	err := Unmarshal([]byte(`{"note":"n","balance":1}`), &a, WithRegistry(reg))
	var missing *convert.MissingRequiredDataError
	if !errors.As(err, &missing) {
		t.Fatalf("got %v", err)
	}
	err = Unmarshal([]byte(`{"owner":"","balance":1}`), &a, WithRegistry(reg))
	var fe *convert.FormatError
	if !errors.As(err, &fe) || !strings.Contains(err.Error(), "owner is empty") {
		t.Fatalf("got %v", err)
	}
	if a != nil {
		t.Errorf("destination assigned on error: %+v", a)
	}
}

func TestUnmarshalTrailing(t *testing.T) {
	var v any
	err := Unmarshal([]byte(`{} {}`), &v)
	if !errors.Is(err, token.ErrTrailing) {
		t.Errorf("got %v", err)
	}
	if err := Unmarshal([]byte(" [1] \n"), &v); err != nil {
		t.Error(err)
	}
	if err := Unmarshal([]byte(`1`), v); err == nil {
		t.Error("expected error for non-pointer")
	}
}

func TestUnmarshalTrailingKeepsDestination(t *testing.T) {
	n := 5
	if err := Unmarshal([]byte("7 x"), &n); !errors.Is(err, token.ErrTrailing) {
		t.Fatalf("got %v", err)
	}
	if n != 5 {
		t.Errorf("destination modified: %d", n)
	}
	m := map[string]string{"a": "b"}
	if err := Unmarshal([]byte(`{"c":"d"} []`), &m); err == nil {
		t.Fatal("expected trailing data error")
	}
	if diff := cmp.Diff(map[string]string{"a": "b"}, m); diff != "" {
		t.Errorf("destination modified (-want +got):\n%s", diff)
	}
	if err := Unmarshal([]byte("7"), &n); err != nil || n != 7 {
		t.Errorf("got %d, %v", n, err)
	}
}

func TestMarshalIndent(t *testing.T) {
	got, err := MarshalIndent(map[string]any{"b": []any{}, "a": map[string]any{}}, "\t")
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n\t\"a\": {},\n\t\"b\": []\n}"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMarshalOptions(t *testing.T) {
	got, err := Marshal(map[string]int{"SomeKey": 1}, KeyPolicy(typemodel.KebabCase))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"some-key":1}` {
		t.Errorf("got %s", got)
	}
	var m map[string]any
	if err := Unmarshal([]byte(`{"n":1.50}`), &m, UseNumber(true)); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]any{"n": numberOf("1.50")}, m); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestValid(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want bool
	}{
		{`{"a":[1,2,{"b":null}]}`, true},
		{` "s" `, true},
		{`12`, true},
		{`{"a":}`, false},
		{`[1,2`, false},
		{`1 2`, false},
		{``, false},
	} {
		if got := Valid([]byte(tc.in)); got != tc.want {
			t.Errorf("Valid(%q) = %v", tc.in, got)
		}
	}
}

func TestStreamHelpers(t *testing.T) {
	reg := testRegistry(t)
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, stream.WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "b"} {
		if err := enc.Encode(context.Background(), &account{Owner: name}); err != nil {
			t.Fatal(err)
		}
	}
	dec, err := NewDecoder(&buf, stream.WithRegistry(reg), stream.WithChunkSize(3))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for {
		var a *account
		err := dec.Decode(context.Background(), &a)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, a.Owner)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func numberOf(s string) any {
	return json.Number(s)
}

func TestConcurrentMarshalDynamic(t *testing.T) {
	reg := typemodel.NewRegistry()
	v := make([]any, 0, 1000)
	for i := 0; i < 1000; i++ {
		v = append(v, map[string]any{"k": []any{true, nil, "x"}})
	}
	want, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := Marshal(v, WithRegistry(reg))
			if err != nil {
				t.Error(err)
				return
			}
			if !bytes.Equal(got, want) {
				t.Errorf("got %.80s...", got)
			}
		}()
	}
	wg.Wait()
}
