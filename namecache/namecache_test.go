package namecache

import (
	"fmt"
	"sync"
	"testing"
)

type desc struct {
	name string
}

func build(t *testing.T, threshold int, fold bool, names ...string) *Cache[desc] {
	t.Helper()
	c := New[desc](threshold, fold)
	for _, n := range names {
		if _, dup := c.Add(n, &desc{name: n}); dup {
			t.Fatalf("unexpected duplicate %q", n)
		}
	}
	return c
}

func TestLookup(t *testing.T) {
	c := build(t, PropertyThreshold, false, "id", "name", "description", "descriptor", "x")
	for _, n := range []string{"id", "name", "description", "descriptor", "x"} {
		d, _, ok := c.Lookup([]byte(n), 0)
		if !ok {
			t.Fatalf("%q not found", n)
		}
		if d.name != n {
			t.Errorf("Lookup(%q) = %q", n, d.name)
		}
	}
	for _, n := range []string{"", "i", "idx", "descript", "descriptions", "Name"} {
		if _, _, ok := c.Lookup([]byte(n), 0); ok {
			t.Errorf("Lookup(%q) found a descriptor", n)
		}
	}
}

func TestConvergence(t *testing.T) {
	names := []string{"alpha", "beta", "gamma", "delta_long_name", "epsilon_long_name"}
	c := build(t, PropertyThreshold, false, names...)
	hint := 0
	for _, n := range names {
		_, hint, _ = c.Lookup([]byte(n), hint)
	}
	warm := c.Stats()
	if warm.FallbackHits != int64(len(names)) || warm.ProbeLen != len(names) {
		t.Fatalf("warm-up stats %+v", warm)
	}
	for i := 0; i < 10; i++ {
		hint = 0
		for _, n := range names {
			var ok bool
			_, hint, ok = c.Lookup([]byte(n), hint)
			if !ok {
				t.Fatalf("%q not found", n)
			}
		}
	}
	s := c.Stats()
	if s.FallbackHits != warm.FallbackHits {
		t.Errorf("fallback hits grew from %d to %d", warm.FallbackHits, s.FallbackHits)
	}
	if s.Publishes != warm.Publishes || s.ProbeLen != len(names) {
		t.Errorf("probe array changed after warm-up: %+v", s)
	}
	if s.ProbeHits != int64(10*len(names)) {
		t.Errorf("probe hits %d", s.ProbeHits)
	}
}

func TestHintOrder(t *testing.T) {
	c := build(t, PropertyThreshold, false, "a", "b", "c")
	for _, n := range []string{"a", "b", "c"} {
		c.Lookup([]byte(n), 0)
	}
	_, next, ok := c.Lookup([]byte("b"), 1)
	if !ok || next != 2 {
		t.Errorf("Lookup(b, 1) next = %d, %v", next, ok)
	}
	_, next, ok = c.Lookup([]byte("a"), 3)
	if !ok || next != 1 {
		t.Errorf("Lookup(a, 3) next = %d, %v", next, ok)
	}
}

func TestThreshold(t *testing.T) {
	var names []string
	for i := 0; i < 40; i++ {
		names = append(names, fmt.Sprintf("parameter_%02d", i))
	}
	c := build(t, ParameterThreshold, false, names...)
	for _, n := range names {
		if _, _, ok := c.Lookup([]byte(n), 0); !ok {
			t.Fatalf("%q not found", n)
		}
	}
	if got := c.Stats().ProbeLen; got != ParameterThreshold {
		t.Errorf("probe length %d, want %d", got, ParameterThreshold)
	}
	for _, n := range names {
		if _, _, ok := c.Lookup([]byte(n), 0); !ok {
			t.Fatalf("%q not found past threshold", n)
		}
	}
}

func TestFold(t *testing.T) {
	c := build(t, PropertyThreshold, true, "UserName", "ID")
	for _, n := range []string{"username", "USERNAME", "userName", "id", "Id"} {
		if _, _, ok := c.Lookup([]byte(n), 0); !ok {
			t.Errorf("Lookup(%q) missed", n)
		}
	}
	if _, dup := c.Add("USERNAME", &desc{}); !dup {
		t.Errorf("folded duplicate not reported")
	}
}

func TestKey(t *testing.T) {
	if Key([]byte("abc")) == Key([]byte("abc\x00")) {
		t.Errorf("keys of different lengths collide")
	}
	if Key([]byte("abcdefgX")) != Key([]byte("abcdefgY")) {
		t.Errorf("keys should only cover %d bytes", KeyBytes)
	}
}

func TestConcurrentLookups(t *testing.T) {
	var names []string
	for i := 0; i < 100; i++ {
		names = append(names, fmt.Sprintf("field%d", i))
	}
	c := build(t, PropertyThreshold, false, names...)
	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for rep := 0; rep < 50; rep++ {
				hint := 0
				for i := range names {
					n := names[(i+g)%len(names)]
					d, next, ok := c.Lookup([]byte(n), hint)
					if !ok || d.name != n {
						errs <- n
						return
					}
					hint = next
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for n := range errs {
		t.Errorf("concurrent lookup of %q failed", n)
	}
	if got := c.Stats().ProbeLen; got > PropertyThreshold {
		t.Errorf("probe length %d exceeds threshold", got)
	}
}
