// Package namecache maps raw JSON property names to descriptors.
//
// A Cache has two tiers. The probe array is a short list of entries in the
// order names were first seen in payloads, keyed by an integer packed from
// the first bytes of the name. The fallback map holds every name. Lookups
// probe outward from a caller supplied hint, so a payload whose fields
// arrive in the usual order resolves each name with one comparison.
//
// The probe array is never modified in place. Growing it copies the array,
// appends and publishes the copy atomically. Concurrent first uses of the
// same cache may lose each other's appends or publish duplicates; both only
// cost a wasted probe.
package namecache

import (
	"bytes"
	"sync/atomic"
	"unicode/utf8"

	"github.com/signadot/rjson/debug"
)

// KeyBytes is the number of leading name bytes packed into an entry key.
const KeyBytes = 7

const (
	// PropertyThreshold bounds the probe array of a property cache.
	PropertyThreshold = 64
	// ParameterThreshold bounds the probe array of a parameter cache.
	ParameterThreshold = 32
)

type entry[D any] struct {
	key  uint64
	name []byte
	d    *D
}

// Cache resolves names to descriptors of type D.
type Cache[D any] struct {
	threshold int
	fold      bool
	byName    map[string]*D
	probe     atomic.Pointer[[]entry[D]]

	probeHits    atomic.Int64
	fallbackHits atomic.Int64
	misses       atomic.Int64
	publishes    atomic.Int64
}

// New creates an empty cache whose probe array holds at most threshold
// entries. With fold set, names match case-insensitively.
func New[D any](threshold int, fold bool) *Cache[D] {
	c := &Cache[D]{
		threshold: threshold,
		fold:      fold,
		byName:    map[string]*D{},
	}
	empty := []entry[D]{}
	c.probe.Store(&empty)
	return c
}

// Add registers d under name. It returns the descriptor already registered
// under the same name, if any, and leaves it in place.
//
// Add must not be called once the cache is in use.
func (c *Cache[D]) Add(name string, d *D) (*D, bool) {
	k := name
	if c.fold {
		k = string(Fold([]byte(name)))
	}
	if prev, ok := c.byName[k]; ok {
		return prev, true
	}
	c.byName[k] = d
	return nil, false
}

// Len is the number of registered names.
func (c *Cache[D]) Len() int {
	return len(c.byName)
}

// Folds reports whether the cache matches case-insensitively.
func (c *Cache[D]) Folds() bool {
	return c.fold
}

// Lookup resolves name, probing outward from hint. It returns the
// descriptor and the probe index just past the matched entry, which is the
// natural hint for the next name.
func (c *Cache[D]) Lookup(name []byte, hint int) (*D, int, bool) {
	if c.fold {
		name = Fold(name)
	}
	key := Key(name)
	probe := *c.probe.Load()
	n := len(probe)
	if hint > n {
		hint = n
	}
	if hint < 0 {
		hint = 0
	}
	f, b := hint, hint-1
	for f < n || b >= 0 {
		if f < n {
			if probe[f].key == key && (len(name) <= KeyBytes || bytes.Equal(probe[f].name, name)) {
				c.probeHits.Add(1)
				return probe[f].d, f + 1, true
			}
			f++
		}
		if b >= 0 {
			if probe[b].key == key && (len(name) <= KeyBytes || bytes.Equal(probe[b].name, name)) {
				c.probeHits.Add(1)
				return probe[b].d, b + 1, true
			}
			b--
		}
	}
	d, ok := c.byName[string(name)]
	if !ok {
		c.misses.Add(1)
		return nil, hint, false
	}
	c.fallbackHits.Add(1)
	if n >= c.threshold {
		return d, hint, true
	}
	grown := make([]entry[D], n, n+1)
	copy(grown, probe)
	grown = append(grown, entry[D]{key: key, name: bytes.Clone(name), d: d})
	c.probe.Store(&grown)
	c.publishes.Add(1)
	if debug.Cache() {
		debug.Logf("namecache: published %d entries after %q\n", len(grown), name)
	}
	return d, n + 1, true
}

// Key packs the first KeyBytes bytes of name and its length into an
// integer. Names of at most KeyBytes bytes are equal exactly when their
// keys are.
func Key(name []byte) uint64 {
	var k uint64
	n := min(len(name), KeyBytes)
	for i := 0; i < n; i++ {
		k |= uint64(name[i]) << (8 * uint(i))
	}
	l := len(name)
	if l > 0xff {
		l = 0xff
	}
	return k | uint64(l)<<56
}

// Fold returns name in the case used for case-insensitive matching. ASCII
// only names are folded without allocating when they are already lower
// case.
func Fold(name []byte) []byte {
	lower := true
	ascii := true
	for _, c := range name {
		if c >= utf8.RuneSelf {
			ascii = false
			break
		}
		if 'A' <= c && c <= 'Z' {
			lower = false
		}
	}
	if ascii && lower {
		return name
	}
	return bytes.ToLower(name)
}

// FoldString is Fold for strings.
func FoldString(name string) string {
	return string(Fold([]byte(name)))
}

// Stats is a snapshot of cache activity.
type Stats struct {
	ProbeHits    int64
	FallbackHits int64
	Misses       int64
	Publishes    int64
	ProbeLen     int
}

// Stats returns the activity counters and the current probe array length.
func (c *Cache[D]) Stats() Stats {
	return Stats{
		ProbeHits:    c.probeHits.Load(),
		FallbackHits: c.fallbackHits.Load(),
		Misses:       c.misses.Load(),
		Publishes:    c.publishes.Load(),
		ProbeLen:     len(*c.probe.Load()),
	}
}
