package convert

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/signadot/rjson/token"
	"github.com/signadot/rjson/typemodel"
)

// deferred is a field met before an object's constructor could run. Its
// bytes run from just before the field name to the end of its value.
type deferred struct {
	prop  *typemodel.Property
	ext   string
	state token.State
	raw   []byte
	off   int
	end   int
}

// argState is the staged constructor input of one object.
type argState struct {
	values   []reflect.Value
	seen     []uint64
	nseen    int
	deferred []deferred
	arena    []byte
}

func (a *argState) has(i int) bool {
	return a.seen[i/64]&(1<<uint(i%64)) != 0
}

func (a *argState) mark(i int) {
	if !a.has(i) {
		a.seen[i/64] |= 1 << uint(i%64)
		a.nseen++
	}
}

// retained returns the bytes of d.
func (a *argState) retained(d *deferred) []byte {
	if d.raw != nil {
		return d.raw
	}
	return a.arena[d.off:d.end]
}

// Argument states are pooled by parameter count rounded up to a power of two.
const (
	minClassBits = 2
	numClasses   = 5
	maxArena     = 1 << 20
)

var (
	argPools  [numClasses]sync.Pool
	argsInUse atomic.Int64
)

func sizeClass(n int) int {
	c := 0
	for size := 1 << minClassBits; size < n; size <<= 1 {
		c++
	}
	return c
}

func getArgs(params []*typemodel.Parameter) *argState {
	n := len(params)
	c := sizeClass(n)
	var a *argState
	if c < numClasses {
		if x := argPools[c].Get(); x != nil {
			a = x.(*argState)
		}
	}
	if a == nil {
		size := max(n, 1<<(minClassBits+c))
		a = &argState{
			values: make([]reflect.Value, 0, size),
			seen:   make([]uint64, (size+63)/64),
		}
	}
	a.values = a.values[:n]
	for i, p := range params {
		a.values[i] = p.Type.New()
	}
	argsInUse.Add(1)
	return a
}

func putArgs(a *argState) {
	argsInUse.Add(-1)
	n := cap(a.values)
	clear(a.values[:n])
	a.values = a.values[:0]
	clear(a.seen)
	a.nseen = 0
	clear(a.deferred)
	a.deferred = a.deferred[:0]
	if cap(a.arena) > maxArena {
		a.arena = nil
	} else {
		a.arena = a.arena[:0]
	}
	c := sizeClass(n)
	if c < numClasses && n == 1<<(minClassBits+c) {
		argPools[c].Put(a)
	}
}
