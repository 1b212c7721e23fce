package convert

import (
	"cmp"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/signadot/rjson/debug"
	"github.com/signadot/rjson/kpath"
	"github.com/signadot/rjson/token"
	"github.com/signadot/rjson/typemodel"
)

// Cycles are only looked for in stacks deeper than this.
const cycleDepth = 1000

type mapEntry struct {
	name string
	key  reflect.Value
}

// writeFrame is the progress of writing one container: the index of the
// next member to write, so a resumed write continues right after the last
// completed member.
type writeFrame struct {
	kind frameKind
	ti   *typemodel.TypeInfo
	seg  segment
	val  reflect.Value
	ptr  uintptr

	i       int
	inExt   bool
	entries []mapEntry
}

// WriteStack is the state of one write operation.
type WriteStack struct {
	ti     *typemodel.TypeInfo
	v      reflect.Value
	opts   Options
	log    *slog.Logger
	frames []*writeFrame
	spare  []*writeFrame

	started bool
	done    bool
	err     error
}

// NewWriteStack prepares writing v, a value of type ti.
func NewWriteStack(ti *typemodel.TypeInfo, v reflect.Value, opts Options) (*WriteStack, error) {
	if !v.IsValid() || v.Type() != ti.Type {
		return nil, fmt.Errorf("value must be a %s", ti.Type)
	}
	return &WriteStack{ti: ti, v: v, opts: opts, log: opts.logger()}, nil
}

// Depth is the number of frames on the stack.
func (st *WriteStack) Depth() int {
	return len(st.frames)
}

// Write advances the write operation into w. Between members it consults
// w.ShouldSuspend and returns Incomplete when asked to; the caller flushes
// w and calls again with the same stack. After an error every further call
// returns the same error.
func Write(st *WriteStack, w token.Sink) (Status, error) {
	if st.err != nil {
		return Incomplete, st.err
	}
	if st.done {
		return Complete, nil
	}
	status, err := st.run(w)
	if err != nil {
		st.err = err
		st.log.Debug("write failed", "error", err, "depth", len(st.frames))
		st.frames = nil
		return Incomplete, err
	}
	if status == Incomplete {
		if debug.Suspend() {
			debug.Logf("convert: write suspended at depth %d\n", len(st.frames))
		}
		return Incomplete, nil
	}
	st.done = true
	return Complete, nil
}

func (st *WriteStack) run(w token.Sink) (Status, error) {
	if !st.started {
		st.started = true
		if err := st.value(w, st.ti, st.v, segment{}); err != nil {
			return Incomplete, err
		}
	}
	for len(st.frames) > 0 {
		if w.ShouldSuspend() {
			return Incomplete, nil
		}
		f := st.frames[len(st.frames)-1]
		var err error
		switch f.kind {
		case kObject:
			err = st.stepObject(w, f)
		case kCollection:
			err = st.stepCollection(w, f)
		case kDictionary:
			err = st.stepDictionary(w, f)
		}
		if err != nil {
			return Incomplete, err
		}
	}
	return Complete, nil
}

func (st *WriteStack) fail(seg segment, err error) error {
	if located(err) {
		return err
	}
	var segs []*kpath.KPath
	for _, f := range st.frames {
		if f.seg.set {
			segs = append(segs, f.seg.kpath())
		}
	}
	if seg.set {
		segs = append(segs, seg.kpath())
	}
	return &MarshalError{Path: kpath.FromSegments(segs...), Err: err}
}

func (st *WriteStack) push(kind frameKind, ti *typemodel.TypeInfo, seg segment, v reflect.Value, ptr uintptr) (*writeFrame, error) {
	if ptr != 0 && len(st.frames) >= cycleDepth {
		for _, f := range st.frames {
			if f.ptr == ptr && f.ti == ti {
				return nil, st.fail(seg, fmt.Errorf("%w: %s", ErrCycle, ti.Type))
			}
		}
	}
	var f *writeFrame
	if n := len(st.spare); n > 0 {
		f = st.spare[n-1]
		st.spare = st.spare[:n-1]
	} else {
		f = &writeFrame{}
	}
	f.kind, f.ti, f.seg, f.val, f.ptr = kind, ti, seg, v, ptr
	st.frames = append(st.frames, f)
	return f, nil
}

func (st *WriteStack) pop() {
	n := len(st.frames)
	f := st.frames[n-1]
	st.frames[n-1] = nil
	st.frames = st.frames[:n-1]
	clear(f.entries)
	*f = writeFrame{entries: f.entries[:0]}
	st.spare = append(st.spare, f)
}

// value writes v. Scalars are written at once; containers write their
// opening token and push a frame.
func (st *WriteStack) value(w token.Sink, ti *typemodel.TypeInfo, v reflect.Value, seg segment) error {
	var ptr uintptr
	for ti.Shape == typemodel.ShapePointer {
		if v.IsNil() {
			w.Null()
			return nil
		}
		if ptr == 0 {
			ptr = v.Pointer()
		}
		v = v.Elem()
		ti = ti.Elem
	}
	switch ti.Shape {
	case typemodel.ShapeValue:
		if err := ti.Scalar.Write(w, v); err != nil {
			return st.fail(seg, err)
		}
		return nil

	case typemodel.ShapeDynamic:
		if v.IsNil() {
			w.Null()
			return nil
		}
		e := v.Elem()
		rti, err := ti.Registry().TypeOf(e.Type())
		if err != nil {
			return st.fail(seg, err)
		}
		return st.value(w, rti, e, seg)

	case typemodel.ShapeObject:
		if ti.Ctor != nil && ti.Ctor.Indirect {
			if v.IsNil() {
				w.Null()
				return nil
			}
			ptr = v.Pointer()
			v = v.Elem()
		}
		if _, err := st.push(kObject, ti, seg, v, ptr); err != nil {
			return err
		}
		w.BeginObject()
		return nil

	case typemodel.ShapeCollection:
		if !ti.Array && v.IsNil() {
			w.Null()
			return nil
		}
		if _, err := st.push(kCollection, ti, seg, v, ptr); err != nil {
			return err
		}
		w.BeginArray()
		return nil

	case typemodel.ShapeDictionary:
		if v.IsNil() {
			w.Null()
			return nil
		}
		f, err := st.push(kDictionary, ti, seg, v, v.Pointer())
		if err != nil {
			return err
		}
		f.entries, err = st.sortedEntries(f.entries[:0], v, ti.Key, st.opts.KeyPolicy, seg)
		if err != nil {
			return err
		}
		w.BeginObject()
		return nil
	}
	return st.fail(seg, &typemodel.UnsupportedShapeError{Type: ti.Type, Reason: "no converter for shape " + ti.Shape.String()})
}

// sortedEntries snapshots the keys of map m ordered by their names, so the
// output is deterministic and iteration can resume by index.
func (st *WriteStack) sortedEntries(out []mapEntry, m reflect.Value, kc *typemodel.KeyConverter, policy typemodel.NamingPolicy, seg segment) ([]mapEntry, error) {
	iter := m.MapRange()
	for iter.Next() {
		k := iter.Key()
		name, err := kc.Format(k)
		if err != nil {
			return nil, st.fail(seg, err)
		}
		if policy != nil {
			name = policy(name)
		}
		out = append(out, mapEntry{name: name, key: k})
	}
	slices.SortFunc(out, func(a, b mapEntry) int {
		return cmp.Compare(a.name, b.name)
	})
	return out, nil
}

// stepObject writes the next property, then the extension entries, then
// the closing token.
func (st *WriteStack) stepObject(w token.Sink, f *writeFrame) error {
	if !f.inExt {
		props := f.ti.Properties
		for f.i < len(props) {
			p := props[f.i]
			f.i++
			if !p.CanSerialize {
				continue
			}
			fv, ok := p.Get(f.val)
			if !ok || p.OmitEmpty && typemodel.IsEmpty(fv) {
				continue
			}
			w.QuotedName(p.Quoted)
			return st.value(w, p.Type, fv, fieldSeg(p.Name))
		}
		f.inExt = true
		f.i = 0
		if ext := f.ti.Extension; ext != nil {
			if m, ok := ext.Get(f.val); ok && m.Len() > 0 {
				f.val = m
				entries, err := st.sortedEntries(f.entries[:0], m, ext.Type.Key, nil, segment{})
				if err != nil {
					return err
				}
				f.entries = st.dropShadowed(f.ti, entries)
			}
		}
	}
	if f.i < len(f.entries) {
		e := f.entries[f.i]
		f.i++
		w.Name(e.name)
		return st.value(w, f.ti.Extension.Type.Elem, f.val.MapIndex(e.key), fieldSeg(e.name))
	}
	w.EndObject()
	st.pop()
	return nil
}

// dropShadowed removes extension entries named like a property.
func (st *WriteStack) dropShadowed(ti *typemodel.TypeInfo, entries []mapEntry) []mapEntry {
	props, _ := ti.PropertyCache(false)
	return slices.DeleteFunc(entries, func(e mapEntry) bool {
		_, _, found := props.Lookup([]byte(e.name), 0)
		return found
	})
}

func (st *WriteStack) stepCollection(w token.Sink, f *writeFrame) error {
	if f.i < f.val.Len() {
		i := f.i
		f.i++
		return st.value(w, f.ti.Elem, f.val.Index(i), indexSeg(i))
	}
	w.EndArray()
	st.pop()
	return nil
}

func (st *WriteStack) stepDictionary(w token.Sink, f *writeFrame) error {
	if f.i < len(f.entries) {
		e := f.entries[f.i]
		f.i++
		w.Name(e.name)
		return st.value(w, f.ti.Elem, f.val.MapIndex(e.key), fieldSeg(e.name))
	}
	w.EndObject()
	st.pop()
	return nil
}
