package convert

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/signadot/rjson/debug"
	"github.com/signadot/rjson/kpath"
	"github.com/signadot/rjson/namecache"
	"github.com/signadot/rjson/token"
	"github.com/signadot/rjson/typemodel"
)

type frameKind uint8

const (
	kObject frameKind = iota
	kCtor
	kCollection
	kDictionary
)

type phase uint8

const (
	// phMembers waits for a name, an element or the closing token.
	phMembers phase = iota
	// phValue waits for the first token of a member value.
	phValue
)

// segment is one member path step.
type segment struct {
	name    string
	index   int
	isIndex bool
	set     bool
}

func fieldSeg(name string) segment { return segment{name: name, set: true} }
func indexSeg(i int) segment       { return segment{index: i, isIndex: true, set: true} }

func (s segment) kpath() *kpath.KPath {
	if s.isIndex {
		return kpath.Index(s.index)
	}
	return kpath.Field(s.name)
}

// readFrame is the progress of one container value. Fields are grouped by
// the frame kinds using them.
type readFrame struct {
	kind  frameKind
	ti    *typemodel.TypeInfo
	seg   segment
	phase phase

	// out is delivered to the parent when the frame completes. val is the
	// container being filled; when dst is valid val is stored there first.
	out reflect.Value
	val reflect.Value
	dst reflect.Value

	// member in progress
	childTI  *typemodel.TypeInfo
	childSeg segment
	prop     *typemodel.Property
	param    *typemodel.Parameter
	ext      string
	isExt    bool
	key      reflect.Value

	// objects
	obj      reflect.Value
	extMap   reflect.Value
	props    *namecache.Cache[typemodel.Property]
	hint     int
	required []uint64

	// constructor objects
	params *namecache.Cache[typemodel.Parameter]
	phint  int
	args   *argState
	built  bool

	// collections
	n int
}

func (f *readFrame) reset() {
	*f = readFrame{}
}

// ReadStack is the state of one read operation.
type ReadStack struct {
	ti     *typemodel.TypeInfo
	dst    reflect.Value
	opts   Options
	ropts  typemodel.ReadOptions
	log    *slog.Logger
	frames []*readFrame
	spare  []*readFrame
	prefix []segment

	started bool
	done    bool
	result  reflect.Value
	err     error
}

// NewReadStack prepares reading a value of type ti into dst, which must be
// addressable and of type ti.Type. dst is only assigned once the whole
// value has been read.
func NewReadStack(ti *typemodel.TypeInfo, dst reflect.Value, opts Options) (*ReadStack, error) {
	if !dst.CanSet() || dst.Type() != ti.Type {
		return nil, fmt.Errorf("destination must be a settable %s", ti.Type)
	}
	if opts.CaseInsensitive {
		if err := checkFolded(ti, map[*typemodel.TypeInfo]bool{}); err != nil {
			return nil, err
		}
	}
	return newReadStack(ti, dst, opts), nil
}

func newReadStack(ti *typemodel.TypeInfo, dst reflect.Value, opts Options) *ReadStack {
	return &ReadStack{
		ti:    ti,
		dst:   dst,
		opts:  opts,
		ropts: typemodel.ReadOptions{UseNumber: opts.UseNumber},
		log:   opts.logger(),
	}
}

// checkFolded verifies that no type reachable from ti binds two names
// differing only in case.
func checkFolded(ti *typemodel.TypeInfo, seen map[*typemodel.TypeInfo]bool) error {
	if ti == nil || seen[ti] {
		return nil
	}
	seen[ti] = true
	if ti.Shape == typemodel.ShapeObject {
		if _, err := ti.PropertyCache(true); err != nil {
			return err
		}
		for _, p := range ti.Properties {
			if err := checkFolded(p.Type, seen); err != nil {
				return err
			}
		}
		if ti.Ctor != nil {
			if _, err := ti.Ctor.ParameterCache(true); err != nil {
				return err
			}
			for _, p := range ti.Ctor.Params {
				if err := checkFolded(p.Type, seen); err != nil {
					return err
				}
			}
		}
	}
	return checkFolded(ti.Elem, seen)
}

// Depth is the number of frames on the stack.
func (st *ReadStack) Depth() int {
	return len(st.frames)
}

// Done reports whether the root value was read.
func (st *ReadStack) Done() bool {
	return st.done
}

// Release returns pooled buffers held by the stack's frames. It is called
// by Read on success and on error; callers abandoning a suspended read
// call it themselves. Release is idempotent.
func (st *ReadStack) Release() {
	for _, f := range st.frames {
		if f.args != nil {
			putArgs(f.args)
			f.args = nil
		}
	}
	st.frames = st.frames[:0]
	st.spare = nil
}

// Read advances the read operation with the tokens of r. It returns
// Incomplete when r needs more input; the caller then continues with a
// reader over the unconsumed bytes plus more input, seeded with r.State().
// After an error the stack is released and every further call returns the
// same error.
func Read(st *ReadStack, r *token.Reader) (Status, error) {
	if st.err != nil {
		return Incomplete, st.err
	}
	if st.done {
		return Complete, nil
	}
	status, err := st.run(r)
	if err != nil {
		st.err = st.locate(err, r)
		st.log.Debug("read failed", "error", st.err, "depth", len(st.frames))
		st.Release()
		return Incomplete, st.err
	}
	if status == Incomplete {
		if debug.Suspend() {
			debug.Logf("convert: read suspended at offset %d depth %d\n", r.Offset(), len(st.frames))
		}
		return Incomplete, nil
	}
	st.dst.Set(st.result)
	st.result = reflect.Value{}
	st.done = true
	st.Release()
	return Complete, nil
}

// locate attaches the current member path to err unless a nested
// operation already did.
func (st *ReadStack) locate(err error, r *token.Reader) error {
	if located(err) {
		return err
	}
	return &FormatError{Path: st.path(), Offset: errOffset(err, r), Err: err}
}

// segments lists the path steps from the root to the member being read.
func (st *ReadStack) segments() []segment {
	segs := append([]segment(nil), st.prefix...)
	for _, f := range st.frames {
		if f.seg.set {
			segs = append(segs, f.seg)
		}
	}
	if n := len(st.frames); n > 0 {
		if top := st.frames[n-1]; top.phase == phValue && top.childSeg.set {
			segs = append(segs, top.childSeg)
		}
	}
	return segs
}

func (st *ReadStack) path() *kpath.KPath {
	var segs []*kpath.KPath
	for _, s := range st.segments() {
		segs = append(segs, s.kpath())
	}
	return kpath.FromSegments(segs...)
}

func (st *ReadStack) push(kind frameKind, ti *typemodel.TypeInfo, seg segment) *readFrame {
	var f *readFrame
	if n := len(st.spare); n > 0 {
		f = st.spare[n-1]
		st.spare = st.spare[:n-1]
	} else {
		f = &readFrame{}
	}
	f.kind = kind
	f.ti = ti
	f.seg = seg
	st.frames = append(st.frames, f)
	return f
}

func (st *ReadStack) pop() {
	n := len(st.frames)
	f := st.frames[n-1]
	st.frames[n-1] = nil
	st.frames = st.frames[:n-1]
	if f.args != nil {
		putArgs(f.args)
	}
	f.reset()
	st.spare = append(st.spare, f)
}

func (st *ReadStack) run(r *token.Reader) (Status, error) {
	if !st.started {
		ok, err := r.Read()
		if err != nil {
			return Incomplete, err
		}
		if !ok {
			return Incomplete, nil
		}
		st.started = true
		out, pushed, err := st.begin(r, st.ti, segment{})
		if err != nil {
			return Incomplete, err
		}
		if !pushed {
			st.result = out
			return Complete, nil
		}
	}
	return st.loop(r)
}

type stepResult uint8

const (
	stepNext stepResult = iota
	stepIncomplete
)

// loop is the trampoline: it steps the top frame until the stack empties
// or a step needs more input.
func (st *ReadStack) loop(r *token.Reader) (Status, error) {
	for len(st.frames) > 0 {
		f := st.frames[len(st.frames)-1]
		if f.phase == phValue {
			ok, err := r.Read()
			if err != nil {
				return Incomplete, err
			}
			if !ok {
				return Incomplete, nil
			}
			if err := st.beginMember(f, r); err != nil {
				return Incomplete, err
			}
			continue
		}
		var (
			res stepResult
			err error
		)
		switch f.kind {
		case kObject:
			res, err = st.stepObject(f, r)
		case kCtor:
			res, err = st.stepCtor(f, r)
		case kCollection:
			res, err = st.stepCollection(f, r)
		case kDictionary:
			res, err = st.stepDictionary(f, r)
		}
		if err != nil {
			return Incomplete, err
		}
		if res == stepIncomplete {
			return Incomplete, nil
		}
	}
	return Complete, nil
}

// begin starts a value of type ti whose first token is the current token
// of r. Scalars complete at once and are returned; containers push a frame
// and report pushed.
func (st *ReadStack) begin(r *token.Reader, ti *typemodel.TypeInfo, seg segment) (reflect.Value, bool, error) {
	tok := r.Type()
	out := ti.New()
	cur := out
	for ti.Shape == typemodel.ShapePointer {
		if tok == token.TNull {
			return out, false, nil
		}
		cur.Set(reflect.New(ti.Type.Elem()))
		cur = cur.Elem()
		ti = ti.Elem
	}
	if tok == token.TNull {
		return out, false, nil
	}
	switch ti.Shape {
	case typemodel.ShapeValue:
		return out, false, ti.Scalar.Read(r, cur, st.ropts)

	case typemodel.ShapeDynamic:
		switch tok {
		case token.TLCurl:
			f := st.push(kDictionary, ti.DynObject, seg)
			f.out, f.dst = out, cur
			f.val = reflect.MakeMap(ti.DynObject.Type)
			return out, true, nil
		case token.TLSquare:
			f := st.push(kCollection, ti.DynArray, seg)
			f.out, f.dst = out, cur
			f.val = reflect.New(ti.DynArray.Type).Elem()
			f.val.Set(reflect.MakeSlice(ti.DynArray.Type, 0, 0))
			return out, true, nil
		}
		v, err := typemodel.DynamicScalar(r, st.ropts)
		if err != nil || v == nil {
			return out, false, err
		}
		cur.Set(reflect.ValueOf(v))
		return out, false, nil

	case typemodel.ShapeObject:
		if tok != token.TLCurl {
			return out, false, &typemodel.MismatchError{Got: tok, Want: ti.Type}
		}
		if ti.Ctor != nil {
			return out, true, st.beginCtor(r, ti, seg, out, cur)
		}
		props, _ := ti.PropertyCache(st.opts.CaseInsensitive)
		f := st.push(kObject, ti, seg)
		f.out, f.val, f.obj = out, cur, cur
		f.props = props
		f.required = requiredBits(ti)
		return out, true, nil

	case typemodel.ShapeCollection:
		if tok != token.TLSquare {
			return out, false, &typemodel.MismatchError{Got: tok, Want: ti.Type}
		}
		f := st.push(kCollection, ti, seg)
		f.out, f.val = out, cur
		if !ti.Array {
			cur.Set(reflect.MakeSlice(ti.Type, 0, 0))
		}
		return out, true, nil

	case typemodel.ShapeDictionary:
		if tok != token.TLCurl {
			return out, false, &typemodel.MismatchError{Got: tok, Want: ti.Type}
		}
		f := st.push(kDictionary, ti, seg)
		f.out, f.val = out, cur
		cur.Set(reflect.MakeMap(ti.Type))
		return out, true, nil
	}
	return out, false, &typemodel.UnsupportedShapeError{Type: ti.Type, Reason: "no converter for shape " + ti.Shape.String()}
}

func requiredBits(ti *typemodel.TypeInfo) []uint64 {
	if len(ti.Required) == 0 {
		return nil
	}
	return make([]uint64, (len(ti.Properties)+63)/64)
}

func markRequired(f *readFrame, p *typemodel.Property) {
	if f.required != nil && p.Required {
		f.required[p.Pos/64] |= 1 << uint(p.Pos%64)
	}
}

func (st *ReadStack) checkRequired(f *readFrame, r *token.Reader) error {
	if f.required == nil {
		return nil
	}
	var missing []string
	for _, p := range f.ti.Required {
		if f.required[p.Pos/64]&(1<<uint(p.Pos%64)) == 0 {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingRequiredDataError{Path: st.path(), Offset: r.TokenOffset(), Names: missing}
}

// deliver hands a completed member value to its container frame.
func (st *ReadStack) deliver(f *readFrame, v reflect.Value, r *token.Reader) error {
	switch f.kind {
	case kObject:
		if f.isExt {
			st.setExtension(f, v)
			return nil
		}
		f.prop.Set(f.obj).Set(v)
		markRequired(f, f.prop)
	case kCtor:
		if f.param != nil {
			f.args.values[f.param.Pos].Set(v)
			f.args.mark(f.param.Pos)
			f.param = nil
			if f.args.nseen == len(f.ti.Ctor.Params) {
				return st.construct(f, r)
			}
			return nil
		}
		if f.isExt {
			st.setExtension(f, v)
			return nil
		}
		f.prop.Set(f.obj).Set(v)
		markRequired(f, f.prop)
	case kCollection:
		if f.ti.Array {
			f.val.Index(f.n).Set(v)
		} else {
			f.val.Set(reflect.Append(f.val, v))
		}
		f.n++
	case kDictionary:
		f.val.SetMapIndex(f.key, v)
	}
	return nil
}

func (st *ReadStack) setExtension(f *readFrame, v reflect.Value) {
	if !f.extMap.IsValid() {
		f.extMap = f.ti.Extension.Set(f.obj)
		if f.extMap.IsNil() {
			f.extMap.Set(reflect.MakeMap(f.extMap.Type()))
		}
	}
	f.extMap.SetMapIndex(reflect.ValueOf(f.ext), v)
}

// finish completes the top frame and delivers its value.
func (st *ReadStack) finish(f *readFrame, r *token.Reader) error {
	if f.dst.IsValid() {
		f.dst.Set(f.val)
	}
	out := f.out
	st.pop()
	if len(st.frames) == 0 {
		st.result = out
		return nil
	}
	parent := st.frames[len(st.frames)-1]
	parent.phase = phMembers
	return st.deliver(parent, out, r)
}

// beginMember starts the pending member value of f at the current token.
func (st *ReadStack) beginMember(f *readFrame, r *token.Reader) error {
	out, pushed, err := st.begin(r, f.childTI, f.childSeg)
	if err != nil || pushed {
		return err
	}
	f.phase = phMembers
	return st.deliver(f, out, r)
}

// expectValue switches f to reading a member value.
func expectValue(f *readFrame, ti *typemodel.TypeInfo, seg segment) stepResult {
	f.childTI = ti
	f.childSeg = seg
	f.phase = phValue
	return stepNext
}

// skipMember skips the value of the name just read. The skip is atomic
// with the name: when the value is incomplete the reader returns to cp,
// before the name.
func skipMember(r *token.Reader, cp token.Checkpoint) (bool, error) {
	ok, err := r.Skip()
	if err != nil {
		return false, err
	}
	if !ok {
		r.Rollback(cp)
		return false, nil
	}
	return true, nil
}

// unknownField reports a field matching nothing when unknown fields are
// disallowed, locating the error at the field.
func (st *ReadStack) unknownField(f *readFrame, name string) error {
	f.childSeg = fieldSeg(name)
	f.phase = phValue
	return fmt.Errorf("%w %q in %s", ErrUnknownField, name, f.ti.Type)
}

var errTruncated = errors.New("retained value is truncated")
