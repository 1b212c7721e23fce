package convert

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/signadot/rjson/debug"
	"github.com/signadot/rjson/token"
	"github.com/signadot/rjson/typemodel"
)

// ErrNilConstructed is the cause of a FormatError for a constructor
// returning a nil pointer.
var ErrNilConstructed = errors.New("constructor returned nil")

func (st *ReadStack) beginCtor(r *token.Reader, ti *typemodel.TypeInfo, seg segment, out, cur reflect.Value) error {
	props, _ := ti.PropertyCache(st.opts.CaseInsensitive)
	params, _ := ti.Ctor.ParameterCache(st.opts.CaseInsensitive)
	f := st.push(kCtor, ti, seg)
	f.out, f.val = out, cur
	f.props = props
	f.params = params
	f.required = requiredBits(ti)
	f.args = getArgs(ti.Ctor.Params)
	if len(ti.Ctor.Params) == 0 {
		return st.construct(f, r)
	}
	return nil
}

// stepCtor reads one member of a constructor object. Before construction,
// parameters are decoded into the staged arguments and every other field
// is deferred. After construction fields are applied as properties and
// repeated parameters are skipped, so the first value wins.
func (st *ReadStack) stepCtor(f *readFrame, r *token.Reader) (stepResult, error) {
	cp := r.Checkpoint()
	ok, err := r.Read()
	if err != nil {
		return stepNext, err
	}
	if !ok {
		return stepIncomplete, nil
	}
	if r.Type() == token.TRCurl {
		if !f.built {
			if err := st.construct(f, r); err != nil {
				return stepNext, err
			}
		}
		if err := st.checkRequired(f, r); err != nil {
			return stepNext, err
		}
		return stepNext, st.finish(f, r)
	}
	name := r.Value()
	if p, hint, found := f.params.Lookup(name, f.phint); found {
		f.phint = hint
		if f.built || f.args.has(p.Pos) {
			if debug.Replay() {
				debug.Logf("convert: dropping repeated parameter %q of %s\n", name, f.ti.Type)
			}
			return st.skip(r, cp)
		}
		f.param = p
		f.isExt = false
		return expectValue(f, p.Type, fieldSeg(p.Name)), nil
	}
	p, hint, found := f.props.Lookup(name, f.hint)
	switch {
	case found && p.CanDeserialize:
		f.hint = hint
		if f.built {
			f.prop = p
			f.isExt = false
			return expectValue(f, p.Type, fieldSeg(p.Name)), nil
		}
		return st.deferMember(f, r, cp, p, "")
	case found:
		return st.skip(r, cp)
	case f.ti.Extension != nil:
		ext := string(name)
		if f.built {
			f.ext = ext
			f.isExt = true
			return expectValue(f, f.ti.Extension.Type.Elem, fieldSeg(ext)), nil
		}
		return st.deferMember(f, r, cp, nil, ext)
	case st.opts.DisallowUnknownFields:
		return stepNext, st.unknownField(f, string(name))
	}
	return st.skip(r, cp)
}

func (st *ReadStack) skip(r *token.Reader, cp token.Checkpoint) (stepResult, error) {
	ok, err := skipMember(r, cp)
	if err != nil {
		return stepNext, err
	}
	if !ok {
		return stepIncomplete, nil
	}
	return stepNext, nil
}

// deferMember skips the value of the name just read and retains the bytes
// from cp to the end of the value for replay after construction. Bytes of
// a final block stay valid for the rest of the operation and are
// referenced; others are copied into the argument arena.
func (st *ReadStack) deferMember(f *readFrame, r *token.Reader, cp token.Checkpoint, p *typemodel.Property, ext string) (stepResult, error) {
	ok, err := skipMember(r, cp)
	if err != nil {
		return stepNext, err
	}
	if !ok {
		return stepIncomplete, nil
	}
	raw := r.Block()[cp.Pos():r.Consumed()]
	d := deferred{prop: p, ext: ext, state: cp.State().Clone()}
	a := f.args
	if r.Final() {
		d.raw = raw
	} else {
		d.off = len(a.arena)
		a.arena = append(a.arena, raw...)
		d.end = len(a.arena)
	}
	a.deferred = append(a.deferred, d)
	if debug.Replay() {
		debug.Logf("convert: deferred %d bytes at offset %d for %s\n", len(raw), d.state.Offset(), f.ti.Type)
	}
	return stepNext, nil
}

// construct runs the constructor with the staged arguments and replays the
// deferred fields onto the new instance.
func (st *ReadStack) construct(f *readFrame, r *token.Reader) error {
	c := f.ti.Ctor
	a := f.args
	var missing []string
	for i, p := range c.Params {
		if a.has(i) {
			continue
		}
		if p.Required || st.opts.RequireConstructorArgs {
			missing = append(missing, p.Name)
			continue
		}
		if p.HasDefault && !st.opts.IgnoreParameterDefaults {
			a.values[i].Set(p.Default)
		}
	}
	if len(missing) > 0 {
		return &MissingRequiredDataError{Path: st.path(), Offset: r.TokenOffset(), Names: missing}
	}
	v, err := c.Call(a.values)
	if err != nil {
		return fmt.Errorf("constructing %s: %w", f.ti.Type, err)
	}
	f.val.Set(v)
	f.obj = f.val
	if c.Indirect {
		if f.val.IsNil() {
			return fmt.Errorf("%w: %s", ErrNilConstructed, f.ti.Type)
		}
		f.obj = f.val.Elem()
	}
	f.built = true
	if len(a.deferred) > 0 {
		st.log.Debug("replaying deferred fields", "type", f.ti.Type.String(), "count", len(a.deferred))
	}
	for i := range a.deferred {
		d := &a.deferred[i]
		if err := st.replay(f, d, a.retained(d)); err != nil {
			return err
		}
	}
	f.args = nil
	putArgs(a)
	return nil
}

// replay decodes one deferred field from its retained bytes, using the
// reader state captured before its name.
func (st *ReadStack) replay(f *readFrame, d *deferred, raw []byte) error {
	name := d.ext
	var ti *typemodel.TypeInfo
	if d.prop != nil {
		name = d.prop.Name
		ti = d.prop.Type
	} else {
		ti = f.ti.Extension.Type.Elem
	}
	if debug.Replay() {
		debug.Logf("convert: replaying %q of %s from offset %d\n", name, f.ti.Type, d.state.Offset())
	}
	sub := newReadStack(ti, reflect.Value{}, st.opts)
	sub.prefix = append(st.segments(), fieldSeg(name))
	v, err := sub.replayValue(token.NewReader(raw, true, d.state))
	if err != nil {
		return err
	}
	if d.prop != nil {
		d.prop.Set(f.obj).Set(v)
		markRequired(f, d.prop)
		return nil
	}
	f.ext = d.ext
	st.setExtension(f, v)
	return nil
}

// replayValue reads the name and value held by r, which holds exactly one
// member.
func (st *ReadStack) replayValue(r *token.Reader) (reflect.Value, error) {
	defer st.Release()
	ok, err := r.Read()
	if err == nil && (!ok || r.Type() != token.TKey) {
		err = errTruncated
	}
	if err == nil {
		ok, err = r.Read()
		if err == nil && !ok {
			err = errTruncated
		}
	}
	if err != nil {
		return reflect.Value{}, st.locate(err, r)
	}
	st.started = true
	out, pushed, err := st.begin(r, st.ti, segment{})
	if err == nil && pushed {
		var status Status
		status, err = st.loop(r)
		if err == nil && status == Incomplete {
			err = errTruncated
		}
		out = st.result
	}
	if err != nil {
		return reflect.Value{}, st.locate(err, r)
	}
	return out, nil
}
