package convert

import (
	"github.com/signadot/rjson/token"
)

func (st *ReadStack) stepObject(f *readFrame, r *token.Reader) (stepResult, error) {
	cp := r.Checkpoint()
	ok, err := r.Read()
	if err != nil {
		return stepNext, err
	}
	if !ok {
		return stepIncomplete, nil
	}
	if r.Type() == token.TRCurl {
		if err := st.checkRequired(f, r); err != nil {
			return stepNext, err
		}
		return stepNext, st.finish(f, r)
	}
	name := r.Value()
	p, hint, found := f.props.Lookup(name, f.hint)
	switch {
	case found && p.CanDeserialize:
		f.hint = hint
		f.prop = p
		f.isExt = false
		return expectValue(f, p.Type, fieldSeg(p.Name)), nil
	case !found && f.ti.Extension != nil:
		f.ext = string(name)
		f.isExt = true
		return expectValue(f, f.ti.Extension.Type.Elem, fieldSeg(f.ext)), nil
	case !found && st.opts.DisallowUnknownFields:
		return stepNext, st.unknownField(f, string(name))
	}
	ok, err = skipMember(r, cp)
	if err != nil {
		return stepNext, err
	}
	if !ok {
		return stepIncomplete, nil
	}
	return stepNext, nil
}

func (st *ReadStack) stepCollection(f *readFrame, r *token.Reader) (stepResult, error) {
	cp := r.Checkpoint()
	ok, err := r.Read()
	if err != nil {
		return stepNext, err
	}
	if !ok {
		return stepIncomplete, nil
	}
	if r.Type() == token.TRSquare {
		return stepNext, st.finish(f, r)
	}
	if f.ti.Array && f.n >= f.val.Len() {
		ok, err := skipMember(r, cp)
		if err != nil {
			return stepNext, err
		}
		if !ok {
			return stepIncomplete, nil
		}
		return stepNext, nil
	}
	expectValue(f, f.ti.Elem, indexSeg(f.n))
	return stepNext, st.beginMember(f, r)
}

func (st *ReadStack) stepDictionary(f *readFrame, r *token.Reader) (stepResult, error) {
	ok, err := r.Read()
	if err != nil {
		return stepNext, err
	}
	if !ok {
		return stepIncomplete, nil
	}
	if r.Type() == token.TRCurl {
		return stepNext, st.finish(f, r)
	}
	name := r.String()
	res := expectValue(f, f.ti.Elem, fieldSeg(name))
	k, err := f.ti.Key.Parse(name)
	if err != nil {
		return stepNext, err
	}
	f.key = k
	return res, nil
}
