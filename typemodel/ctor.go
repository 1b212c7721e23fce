package typemodel

import (
	"fmt"
	"reflect"

	"github.com/signadot/rjson/namecache"
	"github.com/signadot/rjson/token"
)

// ParamSpec names one constructor parameter.
type ParamSpec struct {
	Name       string
	Default    any
	HasDefault bool
	Required   bool
}

// ParamOption configures a ParamSpec.
type ParamOption func(*ParamSpec)

// Param names the next constructor parameter.
func Param(name string, opts ...ParamOption) ParamSpec {
	p := ParamSpec{Name: name}
	for _, o := range opts {
		o(&p)
	}
	return p
}

// ParamDefault sets the value passed when the parameter is absent.
func ParamDefault(v any) ParamOption {
	return func(p *ParamSpec) {
		p.Default = v
		p.HasDefault = true
	}
}

// ParamRequired makes an absent parameter an error.
func ParamRequired() ParamOption {
	return func(p *ParamSpec) { p.Required = true }
}

type ctorSpec struct {
	fn     reflect.Value
	params []ParamSpec
}

var errorType = reflect.TypeFor[error]()

// RegisterConstructor makes fn the way to build values of its result type.
// fn returns T or (T, error), where T is a struct or a pointer to a struct;
// params name its parameters in order. Fields of T not bound to a
// parameter are still set as properties after construction.
//
// A constructor must be registered before its result type is first used.
func (r *Registry) RegisterConstructor(fn any, params ...ParamSpec) error {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return &ConstructorError{Func: reflect.TypeOf(fn), Message: "not a function"}
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return &ConstructorError{Func: ft, Message: "variadic constructors are not supported"}
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return &ConstructorError{Func: ft, Message: "must return T or (T, error)"}
	}
	out := ft.Out(0)
	st := out
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return &ConstructorError{Func: ft, Message: fmt.Sprintf("result %s is not a struct or pointer to struct", out)}
	}
	if len(params) != ft.NumIn() {
		return &ConstructorError{Func: ft, Message: fmt.Sprintf("%d parameter names for %d parameters", len(params), ft.NumIn())}
	}
	for i, p := range params {
		if p.Name == "" {
			return &ConstructorError{Func: ft, Message: fmt.Sprintf("parameter %d has no name", i)}
		}
		if !p.HasDefault || p.Default == nil {
			continue
		}
		dv := reflect.ValueOf(p.Default)
		if !dv.Type().AssignableTo(ft.In(i)) && !dv.Type().ConvertibleTo(ft.In(i)) {
			return &ConstructorError{Func: ft, Message: fmt.Sprintf("default %v for %q is not a %s", p.Default, p.Name, ft.In(i))}
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, built := r.types[out]; built {
		return &ConstructorError{Func: ft, Message: fmt.Sprintf("%s is already in use", out)}
	}
	r.ctors[out] = &ctorSpec{fn: fv, params: params}
	r.log.Debug("constructor registered", "type", out.String(), "params", len(params))
	return nil
}

// MustRegisterConstructor is RegisterConstructor panicking on error, for
// use in package initialization.
func (r *Registry) MustRegisterConstructor(fn any, params ...ParamSpec) {
	if err := r.RegisterConstructor(fn, params...); err != nil {
		panic(err)
	}
}

func (b *builder) buildCtor(ti *TypeInfo, spec *ctorSpec) error {
	t := ti.Type
	ft := spec.fn.Type()
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	ti.Shape = ShapeObject
	if err := b.buildProperties(ti, st); err != nil {
		return err
	}
	c := &Constructor{
		fn:        spec.fn,
		errResult: ft.NumOut() == 2,
		Indirect:  t.Kind() == reflect.Pointer,
		params:    namecache.New[Parameter](namecache.ParameterThreshold, false),
		foldPar:   namecache.New[Parameter](namecache.ParameterThreshold, true),
	}
	for i, ps := range spec.params {
		pt, err := b.typeOf(ft.In(i), fmt.Sprintf("%s(%s)", t, ps.Name))
		if err != nil {
			return err
		}
		p := &Parameter{
			Name:       ps.Name,
			Quoted:     token.AppendQuote(nil, ps.Name),
			Key:        namecache.Key([]byte(ps.Name)),
			Pos:        i,
			Type:       pt,
			HasDefault: ps.HasDefault,
			Required:   ps.Required,
		}
		if ps.HasDefault {
			p.Default = reflect.New(ft.In(i)).Elem()
			if ps.Default != nil {
				dv := reflect.ValueOf(ps.Default)
				if !dv.Type().AssignableTo(ft.In(i)) {
					dv = dv.Convert(ft.In(i))
				}
				p.Default.Set(dv)
			}
		}
		c.Params = append(c.Params, p)
		if prev, dup := c.params.Add(p.Name, p); dup {
			return &DuplicateBindingError{Type: t, Name: p.Name, First: fmt.Sprintf("parameter %d", prev.Pos), Second: fmt.Sprintf("parameter %d", p.Pos)}
		}
		if prev, dup := c.foldPar.Add(p.Name, p); dup && c.foldErr == nil {
			c.foldErr = &DuplicateBindingError{Type: t, Name: p.Name, First: fmt.Sprintf("parameter %d", prev.Pos), Second: fmt.Sprintf("parameter %d", p.Pos), Folded: true}
		}
	}
	ti.Ctor = c
	return nil
}
