package typemodel

import (
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/signadot/rjson/debug"
	"github.com/signadot/rjson/namecache"
	"github.com/signadot/rjson/token"
)

// Registry builds and holds the TypeInfo of every type it has seen.
//
// Each type is built once, on first use, and never changes afterwards. A
// Registry is safe for concurrent use. Lookups of built types read an
// immutable snapshot; mu only serializes builds and registrations.
type Registry struct {
	mu     sync.Mutex
	naming NamingPolicy
	log    *slog.Logger
	types  map[reflect.Type]*TypeInfo
	ctors  map[reflect.Type]*ctorSpec
	built  atomic.Pointer[map[reflect.Type]*TypeInfo]
}

// Option configures a Registry.
type Option func(*Registry)

// WithNaming sets the policy that derives JSON names from Go field names
// without an explicit field= tag.
func WithNaming(p NamingPolicy) Option {
	return func(r *Registry) { r.naming = p }
}

// WithLogger sets the logger receiving type build events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		log:   slog.New(slog.DiscardHandler),
		types: map[reflect.Type]*TypeInfo{},
		ctors: map[reflect.Type]*ctorSpec{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide Registry used when none is given.
func Default() *Registry {
	return defaultRegistry
}

// TypeOf returns the TypeInfo of t, building it and every type reachable
// from it on first use. Unsupported types and conflicting names are
// reported here, before any input is consumed.
func (r *Registry) TypeOf(t reflect.Type) (*TypeInfo, error) {
	if t == nil {
		return nil, &UnsupportedShapeError{Reason: "nil type"}
	}
	if snap := r.built.Load(); snap != nil {
		if ti, ok := (*snap)[t]; ok {
			return ti, nil
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ti, ok := r.types[t]; ok {
		return ti, nil
	}
	b := &builder{r: r}
	ti, err := b.typeOf(t, "")
	if err != nil {
		for _, added := range b.added {
			delete(r.types, added)
		}
		r.log.Debug("type build failed", "type", t.String(), "error", err)
		return nil, err
	}
	snap := maps.Clone(r.types)
	r.built.Store(&snap)
	r.log.Debug("types built", "root", t.String(), "count", len(b.added))
	return ti, nil
}

// For returns the TypeInfo of T.
func For[T any](r *Registry) (*TypeInfo, error) {
	return r.TypeOf(reflect.TypeFor[T]())
}

type builder struct {
	r     *Registry
	added []reflect.Type
}

func (b *builder) typeOf(t reflect.Type, via string) (*TypeInfo, error) {
	if ti, ok := b.r.types[t]; ok {
		return ti, nil
	}
	ti := &TypeInfo{Type: t, registry: b.r}
	b.r.types[t] = ti
	b.added = append(b.added, t)
	if err := b.build(ti, via); err != nil {
		return nil, err
	}
	if debug.Types() {
		debug.Logf("typemodel: %s is %s with %d properties\n", t, ti.Shape, len(ti.Properties))
	}
	return ti, nil
}

func (b *builder) build(ti *TypeInfo, via string) error {
	t := ti.Type
	if spec, ok := b.r.ctors[t]; ok {
		return b.buildCtor(ti, spec)
	}
	if s := scalarFor(t); s != nil {
		ti.Shape = ShapeValue
		ti.Scalar = s
		return nil
	}
	var err error
	switch t.Kind() {
	case reflect.Pointer:
		ti.Shape = ShapePointer
		ti.Elem, err = b.typeOf(t.Elem(), via)
		return err
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return &UnsupportedShapeError{Type: t, Via: via, Reason: "interface with methods has no instantiable type"}
		}
		ti.Shape = ShapeDynamic
		if ti.DynObject, err = b.typeOf(reflect.TypeFor[map[string]any](), via); err != nil {
			return err
		}
		ti.DynArray, err = b.typeOf(reflect.TypeFor[[]any](), via)
		return err
	case reflect.Slice, reflect.Array:
		ti.Shape = ShapeCollection
		ti.Array = t.Kind() == reflect.Array
		ti.Elem, err = b.typeOf(t.Elem(), via)
		return err
	case reflect.Map:
		ti.Shape = ShapeDictionary
		ti.Key = keyConverter(t.Key())
		if ti.Key == nil {
			return &UnsupportedShapeError{Type: t, Via: via, Reason: fmt.Sprintf("map key %s cannot be a property name", t.Key())}
		}
		ti.Elem, err = b.typeOf(t.Elem(), via)
		return err
	case reflect.Struct:
		ti.Shape = ShapeObject
		return b.buildProperties(ti, t)
	}
	return &UnsupportedShapeError{Type: t, Via: via, Reason: fmt.Sprintf("%s values have no JSON form", t.Kind())}
}

type field struct {
	sf    reflect.StructField
	name  string
	index []int
	depth int
	tag   *fieldTag
}

func (b *builder) collectFields(t reflect.Type, index []int, depth int, seen map[reflect.Type]bool, out []field) ([]field, error) {
	seen[t] = true
	defer delete(seen, t)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, err := parseFieldTag(sf)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		if tag.omit {
			continue
		}
		idx := append(append([]int(nil), index...), i)
		if sf.Anonymous && !tag.named {
			ft := sf.Type
			isPtr := ft.Kind() == reflect.Pointer
			if isPtr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && scalarFor(ft) == nil && !(isPtr && !sf.IsExported()) {
				if seen[ft] {
					continue
				}
				out, err = b.collectFields(ft, idx, depth+1, seen, out)
				if err != nil {
					return nil, err
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		name := tag.name
		if !tag.named {
			name = sf.Name
			if b.r.naming != nil {
				name = b.r.naming(name)
			}
		}
		out = append(out, field{sf: sf, name: name, index: idx, depth: depth, tag: tag})
	}
	return out, nil
}

// dominant resolves fields sharing a name: the shallowest wins, and among
// equally shallow fields an explicitly named one wins.
func dominant(t reflect.Type, fields []field) ([]field, error) {
	byName := map[string][]int{}
	var order []string
	for i, f := range fields {
		if _, ok := byName[f.name]; !ok {
			order = append(order, f.name)
		}
		byName[f.name] = append(byName[f.name], i)
	}
	keep := make([]bool, len(fields))
	for _, name := range order {
		idxs := byName[name]
		best := idxs[0]
		for _, i := range idxs[1:] {
			if fields[i].depth < fields[best].depth {
				best = i
			}
		}
		var tied []int
		for _, i := range idxs {
			if fields[i].depth == fields[best].depth {
				tied = append(tied, i)
			}
		}
		if len(tied) > 1 {
			var named []int
			for _, i := range tied {
				if fields[i].tag.named {
					named = append(named, i)
				}
			}
			if len(named) != 1 {
				return nil, &DuplicateBindingError{
					Type:   t,
					Name:   name,
					First:  fields[tied[0]].sf.Name,
					Second: fields[tied[1]].sf.Name,
				}
			}
			best = named[0]
		}
		keep[best] = true
	}
	var out []field
	for i, f := range fields {
		if keep[i] {
			out = append(out, f)
		}
	}
	return out, nil
}

var extensionType = reflect.TypeFor[map[string]any]()

func (b *builder) buildProperties(ti *TypeInfo, st reflect.Type) error {
	fields, err := b.collectFields(st, nil, 0, map[reflect.Type]bool{}, nil)
	if err != nil {
		return err
	}
	fields, err = dominant(st, fields)
	if err != nil {
		return err
	}
	ti.props = namecache.New[Property](namecache.PropertyThreshold, false)
	ti.foldProps = namecache.New[Property](namecache.PropertyThreshold, true)
	for _, f := range fields {
		via := st.String() + "." + f.sf.Name
		pt, err := b.typeOf(f.sf.Type, via)
		if err != nil {
			return err
		}
		p := &Property{
			Name:           f.name,
			Quoted:         token.AppendQuote(nil, f.name),
			Key:            namecache.Key([]byte(f.name)),
			Field:          f.sf.Name,
			Type:           pt,
			index:          f.index,
			CanSerialize:   !f.tag.decodeOnly,
			CanDeserialize: !f.tag.encodeOnly,
			OmitEmpty:      f.tag.omitEmpty,
			Required:       f.tag.required,
			IsExtension:    f.tag.extension,
		}
		if p.IsExtension {
			if f.sf.Type != extensionType {
				return &UnsupportedShapeError{Type: f.sf.Type, Via: via, Reason: "extension field must be map[string]any"}
			}
			if ti.Extension != nil {
				return &DuplicateBindingError{Type: st, Name: "extension", First: ti.Extension.Field, Second: f.sf.Name}
			}
			ti.Extension = p
			continue
		}
		p.Pos = len(ti.Properties)
		ti.Properties = append(ti.Properties, p)
		if p.Required {
			ti.Required = append(ti.Required, p)
		}
		if prev, dup := ti.props.Add(p.Name, p); dup {
			return &DuplicateBindingError{Type: st, Name: p.Name, First: prev.Field, Second: p.Field}
		}
		if prev, dup := ti.foldProps.Add(p.Name, p); dup && ti.foldErr == nil {
			ti.foldErr = &DuplicateBindingError{Type: st, Name: p.Name, First: prev.Field, Second: p.Field, Folded: true}
		}
	}
	return nil
}
