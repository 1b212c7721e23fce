package typemodel

import (
	"reflect"

	"github.com/signadot/rjson/namecache"
	"github.com/signadot/rjson/token"
)

// TypeInfo is the conversion descriptor of one Go type.
type TypeInfo struct {
	Type  reflect.Type
	Shape Shape

	// Scalar converts ShapeValue types.
	Scalar *Scalar

	// Properties lists the object properties in declaration order. It
	// excludes the extension property.
	Properties []*Property
	// Extension receives unknown properties, if the type has one.
	Extension *Property
	// Ctor is the registered constructor, if any.
	Ctor *Constructor
	// Required lists properties that must be present when decoding.
	Required []*Property

	// Elem is the element type of collections, dictionaries and pointers.
	Elem *TypeInfo
	// Array is set for fixed-length collections.
	Array bool
	// Key converts dictionary keys.
	Key *KeyConverter

	// DynObject and DynArray are the types a dynamic value takes when the
	// payload holds an object or an array.
	DynObject *TypeInfo
	DynArray  *TypeInfo

	registry  *Registry
	props     *namecache.Cache[Property]
	foldProps *namecache.Cache[Property]
	foldErr   error
}

func (ti *TypeInfo) String() string {
	return ti.Type.String()
}

// PropertyCache returns the name cache for the object properties. With
// fold set it is the case-insensitive cache, which fails when two
// properties differ only in case.
func (ti *TypeInfo) PropertyCache(fold bool) (*namecache.Cache[Property], error) {
	if !fold {
		return ti.props, nil
	}
	return ti.foldProps, ti.foldErr
}

// Registry is the registry that built ti. Dynamic writes resolve runtime
// types through it.
func (ti *TypeInfo) Registry() *Registry {
	return ti.registry
}

// New allocates a zero value of the type and returns it addressable.
func (ti *TypeInfo) New() reflect.Value {
	return reflect.New(ti.Type).Elem()
}

// Property describes one object member.
type Property struct {
	// Name is the JSON name and Quoted the same name as a JSON string.
	Name   string
	Quoted []byte
	// Key is namecache.Key of Name.
	Key uint64
	// Field is the Go field name, for diagnostics.
	Field string
	// Pos is the declaration position among the type's properties.
	Pos   int
	Type  *TypeInfo
	index []int

	CanSerialize   bool
	CanDeserialize bool
	OmitEmpty      bool
	Required       bool
	IsExtension    bool
}

// Set returns the addressable field of the struct value v, allocating
// nil embedded pointers on the way.
func (p *Property) Set(v reflect.Value) reflect.Value {
	for i, x := range p.index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// Get returns the field of the struct value v. It returns false when the
// field is reached through a nil embedded pointer.
func (p *Property) Get(v reflect.Value) (reflect.Value, bool) {
	for i, x := range p.index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// IsEmpty reports whether v counts as empty for omitempty.
func IsEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}

// Parameter describes one constructor parameter.
type Parameter struct {
	Name   string
	Quoted []byte
	Key    uint64
	Pos    int
	Type   *TypeInfo

	// Default is used for an absent parameter when HasDefault is set.
	Default    reflect.Value
	HasDefault bool
	Required   bool
}

// Constructor is a registered function building an object from ordered
// arguments.
type Constructor struct {
	Params []*Parameter
	// Indirect is set when the constructor returns a pointer to the struct
	// holding the properties.
	Indirect bool

	fn        reflect.Value
	errResult bool
	params    *namecache.Cache[Parameter]
	foldPar   *namecache.Cache[Parameter]
	foldErr   error
}

// ParameterCache returns the name cache for the parameters.
func (c *Constructor) ParameterCache(fold bool) (*namecache.Cache[Parameter], error) {
	if !fold {
		return c.params, nil
	}
	return c.foldPar, c.foldErr
}

// Call invokes the constructor.
func (c *Constructor) Call(args []reflect.Value) (reflect.Value, error) {
	out := c.fn.Call(args)
	if c.errResult && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}

// Scalar reads and writes a ShapeValue type as one token.
type Scalar struct {
	// Read stores the current scalar token of r into dst.
	Read func(r *token.Reader, dst reflect.Value, opts ReadOptions) error
	// Write emits v.
	Write func(w token.Sink, v reflect.Value) error
}

// ReadOptions are the per-operation settings scalar readers honor.
type ReadOptions struct {
	// UseNumber decodes dynamic numbers as json.Number.
	UseNumber bool
}

// KeyConverter converts dictionary keys to and from names.
type KeyConverter struct {
	Parse  func(name string) (reflect.Value, error)
	Format func(k reflect.Value) (string, error)
}
