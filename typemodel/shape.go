package typemodel

// Shape determines which converter handles a type.
type Shape int

const (
	// ShapeValue is a scalar read or written as a single token.
	ShapeValue Shape = iota
	// ShapeObject is a struct, possibly built by a constructor.
	ShapeObject
	// ShapeCollection is a slice or array.
	ShapeCollection
	// ShapeDictionary is a map with string-like keys.
	ShapeDictionary
	// ShapePointer is a pointer to any other shape.
	ShapePointer
	// ShapeDynamic is an empty interface whose shape is decided by the
	// payload when reading and by the dynamic type when writing.
	ShapeDynamic
)

func (s Shape) String() string {
	switch s {
	case ShapeValue:
		return "value"
	case ShapeObject:
		return "object"
	case ShapeCollection:
		return "collection"
	case ShapeDictionary:
		return "dictionary"
	case ShapePointer:
		return "pointer"
	case ShapeDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}
