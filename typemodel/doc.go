// Package typemodel builds the conversion descriptors for Go types.
//
// A [Registry] inspects each Go type once and records a [TypeInfo]: its
// [Shape], its properties in declaration order, an optional registered
// constructor with ordered parameters, and the scalar, collection and
// dictionary operations the conversion engine needs. The engine never
// inspects types itself; it only consumes TypeInfo tables.
//
// # Struct tags
//
// Struct fields are configured with the `rjson` tag, which uses the
// comma or space separated grammar of the form
//
//	rjson:"field=name omitempty"
//
// Recognized keys are:
//   - field=<name> sets the JSON property name
//   - omit (or "-") excludes the field
//   - omitempty skips the field on output when it holds an empty value
//   - required reports a missing field as an error when decoding
//   - extension marks a map[string]any field that receives unknown properties
//   - encodeonly and decodeonly restrict the field to one direction
//
// # Constructors
//
// Types without usable fields, or whose invariants are established by a
// function, register a constructor with [Registry.RegisterConstructor].
// Go does not record parameter names, so each parameter is named
// explicitly with [Param].
package typemodel
