package typemodel

import (
	"fmt"
	"reflect"
	"strings"
)

// TagName is the struct tag key read by the registry.
const TagName = "rjson"

// ParseStructTag parses a struct tag string and returns a map of key-value pairs.
// Handles comma-separated values: `rjson:"key1=value1,key2=value2,flag"`
// Supports quoted values with spaces: `rjson:"field='value with spaces'"`
func ParseStructTag(tag string) (map[string]string, error) {
	result := make(map[string]string)

	if tag == "" {
		return result, nil
	}

	var parts []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false

	for i := 0; i < len(tag); i++ {
		char := tag[i]

		switch {
		case char == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote
			current.WriteByte(char)
		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			current.WriteByte(char)
		case char == ',' && !inSingleQuote && !inDoubleQuote:
			part := strings.TrimSpace(current.String())
			if part != "" {
				parts = append(parts, part)
			}
			current.Reset()
		case char == ' ' && !inSingleQuote && !inDoubleQuote:
			part := strings.TrimSpace(current.String())
			if part != "" {
				parts = append(parts, part)
				current.Reset()
			}
		default:
			current.WriteByte(char)
		}
	}
	if inSingleQuote || inDoubleQuote {
		return nil, fmt.Errorf("invalid tag: unterminated quote in %q", tag)
	}

	part := strings.TrimSpace(current.String())
	if part != "" {
		parts = append(parts, part)
	}

	for _, part := range parts {
		if idx := strings.Index(part, "="); idx >= 0 {
			key := strings.TrimSpace(part[:idx])
			value := strings.TrimSpace(part[idx+1:])
			if key == "" {
				return nil, fmt.Errorf("invalid tag: empty key in %q", part)
			}
			result[key] = unquoteValue(value)
		} else {
			result[part] = ""
		}
	}

	return result, nil
}

// unquoteValue removes surrounding single or double quotes from a value.
func unquoteValue(value string) string {
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		return value[1 : len(value)-1]
	}
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		return value[1 : len(value)-1]
	}
	return value
}

// fieldTag holds the settings of one struct field.
type fieldTag struct {
	name       string
	named      bool
	omit       bool
	omitEmpty  bool
	required   bool
	extension  bool
	encodeOnly bool
	decodeOnly bool
}

var knownTagKeys = map[string]bool{
	"field":      true,
	"omit":       true,
	"-":          true,
	"omitempty":  true,
	"required":   true,
	"extension":  true,
	"encodeonly": true,
	"decodeonly": true,
}

func parseFieldTag(f reflect.StructField) (*fieldTag, error) {
	raw, ok := f.Tag.Lookup(TagName)
	ft := &fieldTag{}
	if !ok {
		return ft, nil
	}
	kv, err := ParseStructTag(raw)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	for k := range kv {
		if !knownTagKeys[k] {
			return nil, fmt.Errorf("field %s: unknown tag key %q", f.Name, k)
		}
	}
	if name, ok := kv["field"]; ok {
		if name == "" {
			return nil, fmt.Errorf("field %s: empty field name", f.Name)
		}
		ft.name = name
		ft.named = true
	}
	_, ft.omit = kv["omit"]
	if _, dash := kv["-"]; dash {
		ft.omit = true
	}
	_, ft.omitEmpty = kv["omitempty"]
	_, ft.required = kv["required"]
	_, ft.extension = kv["extension"]
	_, ft.encodeOnly = kv["encodeonly"]
	_, ft.decodeOnly = kv["decodeonly"]
	if ft.encodeOnly && ft.decodeOnly {
		return nil, fmt.Errorf("field %s: encodeonly and decodeonly are exclusive", f.Name)
	}
	return ft, nil
}
