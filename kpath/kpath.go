// Package kpath provides member paths into JSON documents.
//
// A path is a linked list of segments:
//   - "a.b" → field b of object a
//   - "a[0]" → element 0 of array a
//   - "a.'x.y'" → a field whose name needs quoting
//
// The root is the empty path.
package kpath

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/signadot/rjson/token"
)

// KPath is one segment of a path; exactly one of Field and Index is set.
type KPath struct {
	Field *string
	Index *int
	Next  *KPath
}

// Field returns a single field segment.
func Field(name string) *KPath {
	return &KPath{Field: &name}
}

// Index returns a single array index segment.
func Index(i int) *KPath {
	return &KPath{Index: &i}
}

// FromSegments links segments into one path, copying each.
func FromSegments(segs ...*KPath) *KPath {
	var (
		head *KPath
		tail *KPath
	)
	for _, s := range segs {
		if s == nil {
			continue
		}
		c := &KPath{Field: s.Field, Index: s.Index}
		if head == nil {
			head = c
		} else {
			tail.Next = c
		}
		tail = c
	}
	return head
}

// Append returns a copy of p with seg added at the end.
func (p *KPath) Append(seg *KPath) *KPath {
	var segs []*KPath
	for x := p; x != nil; x = x.Next {
		segs = append(segs, x)
	}
	for x := seg; x != nil; x = x.Next {
		segs = append(segs, x)
	}
	return FromSegments(segs...)
}

// String returns the path, e.g. "Child.Items[2].Key".
func (p *KPath) String() string {
	if p == nil {
		return ""
	}
	buf := bytes.NewBuffer(nil)
	for x := p; x != nil; x = x.Next {
		if x.Field != nil {
			if buf.Len() > 0 {
				buf.WriteByte('.')
			}
			buf.WriteString(x.SegmentString())
			continue
		}
		buf.WriteString(x.SegmentString())
	}
	return buf.String()
}

// SegmentString returns this segment alone.
//   - KPath{Field: &"a"} → "a"
//   - KPath{Field: &"field name"} → "'field name'"
//   - KPath{Index: &0} → "[0]"
func (p *KPath) SegmentString() string {
	if p == nil {
		return ""
	}
	if p.Field != nil {
		field := *p.Field
		if token.KPathQuoteField(field) {
			return "'" + strings.ReplaceAll(field, "'", `\'`) + "'"
		}
		return field
	}
	if p.Index != nil {
		return fmt.Sprintf("[%d]", *p.Index)
	}
	return ""
}

// Len is the number of segments.
func (p *KPath) Len() int {
	n := 0
	for x := p; x != nil; x = x.Next {
		n++
	}
	return n
}

// Parse parses a path string. The empty string is the root and parses to
// nil.
func Parse(kpath string) (*KPath, error) {
	var segs []*KPath
	i := 0
	for i < len(kpath) {
		c := kpath[i]
		switch {
		case c == '[':
			j := strings.IndexByte(kpath[i:], ']')
			if j < 0 {
				return nil, fmt.Errorf("unterminated index at %d in %q", i, kpath)
			}
			n, err := strconv.Atoi(kpath[i+1 : i+j])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("bad index %q in %q", kpath[i+1:i+j], kpath)
			}
			segs = append(segs, Index(n))
			i += j + 1
		case c == '.':
			if i == 0 || i == len(kpath)-1 {
				return nil, fmt.Errorf("misplaced '.' at %d in %q", i, kpath)
			}
			i++
			if kpath[i] == '.' || kpath[i] == '[' {
				return nil, fmt.Errorf("empty field at %d in %q", i, kpath)
			}
		case c == '\'':
			field, n, err := parseQuoted(kpath[i:])
			if err != nil {
				return nil, fmt.Errorf("%w in %q", err, kpath)
			}
			segs = append(segs, Field(field))
			i += n
		default:
			if len(segs) > 0 && kpath[i-1] != '.' {
				return nil, fmt.Errorf("expected '.' before field at %d in %q", i, kpath)
			}
			j := i
			for j < len(kpath) && kpath[j] != '.' && kpath[j] != '[' {
				j++
			}
			segs = append(segs, Field(kpath[i:j]))
			i = j
		}
	}
	return FromSegments(segs...), nil
}

func parseQuoted(s string) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '\'':
			return b.String(), i + 1, nil
		default:
			b.WriteByte(s[i])
		}
	}
	return "", 0, fmt.Errorf("unterminated quoted field")
}
