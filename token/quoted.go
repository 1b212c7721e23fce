package token

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// Quote returns v as a JSON string literal.
func Quote(v string) string {
	return string(AppendQuote(make([]byte, 0, len(v)+2), v))
}

// AppendQuote appends v as a JSON string literal to d. Invalid UTF-8 is
// replaced by U+FFFD.
func AppendQuote(d []byte, v string) []byte {
	d = append(d, '"')
	start := 0
	for i := 0; i < len(v); {
		c := v[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			d = append(d, v[start:i]...)
			switch c {
			case '"':
				d = append(d, '\\', '"')
			case '\\':
				d = append(d, '\\', '\\')
			case '\b':
				d = append(d, '\\', 'b')
			case '\f':
				d = append(d, '\\', 'f')
			case '\n':
				d = append(d, '\\', 'n')
			case '\r':
				d = append(d, '\\', 'r')
			case '\t':
				d = append(d, '\\', 't')
			default:
				d = append(d, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			}
			i++
			start = i
			continue
		}
		rn, size := utf8.DecodeRuneInString(v[i:])
		if rn == utf8.RuneError && size == 1 {
			d = append(d, v[start:i]...)
			d = append(d, `\ufffd`...)
			i += size
			start = i
			continue
		}
		// U+2028 and U+2029 break JavaScript string literals.
		if rn == '\u2028' || rn == '\u2029' {
			d = append(d, v[start:i]...)
			d = append(d, '\\', 'u', '2', '0', '2', hexDigits[rn&0xf])
			i += size
			start = i
			continue
		}
		i += size
	}
	d = append(d, v[start:]...)
	return append(d, '"')
}

// Unquote decodes a complete JSON string literal, quotes included.
func Unquote(v string) (string, error) {
	r := NewReader([]byte(v), true, State{})
	ok, err := r.Read()
	if err != nil {
		return "", err
	}
	if !ok || r.Type() != TString {
		return "", syntaxErr(ErrUnexpected, 0)
	}
	if r.Consumed() != len(v) {
		return "", charErr(ErrTrailing, int64(r.Consumed()), v[r.Consumed()])
	}
	return r.String(), nil
}

// NeedsQuote reports whether a path field must be quoted to be read back
// unambiguously.
func NeedsQuote(v string) bool {
	if v == "" {
		return true
	}
	if asciiDigit(v[0]) {
		return true
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch {
		case c == '_' || c == '-' || c == '$':
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', asciiDigit(c):
		case c >= utf8.RuneSelf:
		default:
			return true
		}
	}
	return false
}

// KPathQuoteField returns true if a field name needs to be quoted in a kinded path.
func KPathQuoteField(v string) bool {
	return NeedsQuote(v) || strings.ContainsAny(v, ".[{")
}

// unescape decodes the escapes of a scanned string body into d. The body
// has already been validated by the reader.
func unescape(d, s []byte) []byte {
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			d = append(d, c)
			i++
			continue
		}
		switch s[i+1] {
		case '"':
			d = append(d, '"')
		case '\\':
			d = append(d, '\\')
		case '/':
			d = append(d, '/')
		case 'b':
			d = append(d, '\b')
		case 'f':
			d = append(d, '\f')
		case 'n':
			d = append(d, '\n')
		case 'r':
			d = append(d, '\r')
		case 't':
			d = append(d, '\t')
		case 'u':
			rn := hex4(s[i+2 : i+6])
			i += 6
			if utf16.IsSurrogate(rn) {
				if i+6 <= len(s) && s[i] == '\\' && s[i+1] == 'u' {
					lo := hex4(s[i+2 : i+6])
					if dec := utf16.DecodeRune(rn, lo); dec != utf8.RuneError {
						d = utf8.AppendRune(d, dec)
						i += 6
						continue
					}
				}
				rn = utf8.RuneError
			}
			d = utf8.AppendRune(d, rn)
			continue
		}
		i += 2
	}
	return d
}

func hex4(h []byte) rune {
	var rn rune
	for _, c := range h {
		rn <<= 4
		switch {
		case '0' <= c && c <= '9':
			rn |= rune(c - '0')
		case 'a' <= c && c <= 'f':
			rn |= rune(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			rn |= rune(c - 'A' + 10)
		}
	}
	return rn
}
