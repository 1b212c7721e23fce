package typemodel

import (
	"strings"
	"unicode"
)

// NamingPolicy transforms Go field names or dictionary keys into JSON
// names. A nil policy keeps names as they are.
type NamingPolicy func(string) string

// CamelCase lower-cases the leading word: "UserID" becomes "userID".
func CamelCase(s string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return s
	}
	words[0] = strings.ToLower(words[0])
	return strings.Join(words, "")
}

// SnakeCase joins lower-cased words with underscores: "HTTPServer" becomes
// "http_server".
func SnakeCase(s string) string {
	return joinLower(s, "_")
}

// KebabCase joins lower-cased words with dashes: "HTTPServer" becomes
// "http-server".
func KebabCase(s string) string {
	return joinLower(s, "-")
}

func joinLower(s, sep string) string {
	words := splitWords(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, sep)
}

// splitWords splits on underscores, dashes, spaces and case changes. A run
// of capitals followed by a lower case letter ends one letter early, so
// "HTTPServer" splits into "HTTP" and "Server".
func splitWords(s string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
			continue
		case unicode.IsUpper(r):
			if len(cur) > 0 {
				prev := cur[len(cur)-1]
				nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
				if !unicode.IsUpper(prev) || nextLower {
					flush()
				}
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
