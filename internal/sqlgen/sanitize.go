// File path: internal/sqlgen/sanitize.go
package sqlgen

import "strings"

var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "and": true, "or": true,
	"not": true, "order": true, "by": true, "group": true, "having": true,
	"limit": true, "offset": true, "join": true, "left": true, "right": true,
	"inner": true, "outer": true, "full": true, "cross": true, "on": true,
	"as": true, "distinct": true, "union": true, "all": true, "case": true,
	"when": true, "then": true, "else": true, "end": true, "in": true,
	"is": true, "null": true, "like": true, "ilike": true, "between": true,
	"asc": true, "desc": true, "with": true, "nulls": true, "last": true,
	"first": true, "exists": true, "interval": true, "true": true,
	"false": true, "current_timestamp": true, "current_date": true,
}

// Sanitize normalizes a statement for display: SQL keywords are upper-cased
// outside string literals, quoted identifiers, and comments, and surrounding
// whitespace is trimmed. Semantics are never changed.
func Sanitize(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(trimmed))
	i := 0
	for i < len(trimmed) {
		c := trimmed[i]
		switch {
		case c == '\'' || c == '"':
			j := closeQuote(trimmed, i, c)
			b.WriteString(trimmed[i:j])
			i = j
		case c == '-' && i+1 < len(trimmed) && trimmed[i+1] == '-':
			j := strings.IndexByte(trimmed[i:], '\n')
			if j < 0 {
				b.WriteString(trimmed[i:])
				i = len(trimmed)
			} else {
				b.WriteString(trimmed[i : i+j])
				i += j
			}
		case c == '/' && i+1 < len(trimmed) && trimmed[i+1] == '*':
			j := strings.Index(trimmed[i:], "*/")
			if j < 0 {
				b.WriteString(trimmed[i:])
				i = len(trimmed)
			} else {
				b.WriteString(trimmed[i : i+j+2])
				i += j + 2
			}
		case isWordStart(c):
			j := i + 1
			for j < len(trimmed) && isWordChar(trimmed[j]) {
				j++
			}
			word := trimmed[i:j]
			if sqlKeywords[strings.ToLower(word)] {
				b.WriteString(strings.ToUpper(word))
			} else {
				b.WriteString(word)
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// closeQuote returns the index just past the closing quote, treating doubled
// quotes as escapes. Unterminated literals run to the end of the input.
func closeQuote(s string, start int, q byte) int {
	i := start + 1
	for i < len(s) {
		if s[i] == q {
			if i+1 < len(s) && s[i+1] == q {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(s)
}

func isWordStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isWordChar(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9')
}
