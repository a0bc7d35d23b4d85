package check

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Inversion is a pair of neighbours in the wrong order.
type Inversion struct {
	Before string
	After  string
}

// Sorted returns every adjacent pair of values that is out of order once
// normalized; nil means values are sorted.
func Sorted(values []string) []Inversion {
	folder := cases.Fold()
	keys := make([]string, len(values))
	for i, v := range values {
		keys[i] = sortKey(folder.String(v))
	}

	var out []Inversion
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			out = append(out, Inversion{Before: values[i-1], After: values[i]})
		}
	}
	return out
}

// sortKey drops one leading non-alphanumeric rune so "_zebra" sorts as "zebra".
func sortKey(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || unicode.IsLetter(r) || unicode.IsNumber(r) {
		return s
	}
	return s[size:]
}
