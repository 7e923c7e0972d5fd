// Package sanitize strips bytes that must never reach the history store.
package sanitize

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// stripped reports whether r is removed: NUL and every control character
// except newline. Tabs and carriage returns are removed too.
func stripped(r rune) bool {
	return r != '\n' && unicode.IsControl(r)
}

// Text removes NUL and control characters other than '\n' from s. Other
// content is left unchanged, except that ill-formed UTF-8 bytes become U+FFFD.
func Text(s string) string {
	out, _, err := transform.String(runes.Remove(runes.Predicate(stripped)), s)
	if err != nil {
		return s
	}
	return out
}

// Bytes is Text for a UTF-8 byte slice. Ill-formed bytes become U+FFFD.
func Bytes(b []byte) []byte {
	out, _, err := transform.Bytes(runes.Remove(runes.Predicate(stripped)), b)
	if err != nil {
		return b
	}
	return out
}
