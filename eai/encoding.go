// eai/encoding.go
package eai

import "unicode/utf8"

// IsValidText reports whether b is well-formed UTF-8. Truncated sequences,
// overlong encodings and encoded surrogates (U+D800..U+DFFF) are all rejected.
func IsValidText(b []byte) bool {
	return utf8.Valid(b)
}

// IsValidString is IsValidText for strings, which in Go may hold arbitrary bytes.
func IsValidString(s string) bool {
	return utf8.ValidString(s)
}
