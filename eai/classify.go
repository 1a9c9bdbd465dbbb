// eai/classify.go
package eai

// IsInternationalized reports whether any code point of email lies outside
// ASCII. '@' is ASCII, so scanning the whole string is the same as scanning
// the local part and the domain. The answer for malformed input is unspecified.
func IsInternationalized(email string) bool {
	return !isASCII(email)
}

// IsInternationalized is the Engine form of the package function.
func (e *Engine) IsInternationalized(email string) bool {
	return IsInternationalized(email)
}
