// eai/errors.go
package eai

import (
	"errors"
	"fmt"
)

// ErrorKind identifies why an address was rejected. The zero value means no error.
type ErrorKind int

const (
	NoError ErrorKind = iota
	InvalidEncoding
	MalformedAddress
	InvalidLocalPart
	LocalPartTooLong
	InvalidDomain
	DomainTooLong
	DomainTooShort
	InvalidLabel
	LabelTooLong
	NormalizationFailed
	PunycodeConversionFailed
)

var kindCodes = [...]string{
	NoError:                  "",
	InvalidEncoding:          "invalid_encoding",
	MalformedAddress:         "malformed_address",
	InvalidLocalPart:         "invalid_local_part",
	LocalPartTooLong:         "local_part_too_long",
	InvalidDomain:            "invalid_domain",
	DomainTooLong:            "domain_too_long",
	DomainTooShort:           "domain_too_short",
	InvalidLabel:             "invalid_label",
	LabelTooLong:             "label_too_long",
	NormalizationFailed:      "normalization_failed",
	PunycodeConversionFailed: "punycode_conversion_failed",
}

var kindMessages = [...]string{
	NoError:                  "",
	InvalidEncoding:          "Invalid UTF-8 encoding",
	MalformedAddress:         "Must contain exactly one @",
	InvalidLocalPart:         "Local part contains invalid characters, is empty, starts/ends with a dot, or has consecutive dots",
	LocalPartTooLong:         "Local part too long (>64 bytes)",
	InvalidDomain:            "Invalid domain characters",
	DomainTooLong:            "Domain too long (>255 bytes)",
	DomainTooShort:           "Domain must have at least two labels",
	InvalidLabel:             "Invalid domain label",
	LabelTooLong:             "Domain label too long (>63 bytes)",
	NormalizationFailed:      "Unicode normalization failed",
	PunycodeConversionFailed: "Unable to convert (possibly invalid domain)",
}

// String returns the stable machine-readable code, e.g. "label_too_long".
func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(kindCodes) {
		return fmt.Sprintf("error_kind(%d)", int(k))
	}
	return kindCodes[k]
}

// Message returns the user-facing description of the kind.
func (k ErrorKind) Message() string {
	if k < 0 || int(k) >= len(kindMessages) {
		return "unknown error"
	}
	return kindMessages[k]
}

// MarshalText lets ErrorKind serialize as its code in JSON.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a code produced by MarshalText.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	kind, ok := ParseErrorKind(string(text))
	if !ok {
		return fmt.Errorf("eai: unknown error kind %q", text)
	}
	*k = kind
	return nil
}

// ParseErrorKind maps a code back to its ErrorKind. The empty code is NoError.
func ParseErrorKind(code string) (ErrorKind, bool) {
	for i, c := range kindCodes {
		if c == code {
			return ErrorKind(i), true
		}
	}
	return NoError, false
}

// Error is the error form of a failed ValidationResult or TranscodeResult.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("eai: %s: %s", e.Kind, e.Detail)
	}
	return "eai: " + e.Kind.String()
}

// Unwrap returns the underlying library error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same Kind, so callers can write
// errors.Is(err, &eai.Error{Kind: eai.LabelTooLong}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf extracts the ErrorKind from err, or NoError if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return NoError
}

// ErrCapabilityMissing is returned by CheckCapability when the Unicode/IDNA
// primitives are absent or misbehave. It is fatal at startup.
var ErrCapabilityMissing = errors.New("eai: unicode normalization / IDNA capability missing")
