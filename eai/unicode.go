// eai/unicode.go
package eai

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unicode is the narrow set of Unicode primitives the engine depends on.
// Implementations must be safe for concurrent use.
type Unicode interface {
	// Normalize returns s in Normalization Form C.
	Normalize(s string) (string, error)

	// ToASCII converts a domain to its ASCII-Compatible Encoding.
	ToASCII(domain string) (string, error)
}

var (
	// errNotNormalizable is returned by XText.Normalize for malformed UTF-8.
	errNotNormalizable = errors.New("input is not valid UTF-8")

	errEmptyDomain = errors.New("idna: empty domain")
)

// XText implements Unicode with golang.org/x/text and golang.org/x/net/idna.
//
// Domains go through IDNA2008 with UTS #46 non-transitional mapping, the
// Bidi rule, STD3 ASCII rules and joiner checks. Transitional processing is
// never enabled: it maps characters such as "ß" to "ss", which registries no
// longer do.
//
// Byte limits and hyphen placement are left to Validate, so every address it
// accepts transcodes, including 255 byte domains and labels like "ab--cd".
type XText struct {
	profile *idna.Profile
}

// NewXText returns the default Unicode implementation.
func NewXText() *XText {
	return &XText{
		profile: idna.New(
			idna.MapForLookup(),
			idna.Transitional(false),
			idna.BidiRule(),
			idna.CheckHyphens(false),
			idna.VerifyDNSLength(false),
		),
	}
}

// Normalize implements Unicode.
func (x *XText) Normalize(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", errNotNormalizable
	}
	if norm.NFC.IsNormalString(s) {
		return s, nil
	}
	out, _, err := transform.String(norm.NFC, s)
	if err != nil {
		return "", err
	}
	return out, nil
}

// ToASCII implements Unicode.
func (x *XText) ToASCII(domain string) (string, error) {
	if domain == "" {
		return "", errEmptyDomain
	}
	return x.profile.ToASCII(domain)
}

// capability probes; both must round-trip exactly.
const (
	probeDecomposed = "e\u0301"
	probeComposed   = "\u00e9"
	probeDomain     = "b\u00fccher.example"
	probeACE        = "xn--bcher-kva.example"
)

// CheckCapability verifies that u normalizes and transcodes correctly. It is
// meant to run once at process startup; any failure wraps ErrCapabilityMissing.
func CheckCapability(u Unicode) error {
	if u == nil {
		return ErrCapabilityMissing
	}
	got, err := u.Normalize(probeDecomposed)
	if err != nil {
		return fmt.Errorf("%w: normalize probe: %v", ErrCapabilityMissing, err)
	}
	if got != probeComposed {
		return fmt.Errorf("%w: normalize probe returned %q", ErrCapabilityMissing, got)
	}
	ace, err := u.ToASCII(probeDomain)
	if err != nil {
		return fmt.Errorf("%w: idna probe: %v", ErrCapabilityMissing, err)
	}
	if ace != probeACE {
		return fmt.Errorf("%w: idna probe returned %q", ErrCapabilityMissing, ace)
	}
	return nil
}
