// eai/parts.go
package eai

import "strings"

// AddressParts is an address split on its single '@'.
type AddressParts struct {
	Local  string
	Domain string
}

// Split divides email into local part and domain. It reports false unless
// email contains exactly one '@'. Either side may be empty.
func Split(email string) (AddressParts, bool) {
	at := strings.IndexByte(email, '@')
	if at < 0 || strings.IndexByte(email[at+1:], '@') >= 0 {
		return AddressParts{}, false
	}
	return AddressParts{Local: email[:at], Domain: email[at+1:]}, true
}

// String reassembles the parts as local@domain.
func (p AddressParts) String() string {
	return p.Local + "@" + p.Domain
}

// Labels returns the dot-separated labels of the domain.
func (p AddressParts) Labels() []string {
	return strings.Split(p.Domain, ".")
}

// isASCII reports whether s contains only bytes below 0x80.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// unquoteLocal strips one pair of surrounding double quotes.
func unquoteLocal(local string) string {
	if len(local) >= 2 && local[0] == '"' && local[len(local)-1] == '"' {
		return local[1 : len(local)-1]
	}
	return local
}
