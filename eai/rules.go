// eai/rules.go
package eai

import "regexp"

// localSymbols are the RFC 5322 atext specials plus '.', valid in every local part.
const localSymbols = "!#$%&'*+/=?^_`{|}~.-"

// ruleSet holds the character-class matchers for one kind of address.
type ruleSet struct {
	name   string
	local  *regexp.Regexp
	domain *regexp.Regexp
}

var (
	asciiRules = &ruleSet{
		name:   "ascii",
		local:  regexp.MustCompile(`^[A-Za-z0-9` + regexp.QuoteMeta(localSymbols) + `]+$`),
		domain: regexp.MustCompile(`^[A-Za-z0-9.-]+$`),
	}

	// Local parts accept letters, decimal digits and combining marks. Domains
	// accept letters, numbers and marks, the repertoire IDNA can encode.
	unicodeRules = &ruleSet{
		name:   "unicode",
		local:  regexp.MustCompile(`^[\p{L}\p{Nd}\p{M}` + regexp.QuoteMeta(localSymbols) + `]+$`),
		domain: regexp.MustCompile(`^[\p{L}\p{N}\p{M}.-]+$`),
	}
)

// rulesFor selects the rule set for an address once per call.
func rulesFor(internationalized bool) *ruleSet {
	if internationalized {
		return unicodeRules
	}
	return asciiRules
}
