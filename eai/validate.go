// eai/validate.go
package eai

import "strings"

// Length limits in bytes (RFC 5321 §4.5.3.1, RFC 1035 §2.3.4).
const (
	MaxLocalBytes  = 64
	MaxDomainBytes = 255
	MaxLabelBytes  = 63
	MinLabels      = 2
)

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid bool      `json:"valid"`
	Kind  ErrorKind `json:"error_kind,omitempty"`
}

// Err returns nil for a valid result, otherwise an *Error.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Kind: r.Kind}
}

// Validate checks the syntax of email. Rules run in order and the first
// violation decides the result:
//
//  1. well-formed UTF-8
//  2. exactly one '@'
//  3. local part: character class, dot placement, ≤ 64 bytes after NFC
//  4. domain: character class, ≤ 255 bytes, ≥ 2 labels, each label shaped
//     correctly and ≤ 63 bytes after NFC
func (e *Engine) Validate(email string) ValidationResult {
	if !IsValidString(email) {
		return e.reject(Diagnostic{Stage: StageEncoding, Kind: InvalidEncoding, Part: "address", Value: email})
	}

	parts, ok := Split(email)
	if !ok {
		return e.reject(Diagnostic{Stage: StageValidate, Kind: MalformedAddress, Part: "address", Value: email})
	}

	rules := rulesFor(IsInternationalized(email))

	if res, ok := e.validateLocal(rules, parts.Local); !ok {
		return res
	}
	if res, ok := e.validateDomain(rules, parts); !ok {
		return res
	}
	return ValidationResult{Valid: true}
}

func (e *Engine) validateLocal(rules *ruleSet, local string) (ValidationResult, bool) {
	if e.quotedLocal {
		local = unquoteLocal(local)
	}

	if !rules.local.MatchString(local) {
		return e.reject(Diagnostic{Stage: StageValidate, Kind: InvalidLocalPart, Part: "local", Value: local}), false
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return e.reject(Diagnostic{Stage: StageValidate, Kind: InvalidLocalPart, Part: "local", Value: local}), false
	}

	normalized, err := e.uni.Normalize(local)
	if err != nil {
		return e.reject(Diagnostic{Stage: StageValidate, Kind: NormalizationFailed, Part: "local", Value: local, Err: err}), false
	}
	if len(normalized) > MaxLocalBytes {
		return e.reject(Diagnostic{
			Stage: StageValidate, Kind: LocalPartTooLong, Part: "local", Value: local,
			Length: len(normalized), Limit: MaxLocalBytes,
		}), false
	}
	return ValidationResult{}, true
}

func (e *Engine) validateDomain(rules *ruleSet, parts AddressParts) (ValidationResult, bool) {
	domain := parts.Domain
	if !rules.domain.MatchString(domain) {
		return e.reject(Diagnostic{Stage: StageValidate, Kind: InvalidDomain, Part: "domain", Value: domain}), false
	}
	if len(domain) > MaxDomainBytes {
		return e.reject(Diagnostic{
			Stage: StageValidate, Kind: DomainTooLong, Part: "domain", Value: domain,
			Length: len(domain), Limit: MaxDomainBytes,
		}), false
	}

	labels := parts.Labels()
	if len(labels) < MinLabels {
		return e.reject(Diagnostic{Stage: StageValidate, Kind: DomainTooShort, Part: "domain", Value: domain}), false
	}

	for _, label := range labels {
		if label == "" || label == "-" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return e.reject(Diagnostic{Stage: StageValidate, Kind: InvalidLabel, Part: "label", Value: label}), false
		}
		normalized, err := e.uni.Normalize(label)
		if err != nil {
			return e.reject(Diagnostic{Stage: StageValidate, Kind: NormalizationFailed, Part: "label", Value: label, Err: err}), false
		}
		if len(normalized) > MaxLabelBytes {
			return e.reject(Diagnostic{
				Stage: StageValidate, Kind: LabelTooLong, Part: "label", Value: label,
				Length: len(normalized), Limit: MaxLabelBytes,
			}), false
		}
	}
	return ValidationResult{}, true
}

func (e *Engine) reject(d Diagnostic) ValidationResult {
	e.diagnose(d)
	return ValidationResult{Valid: false, Kind: d.Kind}
}
