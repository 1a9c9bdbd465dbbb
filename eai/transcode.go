// eai/transcode.go
package eai

import "strings"

// TranscodeResult is the outcome of Transcode.
type TranscodeResult struct {
	OK    bool      `json:"ok"`
	Value string    `json:"value,omitempty"`
	Kind  ErrorKind `json:"error_kind,omitempty"`

	// Detail carries the IDNA library's diagnostic for PunycodeConversionFailed.
	// It is meant for logs, not for control flow.
	Detail string `json:"detail,omitempty"`
}

// Err returns nil for a successful result, otherwise an *Error.
func (r TranscodeResult) Err() error {
	if r.OK {
		return nil
	}
	return &Error{Kind: r.Kind, Detail: r.Detail}
}

// Transcode NFC-normalizes email and converts its domain to ACE form. The
// local part is returned as-is: RFC 6531 has no ASCII form for it.
//
// Labels that are already ASCII keep their original bytes, including case,
// so Transcode(a) == a for every valid ASCII address.
//
// Transcode is safe on unvalidated input; it returns a failed result rather
// than panicking.
func (e *Engine) Transcode(email string) TranscodeResult {
	if !IsValidString(email) {
		return e.fail(Diagnostic{Stage: StageEncoding, Kind: InvalidEncoding, Part: "address", Value: email})
	}

	normalized, err := e.uni.Normalize(email)
	if err != nil {
		return e.fail(Diagnostic{Stage: StageTranscode, Kind: NormalizationFailed, Part: "address", Value: email, Err: err})
	}

	parts, ok := Split(normalized)
	if !ok {
		return e.fail(Diagnostic{Stage: StageTranscode, Kind: MalformedAddress, Part: "address", Value: normalized})
	}

	ace, err := e.uni.ToASCII(parts.Domain)
	if err != nil {
		return e.fail(Diagnostic{Stage: StageTranscode, Kind: PunycodeConversionFailed, Part: "domain", Value: parts.Domain, Err: err})
	}

	return TranscodeResult{
		OK:    true,
		Value: AddressParts{Local: parts.Local, Domain: keepASCIILabels(parts.Domain, ace)}.String(),
	}
}

// keepASCIILabels restores the original spelling of labels that were already
// ASCII and differ from the converted label only by case.
func keepASCIILabels(original, converted string) string {
	orig := strings.Split(original, ".")
	conv := strings.Split(converted, ".")
	if len(orig) != len(conv) {
		return converted
	}
	for i, label := range orig {
		if isASCII(label) && strings.EqualFold(label, conv[i]) {
			conv[i] = label
		}
	}
	return strings.Join(conv, ".")
}

func (e *Engine) fail(d Diagnostic) TranscodeResult {
	e.diagnose(d)
	res := TranscodeResult{OK: false, Kind: d.Kind}
	if d.Err != nil {
		res.Detail = d.Err.Error()
	}
	return res
}
