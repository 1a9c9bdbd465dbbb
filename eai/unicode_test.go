package eai

import (
	"errors"
	"strings"
	"testing"
)

func TestXText_Normalize(t *testing.T) {
	x := NewXText()

	got, err := x.Normalize("e\u0301")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != "\u00e9" {
		t.Errorf("Normalize(e+U+0301) = %q, want %q", got, "\u00e9")
	}

	if got, _ := x.Normalize("already.nfc"); got != "already.nfc" {
		t.Errorf("Normalize changed NFC input: %q", got)
	}

	if _, err := x.Normalize("bad\xff"); err == nil {
		t.Error("Normalize accepted invalid UTF-8")
	}
}

func TestXText_ToASCII(t *testing.T) {
	x := NewXText()
	long255 := strings.Repeat(strings.Repeat("b", 63)+".", 3) + strings.Repeat("c", 63)
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"example.com", "example.com", false},
		{"例え.jp", "xn--r8jz45g.jp", false},
		{"faß.de", "xn--fa-hia.de", false},
		{"ab--cd.com", "ab--cd.com", false},
		{long255, long255, false},
		{"exa mple.com", "", true},
		{"", "", true},
		{"\u0301b.com", "", true},
	}
	for _, tt := range tests {
		got, err := x.ToASCII(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ToASCII(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ToASCII(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckCapability(t *testing.T) {
	if err := CheckCapability(NewXText()); err != nil {
		t.Fatalf("CheckCapability(NewXText()) = %v", err)
	}

	if err := CheckCapability(nil); !errors.Is(err, ErrCapabilityMissing) {
		t.Errorf("CheckCapability(nil) = %v, want ErrCapabilityMissing", err)
	}

	// Pass-through primitives neither compose nor encode.
	if err := CheckCapability(&stubUnicode{ace: "bücher.example"}); !errors.Is(err, ErrCapabilityMissing) {
		t.Errorf("CheckCapability(stub) = %v, want ErrCapabilityMissing", err)
	}

	if err := CheckCapability(&stubUnicode{normErr: errors.New("no tables")}); !errors.Is(err, ErrCapabilityMissing) {
		t.Errorf("CheckCapability(broken) = %v, want ErrCapabilityMissing", err)
	}
}

func TestErrorKind_Strings(t *testing.T) {
	kinds := []ErrorKind{
		InvalidEncoding, MalformedAddress, InvalidLocalPart, LocalPartTooLong,
		InvalidDomain, DomainTooLong, DomainTooShort, InvalidLabel, LabelTooLong,
		NormalizationFailed, PunycodeConversionFailed,
	}
	seen := make(map[string]bool)
	for _, k := range kinds {
		code := k.String()
		if code == "" || k.Message() == "" {
			t.Errorf("kind %d has empty code or message", int(k))
		}
		if seen[code] {
			t.Errorf("duplicate code %q", code)
		}
		seen[code] = true

		var back ErrorKind
		if err := back.UnmarshalText([]byte(code)); err != nil || back != k {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", code, back, err, k)
		}
	}
	var bad ErrorKind
	if err := bad.UnmarshalText([]byte("nope")); err == nil {
		t.Error("UnmarshalText accepted an unknown code")
	}
	if NoError.String() != "" {
		t.Errorf("NoError.String() = %q, want empty", NoError.String())
	}
	if got := ErrorKind(99).String(); got != "error_kind(99)" {
		t.Errorf("out-of-range String() = %q", got)
	}
}
