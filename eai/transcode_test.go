package eai

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestTranscode(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"ascii unchanged", "user@example.com", "user@example.com"},
		{"ascii case preserved", "User@Example.COM", "User@Example.COM"},
		{"japanese domain", "用户@例え.jp", "用户@xn--r8jz45g.jp"},
		{"umlaut domain", "user@bücher.example", "user@xn--bcher-kva.example"},
		{"mixed labels keep ascii case", "user@Bücher.Example", "user@xn--bcher-kva.Example"},
		{"greek", "user@παράδειγμα.δοκιμή", "user@xn--hxajbheg2az3al.xn--jxalpdlp"},
		{"non-transitional sharp s", "user@faß.de", "user@xn--fa-hia.de"},
		{"decomposed domain is composed first", "user@mu\u0308nchen.de", "user@xn--mnchen-3ya.de"},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Transcode(tt.email)
			if !got.OK {
				t.Fatalf("Transcode(%q) failed: %s (%s)", tt.email, got.Kind, got.Detail)
			}
			if got.Value != tt.want {
				t.Errorf("Transcode(%q) = %q, want %q", tt.email, got.Value, tt.want)
			}
		})
	}
}

func TestTranscode_Failures(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  ErrorKind
	}{
		{"invalid utf-8", "us\xffer@example.com", InvalidEncoding},
		{"no at", "example.com", MalformedAddress},
		{"two ats", "a@@b.com", MalformedAddress},
		{"space in domain", "a@exa mple.com", PunycodeConversionFailed},
		{"empty domain", "a@", PunycodeConversionFailed},
		{"leading combining mark", "a@\u0301b.com", PunycodeConversionFailed},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Transcode(tt.email)
			if got.OK {
				t.Fatalf("Transcode(%q) = %q, want failure", tt.email, got.Value)
			}
			if got.Kind != tt.want {
				t.Errorf("Transcode(%q).Kind = %s, want %s", tt.email, got.Kind, tt.want)
			}
			if got.Value != "" {
				t.Errorf("failed result carries value %q", got.Value)
			}
		})
	}
}

func TestTranscode_PunycodeFailureCarriesDetail(t *testing.T) {
	got := Transcode("a@exa mple.com")
	if got.Detail == "" {
		t.Fatal("Detail is empty, want library diagnostic")
	}
	err := got.Err()
	if KindOf(err) != PunycodeConversionFailed {
		t.Errorf("KindOf(Err()) = %s", KindOf(err))
	}
	if !strings.Contains(err.Error(), got.Detail) {
		t.Errorf("Err() = %q, want it to contain %q", err.Error(), got.Detail)
	}
}

// Valid ASCII addresses come back byte-identical.
func TestTranscode_ASCIIIdempotent(t *testing.T) {
	addrs := []string{
		"user@example.com",
		"First.Last@Sub.Example.ORG",
		"x+y=z@a-b.c-d.net",
		"!#$%&'*+/=?^_`{|}~-@example.com",
		strings.Repeat("a", 64) + "@" + strings.Repeat("b", 63) + ".com",
		// Domains of 254 and 255 bytes, the upper end of what Validate accepts.
		"a@" + strings.Repeat(strings.Repeat("b", 63)+".", 3) + strings.Repeat("c", 62),
		"a@" + strings.Repeat(strings.Repeat("b", 63)+".", 3) + strings.Repeat("c", 63),
		// Hyphens in the third and fourth position are not reserved here.
		"a@ab--cd.com",
	}
	e := New()
	for _, a := range addrs {
		if res := e.Validate(a); !res.Valid {
			t.Fatalf("precondition: Validate(%q) = %s", a, res.Kind)
		}
		got := e.Transcode(a)
		if !got.OK || got.Value != a {
			t.Errorf("Transcode(%q) = %+v, want %q", a, got, a)
		}
		// Applying it twice changes nothing.
		if again := e.Transcode(got.Value); again.Value != got.Value {
			t.Errorf("second Transcode = %q, want %q", again.Value, got.Value)
		}
	}
}

// The local part is never transcoded; it equals the NFC form of the input.
func TestTranscode_PreservesLocalPart(t *testing.T) {
	tests := []struct {
		email     string
		wantLocal string
	}{
		{"用户@例え.jp", "用户"},
		{"josé@example.com", "josé"},
		{"δοκιμή@παράδειγμα.δοκιμή", "δοκιμή"},
		{"Ünïcödé.Üser@bücher.example", "Ünïcödé.Üser"},
	}
	e := New()
	for _, tt := range tests {
		got := e.Transcode(tt.email)
		if !got.OK {
			t.Fatalf("Transcode(%q) failed: %s", tt.email, got.Kind)
		}
		parts, ok := Split(got.Value)
		if !ok {
			t.Fatalf("result %q does not split", got.Value)
		}
		wantLocal, err := NewXText().Normalize(tt.wantLocal)
		if err != nil {
			t.Fatal(err)
		}
		if parts.Local != wantLocal {
			t.Errorf("local = %q, want %q", parts.Local, wantLocal)
		}
		if !isASCII(parts.Domain) {
			t.Errorf("domain %q is not ASCII", parts.Domain)
		}
	}
}

func TestEndToEnd_EAI(t *testing.T) {
	const addr = "用户@例え.jp"

	if res := Validate(addr); !res.Valid {
		t.Fatalf("Validate = %s, want valid", res.Kind)
	}
	if !IsInternationalized(addr) {
		t.Error("IsInternationalized = false, want true")
	}
	res := Transcode(addr)
	if !res.OK {
		t.Fatalf("Transcode failed: %s", res.Kind)
	}
	parts, _ := Split(res.Value)
	if parts.Local != "用户" {
		t.Errorf("local = %q, want 用户", parts.Local)
	}
	if !strings.HasPrefix(parts.Domain, "xn--") {
		t.Errorf("domain = %q, want xn-- prefix", parts.Domain)
	}
}

func TestEndToEnd_ASCII(t *testing.T) {
	const addr = "user@example.com"

	if res := Validate(addr); !res.Valid {
		t.Fatalf("Validate = %s, want valid", res.Kind)
	}
	if IsInternationalized(addr) {
		t.Error("IsInternationalized = true, want false")
	}
	if res := Transcode(addr); !res.OK || res.Value != addr {
		t.Errorf("Transcode = %+v, want %q", res, addr)
	}
}

func TestTranscode_UsesInjectedUnicode(t *testing.T) {
	stub := &stubUnicode{ace: "xn--stub.example"}
	e := New(WithUnicode(stub))

	got := e.Transcode("user@whatever.example")
	if !got.OK || got.Value != "user@xn--stub.example" {
		t.Fatalf("Transcode = %+v", got)
	}

	stub.aceErr = errors.New("idna: boom")
	got = e.Transcode("user@whatever.example")
	if got.Kind != PunycodeConversionFailed || got.Detail != "idna: boom" {
		t.Errorf("Transcode = %+v, want punycode failure with detail", got)
	}

	stub.normErr = errors.New("norm: boom")
	got = e.Transcode("user@whatever.example")
	if got.Kind != NormalizationFailed {
		t.Errorf("Kind = %s, want %s", got.Kind, NormalizationFailed)
	}
}

func TestEngine_ConcurrentUse(t *testing.T) {
	e := New()
	inputs := []string{"用户@例え.jp", "user@example.com", "a@@b", "a@b-.com"}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := inputs[i%len(inputs)]
			first := e.Transcode(in)
			for j := 0; j < 50; j++ {
				if got := e.Transcode(in); got != first {
					t.Errorf("Transcode(%q) not deterministic: %+v vs %+v", in, got, first)
					return
				}
				e.Validate(in)
			}
		}(i)
	}
	wg.Wait()
}

type stubUnicode struct {
	ace     string
	aceErr  error
	normErr error
}

func (s *stubUnicode) Normalize(v string) (string, error) {
	if s.normErr != nil {
		return "", s.normErr
	}
	return v, nil
}

func (s *stubUnicode) ToASCII(string) (string, error) {
	if s.aceErr != nil {
		return "", s.aceErr
	}
	return s.ace, nil
}
