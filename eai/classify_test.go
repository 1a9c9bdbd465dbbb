package eai

import "testing"

func TestIsInternationalized(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", false},
		{"!#$%&'*+/=?^_`{|}~-@example.com", false},
		{"", false},
		{"a@@b", false},
		{"用户@例え.jp", true},
		{"user@例え.jp", true},
		{"用户@example.com", true},
		{"user\u0080@example.com", true},
		{"user@bücher.example", true},
	}
	for _, tt := range tests {
		if got := IsInternationalized(tt.email); got != tt.want {
			t.Errorf("IsInternationalized(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

// Every ASCII byte is non-EAI; every code point from U+0080 upward is EAI.
func TestIsInternationalized_Boundary(t *testing.T) {
	for b := 0; b < 0x80; b++ {
		s := "a" + string(rune(b)) + "@example.com"
		if IsInternationalized(s) {
			t.Fatalf("byte 0x%02x classified as internationalized", b)
		}
	}
	for _, r := range []rune{0x80, 0xA0, 0x7FF, 0x800, 0xFFFD, 0x10000, 0x10FFFF} {
		if !IsInternationalized("user@" + string(r) + ".com") {
			t.Errorf("U+%04X in domain not classified as internationalized", r)
		}
		if !IsInternationalized(string(r) + "@example.com") {
			t.Errorf("U+%04X in local part not classified as internationalized", r)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in     string
		local  string
		domain string
		ok     bool
	}{
		{"user@example.com", "user", "example.com", true},
		{"@b", "", "b", true},
		{"a@", "a", "", true},
		{"", "", "", false},
		{"ab", "", "", false},
		{"a@@b", "", "", false},
		{"a@b@c", "", "", false},
	}
	for _, tt := range tests {
		p, ok := Split(tt.in)
		if ok != tt.ok || p.Local != tt.local || p.Domain != tt.domain {
			t.Errorf("Split(%q) = (%+v, %v), want ({%q %q}, %v)", tt.in, p, ok, tt.local, tt.domain, tt.ok)
		}
		if ok && p.String() != tt.in {
			t.Errorf("String() = %q, want %q", p.String(), tt.in)
		}
	}
}

func TestAddressParts_Labels(t *testing.T) {
	p, _ := Split("user@mail.例え.jp")
	got := p.Labels()
	if len(got) != 3 || got[0] != "mail" || got[1] != "例え" || got[2] != "jp" {
		t.Errorf("Labels() = %q", got)
	}
	if p, _ := Split("user@a..b"); len(p.Labels()) != 3 {
		t.Errorf("empty labels dropped: %q", p.Labels())
	}
}
