package helpers

import "testing"

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"user@example.com", "example.com"},
		{"user@EXAMPLE.COM", "example.com"},
		{"invalid", ""},
		{"", ""},
		{"a@b@c", ""},
	}

	for _, tt := range tests {
		if got := ExtractDomain(tt.email); got != tt.expected {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.email, got, tt.expected)
		}
	}
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		host     string
		expected string
	}{
		{"mail.example.com", "example.com"},
		{"example.com", "example.com"},
		{"a.b.example.co.uk", "example.co.uk"},
		{"localhost", "localhost"},
	}

	for _, tt := range tests {
		if got := RegistrableDomain(tt.host); got != tt.expected {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", tt.host, got, tt.expected)
		}
	}
}

func TestSameOrganization(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"mail.example.com", "example.com", true},
		{"example.com", "other.com", false},
		{"", "example.com", false},
		{"bounce.paypal.com", "www.paypal.com", true},
	}

	for _, tt := range tests {
		if got := SameOrganization(tt.a, tt.b); got != tt.expected {
			t.Errorf("SameOrganization(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	id1 := GenerateCorrelationID()
	if id1 == "" {
		t.Fatal("expected non-empty id")
	}
	if id2 := GenerateCorrelationID(); id1 == id2 {
		t.Error("expected unique ids")
	}
}

func TestValidSender(t *testing.T) {
	for _, v := range []string{"user@example.com", "a@b"} {
		if !ValidSender(v) {
			t.Errorf("ValidSender(%q) = false, want true", v)
		}
	}
	for _, v := range []string{"user@", "@example.com", "invalid", "user@domain@other"} {
		if ValidSender(v) {
			t.Errorf("ValidSender(%q) = true, want false", v)
		}
	}
}
