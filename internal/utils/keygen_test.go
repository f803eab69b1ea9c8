package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateUnsubscribeToken(t *testing.T) {
	tok, err := GenerateUnsubscribeToken()
	if err != nil {
		t.Fatalf("GenerateUnsubscribeToken error: %v", err)
	}
	if !strings.HasPrefix(tok, "pd_") {
		t.Errorf("token %q missing pd_ prefix", tok)
	}
	if len(tok) != 3+64 {
		t.Errorf("token length = %d, want %d", len(tok), 3+64)
	}

	other, err := GenerateUnsubscribeToken()
	if err != nil {
		t.Fatalf("GenerateUnsubscribeToken error: %v", err)
	}
	if tok == other {
		t.Error("two generated tokens are identical")
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  alice@example.org  ", "alice@example.org"},
		{"bob+tag@mail.example.net", "bob+tag@mail.example.net"},
	}
	for _, tt := range tests {
		got, err := NormalizeEmail(tt.in)
		if err != nil {
			t.Errorf("NormalizeEmail(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeEmailRejectsInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"plain",
		"no@tld",
		"two@@example.com",
		"spaced out@example.com",
	} {
		if _, err := NormalizeEmail(in); !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("NormalizeEmail(%q) err = %v, want ErrInvalidEmail", in, err)
		}
	}
}
