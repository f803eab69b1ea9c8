package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// GenerateUnsubscribeToken generates an opaque, unguessable unsubscribe token.
// Format: pd_randomhex (64 hex chars of entropy). Tokens are minted once at
// subscription creation and never rotated.
func GenerateUnsubscribeToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("pd_%s", hex.EncodeToString(b)), nil
}

// NormalizeEmail lowercases and trims an email address and validates its shape.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailRe.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}
