// Package validate checks user-supplied credentials before they reach the
// hasher or the store.
package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Error is a validation failure on a single field. Its message is safe to
// show to the user.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func fail(field, msg string) *Error {
	return &Error{Field: field, Message: msg}
}

// Email returns nil if s has a local@domain.tld shape.
func Email(s string) error {
	if s == "" {
		return fail("email", "Email is required")
	}
	if !emailPattern.MatchString(s) {
		return fail("email", "Please enter a valid email address")
	}
	return nil
}

// Password returns the first rule s violates, checked in the order
// required, length, lowercase, uppercase, digit.
func Password(s string) error {
	if s == "" {
		return fail("password", "Password is required")
	}
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return fail("password", "Password must be at least 8 characters long")
	}
	if !strings.ContainsFunc(s, isASCIILower) {
		return fail("password", "Password must contain at least one lowercase letter")
	}
	if !strings.ContainsFunc(s, isASCIIUpper) {
		return fail("password", "Password must contain at least one uppercase letter")
	}
	if !strings.ContainsFunc(s, isASCIIDigit) {
		return fail("password", "Password must contain at least one number")
	}
	return nil
}

// PasswordConfirmation checks that the confirmation matches the password.
func PasswordConfirmation(password, confirm string) error {
	if password != confirm {
		return fail("confirmPassword", "Passwords do not match")
	}
	return nil
}

func isASCIILower(r rune) bool { return r < unicode.MaxASCII && unicode.IsLower(r) }
func isASCIIUpper(r rune) bool { return r < unicode.MaxASCII && unicode.IsUpper(r) }
func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
