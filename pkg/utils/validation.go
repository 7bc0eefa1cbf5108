package utils

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const MinPasswordLength = 6

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail requires a single bare address such as "a@b.co".
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return &ValidationError{Field: "email", Message: "Invalid email"}
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || !strings.Contains(email[at+1:], ".") {
		return &ValidationError{Field: "email", Message: "Invalid email"}
	}
	return nil
}

// ValidateNewPassword checks length and that the confirmation matches.
func ValidateNewPassword(password, confirm string) error {
	if password == "" {
		return &ValidationError{Field: "password", Message: "Password is required"}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: "Password must be at least 6 characters"}
	}
	if confirm == "" {
		return &ValidationError{Field: "confirm_password", Message: "Confirm password is required"}
	}
	if password != confirm {
		return &ValidationError{Field: "confirm_password", Message: "Passwords do not match"}
	}
	return nil
}

// ValidateSignIn only checks presence and email shape; credentials are
// checked against the store.
func ValidateSignIn(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return &ValidationError{Field: "password", Message: "Password is required"}
	}
	return nil
}

func ValidateSignUp(fullName, email, password, confirm string) error {
	if strings.TrimSpace(fullName) == "" {
		return &ValidationError{Field: "full_name", Message: "Full name is required"}
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidateNewPassword(password, confirm)
}
