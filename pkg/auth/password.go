package auth

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 12
	MinPasswordLen    = 8
	MaxPasswordLen    = 72 // bcrypt input limit
)

// Hasher hashes and verifies local credentials with bcrypt. The cost is
// embedded in each hash, so raising it later never invalidates stored hashes.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify reports whether the plaintext matches the stored hash.
func (h *Hasher) Verify(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// PasswordValidationError holds validation error details (internal use only)
type PasswordValidationError struct {
	Errors []string
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	// Generic message: never expose which requirement failed
	return "invalid password"
}

var commonPasswords = map[string]bool{
	"password":    true,
	"password123": true,
	"12345678":    true,
	"qwertyuiop":  true,
	"letmein1":    true,
	"welcome1":    true,
	"passw0rd":    true,
	"trustno1":    true,
}

// ValidatePassword enforces the password policy for local registration.
func ValidatePassword(password string) error {
	errs := make([]string, 0)

	if len(password) < MinPasswordLen {
		errs = append(errs, fmt.Sprintf("must be at least %d characters", MinPasswordLen))
	}
	if len(password) > MaxPasswordLen {
		errs = append(errs, fmt.Sprintf("must be at most %d characters", MaxPasswordLen))
	}

	hasLetter := false
	hasDigit := false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter {
		errs = append(errs, "must contain at least one letter")
	}
	if !hasDigit {
		errs = append(errs, "must contain at least one digit")
	}

	if commonPasswords[strings.ToLower(password)] {
		errs = append(errs, "is too common")
	}

	if len(errs) > 0 {
		return &PasswordValidationError{Errors: errs}
	}

	return nil
}
