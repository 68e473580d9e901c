// internal/app/system/authutil/password.go
package authutil

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores input past 72 bytes, so longer passwords are refused
	// rather than silently truncated.
	MaxPasswordBytes = 72
	BcryptCost       = 12
)

// Errors read as field reasons in 422 responses.
var (
	ErrPasswordTooShort = errors.New("must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("must be at most 72 bytes")
	ErrPasswordCommon   = errors.New("is too common")
	ErrPasswordBlank    = errors.New("must contain a non-space character")
)

// common holds passwords refused outright, compared lowercased.
var common = map[string]struct{}{}

func init() {
	for _, p := range []string{
		"12345678", "123456789", "1234567890", "87654321", "11111111", "00000000",
		"password", "password1", "password123", "parola123", "sifre123", "şifre123",
		"qwerty123", "qwertyui", "abcd1234", "iloveyou", "sunshine", "football",
		"baseball", "superman", "welcome1", "letmein1", "admin123", "administrator",
		"galatasaray", "fenerbahce", "besiktas", "trabzonspor", "istanbul", "ankara06",
	} {
		common[p] = struct{}{}
	}
}

// PasswordRules describes the policy for forms and API docs.
func PasswordRules() string {
	return "Passwords need at least 8 characters, at most 72 bytes, and cannot be a well-known password."
}

// ValidatePassword checks password against the policy.
func ValidatePassword(password string) error {
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsSpace(r) }) < 0 {
		if password == "" {
			return ErrPasswordTooShort
		}
		return ErrPasswordBlank
	}
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	if _, ok := common[strings.ToLower(password)]; ok {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword returns the bcrypt hash of a validated password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
