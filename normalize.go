package identity

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
	maxPasswordLength = 128
)

var (
	usernameCharset = regexp.MustCompile(`^[a-z0-9_]+$`)
	numericCode     = regexp.MustCompile(`^[0-9]+$`)
)

// NormalizeUsername lowercases and trims a username
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeCode trims a submitted verification code
func NormalizeCode(code string) string {
	return strings.TrimSpace(code)
}

// ValidateUsername re-checks the username format the API layer already
// validated: 3-50 chars of lowercase letters, digits and underscores, not
// starting or ending with an underscore.
func ValidateUsername(username string) error {
	err := validation.Validate(username,
		validation.Required,
		validation.Length(minUsernameLength, maxUsernameLength),
		validation.Match(usernameCharset),
	)
	if err != nil {
		return ErrInvalidUsernameFormat
	}
	if strings.HasPrefix(username, "_") || strings.HasSuffix(username, "_") {
		return ErrInvalidUsernameFormat
	}
	return nil
}

// ValidateEmail re-checks email syntax
func ValidateEmail(email string) error {
	err := validation.Validate(email,
		validation.Required,
		is.Email,
	)
	if err != nil {
		return ErrInvalidEmailFormat
	}
	return nil
}

// ValidatePassword re-checks the password length bounds
func ValidatePassword(password string) error {
	err := validation.Validate(password,
		validation.Required,
		validation.Length(minPasswordLength, maxPasswordLength),
	)
	if err != nil {
		return ErrInvalidPasswordFormat
	}
	return nil
}

// ValidateCode re-checks a submitted code: exactly length digits
func ValidateCode(code string, length int) error {
	if length <= 0 {
		length = 6
	}
	err := validation.Validate(code,
		validation.Required,
		validation.Length(length, length),
		validation.Match(numericCode),
	)
	if err != nil {
		return ErrInvalidCodeFormat
	}
	return nil
}
