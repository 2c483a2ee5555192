package identity

import (
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a bcrypt hash at the given cost
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrInvalidPasswordFormat
	}

	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	return string(h), nil
}

// VerifyPassword reports whether the cleartext password matches the stored
// hash. It never fails: a malformed or empty stored hash reads as a
// mismatch.
func VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
