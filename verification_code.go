package identity

import (
	"crypto/rand"
	"math/big"

	goerrors "github.com/goliatone/go-errors"
)

const codeDigits = "0123456789"

// GenerateVerificationCode produces a numeric code of the given length,
// cryptographically random per digit. Leading zeros are valid: codes are
// compared as exact strings, never as numbers.
func GenerateVerificationCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}

	out := make([]byte, length)
	max := big.NewInt(int64(len(codeDigits)))

	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification code")
		}
		out[i] = codeDigits[n.Int64()]
	}

	return string(out), nil
}
