package identity

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface the package depends on
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the knobs for credential and verification behavior
type Config interface {
	GetSigningKey() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetAnonTokenTTL() time.Duration
	GetBcryptCost() int
	GetCodeLength() int
	GetCodeTTL() time.Duration
	GetResendCooldown() time.Duration
	GetMaxCodeAttempts() int
}

// Mailer delivers a verification code to an address. Implementations map any
// transport failure to a plain error; workflows translate it to
// ErrDeliveryFailed.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// TokenPair is an access/refresh token couple issued together
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// TokenService issues and decodes signed bearer tokens
type TokenService interface {
	IssuePair(subject string) (TokenPair, error)
	IssueAnonymous(subject string) (string, error)
	Decode(raw string) (*SessionClaims, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
