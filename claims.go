package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType discriminates the three credential kinds carried in the "type"
// claim.
type TokenType = string

const (
	// TokenTypeAccess is the short-lived credential presented on requests
	TokenTypeAccess TokenType = "access"
	// TokenTypeRefresh is the long-lived credential used only to rotate pairs
	TokenTypeRefresh TokenType = "refresh"
	// TokenTypeAnon identifies a not-yet-registered visitor
	TokenTypeAnon TokenType = "anon"
)

// SessionClaims is the single claim set for all issued tokens:
// {sub, type, jti, iat, exp}.
type SessionClaims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"type,omitempty"`
}

// Subject returns the sub claim
func (c *SessionClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// SubjectUUID parses the sub claim as a UUID
func (c *SessionClaims) SubjectUUID() (uuid.UUID, error) {
	return uuid.Parse(c.RegisteredClaims.Subject)
}

// Expires returns the expiration time, zero when absent
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issuance time, zero when absent
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ensureTokenID backfills a unique jti so every issued token is individually
// identifiable.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
