package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	anonTTL    time.Duration
	logger     Logger
}

// NewTokenService creates a TokenService backed by an HS256 shared secret
func NewTokenService(cfg Config, logger Logger) *TokenServiceImpl {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: []byte(cfg.GetSigningKey()),
		accessTTL:  cfg.GetAccessTokenTTL(),
		refreshTTL: cfg.GetRefreshTokenTTL(),
		anonTTL:    cfg.GetAnonTokenTTL(),
		logger:     logger,
	}
}

var _ TokenService = (*TokenServiceImpl)(nil)

// IssuePair issues an access/refresh couple for the subject. The two tokens
// carry independent expiries and distinct jti values.
func (ts *TokenServiceImpl) IssuePair(subject string) (TokenPair, error) {
	now := time.Now()

	access, err := ts.sign(subject, TokenTypeAccess, now, ts.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := ts.sign(subject, TokenTypeRefresh, now, ts.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAnonymous issues a token of type "anon" bound to the subject
func (ts *TokenServiceImpl) IssueAnonymous(subject string) (string, error) {
	return ts.sign(subject, TokenTypeAnon, time.Now(), ts.anonTTL)
}

func (ts *TokenServiceImpl) sign(subject string, typ TokenType, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		TokenType: typ,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// Decode parses and validates a raw token, tolerating surrounding
// whitespace. An expired-but-well-formed token reads as ErrTokenExpired;
// bad signatures, malformed structure and wrong algorithms all read as
// ErrTokenInvalid.
func (ts *TokenServiceImpl) Decode(raw string) (*SessionClaims, error) {
	raw = strings.TrimSpace(raw)

	token, err := jwt.ParseWithClaims(raw, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService decode encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenInvalid.Category, ErrTokenInvalid.Message).
			WithTextCode(ErrTokenInvalid.TextCode)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService decode could not map claims")
	return nil, ErrTokenInvalid
}
