package identity

import "time"

// StaticConfig is a plain-struct Config for embedding applications and tests.
// Zero fields fall back to the package defaults.
type StaticConfig struct {
	SigningKey      string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AnonTokenTTL    time.Duration
	BcryptCost      int
	CodeLength      int
	CodeTTL         time.Duration
	ResendCooldown  time.Duration
	MaxCodeAttempts int
}

// DefaultConfig returns a StaticConfig with the stock settings: 15 minute
// access tokens, 30 day refresh and anon tokens, 6 digit codes valid for
// 15 minutes, a 60 second resend cooldown and 6 guesses per code.
func DefaultConfig(signingKey string) *StaticConfig {
	return &StaticConfig{
		SigningKey:      signingKey,
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
		AnonTokenTTL:    30 * 24 * time.Hour,
		BcryptCost:      12,
		CodeLength:      6,
		CodeTTL:         15 * time.Minute,
		ResendCooldown:  60 * time.Second,
		MaxCodeAttempts: 6,
	}
}

var _ Config = (*StaticConfig)(nil)

func (c *StaticConfig) GetSigningKey() string { return c.SigningKey }

func (c *StaticConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return 15 * time.Minute
	}
	return c.AccessTokenTTL
}

func (c *StaticConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return c.RefreshTokenTTL
}

func (c *StaticConfig) GetAnonTokenTTL() time.Duration {
	if c.AnonTokenTTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return c.AnonTokenTTL
}

func (c *StaticConfig) GetBcryptCost() int {
	if c.BcryptCost <= 0 {
		return 12
	}
	return c.BcryptCost
}

func (c *StaticConfig) GetCodeLength() int {
	if c.CodeLength <= 0 {
		return 6
	}
	return c.CodeLength
}

func (c *StaticConfig) GetCodeTTL() time.Duration {
	if c.CodeTTL <= 0 {
		return 15 * time.Minute
	}
	return c.CodeTTL
}

func (c *StaticConfig) GetResendCooldown() time.Duration {
	if c.ResendCooldown <= 0 {
		return 60 * time.Second
	}
	return c.ResendCooldown
}

func (c *StaticConfig) GetMaxCodeAttempts() int {
	if c.MaxCodeAttempts <= 0 {
		return 6
	}
	return c.MaxCodeAttempts
}
