package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is a registered identity capable of password authentication.
// Accounts are soft deleted and never physically removed; the bun
// soft_delete tag keeps deleted rows out of every query issued through the
// gateway, so workflows never observe them.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PendingEmail  *string    `bun:"pending_email,nullzero" json:"pending_email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	IsVerified    bool       `bun:"is_verified,notnull,default:false" json:"is_verified"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// VerificationCode is a short-lived numeric secret proving control of an
// email address. Rows are kept as history: expiry, consumption (used_at) and
// attempt exhaustion all leave the row in place.
type VerificationCode struct {
	bun.BaseModel `bun:"table:verification_codes,alias:vc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	Account       *Account   `bun:"rel:belongs-to,join:account_id=id" json:"account,omitempty"`
	Code          string     `bun:"code,notnull" json:"-"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	UsedAt        *time.Time `bun:"used_at,nullzero" json:"used_at,omitempty"`
	Attempts      int        `bun:"attempts,notnull,default:0" json:"attempts"`
	LastSentAt    *time.Time `bun:"last_sent_at,nullzero" json:"last_sent_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Used reports whether the row was consumed, by a correct guess or by
// attempt exhaustion.
func (v *VerificationCode) Used() bool {
	return v != nil && v.UsedAt != nil
}

// ExpiredAt reports whether the row is past its expiry at the given instant
func (v *VerificationCode) ExpiredAt(now time.Time) bool {
	return v != nil && v.ExpiresAt.Before(now)
}

// CooldownBase is the timestamp resend cooldown counts from: last_sent_at
// when set, otherwise created_at. The first resend after creation therefore
// cools down from creation time.
func (v *VerificationCode) CooldownBase() time.Time {
	if v.LastSentAt != nil {
		return *v.LastSentAt
	}
	if v.CreatedAt != nil {
		return *v.CreatedAt
	}
	return time.Time{}
}
