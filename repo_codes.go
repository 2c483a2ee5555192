package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// IncrementCodeAttemptsSQL bumps the attempts counter in a single statement
// so concurrent wrong guesses do not clobber each other's reads.
var IncrementCodeAttemptsSQL = `UPDATE "verification_codes" AS "vc"
SET
	"attempts" = "attempts" + 1
WHERE
	"vc"."id" = ?
RETURNING *;`

// VerificationCodes is the code-row gateway. Rows are history: nothing here
// deletes; consumption and exhaustion only set used_at.
type VerificationCodes interface {
	// Latest returns the most recent row for the account regardless of
	// used/expired state, or nil when the account never had one.
	Latest(ctx context.Context, accountID uuid.UUID) (*VerificationCode, error)
	// LatestUnused returns the most recent row with used_at unset, expired
	// or not, or nil when there is none.
	LatestUnused(ctx context.Context, accountID uuid.UUID) (*VerificationCode, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *VerificationCode) (*VerificationCode, error)
	MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error
	// IncrementAttemptsTx adds one wrong guess and returns the new counter
	// value as the database sees it.
	IncrementAttemptsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (int, error)
	// TouchLastSent records a successful delivery. Best-effort by contract:
	// callers may log and ignore a failure since it only affects future
	// cooldown math.
	TouchLastSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

type verificationCodes struct {
	repository.Repository[*VerificationCode]
	db *bun.DB
}

var _ VerificationCodes = (*verificationCodes)(nil)

func NewVerificationCodesRepository(db *bun.DB) VerificationCodes {
	repo := repository.NewRepository[*VerificationCode](db, repository.ModelHandlers[*VerificationCode]{
		NewRecord: func() *VerificationCode { return &VerificationCode{} },
		GetID: func(v *VerificationCode) uuid.UUID {
			if v == nil {
				return uuid.Nil
			}
			return v.ID
		},
		SetID: func(v *VerificationCode, id uuid.UUID) {
			if v != nil {
				v.ID = id
			}
		},
	})

	return &verificationCodes{
		Repository: repo,
		db:         db,
	}
}

func (r *verificationCodes) Latest(ctx context.Context, accountID uuid.UUID) (*VerificationCode, error) {
	record := &VerificationCode{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.account_id = ?", accountID).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.nilOnNoRows(err)
	}
	return record, nil
}

func (r *verificationCodes) LatestUnused(ctx context.Context, accountID uuid.UUID) (*VerificationCode, error) {
	record := &VerificationCode{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.account_id = ?", accountID).
		Where("?TableAlias.used_at IS NULL").
		OrderExpr("?TableAlias.created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.nilOnNoRows(err)
	}
	return record, nil
}

func (r *verificationCodes) CreateTx(ctx context.Context, tx bun.IDB, record *VerificationCode) (*VerificationCode, error) {
	prepareCodeDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record)
}

func (r *verificationCodes) MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	res, err := tx.NewUpdate().
		Model((*VerificationCode)(nil)).
		Set("used_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}
	return nil
}

func (r *verificationCodes) IncrementAttemptsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (int, error) {
	res, err := r.Repository.RawTx(ctx, tx, IncrementCodeAttemptsSQL, id.String())
	if err != nil {
		return 0, err
	}

	if len(res) == 0 {
		return 0, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return res[0].Attempts, nil
}

func (r *verificationCodes) TouchLastSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.NewUpdate().
		Model((*VerificationCode)(nil)).
		Set("last_sent_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *verificationCodes) nilOnNoRows(err error) error {
	if repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

func prepareCodeDefaults(record *VerificationCode) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
