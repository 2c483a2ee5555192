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

// ConfirmAccountEmailSQL marks the address verified without touching the
// primary email.
var ConfirmAccountEmailSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

// PromotePendingEmailSQL confirms a pending address: it becomes the primary
// email and the pending slot clears, as one statement.
var PromotePendingEmailSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"email" = "acc"."pending_email",
	"pending_email" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

// Accounts is the account gateway. Soft-deleted rows are filtered at this
// boundary; callers never observe them.
type Accounts interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByEmailOrPending(ctx context.Context, email string) (*Account, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) ([]*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)
	SetPendingEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, email string) error
	ConfirmEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, promotePending bool) error
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var _ Accounts = (*accounts)(nil)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, a.notFoundOr(err, map[string]any{"id": id.String()})
	}
	return record, nil
}

func (a *accounts) GetByUsername(ctx context.Context, username string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, a.notFoundOr(err, map[string]any{"username": username})
	}
	return record, nil
}

// GetByEmailOrPending resolves an account by its primary or pending address
func (a *accounts) GetByEmailOrPending(ctx context.Context, email string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("(?TableAlias.email = ? OR ?TableAlias.pending_email = ?)", email, email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, a.notFoundOr(err, map[string]any{"email": email})
	}
	return record, nil
}

// FindByUsernameOrEmail returns every non-deleted account colliding with the
// given username or email. An empty slice means both are free.
func (a *accounts) FindByUsernameOrEmail(ctx context.Context, username, email string) ([]*Account, error) {
	var records []*Account
	err := a.db.NewSelect().
		Model(&records).
		Where("(?TableAlias.username = ? OR ?TableAlias.email = ?)", username, email).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *accounts) SetPendingEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, email string) error {
	res, err := tx.NewUpdate().
		Model((*Account)(nil)).
		Set("pending_email = ?", email).
		Set("updated_at = ?", time.Now()).
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

func (a *accounts) ConfirmEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, promotePending bool) error {
	stmt := ConfirmAccountEmailSQL
	if promotePending {
		stmt = PromotePendingEmailSQL
	}

	res, err := a.Repository.RawTx(ctx, tx, stmt, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func (a *accounts) notFoundOr(err error, meta map[string]any) error {
	if repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) {
		return repository.NewRecordNotFound().WithMetadata(meta)
	}
	return err
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
