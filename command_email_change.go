package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RequestEmailChangeMessage struct {
	AccountID  uuid.UUID `json:"account_id" doc:"Account requesting the change."`
	NewEmail   string    `json:"new_email" example:"new.address@example.com" doc:"Address to move to."`
	OnResponse func(resp *RequestEmailChangeResponse)
}

func (m RequestEmailChangeMessage) Type() string { return "identity.request_email_change" }

type RequestEmailChangeResponse struct {
	AccountID string
	// Unchanged is true when the requested address is already the verified
	// primary and nothing was written.
	Unchanged bool
	Success   bool
}

// RequestEmailChangeHandler stages a new address in the pending slot and
// starts a verification round against it. The primary email keeps working
// until the new address confirms.
type RequestEmailChangeHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	config   Config
	activity ActivitySink
	logger   Logger
}

func NewRequestEmailChangeHandler(repo RepositoryManager, mailer Mailer, config Config) *RequestEmailChangeHandler {
	return &RequestEmailChangeHandler{
		repo:     repo,
		mailer:   mailer,
		config:   config,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *RequestEmailChangeHandler) WithActivitySink(sink ActivitySink) *RequestEmailChangeHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *RequestEmailChangeHandler) WithLogger(logger Logger) *RequestEmailChangeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestEmailChangeHandler) Execute(ctx context.Context, event RequestEmailChangeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email change request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestEmailChangeHandler) execute(ctx context.Context, event RequestEmailChangeMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.NewEmail)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	account, err := h.repo.Accounts().GetByID(ctx, event.AccountID)
	if err != nil {
		if repositoryNotFound(err) {
			return ErrAccountNotFound
		}
		return wrapInternal(err, "failed to load account for email change")
	}

	if account.IsVerified && account.Email == email {
		if event.OnResponse != nil {
			event.OnResponse(&RequestEmailChangeResponse{
				AccountID: account.ID.String(),
				Unchanged: true,
				Success:   true,
			})
		}
		return nil
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		holder, err := h.repo.Accounts().GetByEmailOrPending(ctx, email)
		if err != nil && !repositoryNotFound(err) {
			return err
		}
		if holder != nil && holder.ID != account.ID {
			return ErrEmailExists
		}

		if err := h.repo.Accounts().SetPendingEmailTx(ctx, tx, account.ID, email); err != nil {
			return err
		}

		code, err := createCodeRow(ctx, tx, h.repo.VerificationCodes(), account.ID, h.config)
		if err != nil {
			return err
		}

		if err := h.mailer.SendVerificationCode(ctx, email, code.Code); err != nil {
			h.logger.Error("email change verification to %s failed: %s", email, err)
			return goerrors.Wrap(err, ErrDeliveryFailed.Category, ErrDeliveryFailed.Message).
				WithTextCode(ErrDeliveryFailed.TextCode)
		}

		return nil
	})
	if err != nil {
		return wrapInternal(err, "failed to request email change")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventEmailChangeRequest,
		AccountID: account.ID.String(),
		Email:     email,
	})

	h.logger.Info("email change requested account=%s", account.ID)

	if event.OnResponse != nil {
		event.OnResponse(&RequestEmailChangeResponse{
			AccountID: account.ID.String(),
			Success:   true,
		})
	}

	return nil
}
