package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Address being confirmed."`
	Code       string `json:"code" example:"004213" doc:"Verification code as received."`
	OnResponse func(resp *VerifyEmailResponse)
}

func (m VerifyEmailMessage) Type() string { return "identity.verify_email" }

type VerifyEmailResponse struct {
	Account *Account
	// EmailChanged is true when a pending address was promoted to primary.
	EmailChanged bool
	Success      bool
}

// VerifyEmailHandler confirms an address against its latest code row.
//
// The row is consumed lazily: exhaustion discovered during verification marks
// it used even though the call itself fails. Those bookkeeping writes commit
// in their own transactions, separate from the returned error, so a failed
// verification still burns the attempt.
type VerifyEmailHandler struct {
	repo     RepositoryManager
	config   Config
	activity ActivitySink
	logger   Logger
}

func NewVerifyEmailHandler(repo RepositoryManager, config Config) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:     repo,
		config:   config,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *VerifyEmailHandler) WithActivitySink(sink ActivitySink) *VerifyEmailHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email verification",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)
	submitted := NormalizeCode(event.Code)

	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidateCode(submitted, h.config.GetCodeLength()); err != nil {
		return err
	}

	account, err := h.repo.Accounts().GetByEmailOrPending(ctx, email)
	if err != nil {
		if repositoryNotFound(err) {
			return ErrAccountNotFound
		}
		return wrapInternal(err, "failed to resolve account for verification")
	}

	promotePending := pendingMatches(account, email)
	if account.IsVerified && !promotePending {
		return ErrAlreadyVerified
	}

	code, err := h.repo.VerificationCodes().Latest(ctx, account.ID)
	if err != nil {
		return wrapInternal(err, "failed to load verification code")
	}
	if code == nil {
		return ErrCodeInvalid
	}

	maxAttempts := h.config.GetMaxCodeAttempts()

	if code.Used() {
		if code.Attempts >= maxAttempts {
			return ErrRateLimited
		}
		return ErrCodeInvalid
	}

	// exhaustion is checked before expiry so a burned code reads as rate
	// limited, not expired
	if code.Attempts >= maxAttempts {
		if err := h.consume(ctx, code.ID); err != nil {
			return wrapInternal(err, "failed to invalidate exhausted code")
		}
		return ErrRateLimited
	}

	if code.ExpiredAt(time.Now()) {
		return ErrCodeExpired
	}

	if code.Code != submitted {
		return h.recordWrongGuess(ctx, code.ID, maxAttempts)
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.VerificationCodes().MarkUsedTx(ctx, tx, code.ID, time.Now()); err != nil {
			return err
		}
		return h.repo.Accounts().ConfirmEmailTx(ctx, tx, account.ID, promotePending)
	})
	if err != nil {
		return wrapInternal(err, "failed to confirm email")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventEmailVerified,
		AccountID: account.ID.String(),
		Email:     email,
		Metadata:  map[string]any{"email_changed": promotePending},
	})

	h.logger.Info("email verified account=%s", account.ID)

	if event.OnResponse != nil {
		refreshed, err := h.repo.Accounts().GetByID(ctx, account.ID)
		if err != nil {
			refreshed = account
		}
		event.OnResponse(&VerifyEmailResponse{
			Account:      refreshed,
			EmailChanged: promotePending,
			Success:      true,
		})
	}

	return nil
}

// recordWrongGuess bumps the attempt counter and, when the guess was the last
// one allowed, consumes the row. The write commits before the error returns.
func (h *VerifyEmailHandler) recordWrongGuess(ctx context.Context, codeID uuid.UUID, maxAttempts int) error {
	exhausted := false

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		attempts, err := h.repo.VerificationCodes().IncrementAttemptsTx(ctx, tx, codeID)
		if err != nil {
			return err
		}
		if attempts >= maxAttempts {
			exhausted = true
			return h.repo.VerificationCodes().MarkUsedTx(ctx, tx, codeID, time.Now())
		}
		return nil
	})
	if err != nil {
		return wrapInternal(err, "failed to record failed verification attempt")
	}

	if exhausted {
		return ErrRateLimited
	}
	return ErrCodeInvalid
}

// consume marks a code row used in its own transaction
func (h *VerifyEmailHandler) consume(ctx context.Context, codeID uuid.UUID) error {
	return h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.VerificationCodes().MarkUsedTx(ctx, tx, codeID, time.Now())
	})
}
