package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ResendCodeMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Address awaiting verification."`
	OnResponse func(resp *ResendCodeResponse)
}

func (m ResendCodeMessage) Type() string { return "identity.resend_code" }

type ResendCodeResponse struct {
	AccountID string
	// Reissued is true when a fresh code row was created rather than the
	// current one re-delivered.
	Reissued bool
	Success  bool
}

// ResendCodeHandler re-delivers or reissues a verification code. Delivery
// happens after the code row is committed so a failed send never loses the
// code; the recipient can retry and receive the same one.
type ResendCodeHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	config   Config
	activity ActivitySink
	logger   Logger
}

func NewResendCodeHandler(repo RepositoryManager, mailer Mailer, config Config) *ResendCodeHandler {
	return &ResendCodeHandler{
		repo:     repo,
		mailer:   mailer,
		config:   config,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *ResendCodeHandler) WithActivitySink(sink ActivitySink) *ResendCodeHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ResendCodeHandler) WithLogger(logger Logger) *ResendCodeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendCodeHandler) Execute(ctx context.Context, event ResendCodeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during code resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendCodeHandler) execute(ctx context.Context, event ResendCodeMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	account, err := h.repo.Accounts().GetByEmailOrPending(ctx, email)
	if err != nil {
		if repositoryNotFound(err) {
			return ErrAccountNotFound
		}
		return wrapInternal(err, "failed to resolve account for resend")
	}

	// a verified account can still request codes for its pending address
	if account.IsVerified && !pendingMatches(account, email) {
		return ErrAlreadyVerified
	}

	now := time.Now()

	current, err := h.repo.VerificationCodes().LatestUnused(ctx, account.ID)
	if err != nil {
		return wrapInternal(err, "failed to load current verification code")
	}

	code := current
	reissue := current == nil || current.Attempts >= h.config.GetMaxCodeAttempts()

	if !reissue {
		if IsWithinCooldown(current.CooldownBase(), h.config.GetResendCooldown(), now) {
			return ErrRateLimited
		}
	}

	if reissue {
		err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			fresh, err := createCodeRow(ctx, tx, h.repo.VerificationCodes(), account.ID, h.config)
			if err != nil {
				return err
			}
			code = fresh
			return nil
		})
		if err != nil {
			return wrapInternal(err, "failed to reissue verification code")
		}
	}

	// delivery runs after commit so a send failure keeps the code row
	if err := h.mailer.SendVerificationCode(ctx, email, code.Code); err != nil {
		h.logger.Error("verification email to %s failed: %s", email, err)
		return goerrors.Wrap(err, ErrDeliveryFailed.Category, ErrDeliveryFailed.Message).
			WithTextCode(ErrDeliveryFailed.TextCode)
	}

	// best effort; a lost touch only shortens the next cooldown
	if err := h.repo.VerificationCodes().TouchLastSent(ctx, code.ID, now); err != nil {
		h.logger.Error("failed to record delivery time for code %s: %s", code.ID, err)
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventCodeResent,
		AccountID: account.ID.String(),
		Email:     email,
		Metadata:  map[string]any{"reissued": reissue},
	})

	if event.OnResponse != nil {
		event.OnResponse(&ResendCodeResponse{
			AccountID: account.ID.String(),
			Reissued:  reissue,
			Success:   true,
		})
	}

	return nil
}

func pendingMatches(account *Account, email string) bool {
	return account != nil && account.PendingEmail != nil && *account.PendingEmail == email
}
