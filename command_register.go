package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	Username   string `json:"username" example:"pepe_rone" doc:"Account username."`
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	Password   string `json:"password" example:"some_secret_word" doc:"Cleartext password."`
	OnResponse func(resp *RegisterAccountResponse)
}

func (m RegisterAccountMessage) Type() string { return "identity.register" }

type RegisterAccountResponse struct {
	Account *Account
	Success bool
}

// RegisterAccountHandler creates an unverified account, persists its first
// verification code and requests delivery, all as one unit: a failed send
// rolls back the account and the code.
type RegisterAccountHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	config   Config
	activity ActivitySink
	logger   Logger
}

func NewRegisterAccountHandler(repo RepositoryManager, mailer Mailer, config Config) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:     repo,
		mailer:   mailer,
		config:   config,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit registration events.
func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	username := NormalizeUsername(event.Username)
	email := NormalizeEmail(event.Email)
	password := event.Password

	if err := ValidateUsername(username); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	resp := &RegisterAccountResponse{}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// username collision wins when both fields collide
		existing, err := h.repo.Accounts().FindByUsernameOrEmail(ctx, username, email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check account uniqueness")
		}
		for _, other := range existing {
			if other.Username == username {
				return ErrUsernameExists
			}
		}
		for _, other := range existing {
			if other.Email == email {
				return ErrEmailExists
			}
		}

		hash, err := HashPassword(password, h.config.GetBcryptCost())
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		account := &Account{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			IsVerified:   false,
		}

		account, err = h.repo.Accounts().CreateTx(ctx, tx, account)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create account")
		}

		code, err := createCodeRow(ctx, tx, h.repo.VerificationCodes(), account.ID, h.config)
		if err != nil {
			return err
		}

		if err := h.mailer.SendVerificationCode(ctx, email, code.Code); err != nil {
			h.logger.Error("registration verification email to %s failed: %s", email, err)
			return goerrors.Wrap(err, ErrDeliveryFailed.Category, ErrDeliveryFailed.Message).
				WithTextCode(ErrDeliveryFailed.TextCode)
		}

		resp.Account = account
		return nil
	})

	if err != nil {
		return wrapInternal(err, "failed to register account")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventRegistration,
		AccountID: resp.Account.ID.String(),
		Email:     email,
	})

	h.logger.Info("account registered username=%s email=%s", username, email)

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

// createCodeRow generates a fresh code and persists its row with the
// configured TTL.
func createCodeRow(ctx context.Context, tx bun.IDB, codes VerificationCodes, accountID uuid.UUID, cfg Config) (*VerificationCode, error) {
	code, err := GenerateVerificationCode(cfg.GetCodeLength())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification code")
	}

	now := time.Now()
	row := &VerificationCode{
		AccountID: accountID,
		Code:      code,
		ExpiresAt: now.Add(cfg.GetCodeTTL()),
		CreatedAt: &now,
	}

	row, err = codes.CreateTx(ctx, tx, row)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist verification code")
	}

	return row, nil
}
