package identity_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	identity "github.com/mindfulweb/go-identity"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateAccounts = `CREATE TABLE accounts (
    id TEXT NOT NULL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    pending_email TEXT,
    password_hash TEXT,
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`
	sqliteCreateVerificationCodes = `CREATE TABLE verification_codes (
    id TEXT NOT NULL PRIMARY KEY,
    account_id TEXT NOT NULL,
    code TEXT NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    used_at TIMESTAMP NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    last_sent_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (account_id) REFERENCES accounts (id)
);`
)

// capturingMailer records delivered codes instead of sending email
type capturingMailer struct {
	codes []string
	to    []string
}

func (c *capturingMailer) SendVerificationCode(_ context.Context, email, code string) error {
	c.to = append(c.to, email)
	c.codes = append(c.codes, code)
	return nil
}

func (c *capturingMailer) lastCode() string {
	if len(c.codes) == 0 {
		return ""
	}
	return c.codes[len(c.codes)-1]
}

func setupIdentityStore(t *testing.T) (identity.RepositoryManager, func()) {
	t.Helper()

	// one named in-memory database per test, shared across connections
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateAccounts)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreateVerificationCodes)
	require.NoError(t, err)

	repo := identity.NewRepositoryManager(bunDB)
	repo.MustValidate()

	cleanup := func() {
		_ = bunDB.Close()
		_ = db.Close()
	}

	return repo, cleanup
}

func TestAccountLifecycleIntegration(t *testing.T) {
	ctx := context.Background()
	repo, cleanup := setupIdentityStore(t)
	defer cleanup()

	cfg := testConfig()
	mailer := &capturingMailer{}

	register := identity.NewRegisterAccountHandler(repo, mailer, cfg).WithLogger(testLogger{})
	verify := identity.NewVerifyEmailHandler(repo, cfg).WithLogger(testLogger{})
	resend := identity.NewResendCodeHandler(repo, mailer, cfg).WithLogger(testLogger{})
	auther := identity.NewAuthenticator(repo, cfg).WithLogger(testLogger{})

	var registered *identity.RegisterAccountResponse
	err := register.Execute(ctx, identity.RegisterAccountMessage{
		Username: "Pepe_Rone",
		Email:    "Pepe.Rone@Example.com",
		Password: "secret-password",
		OnResponse: func(r *identity.RegisterAccountResponse) {
			registered = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, registered)
	require.False(t, registered.Account.IsVerified)
	require.Len(t, mailer.codes, 1)
	require.Len(t, mailer.lastCode(), 6)
	require.Equal(t, []string{"pepe.rone@example.com"}, mailer.to)

	// duplicate registration collides on username
	err = register.Execute(ctx, identity.RegisterAccountMessage{
		Username: "pepe_rone",
		Email:    "other@example.com",
		Password: "secret-password",
	})
	require.Error(t, err)
	require.True(t, identity.HasTextCode(err, identity.TextCodeUsernameExists))

	// login is blocked until the address confirms
	_, err = auther.Login(ctx, "pepe_rone", "secret-password")
	require.Error(t, err)
	require.True(t, identity.HasTextCode(err, identity.TextCodeEmailNotVerified))

	// an immediate resend sits inside the cooldown window
	err = resend.Execute(ctx, identity.ResendCodeMessage{Email: "pepe.rone@example.com"})
	require.Error(t, err)
	require.True(t, identity.HasTextCode(err, identity.TextCodeTooManyAttempts))

	// a wrong guess burns an attempt but keeps the code alive
	wrong := "000000"
	if mailer.lastCode() == wrong {
		wrong = "000001"
	}
	err = verify.Execute(ctx, identity.VerifyEmailMessage{
		Email: "pepe.rone@example.com",
		Code:  wrong,
	})
	require.Error(t, err)
	require.True(t, identity.HasTextCode(err, identity.TextCodeCodeInvalid))

	var verifiedResp *identity.VerifyEmailResponse
	err = verify.Execute(ctx, identity.VerifyEmailMessage{
		Email: "pepe.rone@example.com",
		Code:  mailer.lastCode(),
		OnResponse: func(r *identity.VerifyEmailResponse) {
			verifiedResp = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, verifiedResp)
	require.True(t, verifiedResp.Account.IsVerified)

	// the code is single use
	err = verify.Execute(ctx, identity.VerifyEmailMessage{
		Email: "pepe.rone@example.com",
		Code:  mailer.lastCode(),
	})
	require.Error(t, err)
	require.True(t, identity.HasTextCode(err, identity.TextCodeAlreadyVerified))

	pair, err := auther.Login(ctx, "pepe_rone", "secret-password")
	require.NoError(t, err)

	state, err := auther.ResolveSession(ctx, pair.Access, "")
	require.NoError(t, err)
	require.True(t, state.Authenticated())
	require.Equal(t, "pepe_rone", state.Account.Username)

	rotated, err := auther.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.Access)

	// resend after verification has nothing to do
	err = resend.Execute(ctx, identity.ResendCodeMessage{Email: "pepe.rone@example.com"})
	require.Error(t, err)
	require.True(t, identity.HasTextCode(err, identity.TextCodeAlreadyVerified))
}

func TestEmailChangeLifecycleIntegration(t *testing.T) {
	ctx := context.Background()
	repo, cleanup := setupIdentityStore(t)
	defer cleanup()

	cfg := testConfig()
	mailer := &capturingMailer{}

	register := identity.NewRegisterAccountHandler(repo, mailer, cfg).WithLogger(testLogger{})
	verify := identity.NewVerifyEmailHandler(repo, cfg).WithLogger(testLogger{})
	change := identity.NewRequestEmailChangeHandler(repo, mailer, cfg).WithLogger(testLogger{})
	auther := identity.NewAuthenticator(repo, cfg).WithLogger(testLogger{})

	var registered *identity.RegisterAccountResponse
	err := register.Execute(ctx, identity.RegisterAccountMessage{
		Username: "pepe_rone",
		Email:    "pepe.rone@example.com",
		Password: "secret-password",
		OnResponse: func(r *identity.RegisterAccountResponse) {
			registered = r
		},
	})
	require.NoError(t, err)

	err = verify.Execute(ctx, identity.VerifyEmailMessage{
		Email: "pepe.rone@example.com",
		Code:  mailer.lastCode(),
	})
	require.NoError(t, err)

	err = change.Execute(ctx, identity.RequestEmailChangeMessage{
		AccountID: registered.Account.ID,
		NewEmail:  "new.address@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "new.address@example.com", mailer.to[len(mailer.to)-1])

	// the old address still logs in while the change is pending
	_, err = auther.Login(ctx, "pepe_rone", "secret-password")
	require.NoError(t, err)

	var changed *identity.VerifyEmailResponse
	err = verify.Execute(ctx, identity.VerifyEmailMessage{
		Email: "new.address@example.com",
		Code:  mailer.lastCode(),
		OnResponse: func(r *identity.VerifyEmailResponse) {
			changed = r
		},
	})
	require.NoError(t, err)
	require.NotNil(t, changed)
	require.True(t, changed.EmailChanged)
	require.Equal(t, "new.address@example.com", changed.Account.Email)
	require.Nil(t, changed.Account.PendingEmail)
}
