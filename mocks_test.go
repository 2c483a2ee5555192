package identity_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	identity "github.com/mindfulweb/go-identity"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements identity.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

// RunInTx records the call, then runs the closure with a zero bun.Tx and
// propagates its error the way a rolled-back transaction would. Program a
// non-nil Return to simulate a transaction that fails before the closure.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	var tx bun.Tx
	return f(ctx, tx)
}

func (m *MockRepositoryManager) Accounts() identity.Accounts {
	args := m.Called()
	return args.Get(0).(identity.Accounts)
}

func (m *MockRepositoryManager) VerificationCodes() identity.VerificationCodes {
	args := m.Called()
	return args.Get(0).(identity.VerificationCodes)
}

// MockAccounts implements identity.Accounts
type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) GetByID(ctx context.Context, id uuid.UUID) (*identity.Account, error) {
	args := m.Called(ctx, id)
	if acc := args.Get(0); acc != nil {
		return acc.(*identity.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) GetByUsername(ctx context.Context, username string) (*identity.Account, error) {
	args := m.Called(ctx, username)
	if acc := args.Get(0); acc != nil {
		return acc.(*identity.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) GetByEmailOrPending(ctx context.Context, email string) (*identity.Account, error) {
	args := m.Called(ctx, email)
	if acc := args.Get(0); acc != nil {
		return acc.(*identity.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) FindByUsernameOrEmail(ctx context.Context, username, email string) ([]*identity.Account, error) {
	args := m.Called(ctx, username, email)
	if recs := args.Get(0); recs != nil {
		return recs.([]*identity.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) CreateTx(ctx context.Context, tx bun.IDB, record *identity.Account) (*identity.Account, error) {
	args := m.Called(ctx, tx, record)
	if acc := args.Get(0); acc != nil {
		return acc.(*identity.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccounts) SetPendingEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, email string) error {
	args := m.Called(ctx, tx, id, email)
	return args.Error(0)
}

func (m *MockAccounts) ConfirmEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, promotePending bool) error {
	args := m.Called(ctx, tx, id, promotePending)
	return args.Error(0)
}

// MockVerificationCodes implements identity.VerificationCodes
type MockVerificationCodes struct {
	mock.Mock
}

func (m *MockVerificationCodes) Latest(ctx context.Context, accountID uuid.UUID) (*identity.VerificationCode, error) {
	args := m.Called(ctx, accountID)
	if rec := args.Get(0); rec != nil {
		return rec.(*identity.VerificationCode), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVerificationCodes) LatestUnused(ctx context.Context, accountID uuid.UUID) (*identity.VerificationCode, error) {
	args := m.Called(ctx, accountID)
	if rec := args.Get(0); rec != nil {
		return rec.(*identity.VerificationCode), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVerificationCodes) CreateTx(ctx context.Context, tx bun.IDB, record *identity.VerificationCode) (*identity.VerificationCode, error) {
	args := m.Called(ctx, tx, record)
	if rec := args.Get(0); rec != nil {
		return rec.(*identity.VerificationCode), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockVerificationCodes) MarkUsedTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tx, id, at)
	return args.Error(0)
}

func (m *MockVerificationCodes) IncrementAttemptsTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockVerificationCodes) TouchLastSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockMailer implements identity.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationCode(ctx context.Context, email, code string) error {
	args := m.Called(ctx, email, code)
	return args.Error(0)
}

// MockActivitySink implements identity.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event identity.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
