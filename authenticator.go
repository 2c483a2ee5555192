package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Auther authenticates accounts and manages session credentials
type Auther struct {
	repo         RepositoryManager
	config       Config
	logger       Logger
	tokenService TokenService
	activitySink ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	return &Auther{
		repo:         repo,
		config:       opts,
		logger:       defLogger{},
		tokenService: NewTokenService(opts, defLogger{}),
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
		s.tokenService = NewTokenService(s.config, logger)
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenService overrides the token issuer, mainly for tests.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies a username/password pair and issues a fresh token pair.
// Unknown usernames and wrong passwords are indistinguishable to the caller;
// the unverified-email answer only surfaces once the password checked out.
func (s *Auther) Login(ctx context.Context, username, password string) (TokenPair, error) {
	username = NormalizeUsername(username)

	account, err := s.repo.Accounts().GetByUsername(ctx, username)
	if err != nil {
		if repositoryNotFound(err) {
			s.emitLoginFailure(ctx, username, ErrInvalidCredentials)
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, wrapInternal(err, "failed to look up account for login")
	}

	if account.PasswordHash == "" || !VerifyPassword(password, account.PasswordHash) {
		s.emitLoginFailure(ctx, username, ErrInvalidCredentials)
		return TokenPair{}, ErrInvalidCredentials
	}

	if !account.IsVerified {
		s.emitLoginFailure(ctx, username, ErrEmailNotVerified)
		return TokenPair{}, ErrEmailNotVerified
	}

	pair, err := s.tokenService.IssuePair(account.ID.String())
	if err != nil {
		s.logger.Error("Login failed to issue token pair: %s", err)
		return TokenPair{}, wrapInternal(err, "failed to issue session tokens")
	}

	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		AccountID: account.ID.String(),
		Email:     account.Email,
	})

	return pair, nil
}

// Refresh rotates a session: it accepts a live refresh token and returns a
// brand new pair. Access and anonymous tokens are rejected here.
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokenService.Decode(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	if claims.TokenType != TokenTypeRefresh {
		return TokenPair{}, ErrTokenInvalid
	}

	accountID, err := claims.SubjectUUID()
	if err != nil {
		return TokenPair{}, ErrTokenInvalid
	}

	account, err := s.repo.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if repositoryNotFound(err) {
			return TokenPair{}, ErrAccountNotFound
		}
		return TokenPair{}, wrapInternal(err, "failed to look up account for refresh")
	}

	pair, err := s.tokenService.IssuePair(account.ID.String())
	if err != nil {
		s.logger.Error("Refresh failed to issue token pair: %s", err)
		return TokenPair{}, wrapInternal(err, "failed to issue session tokens")
	}

	return pair, nil
}

// Anonymous mints a session for a visitor with no account. The subject is a
// random identifier with no database row behind it.
func (s *Auther) Anonymous(ctx context.Context) (string, error) {
	anonID, err := uuid.NewRandom()
	if err != nil {
		s.logger.Error("Anonymous failed to generate id: %s", err)
		return "", goerrors.Wrap(err, ErrAnonIDGeneration.Category, ErrAnonIDGeneration.Message).
			WithTextCode(ErrAnonIDGeneration.TextCode)
	}

	token, err := s.tokenService.IssueAnonymous(anonID.String())
	if err != nil {
		s.logger.Error("Anonymous failed to sign token: %s", err)
		return "", goerrors.Wrap(err, ErrAnonTokenCreation.Category, ErrAnonTokenCreation.Message).
			WithTextCode(ErrAnonTokenCreation.TextCode)
	}

	return token, nil
}

func (s *Auther) emitLoginFailure(ctx context.Context, username string, cause error) {
	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Metadata: map[string]any{
			"username": username,
			"error":    cause.Error(),
		},
	})
}
