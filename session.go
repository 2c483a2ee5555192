package identity

import (
	"context"
)

// SessionStatus is the resolved strength of a request's credentials
type SessionStatus string

const (
	// SessionAuthenticated means a live access token mapped to an account
	SessionAuthenticated SessionStatus = "authenticated"
	// SessionAnonymous means only a live anonymous token was presented
	SessionAnonymous SessionStatus = "anonymous"
	// SessionNone means no presented credential was usable
	SessionNone SessionStatus = "none"
)

// SessionState is the outcome of resolving a request's tokens. Exactly one
// of Account or AnonID is set, matching Status.
type SessionState struct {
	Status  SessionStatus
	Account *Account
	AnonID  string
}

// Authenticated reports whether the session maps to an account
func (s SessionState) Authenticated() bool {
	return s.Status == SessionAuthenticated
}

// ResolveSession grades a request's credentials. The access token is tried
// first; any expected failure on it (missing, malformed, expired, wrong
// type, account gone) silently demotes to the anonymous token, and failing
// that to SessionNone. Only unexpected storage failures return an error.
func (s *Auther) ResolveSession(ctx context.Context, accessToken, anonToken string) (SessionState, error) {
	if accessToken != "" {
		state, err := s.resolveAccess(ctx, accessToken)
		if err != nil {
			return SessionState{Status: SessionNone}, err
		}
		if state.Authenticated() {
			return state, nil
		}
	}

	if anonToken != "" {
		if state, ok := s.resolveAnonymous(anonToken); ok {
			return state, nil
		}
	}

	return SessionState{Status: SessionNone}, nil
}

// resolveAccess maps an access token to its account. A non-authenticated
// zero state with nil error means "try the next credential".
func (s *Auther) resolveAccess(ctx context.Context, raw string) (SessionState, error) {
	claims, err := s.tokenService.Decode(raw)
	if err != nil {
		return SessionState{}, nil
	}

	if claims.TokenType != TokenTypeAccess {
		return SessionState{}, nil
	}

	accountID, err := claims.SubjectUUID()
	if err != nil {
		return SessionState{}, nil
	}

	account, err := s.repo.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if repositoryNotFound(err) {
			// a valid token for a deleted account degrades, it does not error
			return SessionState{}, nil
		}
		return SessionState{}, wrapInternal(err, "failed to load account for session")
	}

	return SessionState{
		Status:  SessionAuthenticated,
		Account: account,
	}, nil
}

func (s *Auther) resolveAnonymous(raw string) (SessionState, bool) {
	claims, err := s.tokenService.Decode(raw)
	if err != nil {
		return SessionState{}, false
	}

	if claims.TokenType != TokenTypeAnon || claims.Subject() == "" {
		return SessionState{}, false
	}

	return SessionState{
		Status: SessionAnonymous,
		AnonID: claims.Subject(),
	}, true
}
