package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	identity "github.com/mindfulweb/go-identity"
	"github.com/stretchr/testify/require"
)

func TestSessionContextRoundTrip(t *testing.T) {
	account := &identity.Account{ID: uuid.New(), Username: "pepe_rone"}
	state := identity.SessionState{
		Status:  identity.SessionAuthenticated,
		Account: account,
	}

	ctx := identity.WithSessionContext(context.Background(), state)

	got, ok := identity.SessionFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, identity.SessionAuthenticated, got.Status)

	acc, ok := identity.AccountFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, account.ID, acc.ID)
}

func TestSessionContextMissing(t *testing.T) {
	_, ok := identity.SessionFromContext(context.Background())
	require.False(t, ok)

	_, ok = identity.AccountFromContext(context.Background())
	require.False(t, ok)
}

func TestAccountFromContextAnonymous(t *testing.T) {
	ctx := identity.WithSessionContext(context.Background(), identity.SessionState{
		Status: identity.SessionAnonymous,
		AnonID: uuid.NewString(),
	})

	_, ok := identity.AccountFromContext(ctx)
	require.False(t, ok)
}
