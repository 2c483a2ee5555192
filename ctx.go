package identity

import "context"

var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithSessionContext sets the resolved SessionState in the given context
func WithSessionContext(ctx context.Context, state SessionState) context.Context {
	return context.WithValue(ctx, sessionCtxKey, state)
}

// SessionFromContext finds the resolved SessionState in the context
func SessionFromContext(ctx context.Context) (SessionState, bool) {
	state, ok := ctx.Value(sessionCtxKey).(SessionState)
	return state, ok
}

// AccountFromContext returns the authenticated account in the context, if any
func AccountFromContext(ctx context.Context) (*Account, bool) {
	state, ok := SessionFromContext(ctx)
	if !ok || !state.Authenticated() {
		return nil, false
	}
	return state.Account, true
}
