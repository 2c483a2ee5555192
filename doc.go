// Package identity issues and validates session credentials for registered
// and anonymous visitors, and manages time-boxed email verification codes
// with abuse controls (resend cooldown, attempt limiting).
//
// Credentials:
//   - TokenService signs three kinds of bearer tokens (access, refresh, anon)
//     with independent expiries. Decoding distinguishes expired tokens from
//     invalid ones so callers can map each to its own wire error.
//   - HashPassword/VerifyPassword wrap bcrypt; VerifyPassword never fails,
//     a malformed stored hash simply reads as a mismatch.
//
// Workflows:
//   - RegisterAccountHandler, ResendCodeHandler, VerifyEmailHandler and
//     RequestEmailChangeHandler are command handlers in the Message/Handler
//     style: construct with a RepositoryManager and a Mailer, then Execute
//     with a message. Mutations run inside RunInTx scopes; resend delivery is
//     deliberately outside the transaction so a persisted code survives a
//     failed send, and verification bookkeeping (attempt counting, lazy
//     invalidation) commits even when the call itself fails.
//   - Auther covers login, refresh-token rotation, anonymous session issuance
//     and session resolution with graceful demotion (authenticated, then
//     anonymous, then none).
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing registration,
//     login, verification, and resend events. Sinks run best-effort (errors
//     are logged) so you can forward to a database or queue without blocking
//     the request.
package identity
