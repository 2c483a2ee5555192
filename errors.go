package identity

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Text codes surfaced to the API layer alongside the HTTP status.
const (
	TextCodeAccountNotFound      = "ACCOUNT_NOT_FOUND"
	TextCodeUsernameExists       = "USERNAME_ALREADY_EXISTS"
	TextCodeEmailExists          = "EMAIL_ALREADY_EXISTS"
	TextCodeAlreadyVerified      = "EMAIL_ALREADY_VERIFIED"
	TextCodeCodeInvalid          = "VERIFICATION_CODE_INVALID"
	TextCodeCodeExpired          = "VERIFICATION_CODE_EXPIRED"
	TextCodeTooManyAttempts      = "TOO_MANY_ATTEMPTS"
	TextCodeInvalidCreds         = "INVALID_CREDENTIALS"
	TextCodeEmailNotVerified     = "EMAIL_NOT_VERIFIED"
	TextCodeTokenInvalid         = "TOKEN_INVALID"
	TextCodeTokenExpired         = "TOKEN_EXPIRED"
	TextCodeDeliveryFailed       = "EMAIL_SEND_FAILED"
	TextCodeServiceError         = "IDENTITY_SERVICE_ERROR"
	TextCodeInvalidUsername      = "INVALID_USERNAME_FORMAT"
	TextCodeInvalidEmail         = "INVALID_EMAIL_FORMAT"
	TextCodeInvalidPassword      = "INVALID_PASSWORD_FORMAT"
	TextCodeInvalidCode          = "INVALID_VERIFICATION_CODE"
	TextCodeAnonIDGeneration     = "ANON_ID_GENERATION_FAILED"
	TextCodeAnonTokenCreation    = "ANON_TOKEN_CREATE_FAILED"
)

// ErrAccountNotFound is returned when no non-deleted account matches
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound)

// ErrUsernameExists reports a username collision among non-deleted accounts
var ErrUsernameExists = goerrors.New("username already taken", goerrors.CategoryConflict).
	WithTextCode(TextCodeUsernameExists)

// ErrEmailExists reports an email collision among non-deleted accounts
var ErrEmailExists = goerrors.New("email already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailExists)

// ErrAlreadyVerified is returned when the address needs no confirmation
var ErrAlreadyVerified = goerrors.New("email already verified", goerrors.CategoryValidation).
	WithTextCode(TextCodeAlreadyVerified)

// ErrCodeInvalid covers a wrong guess and a missing or consumed code row
var ErrCodeInvalid = goerrors.New("verification code is invalid", goerrors.CategoryValidation).
	WithTextCode(TextCodeCodeInvalid)

// ErrCodeExpired is returned once the code row passed its expires_at
var ErrCodeExpired = goerrors.New("verification code has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeCodeExpired)

// ErrRateLimited covers both the resend cooldown and attempt exhaustion
var ErrRateLimited = goerrors.New("too many attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrInvalidCredentials is shared by unknown-account and wrong-password paths
// so failed logins cannot enumerate accounts.
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrEmailNotVerified blocks password login until the address is confirmed
var ErrEmailNotVerified = goerrors.New("email address not verified", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified)

// ErrTokenInvalid covers bad signatures, malformed tokens and wrong algorithms
var ErrTokenInvalid = goerrors.New("token is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid)

// ErrTokenExpired is returned only for structurally valid, expired tokens
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrDeliveryFailed reports a failed verification-code send
var ErrDeliveryFailed = goerrors.New("failed to send verification email", goerrors.CategoryInternal).
	WithTextCode(TextCodeDeliveryFailed)

// ErrServiceError is the catch-all for unexpected internal failures
var ErrServiceError = goerrors.New("identity service error", goerrors.CategoryInternal).
	WithTextCode(TextCodeServiceError)

// ErrInvalidUsernameFormat rejects a username the API layer let through
var ErrInvalidUsernameFormat = goerrors.New("invalid username format", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidUsername)

// ErrInvalidEmailFormat rejects a syntactically invalid email
var ErrInvalidEmailFormat = goerrors.New("invalid email format", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail)

// ErrInvalidPasswordFormat rejects an out-of-bounds password
var ErrInvalidPasswordFormat = goerrors.New("invalid password format", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidPassword)

// ErrInvalidCodeFormat rejects a submitted code that is not N digits
var ErrInvalidCodeFormat = goerrors.New("invalid verification code format", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidCode)

// ErrAnonIDGeneration reports a failure to produce an anonymous identifier
var ErrAnonIDGeneration = goerrors.New("failed to generate anonymous session id", goerrors.CategoryInternal).
	WithTextCode(TextCodeAnonIDGeneration)

// ErrAnonTokenCreation reports a failure to sign the anonymous token
var ErrAnonTokenCreation = goerrors.New("failed to create anonymous session token", goerrors.CategoryInternal).
	WithTextCode(TextCodeAnonTokenCreation)

// errorStatus is the single text-code to HTTP status table. The API layer
// picks a wire status from the error kind instead of matching error types.
var errorStatus = map[string]int{
	TextCodeTokenInvalid:      http.StatusUnauthorized,
	TextCodeTokenExpired:      http.StatusUnauthorized,
	TextCodeInvalidCreds:      http.StatusUnauthorized,
	TextCodeAccountNotFound:   http.StatusUnauthorized,
	TextCodeEmailNotVerified:  http.StatusForbidden,
	TextCodeUsernameExists:    http.StatusConflict,
	TextCodeEmailExists:       http.StatusConflict,
	TextCodeAlreadyVerified:   http.StatusUnprocessableEntity,
	TextCodeTooManyAttempts:   http.StatusUnprocessableEntity,
	TextCodeCodeInvalid:       http.StatusUnprocessableEntity,
	TextCodeCodeExpired:       http.StatusUnprocessableEntity,
	TextCodeInvalidUsername:   http.StatusUnprocessableEntity,
	TextCodeInvalidEmail:      http.StatusUnprocessableEntity,
	TextCodeInvalidPassword:   http.StatusUnprocessableEntity,
	TextCodeInvalidCode:       http.StatusUnprocessableEntity,
	TextCodeDeliveryFailed:    http.StatusInternalServerError,
	TextCodeServiceError:      http.StatusInternalServerError,
	TextCodeAnonIDGeneration:  http.StatusInternalServerError,
	TextCodeAnonTokenCreation: http.StatusInternalServerError,
}

// StatusForError maps a domain error to an HTTP status code. Unknown or
// non-domain errors read as 500.
func StatusForError(err error) int {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if status, ok := errorStatus[richErr.TextCode]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// HasTextCode checks whether err carries the given text code
func HasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// repositoryNotFound reports whether err means no matching record
func repositoryNotFound(err error) bool {
	return repository.IsRecordNotFound(err) || goerrors.IsNotFound(err)
}

// wrapInternal passes domain errors through untouched and folds anything
// unexpected into the service-error kind.
func wrapInternal(err error, msg string) error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeServiceError)
}
