package session

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeCredentialMalformed = "CREDENTIAL_MALFORMED"
	textCodeCredentialDecode    = "CREDENTIAL_DECODE"
	textCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	textCodeRefreshFailed       = "REFRESH_FAILED"
	textCodeInvalidTransition   = "INVALID_SESSION_TRANSITION"
)

// ErrCredentialMalformed is returned when a credential fails the structural
// segment check. Callers treat it exactly like an absent credential.
var ErrCredentialMalformed = goerrors.New("credential is malformed", goerrors.CategoryAuth).
	WithTextCode(textCodeCredentialMalformed)

// ErrCredentialDecode is returned when the claims segment cannot be parsed.
var ErrCredentialDecode = goerrors.New("unable to decode credential claims", goerrors.CategoryAuth).
	WithTextCode(textCodeCredentialDecode)

// ErrInvalidCredentials is the generic login failure surfaced to users.
// The underlying transport error is logged, never shown.
var ErrInvalidCredentials = goerrors.New("incorrect identifier or password", goerrors.CategoryAuth).
	WithTextCode(textCodeInvalidCredentials)

// ErrRefreshFailed is returned when the refresh call is rejected. It always
// forces a sign-out; it is never retried silently.
var ErrRefreshFailed = goerrors.New("unable to refresh session", goerrors.CategoryAuth).
	WithTextCode(textCodeRefreshFailed)

// ErrNoStoredSession is returned when the store holds no access credential.
var ErrNoStoredSession = goerrors.New("no stored session", goerrors.CategoryNotFound)

// ErrInvalidTransition is returned when a requested lifecycle change is not
// allowed from the current status.
var ErrInvalidTransition = goerrors.New("invalid session state transition", goerrors.CategoryConflict).
	WithTextCode(textCodeInvalidTransition)

// IsCredentialMalformedError will check for structurally invalid credentials
func IsCredentialMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "credential is malformed") ||
		strings.Contains(err.Error(), "token contains an invalid number of segments")
}

// IsCredentialDecodeError will check for unparsable claims segments
func IsCredentialDecodeError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "unable to decode credential claims")
}

// IsInvalidCredentialsError will check for the generic login failure
func IsInvalidCredentialsError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "incorrect identifier or password")
}

// IsRefreshFailedError will check for rejected refresh calls
func IsRefreshFailedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "unable to refresh session")
}
