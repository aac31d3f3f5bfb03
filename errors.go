package session

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to the typed errors below so callers can branch without
// string matching on messages.
const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeInvalidCode        = "INVALID_OR_EXPIRED_CODE"
	TextCodeMissingResetToken  = "MISSING_RESET_TOKEN"
	TextCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	TextCodeRemoteError        = "REMOTE_ERROR"
	TextCodeMalformedResponse  = "MALFORMED_RESPONSE"
	TextCodeInvalidRole        = "INVALID_ROLE"
)

// ErrInvalidCredentials is returned when the identity service rejects an
// email/password pair.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidOrExpiredCode is returned when a verification or reset code is
// rejected by the identity service.
var ErrInvalidOrExpiredCode = goerrors.New("invalid or expired verification code", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidCode).
	WithCode(goerrors.CodeBadRequest)

// ErrMissingResetToken is returned when the identity service accepts a reset
// code but hands back no reset token, which leaves no way to finish the flow.
var ErrMissingResetToken = goerrors.New("could not start password reset", goerrors.CategoryAuth).
	WithTextCode(TextCodeMissingResetToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrStorageUnavailable wraps token persistence failures. Callers treat the
// session as logged out rather than surfacing a crash.
var ErrStorageUnavailable = goerrors.New("token storage unavailable", goerrors.CategoryInternal).
	WithTextCode(TextCodeStorageUnavailable).
	WithCode(goerrors.CodeInternal)

// ErrInvalidRole is returned when a request names a role outside the closed
// set of principal kinds.
var ErrInvalidRole = goerrors.New("unknown principal role", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidRole).
	WithCode(goerrors.CodeBadRequest)

// IsInvalidCredentials reports whether err carries the invalid-credentials
// text code.
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}

// IsInvalidCode reports whether err carries the invalid/expired-code text code.
func IsInvalidCode(err error) bool {
	return hasTextCode(err, TextCodeInvalidCode)
}

// IsMissingResetToken reports whether err carries the missing-reset-token
// text code.
func IsMissingResetToken(err error) bool {
	return hasTextCode(err, TextCodeMissingResetToken)
}

// IsStorageUnavailable reports whether err carries the storage text code.
func IsStorageUnavailable(err error) bool {
	return hasTextCode(err, TextCodeStorageUnavailable)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// cloneWithMessage copies a typed error and swaps its user-facing message,
// keeping text code and category so matching helpers still work.
func cloneWithMessage(base *goerrors.Error, message string) error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	clone.Message = message
	clone.Source = base
	return clone
}
