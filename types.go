package session

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface used across the package.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// TokenStore persists credential material per role. Reads never fail: when
// the storage medium is unavailable every operation degrades to an empty
// result so a broken store reads as unauthenticated, never as authenticated.
type TokenStore interface {
	Set(ctx context.Context, role Role, creds Credentials) error
	Get(ctx context.Context, role Role) (Credentials, bool)
	Clear(ctx context.Context, role Role) error
	ClearAll(ctx context.Context) error
}

// IdentityClient is the stateless adapter for the external identity service.
// Every call is a single request/response exchange; retries are caller policy.
type IdentityClient interface {
	Login(ctx context.Context, role Role, email, password string) (*AuthResult, error)
	Register(ctx context.Context, role Role, data RegistrationData) (*RegistrationOutcome, error)
	SendVerificationCode(ctx context.Context, role Role, email string) error
	ConfirmVerificationCode(ctx context.Context, role Role, email, code string) error
	SendPasswordResetCode(ctx context.Context, role Role, email string) error
	ConfirmPasswordResetCode(ctx context.Context, role Role, email, code string) (string, error)
	ResetPassword(ctx context.Context, role Role, resetToken, newPassword string) error
	Logout(ctx context.Context, role Role, accessToken string) error
}

// LoginPayload is the credential submission consumed by Actions.LoginAs.
type LoginPayload interface {
	GetEmail() string
	GetPassword() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
