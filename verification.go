package session

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// VerificationState is the OTP entry screen's state.
type VerificationState string

const (
	// VerificationEntering waits for a 6-digit code; the resend cooldown
	// may be ticking.
	VerificationEntering VerificationState = "entering"
	// VerificationVerifying has a confirm request in flight; inputs are
	// disabled.
	VerificationVerifying VerificationState = "verifying"
	// VerificationVerified is the terminal success state.
	VerificationVerified VerificationState = "verified"
	// VerificationFailed means the code was rejected or the request
	// errored. It doubles as the re-entry state: the message is surfaced,
	// the code input is cleared, and a fresh submission is accepted
	// directly from here.
	VerificationFailed VerificationState = "failed"
)

// VerificationVariant selects what a confirmed code means.
type VerificationVariant string

const (
	// VariantEmailConfirm confirms account email ownership.
	VariantEmailConfirm VerificationVariant = "email-confirm"
	// VariantPasswordReset confirms a reset code; success additionally
	// requires a non-empty reset token from the confirm call.
	VariantPasswordReset VerificationVariant = "password-reset"
)

// ErrMalformedCode rejects a submission that is not a 6-digit numeric code,
// locally, without a network call.
var ErrMalformedCode = goerrors.New("enter the 6-digit code sent to your email", goerrors.CategoryValidation).
	WithTextCode("MALFORMED_CODE").
	WithCode(goerrors.CodeBadRequest)

// ErrVerificationInFlight rejects a submission while one is being verified.
var ErrVerificationInFlight = goerrors.New("verification already in progress", goerrors.CategoryConflict).
	WithTextCode("VERIFICATION_IN_FLIGHT").
	WithCode(goerrors.CodeConflict)

// ConfirmFunc confirms a code. The returned reset token is only meaningful
// for the password-reset variant.
type ConfirmFunc func(ctx context.Context, email, code string) (resetToken string, err error)

// ResendFunc requests a fresh code for the email.
type ResendFunc func(ctx context.Context, email string) error

// DefaultResendCooldown is the resend lockout window in seconds.
const DefaultResendCooldown = 60

// VerificationFlow drives OTP code entry and the resend cooldown. It is
// independent of principal kind; the confirm and resend callbacks decide
// which identity namespace is spoken to. Errors are recovered locally by
// moving to VerificationFailed, never re-thrown past this boundary.
type VerificationFlow struct {
	mu         sync.Mutex
	variant    VerificationVariant
	email      string
	state      VerificationState
	message    string
	resetToken string

	confirm    ConfirmFunc
	resend     ResendFunc
	onVerified func(resetToken string)

	cooldown     int
	window       int
	tickInterval time.Duration
	cancelTick   chan struct{}
	resending    bool
	closed       bool
}

// VerificationFlowOption customizes a flow.
type VerificationFlowOption func(*VerificationFlow)

// WithCooldownWindow overrides the resend lockout window in seconds.
func WithCooldownWindow(seconds int) VerificationFlowOption {
	return func(f *VerificationFlow) {
		if seconds > 0 {
			f.window = seconds
		}
	}
}

// WithTickInterval overrides how often the cooldown decrements. One second
// in production; tests shrink it.
func WithTickInterval(d time.Duration) VerificationFlowOption {
	return func(f *VerificationFlow) {
		if d > 0 {
			f.tickInterval = d
		}
	}
}

// WithVerifiedHook registers the caller-supplied navigation trigger invoked
// once on entering the terminal Verified state.
func WithVerifiedHook(hook func(resetToken string)) VerificationFlowOption {
	return func(f *VerificationFlow) {
		f.onVerified = hook
	}
}

// NewVerificationFlow builds a flow for one verification screen instance.
func NewVerificationFlow(email string, variant VerificationVariant, confirm ConfirmFunc, resend ResendFunc, opts ...VerificationFlowOption) *VerificationFlow {
	f := &VerificationFlow{
		variant:      variant,
		email:        email,
		state:        VerificationEntering,
		confirm:      confirm,
		resend:       resend,
		window:       DefaultResendCooldown,
		tickInterval: time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Submit verifies a code. Anything that is not a 6-digit numeric code is
// rejected locally. On rejection or request failure the flow moves to
// VerificationFailed with a user-facing message; the caller clears the code
// input and may submit again.
func (f *VerificationFlow) Submit(ctx context.Context, code string) error {
	if !isSixDigitCode(code) {
		f.mu.Lock()
		f.message = ErrMalformedCode.Message
		f.mu.Unlock()
		return ErrMalformedCode
	}

	f.mu.Lock()
	switch f.state {
	case VerificationVerifying:
		f.mu.Unlock()
		return ErrVerificationInFlight
	case VerificationVerified:
		f.mu.Unlock()
		return nil
	}
	f.state = VerificationVerifying
	f.message = ""
	f.mu.Unlock()

	resetToken, err := f.confirm(ctx, f.email, code)

	f.mu.Lock()
	if err != nil {
		f.state = VerificationFailed
		f.message = userMessage(err)
		f.mu.Unlock()
		return nil
	}

	if f.variant == VariantPasswordReset && resetToken == "" {
		// the server accepted the code but left us no way to finish
		f.state = VerificationFailed
		f.message = "Could not start password reset."
		f.mu.Unlock()
		return nil
	}

	f.state = VerificationVerified
	f.resetToken = resetToken
	hook := f.onVerified
	f.mu.Unlock()

	if hook != nil {
		hook(resetToken)
	}
	return nil
}

// Resend requests a fresh code. While the cooldown is above zero, or another
// resend is already in flight, the call is a no-op. A resend failure surfaces
// as a transient message without disturbing the code-entry state.
func (f *VerificationFlow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.closed || f.cooldown > 0 || f.resending {
		f.mu.Unlock()
		return nil
	}
	f.resending = true
	f.mu.Unlock()

	err := f.resend(ctx, f.email)

	f.mu.Lock()
	f.resending = false
	if err != nil {
		f.message = userMessage(err)
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	f.startCooldown()
	return nil
}

// State returns the flow state.
func (f *VerificationFlow) State() VerificationState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Message returns the current user-facing message, if any.
func (f *VerificationFlow) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// ResetToken returns the single-use reset token issued on a verified
// password-reset confirmation.
func (f *VerificationFlow) ResetToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resetToken
}

// Email returns the address the flow was opened for.
func (f *VerificationFlow) Email() string {
	return f.email
}

// CooldownRemaining returns the seconds until resend becomes available.
func (f *VerificationFlow) CooldownRemaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cooldown
}

// Close tears the flow down, discarding any running cooldown timer so a
// stale timer never acts after the hosting screen is gone.
func (f *VerificationFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.stopCooldownLocked()
}

// startCooldown resets the counter to the full window and starts a fresh
// periodic decrement, cancelling any previous one so decrements never
// overlap.
func (f *VerificationFlow) startCooldown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}

	f.stopCooldownLocked()
	f.cooldown = f.window

	cancel := make(chan struct{})
	f.cancelTick = cancel

	go func() {
		ticker := time.NewTicker(f.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-cancel:
				return
			case <-ticker.C:
				f.mu.Lock()
				if f.cancelTick != cancel {
					f.mu.Unlock()
					return
				}
				f.cooldown--
				done := f.cooldown <= 0
				if done {
					f.cooldown = 0
					f.cancelTick = nil
				}
				f.mu.Unlock()
				if done {
					return
				}
			}
		}
	}()
}

func (f *VerificationFlow) stopCooldownLocked() {
	if f.cancelTick != nil {
		close(f.cancelTick)
		f.cancelTick = nil
	}
}

func isSixDigitCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// userMessage flattens an error into something safe to render next to the
// input field.
func userMessage(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	return err.Error()
}
