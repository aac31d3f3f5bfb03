package session_test

import (
	"context"
	"sync"

	session "github.com/jobstacktalentsolutions/go-session"
	"github.com/stretchr/testify/mock"
)

// MockIdentityClient implements session.IdentityClient
type MockIdentityClient struct {
	mock.Mock
}

func (m *MockIdentityClient) Login(ctx context.Context, role session.Role, email, password string) (*session.AuthResult, error) {
	args := m.Called(ctx, role, email, password)
	if res := args.Get(0); res != nil {
		return res.(*session.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityClient) Register(ctx context.Context, role session.Role, data session.RegistrationData) (*session.RegistrationOutcome, error) {
	args := m.Called(ctx, role, data)
	if res := args.Get(0); res != nil {
		return res.(*session.RegistrationOutcome), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityClient) SendVerificationCode(ctx context.Context, role session.Role, email string) error {
	args := m.Called(ctx, role, email)
	return args.Error(0)
}

func (m *MockIdentityClient) ConfirmVerificationCode(ctx context.Context, role session.Role, email, code string) error {
	args := m.Called(ctx, role, email, code)
	return args.Error(0)
}

func (m *MockIdentityClient) SendPasswordResetCode(ctx context.Context, role session.Role, email string) error {
	args := m.Called(ctx, role, email)
	return args.Error(0)
}

func (m *MockIdentityClient) ConfirmPasswordResetCode(ctx context.Context, role session.Role, email, code string) (string, error) {
	args := m.Called(ctx, role, email, code)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityClient) ResetPassword(ctx context.Context, role session.Role, resetToken, newPassword string) error {
	args := m.Called(ctx, role, resetToken, newPassword)
	return args.Error(0)
}

func (m *MockIdentityClient) Logout(ctx context.Context, role session.Role, accessToken string) error {
	args := m.Called(ctx, role, accessToken)
	return args.Error(0)
}

// loginPayload is a bare LoginPayload for orchestrator tests.
type loginPayload struct {
	email    string
	password string
}

func (p loginPayload) GetEmail() string    { return p.email }
func (p loginPayload) GetPassword() string { return p.password }

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

func (l *recordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) find(msg string) (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

// unavailableStore degrades every operation, standing in for a broken
// storage medium.
type unavailableStore struct{}

func (unavailableStore) Set(context.Context, session.Role, session.Credentials) error {
	return session.ErrStorageUnavailable
}

func (unavailableStore) Get(context.Context, session.Role) (session.Credentials, bool) {
	return session.Credentials{}, false
}

func (unavailableStore) Clear(context.Context, session.Role) error {
	return session.ErrStorageUnavailable
}

func (unavailableStore) ClearAll(context.Context) error {
	return session.ErrStorageUnavailable
}
