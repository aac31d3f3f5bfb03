package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionState is the Manager's lifecycle state.
type SessionState string

const (
	// StateHydrating is the transient state at process start before the
	// token store has been consulted once.
	StateHydrating SessionState = "hydrating"
	// StateUnauthenticated means no principal is attached to the session.
	StateUnauthenticated SessionState = "unauthenticated"
	// StateAuthenticated means a principal is attached. Authentication is
	// still only reported when the token store corroborates it.
	StateAuthenticated SessionState = "authenticated"
)

// Manager holds the current principal and its derived authentication flag.
// It is an explicit, constructible instance injected into whatever composes
// the application; there is no package-level singleton. It is the sole
// writer of its TokenStore on login and logout.
//
// A bare persisted token never authenticates by itself: hydration only moves
// the manager to Unauthenticated until Login is called with a full
// AuthResult. Expired persisted tokens are cleared during hydration.
type Manager struct {
	mu        sync.RWMutex
	store     TokenStore
	logger    Logger
	now       func() time.Time
	state     SessionState
	principal *Principal

	hydrateOnce sync.Once
	hydrated    chan struct{}
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger overrides the logger.
func WithManagerLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithManagerClock injects a custom clock (useful for tests).
func WithManagerClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// NewManager returns a Manager in the Hydrating state bound to the given
// token store.
func NewManager(store TokenStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		logger:   defLogger{},
		now:      time.Now,
		state:    StateHydrating,
		hydrated: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Hydrate consults the token store once and resolves the initial state.
// Stale tokens (a decodable access token whose expiry is already past) are
// cleared; everything else is left in place for a later Login to corroborate.
// Safe to call more than once; only the first call does work.
func (m *Manager) Hydrate(ctx context.Context) {
	m.hydrateOnce.Do(func() {
		for _, role := range AllRoles() {
			creds, ok := m.store.Get(ctx, role)
			if !ok {
				continue
			}
			if m.tokenExpired(creds.AccessToken) {
				m.logger.Info("clearing expired persisted token", "role", role)
				if err := m.store.Clear(ctx, role); err != nil {
					m.logger.Error("failed to clear expired token", "role", role, "error", err)
				}
			}
		}

		m.mu.Lock()
		if m.state == StateHydrating {
			m.state = StateUnauthenticated
		}
		m.mu.Unlock()

		close(m.hydrated)
	})
}

// WaitForHydration blocks until Hydrate (or a first Login) has resolved the
// initial state. This is the subsystem's one legitimate suspension point.
func (m *Manager) WaitForHydration(ctx context.Context) error {
	select {
	case <-m.hydrated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the manager's lifecycle state.
func (m *Manager) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Login persists the result's credentials, attaches the principal, and moves
// to Authenticated. Calling it again overwrites the previous session. The
// store error, if any, is returned but the principal is still attached; the
// session will simply read as unauthenticated until a token can be stored.
func (m *Manager) Login(ctx context.Context, res AuthResult) error {
	storeErr := m.store.Set(ctx, res.User.Role, res.Credentials())
	if storeErr != nil {
		m.logger.Error("failed to persist credentials on login", "role", res.User.Role, "error", storeErr)
	}

	m.mu.Lock()
	user := res.User
	m.principal = &user
	m.state = StateAuthenticated
	m.mu.Unlock()

	m.markHydrated()
	return storeErr
}

// Logout clears the current role's credentials and detaches the principal.
// Safe to call when already unauthenticated.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	principal := m.principal
	m.principal = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()

	if principal != nil {
		if err := m.store.Clear(ctx, principal.Role); err != nil {
			m.logger.Error("failed to clear credentials on logout", "role", principal.Role, "error", err)
		}
	}

	m.markHydrated()
}

// UpdateUser merges the patch into the current principal without touching
// the token. No-op when unauthenticated.
func (m *Manager) UpdateUser(patch PrincipalPatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated || m.principal == nil {
		return
	}
	m.principal.Apply(patch)
}

// CurrentUser returns a copy of the attached principal, if any.
func (m *Manager) CurrentUser() (Principal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.principal == nil {
		return Principal{}, false
	}
	return *m.principal, true
}

// Role returns the attached principal's role, if any.
func (m *Manager) Role() (Role, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.principal == nil {
		return "", false
	}
	return m.principal.Role, true
}

// GetToken is a pure read of the token store for the current role. Absent
// when unauthenticated.
func (m *Manager) GetToken(ctx context.Context) (string, bool) {
	role, ok := m.Role()
	if !ok {
		return "", false
	}
	creds, ok := m.store.Get(ctx, role)
	if !ok || creds.Empty() {
		return "", false
	}
	return creds.AccessToken, true
}

// IsAuthenticated reports whether a principal is attached AND the token
// store corroborates it. A principal without a token reads as
// unauthenticated, which covers partial init and storage cleared by another
// actor.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	_, hasToken := m.GetToken(ctx)
	if !hasToken {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateAuthenticated && m.principal != nil
}

func (m *Manager) markHydrated() {
	m.hydrateOnce.Do(func() {
		close(m.hydrated)
	})
}

// tokenExpired inspects a persisted access token without verifying its
// signature, only to discard one whose expiry is already past. Opaque
// (non-JWT) tokens are never treated as expired here.
func (m *Manager) tokenExpired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(m.now())
}
