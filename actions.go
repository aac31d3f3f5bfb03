package session

import (
	"context"
	"sync"
)

// Actions composes the identity client and the session manager: it turns raw
// credential and registration submissions into session state transitions.
// Failures never mutate the session; it stays exactly as it was before the
// call.
type Actions struct {
	client  IdentityClient
	manager *Manager
	store   TokenStore
	logger  Logger
}

// ActionsOption customizes Actions.
type ActionsOption func(*Actions)

// WithActionsLogger overrides the logger.
func WithActionsLogger(logger Logger) ActionsOption {
	return func(a *Actions) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewActions wires the orchestrator. The store is read during LogoutAll to
// find every role that still holds a server session; it is the same store
// the manager writes.
func NewActions(client IdentityClient, manager *Manager, store TokenStore, opts ...ActionsOption) *Actions {
	a := &Actions{
		client:  client,
		manager: manager,
		store:   store,
		logger:  defLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LoginAs runs a credential flow against the role's identity namespace and,
// on success, feeds the result into the session manager. The typed error is
// propagated untouched on failure.
func (a *Actions) LoginAs(ctx context.Context, role Role, payload LoginPayload) (*AuthResult, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	res, err := a.client.Login(ctx, role, payload.GetEmail(), payload.GetPassword())
	if err != nil {
		return nil, err
	}

	if err := a.manager.Login(ctx, *res); err != nil {
		a.logger.Error("login succeeded but credentials were not persisted", "role", role, "error", err)
	}
	return res, nil
}

// RegisterAs runs a registration flow. A successful registration whose
// payload carries no session tokens does NOT log the principal in; login
// only happens once email verification is completed and the backend returns
// actual tokens.
func (a *Actions) RegisterAs(ctx context.Context, role Role, data RegistrationData) (*RegistrationOutcome, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	outcome, err := a.client.Register(ctx, role, data)
	if err != nil {
		return nil, err
	}

	if outcome.Auth != nil {
		if err := a.manager.Login(ctx, *outcome.Auth); err != nil {
			a.logger.Error("registration succeeded but credentials were not persisted", "role", role, "error", err)
		}
	}
	return outcome, nil
}

// LogoutAll attempts a best-effort server-side logout against every role
// concurrently; individual failures are swallowed. Local session state is
// cleared unconditionally afterwards, so local logout is never blocked by an
// unreachable server.
func (a *Actions) LogoutAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, role := range AllRoles() {
		creds, ok := a.store.Get(ctx, role)
		if !ok {
			continue
		}

		wg.Add(1)
		go func(role Role, token string) {
			defer wg.Done()
			if err := a.client.Logout(ctx, role, token); err != nil {
				a.logger.Info("server-side logout failed, proceeding", "role", role, "error", err)
			}
		}(role, creds.AccessToken)
	}
	wg.Wait()

	a.manager.Logout(ctx)
	if err := a.store.ClearAll(ctx); err != nil {
		a.logger.Error("failed to clear local credentials", "error", err)
	}
}
