package session

import "context"

// GuardOptions configures one guarded screen.
type GuardOptions struct {
	// AllowedRoles restricts the screen to these roles. Empty means any
	// authenticated principal.
	AllowedRoles []Role
	// OptionalAuth renders the screen for unauthenticated callers instead
	// of redirecting them to login.
	OptionalAuth bool
	// RedirectTo overrides the login path unauthenticated callers are sent
	// to.
	RedirectTo string
}

// GuardResult is what presentational callers branch on.
type GuardResult struct {
	// IsLoading is true while the session is still hydrating; nothing
	// protected may be rendered and no redirect may be issued yet.
	IsLoading       bool
	IsAuthenticated bool
	User            *Principal
	IsAuthorized    bool
	// RedirectTo carries the client-side navigation target when the caller
	// is not allowed to stay on this screen.
	RedirectTo string
}

// Guard is the render-time edge of the access-control evaluator. Unlike the
// request-time gate it waits for session hydration, then applies the same
// role logic, so both edges reach the same decision for the same inputs.
type Guard struct {
	manager *Manager
}

// NewGuard builds a render-time guard over the session manager.
func NewGuard(manager *Manager) *Guard {
	return &Guard{manager: manager}
}

// ProtectedRoute evaluates one guarded screen. While the manager is still
// hydrating (the context expiring before hydration completes) the result is
// loading: no flash of protected content, no premature redirect.
func (g *Guard) ProtectedRoute(ctx context.Context, opts GuardOptions) GuardResult {
	if err := g.manager.WaitForHydration(ctx); err != nil {
		return GuardResult{IsLoading: true}
	}

	result := GuardResult{}
	result.IsAuthenticated = g.manager.IsAuthenticated(ctx)

	var role Role
	if user, ok := g.manager.CurrentUser(); ok {
		result.User = &user
		role = user.Role
	}

	if !result.IsAuthenticated {
		if opts.OptionalAuth {
			result.IsAuthorized = len(opts.AllowedRoles) == 0
			return result
		}
		decision := evaluateRoles(opts.AllowedRoles, false, role)
		result.RedirectTo = decision.RedirectTo
		if opts.RedirectTo != "" {
			result.RedirectTo = opts.RedirectTo
		}
		return result
	}

	decision := evaluateRoles(opts.AllowedRoles, true, role)
	if !decision.Allow {
		// authenticated but for the wrong role: their own dashboard
		result.RedirectTo = decision.RedirectTo
		return result
	}

	result.IsAuthorized = true
	return result
}
