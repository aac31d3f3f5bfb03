package session

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

var principalCtxKey = &contextKey{"principal"}

type contextKey struct {
	name string
}

// LocalsRoleKey is where the request gate leaves the claimed role for
// downstream handlers.
const LocalsRoleKey = "session_role"

// WithPrincipal sets the Principal in the given context.
func WithPrincipal(ctx context.Context, user *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, user)
}

// PrincipalFrom finds the principal from the context.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	raw, ok := ctx.Value(principalCtxKey).(*Principal)
	return raw, ok
}

// ClaimedRole extracts the unverified role the request gate read from the
// cookies. It is a routing hint, never an authorization fact.
func ClaimedRole(c *fiber.Ctx) (Role, bool) {
	raw := c.Locals(LocalsRoleKey)
	if raw == nil {
		return "", false
	}
	role, ok := raw.(Role)
	if !ok || !role.IsValid() {
		return "", false
	}
	return role, true
}
