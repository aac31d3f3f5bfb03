package session

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequestGate is the request-time edge of the access-control evaluator. It
// runs once per incoming request, synchronously, reading only cookies: token
// presence, not validity, and an unverified role. It never performs a
// network call, it sits on the critical path of every navigation.
//
// Client-side navigation can bypass this gate entirely; the render-time
// Guard applies the same Policy to catch that case.
func RequestGate(policy *Policy, opts ...GateOption) fiber.Handler {
	g := &gate{policy: policy, logger: defLogger{}}
	for _, opt := range opts {
		opt(g)
	}

	return func(c *fiber.Ctx) error {
		hasToken, role := g.readCookies(c)
		if role != "" {
			c.Locals(LocalsRoleKey, role)
		}

		decision := g.policy.Evaluate(c.Path(), hasToken, role)
		if decision.Allow {
			return c.Next()
		}

		g.logger.Debug("gate redirect", "path", c.Path(), "to", decision.RedirectTo, "role", role)

		statusCode := http.StatusSeeOther
		if c.Method() == fiber.MethodGet {
			statusCode = http.StatusFound
		}
		return c.Redirect(decision.RedirectTo, statusCode)
	}
}

// GateOption customizes the request-time gate.
type GateOption func(*gate)

// WithGateLogger overrides the gate logger.
func WithGateLogger(logger Logger) GateOption {
	return func(g *gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

type gate struct {
	policy *Policy
	logger Logger
}

// readCookies resolves token presence and the claimed role from the per-role
// cookie keys. When more than one role holds a token the AllRoles order
// decides, which keeps the gate deterministic.
func (g *gate) readCookies(c *fiber.Ctx) (bool, Role) {
	for _, role := range AllRoles() {
		if c.Cookies(accessTokenKey(role)) == "" {
			continue
		}

		claimed := c.Cookies(userRoleKey(role))
		if parsed, ok := ParseRole(claimed); ok {
			return true, parsed
		}
		return true, role
	}
	return false, ""
}
