package session

import "strings"

// Decision is the outcome of an access-control evaluation.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// PolicyRule maps a protected path prefix onto the roles allowed past it.
type PolicyRule struct {
	Prefix string
	Roles  []Role
}

// Policy is the static access-control table consumed by both the
// request-time gate and the render-time guard. Lookup is prefix-based and
// first-match; public prefixes always win over protected ones.
type Policy struct {
	Public    []string
	Protected []PolicyRule
}

// DefaultPolicy returns the job-board route surface: role-scoped areas for
// job seekers, employers and admins, with the marketing and auth pages
// public.
func DefaultPolicy() *Policy {
	return &Policy{
		Public: []string{
			"/pages/login",
			"/pages/register",
			"/pages/employer/login",
			"/pages/employer/register",
			"/pages/admin/login",
			"/pages/verifyEmail",
			"/pages/forgotPassword",
			"/pages/jobs",
			"/pages/aboutUs",
			"/pages/contactUs",
		},
		Protected: []PolicyRule{
			{Prefix: "/pages/jobSeeker", Roles: []Role{RoleJobSeeker}},
			{Prefix: "/pages/employer", Roles: []Role{RoleEmployer}},
			{Prefix: "/pages/admin", Roles: []Role{RoleAdmin}},
		},
	}
}

// Evaluate is the pure decision function over (path, token presence, role).
// Public prefixes allow unconditionally. Paths outside the protected table
// are open: the table is an allowlist of restricted areas, not a whitelist
// of the whole site. A caller without a token is sent to the login page of
// the area's primary role; a caller with a token but the wrong role is sent
// to their own dashboard, not to a login page.
func (p *Policy) Evaluate(path string, hasToken bool, role Role) Decision {
	for _, pub := range p.Public {
		if matchPrefix(path, pub) {
			return Decision{Allow: true}
		}
	}

	for _, rule := range p.Protected {
		if matchPrefix(path, rule.Prefix) {
			return evaluateRoles(rule.Roles, hasToken, role)
		}
	}

	return Decision{Allow: true}
}

// evaluateRoles is the role check shared between Policy.Evaluate and the
// render-time guard, so both call sites always reach the same decision.
func evaluateRoles(allowed []Role, hasToken bool, role Role) Decision {
	if !hasToken {
		return Decision{RedirectTo: primaryRole(allowed).LoginPath()}
	}
	if role != "" && len(allowed) > 0 && !containsRole(allowed, role) {
		return Decision{RedirectTo: role.DashboardPath()}
	}
	return Decision{Allow: true}
}

// primaryRole picks the role whose login page an anonymous caller is sent
// to: the first allowed role of the area.
func primaryRole(allowed []Role) Role {
	if len(allowed) > 0 {
		return allowed[0]
	}
	return RoleJobSeeker
}

func containsRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// matchPrefix is boundary-aware: "/pages/employer" matches
// "/pages/employer/jobs" but not "/pages/employers".
func matchPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
