package session

import "strings"

// Role is a principal kind. The set is closed: job seeker, employer, and the
// reserved administrator kind.
type Role string

const (
	// RoleJobSeeker is a candidate looking for work.
	RoleJobSeeker Role = "JOB_SEEKER"
	// RoleEmployer is a company account posting jobs.
	RoleEmployer Role = "EMPLOYER"
	// RoleAdmin is the reserved administrator kind.
	RoleAdmin Role = "ADMIN"
)

// IsValid checks if the role is one of the predefined principal kinds.
func (r Role) IsValid() bool {
	switch r {
	case RoleJobSeeker, RoleEmployer, RoleAdmin:
		return true
	default:
		return false
	}
}

// LoginPath returns the login page principals of this role are sent to when
// they hit a protected area without a token.
func (r Role) LoginPath() string {
	switch r {
	case RoleEmployer:
		return "/pages/employer/login"
	case RoleAdmin:
		return "/pages/admin/login"
	default:
		return "/pages/login"
	}
}

// DashboardPath returns the landing page for an authenticated principal of
// this role. Used when a caller is authenticated but for the wrong role.
func (r Role) DashboardPath() string {
	switch r {
	case RoleEmployer:
		return "/pages/employer/dashboard"
	case RoleAdmin:
		return "/pages/admin/dashboard"
	default:
		return "/pages/jobSeeker/dashboard"
	}
}

// AllRoles returns all principal kinds.
func AllRoles() []Role {
	return []Role{RoleJobSeeker, RoleEmployer, RoleAdmin}
}

// ParseRole safely parses a string into a Role. Matching is case and
// separator insensitive so "job-seeker" and "JOB_SEEKER" both resolve.
func ParseRole(roleStr string) (Role, bool) {
	normalized := strings.ToUpper(strings.ReplaceAll(roleStr, "-", "_"))
	role := Role(normalized)
	return role, role.IsValid()
}
