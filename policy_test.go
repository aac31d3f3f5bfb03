package session_test

import (
	"testing"

	session "github.com/jobstacktalentsolutions/go-session"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	policy := session.DefaultPolicy()

	tests := []struct {
		name         string
		path         string
		hasToken     bool
		role         session.Role
		wantAllow    bool
		wantRedirect string
	}{
		{
			name:         "wrong role goes to its own dashboard",
			path:         "/pages/employer/dashboard",
			hasToken:     true,
			role:         session.RoleJobSeeker,
			wantRedirect: "/pages/jobSeeker/dashboard",
		},
		{
			name:         "no token goes to the area login",
			path:         "/pages/employer/dashboard",
			hasToken:     false,
			wantRedirect: "/pages/employer/login",
		},
		{
			name:      "public path allows without a token",
			path:      "/pages/login",
			hasToken:  false,
			wantAllow: true,
		},
		{
			name:      "public path allows regardless of role",
			path:      "/pages/jobs",
			hasToken:  true,
			role:      session.RoleEmployer,
			wantAllow: true,
		},
		{
			name:      "public prefix wins over the protected table",
			path:      "/pages/employer/login",
			hasToken:  false,
			wantAllow: true,
		},
		{
			name:      "unlisted path is open",
			path:      "/pages/press",
			hasToken:  false,
			wantAllow: true,
		},
		{
			name:      "matching role allows",
			path:      "/pages/jobSeeker/profile",
			hasToken:  true,
			role:      session.RoleJobSeeker,
			wantAllow: true,
		},
		{
			name:         "job seeker area without token goes to its login",
			path:         "/pages/jobSeeker/dashboard",
			hasToken:     false,
			wantRedirect: "/pages/login",
		},
		{
			name:         "admin area rejects employers",
			path:         "/pages/admin/users",
			hasToken:     true,
			role:         session.RoleEmployer,
			wantRedirect: "/pages/employer/dashboard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := policy.Evaluate(tt.path, tt.hasToken, tt.role)
			assert.Equal(t, tt.wantAllow, decision.Allow)
			assert.Equal(t, tt.wantRedirect, decision.RedirectTo)
		})
	}
}

func TestEvaluatePrefixBoundary(t *testing.T) {
	policy := &session.Policy{
		Protected: []session.PolicyRule{
			{Prefix: "/pages/employer", Roles: []session.Role{session.RoleEmployer}},
		},
	}

	// "/pages/employers" is a different path, not a sub-path
	decision := policy.Evaluate("/pages/employers", false, "")
	assert.True(t, decision.Allow)

	decision = policy.Evaluate("/pages/employer", false, "")
	assert.False(t, decision.Allow)
}

func TestEvaluateFirstMatchWins(t *testing.T) {
	policy := &session.Policy{
		Protected: []session.PolicyRule{
			{Prefix: "/pages/admin/audit", Roles: []session.Role{session.RoleAdmin}},
			{Prefix: "/pages/admin", Roles: []session.Role{session.RoleAdmin, session.RoleEmployer}},
		},
	}

	decision := policy.Evaluate("/pages/admin/audit/log", true, session.RoleEmployer)
	assert.False(t, decision.Allow, "the more specific first entry decides")
}

func TestEvaluateTokenWithoutRoleCookie(t *testing.T) {
	policy := session.DefaultPolicy()

	// a token whose role cookie is missing cannot prove a mismatch
	decision := policy.Evaluate("/pages/employer/dashboard", true, "")
	assert.True(t, decision.Allow)
}
