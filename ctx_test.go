package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	session "github.com/jobstacktalentsolutions/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrincipalContextRoundTrip(t *testing.T) {
	_, ok := session.PrincipalFrom(context.Background())
	assert.False(t, ok)

	user := &session.Principal{ID: uuid.New(), Email: "a@x.com", Role: session.RoleJobSeeker}
	ctx := session.WithPrincipal(context.Background(), user)

	got, ok := session.PrincipalFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, user, got)
}

func TestClaimedRoleSetByGate(t *testing.T) {
	app := fiber.New()
	app.Use(session.RequestGate(session.DefaultPolicy()))

	var gotRole session.Role
	var gotOK bool
	app.Get("/pages/jobs", func(c *fiber.Ctx) error {
		gotRole, gotOK = session.ClaimedRole(c)
		return c.SendString("ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/pages/jobs", nil)
	req.AddCookie(&http.Cookie{Name: "employer_access_token", Value: "token-1"})
	req.AddCookie(&http.Cookie{Name: "employer_user_role", Value: "EMPLOYER"})

	_, err := app.Test(req)
	require.NoError(t, err)
	require.True(t, gotOK)
	assert.Equal(t, session.RoleEmployer, gotRole)
}

func TestClaimedRoleAbsentForAnonymous(t *testing.T) {
	app := fiber.New()
	app.Use(session.RequestGate(session.DefaultPolicy()))

	var gotOK bool
	app.Get("/pages/jobs", func(c *fiber.Ctx) error {
		_, gotOK = session.ClaimedRole(c)
		return c.SendString("ok")
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/pages/jobs", nil))
	require.NoError(t, err)
	assert.False(t, gotOK)
}
