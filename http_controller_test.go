package session_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	session "github.com/jobstacktalentsolutions/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type controllerFixture struct {
	app     *fiber.App
	client  *MockIdentityClient
	manager *session.Manager
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	client := &MockIdentityClient{}
	store := session.NewMemoryStore()
	manager := session.NewManager(store)
	manager.Hydrate(context.Background())

	cfg := session.DefaultConfig()
	cfg.CookieSecure = false

	controller := session.NewAuthController(
		session.WithControllerActions(session.NewActions(client, manager, store)),
		session.WithControllerClient(client),
		session.WithControllerConfig(cfg),
	)

	app := fiber.New()
	session.RegisterAuthRoutes(app, controller)

	return &controllerFixture{app: app, client: client, manager: manager}
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeErrorBody(t *testing.T, resp *http.Response) (message, textCode string) {
	t.Helper()
	var body struct {
		Error struct {
			Message  string `json:"message"`
			TextCode string `json:"text_code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Message, body.Error.TextCode
}

func TestControllerLoginSetsCookies(t *testing.T) {
	f := newControllerFixture(t)
	auth := seekerAuthResult()
	f.client.On("Login", mock.Anything, session.RoleJobSeeker, "a@x.com", "password-123").
		Return(&auth, nil)

	resp := postJSON(t, f.app, "/auth/job_seeker/login", map[string]string{
		"email":    "a@x.com",
		"password": "password-123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	access := cookieByName(t, resp, "job_seeker_access_token")
	require.NotNil(t, access)
	assert.Equal(t, "access-token-1", access.Value)

	// the orchestrator attached the session too
	assert.True(t, f.manager.IsAuthenticated(context.Background()))
}

func TestControllerLoginRejectionSurfacesTypedError(t *testing.T) {
	f := newControllerFixture(t)
	f.client.On("Login", mock.Anything, session.RoleJobSeeker, "a@x.com", "wrong-password").
		Return(nil, session.ErrInvalidCredentials)

	resp := postJSON(t, f.app, "/auth/job_seeker/login", map[string]string{
		"email":    "a@x.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	message, textCode := decodeErrorBody(t, resp)
	assert.Equal(t, "invalid email or password", message)
	assert.Equal(t, "INVALID_CREDENTIALS", textCode)
	assert.Nil(t, cookieByName(t, resp, "job_seeker_access_token"))
}

func TestControllerLoginUnknownRole(t *testing.T) {
	f := newControllerFixture(t)

	resp := postJSON(t, f.app, "/auth/superuser/login", map[string]string{
		"email":    "a@x.com",
		"password": "password-123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, textCode := decodeErrorBody(t, resp)
	assert.Equal(t, "INVALID_ROLE", textCode)
	f.client.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestControllerLoginValidation(t *testing.T) {
	f := newControllerFixture(t)

	resp := postJSON(t, f.app, "/auth/job_seeker/login", map[string]string{
		"email": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	f.client.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestControllerRegisterRequiresVerification(t *testing.T) {
	f := newControllerFixture(t)
	f.client.On("Register", mock.Anything, session.RoleJobSeeker, mock.Anything).
		Return(&session.RegistrationOutcome{
			RequiresVerification: true,
			Message:              "check your email",
		}, nil)

	resp := postJSON(t, f.app, "/auth/job_seeker/register", map[string]string{
		"email":    "a@x.com",
		"password": "password-123",
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body struct {
		RequiresVerification bool   `json:"requires_verification"`
		Message              string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.RequiresVerification)
	assert.Equal(t, "check your email", body.Message)

	// no session until the email is verified
	assert.Nil(t, cookieByName(t, resp, "job_seeker_access_token"))
	assert.False(t, f.manager.IsAuthenticated(context.Background()))
}

func TestControllerRegisterWithTokensLogsIn(t *testing.T) {
	f := newControllerFixture(t)
	auth := seekerAuthResult()
	f.client.On("Register", mock.Anything, session.RoleJobSeeker, mock.Anything).
		Return(&session.RegistrationOutcome{Auth: &auth}, nil)

	resp := postJSON(t, f.app, "/auth/job_seeker/register", map[string]string{
		"email":    "a@x.com",
		"password": "password-123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, cookieByName(t, resp, "job_seeker_access_token"))
	assert.True(t, f.manager.IsAuthenticated(context.Background()))
}

func TestControllerLogoutClearsCookies(t *testing.T) {
	f := newControllerFixture(t)
	auth := seekerAuthResult()
	require.NoError(t, f.manager.Login(context.Background(), auth))
	f.client.On("Logout", mock.Anything, session.RoleJobSeeker, auth.AccessToken).Return(nil)

	resp := postJSON(t, f.app, "/auth/logout", map[string]string{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	access := cookieByName(t, resp, "job_seeker_access_token")
	require.NotNil(t, access)
	assert.Empty(t, access.Value)
	assert.False(t, f.manager.IsAuthenticated(context.Background()))
}

func TestControllerVerificationConfirmRejectsMalformedCode(t *testing.T) {
	f := newControllerFixture(t)

	resp := postJSON(t, f.app, "/auth/job_seeker/verification/confirm", map[string]string{
		"email": "a@x.com",
		"code":  "12ab56",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	message, _ := decodeErrorBody(t, resp)
	assert.Equal(t, "enter the 6-digit code sent to your email", message)
	f.client.AssertNotCalled(t, "ConfirmVerificationCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestControllerVerificationConfirm(t *testing.T) {
	f := newControllerFixture(t)
	f.client.On("ConfirmVerificationCode", mock.Anything, session.RoleEmployer, "e@x.com", "123456").Return(nil)

	resp := postJSON(t, f.app, "/auth/employer/verification/confirm", map[string]string{
		"email": "e@x.com",
		"code":  "123456",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestControllerPasswordResetConfirmMissingToken(t *testing.T) {
	f := newControllerFixture(t)
	f.client.On("ConfirmPasswordResetCode", mock.Anything, session.RoleJobSeeker, "a@x.com", "123456").
		Return("", nil)

	resp := postJSON(t, f.app, "/auth/job_seeker/password-reset/confirm", map[string]string{
		"email": "a@x.com",
		"code":  "123456",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	message, textCode := decodeErrorBody(t, resp)
	assert.Equal(t, "could not start password reset", message)
	assert.Equal(t, "MISSING_RESET_TOKEN", textCode)
}

func TestControllerPasswordResetConfirmReturnsToken(t *testing.T) {
	f := newControllerFixture(t)
	f.client.On("ConfirmPasswordResetCode", mock.Anything, session.RoleJobSeeker, "a@x.com", "654321").
		Return("reset-7", nil)

	resp := postJSON(t, f.app, "/auth/job_seeker/password-reset/confirm", map[string]string{
		"email": "a@x.com",
		"code":  "654321",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ResetToken string `json:"reset_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "reset-7", body.ResetToken)
}

func TestControllerErrorPathLogsDetails(t *testing.T) {
	client := &MockIdentityClient{}
	store := session.NewMemoryStore()
	manager := session.NewManager(store)
	manager.Hydrate(context.Background())

	recorder := &recordingLogger{}
	controller := session.NewAuthController(
		session.WithControllerActions(session.NewActions(client, manager, store)),
		session.WithControllerClient(client),
		session.WithControllerLogger(recorder),
	)

	app := fiber.New()
	session.RegisterAuthRoutes(app, controller)

	client.On("Login", mock.Anything, session.RoleJobSeeker, "a@x.com", "wrong-password").
		Return(nil, session.ErrInvalidCredentials)

	resp := postJSON(t, app, "/auth/job_seeker/login", map[string]string{
		"email":    "a@x.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	entry, ok := recorder.find("Auth controller error")
	require.True(t, ok, "every rendered error leaves a structured log entry")
	assert.Contains(t, entry.args, "invalid email or password")
	assert.Contains(t, entry.args, "details")
}

func TestControllerPasswordResetExecute(t *testing.T) {
	f := newControllerFixture(t)
	f.client.On("ResetPassword", mock.Anything, session.RoleJobSeeker, "reset-7", "new-password-1").Return(nil)

	resp := postJSON(t, f.app, "/auth/job_seeker/password-reset", map[string]string{
		"reset_token":  "reset-7",
		"new_password": "new-password-1",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	f.client.AssertExpectations(t)
}
