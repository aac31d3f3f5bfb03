package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Endpoints maps each principal kind onto its namespace of the identity
// service. One logical service, namespaced per role.
type Endpoints struct {
	BaseURL    string
	Namespaces map[Role]string
}

// DefaultEndpoints returns the conventional role namespaces.
func DefaultEndpoints(baseURL string) Endpoints {
	return Endpoints{
		BaseURL: baseURL,
		Namespaces: map[Role]string{
			RoleJobSeeker: "job-seeker",
			RoleEmployer:  "employer",
			RoleAdmin:     "admin",
		},
	}
}

func (e Endpoints) url(role Role, path string) string {
	ns, ok := e.Namespaces[role]
	if !ok {
		ns = strings.ToLower(string(role))
	}
	return strings.TrimRight(e.BaseURL, "/") + "/auth/" + ns + path
}

// Client is the stateless identity service adapter. A single generic client
// covers every principal kind through the Endpoints role mapping; no call
// retries, no local recovery, every failure surfaces as a typed error.
type Client struct {
	http      *http.Client
	endpoints Endpoints
	logger    Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClientLogger overrides the logger.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient returns an identity service client for the given endpoints.
func NewClient(endpoints Endpoints, opts ...ClientOption) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 15 * time.Second},
		endpoints: endpoints,
		logger:    defLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ IdentityClient = (*Client)(nil)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authEnvelope struct {
	User         *Principal `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
}

// Login exchanges an email/password pair for an AuthResult. A 401/403 from
// the service surfaces as ErrInvalidCredentials carrying the server message.
func (c *Client) Login(ctx context.Context, role Role, email, password string) (*AuthResult, error) {
	out := &authEnvelope{}
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.url(role, "/login"), loginRequest{
		Email:    email,
		Password: password,
	}, out, "")
	if err != nil {
		if status := statusOf(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, cloneWithMessage(ErrInvalidCredentials, messageOf(err, ErrInvalidCredentials.Message))
		}
		return nil, err
	}

	if out.User == nil || out.AccessToken == "" {
		return nil, malformedResponse("login response carried no user or token")
	}

	res := &AuthResult{
		User:         *out.User,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
	if res.User.Role == "" {
		res.User.Role = role
	}
	return res, nil
}

type registerEnvelope struct {
	User         *Principal `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	Message      string     `json:"message"`
}

// Register creates an account. When the service answers without tokens the
// outcome requires email verification and does not constitute a login.
func (c *Client) Register(ctx context.Context, role Role, data RegistrationData) (*RegistrationOutcome, error) {
	out := &registerEnvelope{}
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.url(role, "/register"), data, out, "")
	if err != nil {
		return nil, err
	}

	outcome := &RegistrationOutcome{Message: out.Message}
	if out.User != nil && out.AccessToken != "" {
		auth := &AuthResult{
			User:         *out.User,
			AccessToken:  out.AccessToken,
			RefreshToken: out.RefreshToken,
		}
		if auth.User.Role == "" {
			auth.User.Role = role
		}
		outcome.Auth = auth
		return outcome, nil
	}

	outcome.RequiresVerification = true
	return outcome, nil
}

type codeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code,omitempty"`
}

// SendVerificationCode asks the service to email a fresh OTP code.
func (c *Client) SendVerificationCode(ctx context.Context, role Role, email string) error {
	return c.doJSON(ctx, http.MethodPost, c.endpoints.url(role, "/verification/send"), codeRequest{Email: email}, nil, "")
}

// ConfirmVerificationCode confirms an emailed OTP code. Rejections surface
// as ErrInvalidOrExpiredCode.
func (c *Client) ConfirmVerificationCode(ctx context.Context, role Role, email, code string) error {
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.url(role, "/verification/confirm"), codeRequest{
		Email: email,
		Code:  code,
	}, nil, "")
	if err != nil {
		if status := statusOf(err); status >= 400 && status < 500 {
			return cloneWithMessage(ErrInvalidOrExpiredCode, messageOf(err, ErrInvalidOrExpiredCode.Message))
		}
		return err
	}
	return nil
}

// SendPasswordResetCode asks the service to email a password reset code.
func (c *Client) SendPasswordResetCode(ctx context.Context, role Role, email string) error {
	return c.doJSON(ctx, http.MethodPost, c.endpoints.url(role, "/password-reset/send"), codeRequest{Email: email}, nil, "")
}

type resetTokenEnvelope struct {
	ResetToken string `json:"reset_token"`
}

// ConfirmPasswordResetCode confirms a reset code and returns the reset token
// the service issued. The token may be empty; callers must treat an empty
// token as a failure, never as success.
func (c *Client) ConfirmPasswordResetCode(ctx context.Context, role Role, email, code string) (string, error) {
	out := &resetTokenEnvelope{}
	err := c.doJSON(ctx, http.MethodPost, c.endpoints.url(role, "/password-reset/confirm"), codeRequest{
		Email: email,
		Code:  code,
	}, out, "")
	if err != nil {
		if status := statusOf(err); status >= 400 && status < 500 {
			return "", cloneWithMessage(ErrInvalidOrExpiredCode, messageOf(err, ErrInvalidOrExpiredCode.Message))
		}
		return "", err
	}
	return out.ResetToken, nil
}

type resetPasswordRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// ResetPassword sets a new password using a single-use reset token.
func (c *Client) ResetPassword(ctx context.Context, role Role, resetToken, newPassword string) error {
	return c.doJSON(ctx, http.MethodPost, c.endpoints.url(role, "/password-reset"), resetPasswordRequest{
		ResetToken:  resetToken,
		NewPassword: newPassword,
	}, nil, "")
}

// Logout invalidates the role's server-side session, best effort.
func (c *Client) Logout(ctx context.Context, role Role, accessToken string) error {
	return c.doJSON(ctx, http.MethodPost, c.endpoints.url(role, "/logout"), nil, nil, accessToken)
}

// doJSON performs one request/response exchange. Non-2xx responses become
// typed errors carrying the flattened server message, or a generic "request
// failed" when the body is absent or unparseable.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out any, bearer string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build identity service request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("identity service unreachable", "url", url, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "identity service request failed").
			WithTextCode(TextCodeRemoteError)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("identity service rejected request", "url", url, "status", resp.StatusCode)
		if msg, ok := flattenMessage(raw); ok {
			return goerrors.New(msg, goerrors.CategoryOperation).
				WithTextCode(TextCodeRemoteError).
				WithCode(resp.StatusCode)
		}
		return goerrors.New("request failed", goerrors.CategoryOperation).
			WithTextCode(TextCodeMalformedResponse).
			WithCode(resp.StatusCode)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to decode identity service response").
			WithTextCode(TextCodeMalformedResponse)
	}
	return nil
}

// flattenMessage extracts the `message` field of an error body, joining
// array messages into a single human-readable string.
func flattenMessage(raw []byte) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var envelope struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", false
	}

	switch msg := envelope.Message.(type) {
	case string:
		if msg != "" {
			return msg, true
		}
	case []any:
		parts := make([]string, 0, len(msg))
		for _, m := range msg {
			if s, ok := m.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; "), true
		}
	}
	return "", false
}

func malformedResponse(msg string) error {
	return goerrors.New(msg, goerrors.CategoryOperation).
		WithTextCode(TextCodeMalformedResponse)
}

func statusOf(err error) int {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Code
	}
	return 0
}

func messageOf(err error, def string) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeRemoteError && richErr.Message != "" {
		return richErr.Message
	}
	return def
}
