package session

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// AuthControllerRoutes holds the route templates the controller registers.
// Role-scoped routes carry a :role parameter matched against the closed role
// set.
type AuthControllerRoutes struct {
	Login                string
	Register             string
	Logout               string
	VerificationConfirm  string
	VerificationResend   string
	PasswordResetSend    string
	PasswordResetConfirm string
	PasswordReset        string
}

// AuthController is the HTTP surface of the core: it parses submissions,
// validates them, drives the orchestrator and the identity client, and
// writes the credential cookies the request-time gate reads on the next
// navigation.
type AuthController struct {
	Logger  Logger
	Actions *Actions
	Client  IdentityClient
	Config  *Config
	Routes  *AuthControllerRoutes
}

// AuthControllerOption configures the controller.
type AuthControllerOption func(*AuthController) *AuthController

// WithControllerLogger sets the logger.
func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerActions sets the orchestrator.
func WithControllerActions(actions *Actions) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Actions = actions
		return c
	}
}

// WithControllerClient sets the identity client used for verification and
// password-reset passthrough calls.
func WithControllerClient(client IdentityClient) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Client = client
		return c
	}
}

// WithControllerConfig sets the cookie configuration.
func WithControllerConfig(cfg *Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

// NewAuthController builds the controller. Actions and Client are required.
func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Config: DefaultConfig(),
		Routes: &AuthControllerRoutes{
			Login:                "/auth/:role/login",
			Register:             "/auth/:role/register",
			Logout:               "/auth/logout",
			VerificationConfirm:  "/auth/:role/verification/confirm",
			VerificationResend:   "/auth/:role/verification/resend",
			PasswordResetSend:    "/auth/:role/password-reset/send",
			PasswordResetConfirm: "/auth/:role/password-reset/confirm",
			PasswordReset:        "/auth/:role/password-reset",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Actions == nil {
		panic("Missing Actions in auth controller...")
	}

	if c.Client == nil {
		panic("Missing IdentityClient in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the controller on the app.
func RegisterAuthRoutes(app *fiber.App, controller *AuthController) {
	app.Post(controller.Routes.Login, controller.LoginPost).Name("sign-in.post")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).Name("register.post")
	app.Post(controller.Routes.Logout, controller.LogOut).Name("sign-out.post")

	app.Post(controller.Routes.VerificationConfirm, controller.VerificationConfirm).Name("verify.confirm")
	app.Post(controller.Routes.VerificationResend, controller.VerificationResend).Name("verify.resend")

	app.Post(controller.Routes.PasswordResetSend, controller.PasswordResetSend).Name("pwd-reset-send.post")
	app.Post(controller.Routes.PasswordResetConfirm, controller.PasswordResetConfirm).Name("pwd-reset-confirm.post")
	app.Post(controller.Routes.PasswordReset, controller.PasswordResetExecute).Name("pwd-reset-do.post")
}

// LoginRequest is the credential submission payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetEmail implements LoginPayload.
func (r LoginRequest) GetEmail() string { return r.Email }

// GetPassword implements LoginPayload.
func (r LoginRequest) GetPassword() string { return r.Password }

// Validate checks the payload shape before any network call.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegisterRequest is the registration submission payload.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone_number"`
	CompanyName string `json:"company_name"`
}

// Validate checks the payload shape before any network call.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 0)),
	)
}

// CodePayload is an email plus optional OTP code.
type CodePayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate checks the email; the code's 6-digit shape is the verification
// flow's concern.
func (p CodePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

// ResetPasswordPayload finalizes a password reset with a single-use token.
type ResetPasswordPayload struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

// Validate checks the payload shape.
func (p ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ResetToken, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, validation.Length(8, 0)),
	)
}

// LoginPost authenticates a principal and writes their credential cookies.
func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	role, ok := ParseRole(c.Params("role"))
	if !ok {
		return a.renderError(c, ErrInvalidRole)
	}

	req := LoginRequest{}
	if err := c.BodyParser(&req); err != nil {
		return a.badRequest(c, "could not parse login payload")
	}
	if err := req.Validate(); err != nil {
		return a.validationError(c, err)
	}

	res, err := a.Actions.LoginAs(c.UserContext(), role, req)
	if err != nil {
		a.Logger.Info("login rejected", "role", role, "error", err)
		return a.renderError(c, err)
	}

	store := NewCookieStore(c, a.Config.CookieOptions()...)
	if err := store.Set(c.UserContext(), role, res.Credentials()); err != nil {
		a.Logger.Error("failed to write credential cookies", "role", role, "error", err)
	}

	return c.JSON(fiber.Map{"user": res.User})
}

// RegistrationCreate registers a principal. When the identity service
// requires email verification no session is created and no cookie is
// written.
func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	role, ok := ParseRole(c.Params("role"))
	if !ok {
		return a.renderError(c, ErrInvalidRole)
	}

	req := RegisterRequest{}
	if err := c.BodyParser(&req); err != nil {
		return a.badRequest(c, "could not parse registration payload")
	}
	if err := req.Validate(); err != nil {
		return a.validationError(c, err)
	}

	outcome, err := a.Actions.RegisterAs(c.UserContext(), role, RegistrationData{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		a.Logger.Info("registration rejected", "role", role, "error", err)
		return a.renderError(c, err)
	}

	if outcome.Auth != nil {
		store := NewCookieStore(c, a.Config.CookieOptions()...)
		if err := store.Set(c.UserContext(), role, outcome.Auth.Credentials()); err != nil {
			a.Logger.Error("failed to write credential cookies", "role", role, "error", err)
		}
		return c.JSON(fiber.Map{"user": outcome.Auth.User})
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"requires_verification": true,
		"message":               outcome.Message,
	})
}

// LogOut fans out best-effort server-side logout and always clears the
// local cookies.
func (a *AuthController) LogOut(c *fiber.Ctx) error {
	a.Actions.LogoutAll(c.UserContext())

	store := NewCookieStore(c, a.Config.CookieOptions()...)
	if err := store.ClearAll(c.UserContext()); err != nil {
		a.Logger.Error("failed to clear credential cookies", "error", err)
	}

	return c.JSON(fiber.Map{"ok": true})
}

// VerificationConfirm confirms an emailed OTP code.
func (a *AuthController) VerificationConfirm(c *fiber.Ctx) error {
	role, ok := ParseRole(c.Params("role"))
	if !ok {
		return a.renderError(c, ErrInvalidRole)
	}

	payload := CodePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.badRequest(c, "could not parse verification payload")
	}
	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}
	if !isSixDigitCode(payload.Code) {
		return a.renderError(c, ErrMalformedCode)
	}

	if err := a.Client.ConfirmVerificationCode(c.UserContext(), role, payload.Email, payload.Code); err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(fiber.Map{"verified": true})
}

// VerificationResend asks for a fresh verification code.
func (a *AuthController) VerificationResend(c *fiber.Ctx) error {
	role, ok := ParseRole(c.Params("role"))
	if !ok {
		return a.renderError(c, ErrInvalidRole)
	}

	payload := CodePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.badRequest(c, "could not parse resend payload")
	}
	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	if err := a.Client.SendVerificationCode(c.UserContext(), role, payload.Email); err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(fiber.Map{"sent": true})
}

// PasswordResetSend asks for a password reset code.
func (a *AuthController) PasswordResetSend(c *fiber.Ctx) error {
	role, ok := ParseRole(c.Params("role"))
	if !ok {
		return a.renderError(c, ErrInvalidRole)
	}

	payload := CodePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.badRequest(c, "could not parse reset payload")
	}
	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	if err := a.Client.SendPasswordResetCode(c.UserContext(), role, payload.Email); err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(fiber.Map{"sent": true})
}

// PasswordResetConfirm confirms a reset code. A confirmation that comes back
// without a reset token is a failure: there is no way to finish the flow
// with an empty token.
func (a *AuthController) PasswordResetConfirm(c *fiber.Ctx) error {
	role, ok := ParseRole(c.Params("role"))
	if !ok {
		return a.renderError(c, ErrInvalidRole)
	}

	payload := CodePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.badRequest(c, "could not parse reset payload")
	}
	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}
	if !isSixDigitCode(payload.Code) {
		return a.renderError(c, ErrMalformedCode)
	}

	resetToken, err := a.Client.ConfirmPasswordResetCode(c.UserContext(), role, payload.Email, payload.Code)
	if err != nil {
		return a.renderError(c, err)
	}
	if resetToken == "" {
		return a.renderError(c, ErrMissingResetToken)
	}

	return c.JSON(fiber.Map{"reset_token": resetToken})
}

// PasswordResetExecute sets the new password using the single-use reset
// token issued by PasswordResetConfirm.
func (a *AuthController) PasswordResetExecute(c *fiber.Ctx) error {
	role, ok := ParseRole(c.Params("role"))
	if !ok {
		return a.renderError(c, ErrInvalidRole)
	}

	payload := ResetPasswordPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return a.badRequest(c, "could not parse reset payload")
	}
	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	if err := a.Client.ResetPassword(c.UserContext(), role, payload.ResetToken, payload.NewPassword); err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(fiber.Map{"reset": true})
}

func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	a.Logger.Info(
		"Auth controller error",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := richErr.Code
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}

	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	})
}

func (a *AuthController) badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{"message": msg},
	})
}

func (a *AuthController) validationError(c *fiber.Ctx, err error) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{"message": err.Error(), "fields": err},
	})
}
