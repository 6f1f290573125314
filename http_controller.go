package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts the authentication endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Signin, controller.SigninPost).
		SetName("auth.signin")

	app.Post(controller.Routes.Signup, controller.SignupPost).
		SetName("auth.signup")

	app.Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("auth.forgot-password")

	app.Post(controller.Routes.ResetPassword, controller.ResetPasswordPost).
		SetName("auth.reset-password")
}

type AuthControllerRoutes struct {
	Signin         string
	Signup         string
	Refresh        string
	ForgotPassword string
	ResetPassword  string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       Authenticator
	Resets       *PasswordResetManager
	Notifier     Notifier
	AuthScheme   string
	ErrorHandler func(router.Context, error) error
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepository(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuthenticator(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerResetManager(resets *PasswordResetManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Resets = resets
		return c
	}
}

func WithControllerNotifier(notifier Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = notifier
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func WithControllerErrorHandler(handler func(router.Context, error) error) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if handler != nil {
			c.ErrorHandler = handler
		}
		return c
	}
}

func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		AuthScheme: "Bearer",
		Routes: &AuthControllerRoutes{
			Signin:         "/api/auth/signin",
			Signup:         "/api/auth/signup",
			Refresh:        "/api/auth/refresh",
			ForgotPassword: "/api/auth/forgot-password",
			ResetPassword:  "/api/auth/reset-password",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Resets == nil {
		panic("Missing PasswordResetManager in auth controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = HTTPErrorHandler(c.Logger)
	}

	return c
}

// SigninRequest payload
type SigninRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SigninRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) SigninPost(ctx router.Context) error {
	payload := new(SigninRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToParseBody)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH SIGNIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("==========================")
	}

	token, identity, err := a.Auther.Login(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, newJwtResponse(token, identity))
}

// SignupRequest payload
type SignupRequest struct {
	Username string   `form:"username" json:"username"`
	Email    string   `form:"email" json:"email"`
	Password string   `form:"password" json:"password"`
	Roles    []string `form:"roles" json:"roles"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 20)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 50), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 40)),
	)
}

func (a *AuthController) SignupPost(ctx router.Context) error {
	payload := new(SignupRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToParseBody)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	msg := RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		Roles:    payload.Roles,
	}

	registerUser := NewRegisterUserHandler(a.Repo).WithLogger(a.Logger)
	if err := registerUser.Execute(ctx.Context(), msg); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, MessageResponse{
		Message: "User registered successfully!",
	})
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	raw := BearerFromHeader(ctx, a.AuthScheme)
	if raw == "" {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	token, identity, err := a.Auther.Refresh(ctx.Context(), raw)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, newJwtResponse(token, identity))
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToParseBody)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	initReset := NewInitializePasswordResetHandler(a.Repo, a.Resets, a.Notifier).
		WithLogger(a.Logger)
	if err := initReset.Execute(ctx.Context(), InitializePasswordResetMessage{
		Email: payload.Email,
	}); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	// same body whether or not the email belongs to an account
	return ctx.JSON(router.StatusOK, MessageResponse{
		Message: "If that email address is registered you will receive a password reset link",
	})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Token    string `form:"token" json:"token"`
	Password string `form:"newPassword" json:"newPassword"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 40)),
	)
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	payload := new(ResetPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, ErrUnableToParseBody)
	}

	if err := payload.Validate(); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	finalizeReset := NewFinalizePasswordResetHandler(a.Resets, a.Notifier).
		WithLogger(a.Logger)
	if err := finalizeReset.Execute(ctx.Context(), FinalizePasswordResetMessage{
		Token:    payload.Token,
		Password: payload.Password,
	}); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, MessageResponse{
		Message: "Password has been reset successfully",
	})
}
