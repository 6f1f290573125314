package auth

import (
	"github.com/goliatone/go-router"
)

// UserResponse is the JSON shape for account records.
type UserResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func newUserResponse(user *User) UserResponse {
	return UserResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.RoleNames(),
	}
}

// RegisterUserRoutes mounts the account admin endpoints behind the given
// middleware chain, normally the JWT guard, so every handler can rely on
// claims being present.
func RegisterUserRoutes[T any](app router.Router[T], protected []router.MiddlewareFunc, opts ...UsersControllerOption) {
	controller := NewUsersController(opts...)

	app.Get("/api/users", controller.ListUsers, protected...).SetName("users.list")
	app.Get("/api/users/me", controller.CurrentUser, protected...).SetName("users.me")
	app.Get("/api/users/:id", controller.ShowUser, protected...).SetName("users.show")
	app.Delete("/api/users/:id", controller.DeleteUser, protected...).SetName("users.delete")
}

type UsersController struct {
	Logger       Logger
	Repo         RepositoryManager
	Guard        Guard
	ContextKey   string
	ErrorHandler func(router.Context, error) error
}

type UsersControllerOption func(*UsersController) *UsersController

func WithUsersLogger(logger Logger) UsersControllerOption {
	return func(c *UsersController) *UsersController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithUsersRepository(repo RepositoryManager) UsersControllerOption {
	return func(c *UsersController) *UsersController {
		c.Repo = repo
		return c
	}
}

func WithUsersContextKey(key string) UsersControllerOption {
	return func(c *UsersController) *UsersController {
		if key != "" {
			c.ContextKey = key
		}
		return c
	}
}

func WithUsersErrorHandler(handler func(router.Context, error) error) UsersControllerOption {
	return func(c *UsersController) *UsersController {
		if handler != nil {
			c.ErrorHandler = handler
		}
		return c
	}
}

func NewUsersController(opts ...UsersControllerOption) *UsersController {
	c := &UsersController{
		Logger:     defLogger{},
		ContextKey: "user",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in users controller...")
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = HTTPErrorHandler(c.Logger)
	}

	return c
}

func (a *UsersController) claims(ctx router.Context) (AuthClaims, error) {
	claims, ok := GetRouterClaims(ctx, a.ContextKey)
	if !ok {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// ListUsers returns every account, admin only.
func (a *UsersController) ListUsers(ctx router.Context) error {
	claims, err := a.claims(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Guard.Authorize(claims.UserID(), claims.Roles(), []string{RoleAdmin}, ""); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	users, err := a.Repo.Users().ListWithRoles(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, newUserResponse(user))
	}

	return ctx.JSON(router.StatusOK, out)
}

// CurrentUser returns the account behind the bearer token.
func (a *UsersController) CurrentUser(ctx router.Context) error {
	claims, err := a.claims(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.lookup(ctx, claims.UserID())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, newUserResponse(user))
}

// ShowUser returns a single account, admins or the account owner.
func (a *UsersController) ShowUser(ctx router.Context) error {
	claims, err := a.claims(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	id := ctx.Param("id")

	if err := a.Guard.Authorize(claims.UserID(), claims.Roles(), []string{RoleAdmin}, id); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	user, err := a.lookup(ctx, id)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, newUserResponse(user))
}

// DeleteUser removes an account, admin only.
func (a *UsersController) DeleteUser(ctx router.Context) error {
	claims, err := a.claims(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := a.Guard.Authorize(claims.UserID(), claims.Roles(), []string{RoleAdmin}, ""); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	uid, err := ParseUserID(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, ErrUserNotFound)
	}

	if err := a.Repo.Users().DeleteByID(ctx.Context(), uid); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, MessageResponse{Message: "User deleted"})
}

func (a *UsersController) lookup(ctx router.Context, id string) (*User, error) {
	uid, err := ParseUserID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user, err := a.Repo.Users().GetWithRoles(ctx.Context(), uid)
	if err != nil {
		return nil, err
	}

	return user, nil
}
