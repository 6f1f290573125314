package auth

import (
	"context"

	"github.com/citadelle/go-auth-api/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// tokenValidatorAdapter bridges TokenService into the middleware's local
// validator interface.
type tokenValidatorAdapter struct {
	ts TokenService
}

func (a tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ProtectedRoute guards a route group with bearer token validation. Claims
// end up in the router context under cfg.GetContextKey() and in the standard
// context for downstream handlers.
func ProtectedRoute(cfg Config, ts TokenService, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return protectedRoute(cfg, ts, errorHandler, "")
}

// ProtectedRouteWithRole additionally requires an exact role on the token.
func ProtectedRouteWithRole(cfg Config, ts TokenService, errorHandler func(router.Context, error) error, role RoleName) router.MiddlewareFunc {
	return protectedRoute(cfg, ts, errorHandler, role)
}

func protectedRoute(cfg Config, ts TokenService, errorHandler func(router.Context, error) error, role RoleName) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler:   errorHandler,
			TokenValidator: tokenValidatorAdapter{ts: ts},
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
			RequiredRole:   role,
			ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
				if ac, ok := claims.(AuthClaims); ok {
					return WithClaimsContext(c, ac)
				}
				return c
			},
		})(hf)
	}
}

// AuthErrorHandler normalizes middleware failures into the rich token errors
// before handing them to the JSON error writer.
func AuthErrorHandler(logger Logger) func(router.Context, error) error {
	if logger == nil {
		logger = defLogger{}
	}

	writeErr := HTTPErrorHandler(logger)

	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		return writeErr(ctx, richErr)
	}
}
