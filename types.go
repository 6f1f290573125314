package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Roles() []string
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, Identity, error)
	Refresh(ctx context.Context, rawToken string) (string, Identity, error)
}

// Config holds auth options. It is constructed once at process start and
// never mutated afterwards.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetResetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
	GetBaseURL() string
	GetContextKey() string
	GetAuthScheme() string
	GetTokenLookup() string
}

// IdentityProvider ensures we have a store to retrieve auth identities
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, username, password string) (Identity, error)
	FindIdentityByID(ctx context.Context, id string) (Identity, error)
}

// TokenService mints and validates bearer tokens
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// Notifier delivers account messages. Implementations are best-effort; the
// orchestrators never let a send failure change an already committed result.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
	SendPasswordResetConfirmation(ctx context.Context, email string) error
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// ResetTokenStager is the slice of the users store that the reset manager
// needs: both operations are single atomic statements against the store.
type ResetTokenStager interface {
	GetByResetToken(ctx context.Context, token string) (*User, error)
	StageResetToken(ctx context.Context, userID string, token string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, token, passwordHash string) (*User, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
