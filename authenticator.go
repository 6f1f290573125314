package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Auther authenticates credentials and refreshes bearer tokens. It is the
// orchestration layer between the identity provider and the token service.
type Auther struct {
	provider     IdentityProvider
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService swaps the token service, mostly useful in tests where the
// clock needs pinning.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the credentials and mints a signed token. Unknown usernames
// and bad passwords both surface as ErrInvalidCredentials so a caller cannot
// probe for registered accounts.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			s.logger.Debug("login rejected identifier=%s", identifier)
			return "", nil, ErrInvalidCredentials
		}
		s.logger.Error("login verify identity error: %v", err)
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to verify identity")
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("login token generation error: %v", err)
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate token")
	}

	return token, identity, nil
}

// Refresh validates a live token and mints a brand new one from the current
// state of the account, so role changes since the original login take effect.
func (s *Auther) Refresh(ctx context.Context, rawToken string) (string, Identity, error) {
	claims, err := s.tokenService.Validate(rawToken)
	if err != nil {
		return "", nil, err
	}

	identity, err := s.provider.FindIdentityByID(ctx, claims.UserID())
	if err != nil {
		s.logger.Warn("refresh for unknown subject %s: %v", claims.UserID(), err)
		return "", nil, ErrUserNotFound
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("refresh token generation error: %v", err)
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate token")
	}

	return token, identity, nil
}

var _ Authenticator = (*Auther)(nil)
