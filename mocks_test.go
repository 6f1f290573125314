package auth_test

import (
	"context"
	"sync"
	"time"

	auth "github.com/citadelle/go-auth-api"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// TestIdentity implements auth.Identity
type TestIdentity struct {
	id       string
	username string
	email    string
	roles    []string
}

func (t TestIdentity) ID() string       { return t.id }
func (t TestIdentity) Username() string { return t.username }
func (t TestIdentity) Email() string    { return t.email }
func (t TestIdentity) Roles() []string  { return t.roles }

// testConfig implements auth.Config
type testConfig struct {
	signingKey      string
	tokenExpiration int
	resetExpiration int
	issuer          string
	audience        []string
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey:      "test-signing-key",
		tokenExpiration: 1,
		resetExpiration: 24,
		issuer:          "test-issuer",
		audience:        []string{"test-audience"},
	}
}

func (c testConfig) GetSigningKey() string        { return c.signingKey }
func (c testConfig) GetTokenExpiration() int      { return c.tokenExpiration }
func (c testConfig) GetResetTokenExpiration() int { return c.resetExpiration }
func (c testConfig) GetIssuer() string            { return c.issuer }
func (c testConfig) GetAudience() []string        { return c.audience }
func (c testConfig) GetBaseURL() string           { return "http://localhost:8080" }
func (c testConfig) GetContextKey() string        { return "user" }
func (c testConfig) GetAuthScheme() string        { return "Bearer" }
func (c testConfig) GetTokenLookup() string       { return "header:Authorization" }

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, username, password string) (auth.Identity, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(auth.Identity), args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByID(ctx context.Context, id string) (auth.Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(auth.Identity), args.Error(1)
}

// MockUserLookup implements auth.UserLookup
type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockUserLookup) GetWithRoles(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

// capturingNotifier records sends, optionally failing them.
type capturingNotifier struct {
	mu            sync.Mutex
	resets        []resetNotification
	confirmations []string
	failWith      error
}

type resetNotification struct {
	Email string
	Token string
}

func (n *capturingNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.resets = append(n.resets, resetNotification{Email: email, Token: token})
	return nil
}

func (n *capturingNotifier) SendPasswordResetConfirmation(_ context.Context, email string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failWith != nil {
		return n.failWith
	}
	n.confirmations = append(n.confirmations, email)
	return nil
}

func (n *capturingNotifier) Resets() []resetNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]resetNotification, len(n.resets))
	copy(out, n.resets)
	return out
}

func (n *capturingNotifier) Confirmations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.confirmations))
	copy(out, n.confirmations)
	return out
}

// memStager is an in-memory ResetTokenStager with the same single-use
// conditional-update semantics as the SQL store.
type memStager struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemStager(users ...*auth.User) *memStager {
	s := &memStager{users: map[string]*auth.User{}}
	for _, u := range users {
		s.users[u.ID.String()] = u
	}
	return s
}

func (s *memStager) GetByResetToken(_ context.Context, token string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			return u, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (s *memStager) StageResetToken(_ context.Context, userID string, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return auth.ErrUserNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (s *memStager) ConsumeResetToken(_ context.Context, token, passwordHash string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ResetToken != nil && *u.ResetToken == token {
			u.PasswordHash = passwordHash
			u.ResetToken = nil
			u.ResetTokenExpiresAt = nil
			return u, nil
		}
	}
	return nil, auth.ErrResetTokenInvalid
}
