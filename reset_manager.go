package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// resetTokenBytes yields 256 bits of entropy per token, comfortably above
// the 128-bit floor for an unguessable credential.
const resetTokenBytes = 32

// PasswordResetManager owns the single-use recovery token lifecycle. Tokens
// are opaque random strings with an absolute expiry; expiry is only ever
// evaluated lazily at consumption, never swept.
type PasswordResetManager struct {
	store  ResetTokenStager
	ttl    time.Duration
	logger Logger
	now    func() time.Time
}

// NewPasswordResetManager creates a manager with the given TTL. A zero or
// negative TTL falls back to 24 hours.
func NewPasswordResetManager(store ResetTokenStager, ttl time.Duration) *PasswordResetManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PasswordResetManager{
		store:  store,
		ttl:    ttl,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (m *PasswordResetManager) WithLogger(logger Logger) *PasswordResetManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithClock overrides the time source, used to exercise expiry behavior.
func (m *PasswordResetManager) WithClock(now func() time.Time) *PasswordResetManager {
	if now != nil {
		m.now = now
	}
	return m
}

// Create generates a fresh token for the user and stages it with one atomic
// update. A prior pending token is silently replaced, which is what keeps a
// user at one active reset token: the stale token will no longer match any
// row at consumption time.
func (m *PasswordResetManager) Create(ctx context.Context, userID string) (string, error) {
	token, err := newResetToken()
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate reset token")
	}

	expiresAt := m.now().Add(m.ttl)
	if err := m.store.StageResetToken(ctx, userID, token, expiresAt); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to stage reset token")
	}

	return token, nil
}

// Consume redeems a token exactly once. The lookup decides between the two
// failure modes; the conditional update closes the race window between the
// lookup and the write. The loser of a race observes zero updated rows and
// reports ErrResetTokenInvalid, exactly as if the token never existed.
func (m *PasswordResetManager) Consume(ctx context.Context, token, newPasswordHash string) (*User, error) {
	user, err := m.store.GetByResetToken(ctx, token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			m.logger.Info("reset token rejected", "reason", "absent")
			return nil, ErrResetTokenInvalid
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up reset token")
	}

	pending, ok := user.PendingReset()
	if !ok {
		m.logger.Info("reset token rejected", "reason", "absent")
		return nil, ErrResetTokenInvalid
	}

	// Lazy expiry: the token stays in place so retries keep failing the same
	// way until a later Create overwrites it.
	if !pending.ExpiresAt.After(m.now()) {
		m.logger.Info("reset token rejected", "reason", "expired", "user_id", user.ID.String())
		return nil, ErrResetTokenExpired
	}

	updated, err := m.store.ConsumeResetToken(ctx, token, newPasswordHash)
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			m.logger.Info("reset token rejected", "reason", "lost-consume-race", "user_id", user.ID.String())
			return nil, ErrResetTokenInvalid
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to consume reset token")
	}

	return updated, nil
}

func newResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
