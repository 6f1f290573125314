package auth_test

import (
	"testing"
	"time"

	auth "github.com/citadelle/go-auth-api"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(cfg testConfig) *auth.TokenServiceImpl {
	return auth.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		nil,
	)
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	cfg := newTestConfig()
	ts := newTestTokenService(cfg)

	identity := TestIdentity{
		id:       "8a569a54-e2a1-4a2e-bd7c-2f1e1a79e1ab",
		username: "pepe",
		email:    "pepe@example.com",
		roles:    []string{"user", "admin"},
	}

	token, err := ts.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, identity.id, claims.Subject())
	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, []string{"user", "admin"}, claims.Roles())
	assert.True(t, claims.HasRole("admin"))
	assert.False(t, claims.HasRole("superuser"))
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expires(), time.Minute)
}

func TestTokenServiceGenerateNilIdentity(t *testing.T) {
	ts := newTestTokenService(newTestConfig())

	token, err := ts.Generate(nil)
	assert.Error(t, err)
	assert.Empty(t, token)
}

func TestTokenServiceValidateExpired(t *testing.T) {
	cfg := newTestConfig()

	issuedAt := time.Now()
	mint := newTestTokenService(cfg)
	mint.WithClock(func() time.Time { return issuedAt })

	token, err := mint.Generate(TestIdentity{id: "user-1", roles: []string{"user"}})
	require.NoError(t, err)

	// validate with a clock past the one hour expiry
	check := newTestTokenService(cfg)
	check.WithClock(func() time.Time { return issuedAt.Add(time.Hour + time.Second) })

	claims, err := check.Validate(token)
	assert.Nil(t, claims)
	require.Error(t, err)
	assert.True(t, auth.IsTokenExpiredError(err))

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, "TOKEN_EXPIRED", richErr.TextCode)
}

func TestTokenServiceValidateWrongKey(t *testing.T) {
	cfg := newTestConfig()
	mint := newTestTokenService(cfg)

	token, err := mint.Generate(TestIdentity{id: "user-1", roles: []string{"user"}})
	require.NoError(t, err)

	other := cfg
	other.signingKey = "a-different-signing-key"
	check := newTestTokenService(other)

	claims, err := check.Validate(token)
	assert.Nil(t, claims)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, "TOKEN_SIGNATURE_INVALID", richErr.TextCode)
}

func TestTokenServiceValidateTampered(t *testing.T) {
	cfg := newTestConfig()
	ts := newTestTokenService(cfg)

	token, err := ts.Generate(TestIdentity{id: "user-1", roles: []string{"user"}})
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "AAAA"

	_, err = ts.Validate(tampered)
	require.Error(t, err)
}

func TestTokenServiceValidateGarbage(t *testing.T) {
	ts := newTestTokenService(newTestConfig())

	claims, err := ts.Validate("not.a.token")
	assert.Nil(t, claims)
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
}

func TestTokenServiceValidateWrongIssuer(t *testing.T) {
	cfg := newTestConfig()
	mint := newTestTokenService(cfg)

	token, err := mint.Generate(TestIdentity{id: "user-1"})
	require.NoError(t, err)

	other := cfg
	other.issuer = "someone-else"
	check := newTestTokenService(other)

	_, err = check.Validate(token)
	require.Error(t, err)
}
