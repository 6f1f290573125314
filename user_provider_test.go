package auth_test

import (
	"context"
	"testing"

	auth "github.com/citadelle/go-auth-api"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVerifyIdentity(t *testing.T) {
	ctx := context.Background()

	password := "correct horse battery staple"
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	userID := uuid.New()
	user := &auth.User{
		ID:           userID,
		Username:     "pepe",
		Email:        "pepe@example.com",
		PasswordHash: hash,
		Roles:        []*auth.Role{{ID: 1, Name: auth.RoleUser}},
	}

	store := new(MockUserLookup)
	store.On("GetByUsername", ctx, "pepe").Return(user, nil)
	store.On("GetByUsername", ctx, "nobody").Return(nil, repository.NewRecordNotFound())

	provider := auth.NewUserProvider(store)

	t.Run("valid credentials", func(t *testing.T) {
		identity, err := provider.VerifyIdentity(ctx, "pepe", password)
		require.NoError(t, err)

		assert.Equal(t, userID.String(), identity.ID())
		assert.Equal(t, "pepe", identity.Username())
		assert.Equal(t, "pepe@example.com", identity.Email())
		assert.Equal(t, []string{"user"}, identity.Roles())
	})

	t.Run("wrong password", func(t *testing.T) {
		identity, err := provider.VerifyIdentity(ctx, "pepe", "wrong")
		assert.Nil(t, identity)
		assert.Error(t, err)
	})

	t.Run("unknown username", func(t *testing.T) {
		identity, err := provider.VerifyIdentity(ctx, "nobody", password)
		assert.Nil(t, identity)
		assert.Error(t, err)
	})

	t.Run("unknown username and wrong password fail identically", func(t *testing.T) {
		_, unknownErr := provider.VerifyIdentity(ctx, "nobody", password)
		_, wrongErr := provider.VerifyIdentity(ctx, "pepe", "wrong")

		// byte identical failures, nothing to enumerate accounts with
		assert.Equal(t, unknownErr, wrongErr)
		assert.EqualError(t, unknownErr, wrongErr.Error())
	})
}

func TestFindIdentityByID(t *testing.T) {
	ctx := context.Background()

	userID := uuid.New()
	user := &auth.User{
		ID:       userID,
		Username: "pepe",
		Email:    "pepe@example.com",
		Roles:    []*auth.Role{{ID: 2, Name: auth.RoleAdmin}},
	}

	store := new(MockUserLookup)
	store.On("GetWithRoles", ctx, userID).Return(user, nil)
	store.On("GetWithRoles", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil, repository.NewRecordNotFound())

	provider := auth.NewUserProvider(store)

	t.Run("found", func(t *testing.T) {
		identity, err := provider.FindIdentityByID(ctx, userID.String())
		require.NoError(t, err)
		assert.Equal(t, userID.String(), identity.ID())
		assert.Equal(t, []string{"admin"}, identity.Roles())
	})

	t.Run("unknown id", func(t *testing.T) {
		identity, err := provider.FindIdentityByID(ctx, uuid.NewString())
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		identity, err := provider.FindIdentityByID(ctx, "not-a-uuid")
		assert.Nil(t, identity)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}
