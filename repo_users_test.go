package auth_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/citadelle/go-auth-api"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	_, repo := setupTestDB(t)

	user := registerTestUser(t, repo, "pepe", "pepe@example.com", "secret-password")
	require.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, []string{"user"}, user.RoleNames())

	t.Run("GetByUsername loads roles", func(t *testing.T) {
		got, err := repo.Users().GetByUsername(ctx, "pepe")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "pepe@example.com", got.Email)
		assert.Equal(t, []string{"user"}, got.RoleNames())
	})

	t.Run("GetByEmail", func(t *testing.T) {
		got, err := repo.Users().GetByEmail(ctx, "pepe@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("GetWithRoles", func(t *testing.T) {
		got, err := repo.Users().GetWithRoles(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "pepe", got.Username)
	})

	t.Run("unknown username is a record not found", func(t *testing.T) {
		_, err := repo.Users().GetByUsername(ctx, "nobody")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("Exists checks", func(t *testing.T) {
		taken, err := repo.Users().ExistsByUsername(ctx, "pepe")
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = repo.Users().ExistsByUsername(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, taken)

		taken, err = repo.Users().ExistsByEmail(ctx, "pepe@example.com")
		require.NoError(t, err)
		assert.True(t, taken)
	})
}

func TestUsersRegisterAdminRole(t *testing.T) {
	ctx := context.Background()
	_, repo := setupTestDB(t)

	user := registerTestUser(t, repo, "root", "root@example.com", "secret-password", "admin")
	assert.Equal(t, []string{"admin"}, user.RoleNames())

	got, err := repo.Users().GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.True(t, got.HasRole(auth.RoleAdmin))
	assert.False(t, got.HasRole(auth.RoleUser))
}

func TestUsersUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	_, repo := setupTestDB(t)

	registerTestUser(t, repo, "pepe", "pepe@example.com", "secret-password")

	_, err := repo.Users().Register(ctx, &auth.User{
		Username:     "pepe",
		Email:        "other@example.com",
		PasswordHash: "hash",
	}, []auth.RoleName{auth.RoleUser})
	require.Error(t, err)
	assert.True(t, auth.IsUniqueViolation(err))

	_, err = repo.Users().Register(ctx, &auth.User{
		Username:     "other",
		Email:        "pepe@example.com",
		PasswordHash: "hash",
	}, []auth.RoleName{auth.RoleUser})
	require.Error(t, err)
	assert.True(t, auth.IsUniqueViolation(err))
}

func TestUsersListWithRoles(t *testing.T) {
	ctx := context.Background()
	_, repo := setupTestDB(t)

	registerTestUser(t, repo, "pepe", "pepe@example.com", "secret-password")
	registerTestUser(t, repo, "root", "root@example.com", "secret-password", "admin")

	users, err := repo.Users().ListWithRoles(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestUsersResetTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	_, repo := setupTestDB(t)

	user := registerTestUser(t, repo, "pepe", "pepe@example.com", "secret-password")
	expiry := time.Now().Add(24 * time.Hour).UTC()

	require.NoError(t, repo.Users().StageResetToken(ctx, user.ID.String(), "token-1", expiry))

	t.Run("GetByResetToken", func(t *testing.T) {
		got, err := repo.Users().GetByResetToken(ctx, "token-1")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		pending, ok := got.PendingReset()
		require.True(t, ok)
		assert.Equal(t, "token-1", pending.Token)
	})

	t.Run("consume clears the pair and swaps the hash", func(t *testing.T) {
		got, err := repo.Users().ConsumeResetToken(ctx, "token-1", "new-hash")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, "new-hash", got.PasswordHash)

		_, ok := got.PendingReset()
		assert.False(t, ok)
	})

	t.Run("second consume loses", func(t *testing.T) {
		_, err := repo.Users().ConsumeResetToken(ctx, "token-1", "other-hash")
		assert.ErrorIs(t, err, auth.ErrResetTokenInvalid)
	})

	t.Run("staging for unknown user fails", func(t *testing.T) {
		err := repo.Users().StageResetToken(ctx, uuid.NewString(), "token-2", expiry)
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestUsersStageOverwritesPreviousToken(t *testing.T) {
	ctx := context.Background()
	_, repo := setupTestDB(t)

	user := registerTestUser(t, repo, "pepe", "pepe@example.com", "secret-password")
	expiry := time.Now().Add(24 * time.Hour).UTC()

	require.NoError(t, repo.Users().StageResetToken(ctx, user.ID.String(), "token-1", expiry))
	require.NoError(t, repo.Users().StageResetToken(ctx, user.ID.String(), "token-2", expiry))

	_, err := repo.Users().ConsumeResetToken(ctx, "token-1", "new-hash")
	assert.ErrorIs(t, err, auth.ErrResetTokenInvalid)

	got, err := repo.Users().ConsumeResetToken(ctx, "token-2", "new-hash")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
}

func TestUsersDeleteByID(t *testing.T) {
	ctx := context.Background()
	_, repo := setupTestDB(t)

	user := registerTestUser(t, repo, "pepe", "pepe@example.com", "secret-password")

	require.NoError(t, repo.Users().DeleteByID(ctx, user.ID))

	_, err := repo.Users().GetByUsername(ctx, "pepe")
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestRolesSeeded(t *testing.T) {
	ctx := context.Background()
	_, repo := setupTestDB(t)

	roles, err := repo.Roles().GetByNames(ctx, auth.AllRoles())
	require.NoError(t, err)
	require.Len(t, roles, 2)

	admin, err := repo.Roles().GetByName(ctx, auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, admin.Name)
}
