package auth_test

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	auth "github.com/citadelle/go-auth-api"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// setupTestDB opens a private in-memory database and applies the embedded
// schema migrations.
func setupTestDB(t *testing.T) (*bun.DB, auth.RepositoryManager) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=private")
	require.NoError(t, err)
	// a single connection keeps every statement on the same in-memory db
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	migrations, err := fs.Sub(auth.GetMigrationsFS(), "data/sql/migrations")
	require.NoError(t, err)
	require.NoError(t, auth.RunMigrations(context.Background(), db, migrations, nil))

	return db, auth.NewRepositoryManager(db)
}

func registerTestUser(t *testing.T, repo auth.RepositoryManager, username, email, password string, roles ...string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Users().Register(context.Background(), &auth.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}, auth.ResolveRequestedRoles(roles))
	require.NoError(t, err)

	return user
}
