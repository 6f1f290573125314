package auth_test

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	auth "github.com/citadelle/go-auth-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=private")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	t.Cleanup(func() { sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())

	migrations, err := fs.Sub(auth.GetMigrationsFS(), "data/sql/migrations")
	require.NoError(t, err)

	require.NoError(t, auth.RunMigrations(ctx, db, migrations, nil))
	// re-running must not reapply anything
	require.NoError(t, auth.RunMigrations(ctx, db, migrations, nil))

	// seeded roles applied exactly once
	var count int
	err = db.NewSelect().Table("roles").ColumnExpr("count(*)").Scan(ctx, &count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
