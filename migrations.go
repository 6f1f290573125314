package auth

import (
	"context"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type appliedMigration struct {
	bun.BaseModel `bun:"table:migrations,alias:mig"`

	Name string `bun:"name,pk"`
}

// RunMigrations applies every *.up.sql file in fsys in lexical order, once.
// Applied names are tracked in a migrations table so restarts are safe.
func RunMigrations(ctx context.Context, db *bun.DB, fsys fs.FS, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	if _, err := db.NewCreateTable().
		Model((*appliedMigration)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create migrations table")
	}

	names := []string{}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".up.sql") {
			names = append(names, path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to list migration files")
	}

	sort.Strings(names)

	for _, name := range names {
		exists, err := db.NewSelect().
			Model((*appliedMigration)(nil)).
			Where("?TableAlias.name = ?", name).
			Exists(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to check migration state")
		}

		if exists {
			continue
		}

		blob, err := fs.ReadFile(fsys, name)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to read migration file").
				WithMetadata(map[string]any{"file": name})
		}

		err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, stmt := range splitStatements(string(blob)) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}

			_, err := tx.NewInsert().
				Model(&appliedMigration{Name: name}).
				Exec(ctx)
			return err
		})
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "migration failed").
				WithMetadata(map[string]any{"file": name})
		}

		logger.Info("applied migration %s", name)
	}

	return nil
}

func splitStatements(blob string) []string {
	out := []string{}
	for _, stmt := range strings.Split(blob, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
