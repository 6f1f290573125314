package auth

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Roles reads the closed role enumeration. Role rows are seeded by the
// schema migration and are integer-keyed, so they sit outside the uuid-keyed
// generic repository; all access goes through these lookups.
type Roles interface {
	GetByName(ctx context.Context, name RoleName) (*Role, error)
	GetByNames(ctx context.Context, names []RoleName) ([]*Role, error)
	GetByNamesTx(ctx context.Context, tx bun.IDB, names []RoleName) ([]*Role, error)
}

type rolesRepo struct {
	db *bun.DB
}

var _ Roles = (*rolesRepo)(nil)

func NewRolesRepository(db *bun.DB) Roles {
	return &rolesRepo{db: db}
}

func (a *rolesRepo) GetByName(ctx context.Context, name RoleName) (*Role, error) {
	record := &Role{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"name": name})
		}
		return nil, err
	}

	return record, nil
}

func (a *rolesRepo) GetByNames(ctx context.Context, names []RoleName) ([]*Role, error) {
	return a.GetByNamesTx(ctx, a.db, names)
}

// GetByNamesTx resolves role rows for the given names and fails when any
// name is missing; signup must never persist a user with fewer roles than
// were resolved for it.
func (a *rolesRepo) GetByNamesTx(ctx context.Context, tx bun.IDB, names []RoleName) ([]*Role, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var records []*Role
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.name IN (?)", bun.In(names)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	if len(records) != len(names) {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"names": names})
	}

	return records, nil
}
