package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeResetTokenSQL is the single conditional update that makes reset
// tokens single-use. The WHERE clause re-checks the token, so when two
// consumers race exactly one statement matches a row; the loser gets zero
// rows back and must be treated as if the token never existed.
var ConsumeResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"reset_token" = NULL,
	"reset_token_expires_at" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"usr"."reset_token" = ?
RETURNING *;`

type Users interface {
	repository.Repository[*User]

	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetWithRoles(ctx context.Context, id uuid.UUID) (*User, error)
	ListWithRoles(ctx context.Context) ([]*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	Register(ctx context.Context, user *User, roles []RoleName) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User, roles []RoleName) (*User, error)

	GetByResetToken(ctx context.Context, token string) (*User, error)
	StageResetToken(ctx context.Context, userID string, token string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, token, passwordHash string) (*User, error)

	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db    *bun.DB
	roles Roles
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
	_ ResetTokenStager             = (*users)(nil)
)

func NewUsersRepository(db *bun.DB, roles Roles) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
		roles:      roles,
	}
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.getByColumn(ctx, "username", username)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getByColumn(ctx, "email", email)
}

// GetByResetToken loads the user a pending reset token belongs to. Expiry is
// not part of the lookup: the manager checks it lazily so an expired token
// fails the same way on every retry until it is overwritten.
func (a *users) GetByResetToken(ctx context.Context, token string) (*User, error) {
	return a.getByColumn(ctx, "reset_token", token)
}

func (a *users) getByColumn(ctx context.Context, column, value string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Relation("Roles").
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"column": column})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetWithRoles(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.getByColumn(ctx, "id", id.String())
}

func (a *users) ListWithRoles(ctx context.Context) ([]*User, error) {
	var records []*User
	err := a.db.NewSelect().
		Model(&records).
		Relation("Roles").
		Order("usr.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", username).
		Exists(ctx)
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
}

func (a *users) Register(ctx context.Context, user *User, roles []RoleName) (*User, error) {
	return a.RegisterTx(ctx, a.db, user, roles)
}

// RegisterTx persists a new user and its role joins. The unique indexes on
// username and email are the final backstop against concurrent signups that
// both passed the existence pre-check.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User, roles []RoleName) (*User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, err
	}

	roleRecords, err := a.roles.GetByNamesTx(ctx, tx, roles)
	if err != nil {
		return nil, err
	}

	links := make([]*UserToRole, 0, len(roleRecords))
	for _, role := range roleRecords {
		links = append(links, &UserToRole{UserID: user.ID, RoleID: role.ID})
	}

	if len(links) > 0 {
		if _, err := tx.NewInsert().Model(&links).Exec(ctx); err != nil {
			return nil, err
		}
	}

	user.Roles = roleRecords
	return user, nil
}

// StageResetToken stages a pending reset as one atomic update. Any previous
// unconsumed token for the user is overwritten, which is what invalidates it.
func (a *users) StageResetToken(ctx context.Context, userID string, token string, expiresAt time.Time) error {
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("reset_token = ?", token).
		Set("reset_token_expires_at = ?", expiresAt).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("?TableAlias.id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": userID})
	}

	return nil
}

// ConsumeResetToken runs the conditional update. A nil user with a nil error
// never happens: zero affected rows surface as ErrResetTokenInvalid.
func (a *users) ConsumeResetToken(ctx context.Context, token, passwordHash string) (*User, error) {
	res, err := a.Repository.RawTx(ctx, a.db, ConsumeResetTokenSQL, passwordHash, token)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, ErrResetTokenInvalid
	}

	return res[0], nil
}

func (a *users) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, err := a.db.NewDelete().
		Model((*UserToRole)(nil)).
		Where("user_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}

	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}
