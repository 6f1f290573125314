package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username     string    `bun:"username,notnull,unique" json:"username,omitempty"`
	Email        string    `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	Roles        []*Role   `bun:"m2m:user_roles,join:User=Role" json:"roles,omitempty"`

	// The reset pair is only ever written together; use PendingReset to read
	// it and the Users store operations to mutate it.
	ResetToken          *string    `bun:"reset_token,nullzero,unique" json:"-"`
	ResetTokenExpiresAt *time.Time `bun:"reset_token_expires_at,nullzero" json:"-"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// PendingReset is the compound view of a staged password reset.
type PendingReset struct {
	Token     string
	ExpiresAt time.Time
}

// PendingReset returns the staged reset credential, if any. The columns are
// nullable independently at the SQL level, so a row where only one side is
// set reports no pending reset rather than a half-open one.
func (u *User) PendingReset() (PendingReset, bool) {
	if u == nil || u.ResetToken == nil || u.ResetTokenExpiresAt == nil {
		return PendingReset{}, false
	}
	return PendingReset{Token: *u.ResetToken, ExpiresAt: *u.ResetTokenExpiresAt}, true
}

// RoleNames returns the names of the user's roles
func (u *User) RoleNames() []string {
	if u == nil {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r != nil {
			names = append(names, r.Name)
		}
	}
	return names
}

// HasRole reports whether the user holds the named role
func (u *User) HasRole(name RoleName) bool {
	for _, r := range u.Roles {
		if r != nil && r.Name == name {
			return true
		}
	}
	return false
}

// Role is a member of the closed role enumeration. The canonical rows ship
// with the schema migration; application code never creates new roles.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`

	ID   int64    `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name RoleName `bun:"name,notnull,unique" json:"name,omitempty"`
}

// UserToRole is the m2m join row between users and roles
type UserToRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:usr_rol"`

	UserID uuid.UUID `bun:"user_id,pk,type:uuid"`
	User   *User     `bun:"rel:belongs-to,join:user_id=id"`
	RoleID int64     `bun:"role_id,pk"`
	Role   *Role     `bun:"rel:belongs-to,join:role_id=id"`
}
