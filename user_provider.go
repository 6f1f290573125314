package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// UserLookup is the slice of the users store the provider needs
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetWithRoles(ctx context.Context, id uuid.UUID) (*User, error)
}

// UserProvider resolves identities against the users store
type UserProvider struct {
	store  UserLookup
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserLookup) *UserProvider {
	return &UserProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity finds the user and compares the password. An unknown
// username and a failed comparison return the same error value so callers
// cannot distinguish the two.
func (u *UserProvider) VerifyIdentity(ctx context.Context, username, password string) (Identity, error) {
	user, err := u.store.GetByUsername(ctx, username)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	return identityFromUser(user), nil
}

// FindIdentityByID resolves an identity from a token subject id, used by the
// refresh flow to mint from the current state of the account.
func (u *UserProvider) FindIdentityByID(ctx context.Context, id string) (Identity, error) {
	uid, err := ParseUserID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user, err := u.store.GetWithRoles(ctx, uid)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return identityFromUser(user), nil
}

type authIdentity struct {
	id       string
	username string
	email    string
	roles    []string
}

func (a authIdentity) ID() string       { return a.id }
func (a authIdentity) Username() string { return a.username }
func (a authIdentity) Email() string    { return a.email }
func (a authIdentity) Roles() []string  { return a.roles }

var _ Identity = authIdentity{}

func identityFromUser(user *User) authIdentity {
	return authIdentity{
		id:       user.ID.String(),
		username: user.Username,
		email:    user.Email,
		roles:    user.RoleNames(),
	}
}
