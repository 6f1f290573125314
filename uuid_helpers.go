package auth

import "github.com/google/uuid"

// newTokenID mints the jti claim for issued tokens.
func newTokenID() string {
	return uuid.NewString()
}

// ParseUserID parses a claims subject back into a user UUID.
func ParseUserID(id string) (uuid.UUID, error) {
	return uuid.Parse(id)
}
