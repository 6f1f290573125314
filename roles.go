package auth

// RoleName is the name of a role in the closed enumeration
type RoleName = string

const (
	// RoleUser is the default role every account holds at minimum
	RoleUser RoleName = "user"
	// RoleAdmin grants access to the user administration endpoints
	RoleAdmin RoleName = "admin"
)

// IsValidRole checks membership in the closed enumeration
func IsValidRole(name RoleName) bool {
	switch name {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// AllRoles returns the closed enumeration
func AllRoles() []RoleName {
	return []RoleName{RoleUser, RoleAdmin}
}

// MapRequestedRole maps a requested role string to a role name. Only the
// exact literal "admin" grants RoleAdmin; every other value, including
// case variants and misspellings, falls back to RoleUser. The second return
// reports whether the fallback was taken.
//
// Whether a typo'd "admin" request should be rejected instead of silently
// downgraded is an open product question; do not change this without a
// product decision.
func MapRequestedRole(requested string) (RoleName, bool) {
	if requested == RoleAdmin {
		return RoleAdmin, false
	}
	return RoleUser, requested != RoleUser
}

// ResolveRequestedRoles resolves the requested role-name strings for a new
// account. A nil or empty request yields exactly {user}. Duplicates collapse.
func ResolveRequestedRoles(requested []string) []RoleName {
	if len(requested) == 0 {
		return []RoleName{RoleUser}
	}

	seen := map[RoleName]bool{}
	resolved := make([]RoleName, 0, len(requested))
	for _, name := range requested {
		role, _ := MapRequestedRole(name)
		if seen[role] {
			continue
		}
		seen[role] = true
		resolved = append(resolved, role)
	}

	return resolved
}
