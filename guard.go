package auth

import "github.com/goliatone/go-errors"

// Guard decides role/ownership access. Roles carry no hierarchy: admin does
// not imply user; access requires an explicit role match or ownership.
type Guard struct{}

// Authorize allows the request when the subject holds at least one of the
// required roles, or when the subject owns the target resource
// (resourceOwnerID equals the subject id). A nil return means Allow.
func (Guard) Authorize(subjectID string, subjectRoles, requiredRoles []string, resourceOwnerID string) error {
	if resourceOwnerID != "" && resourceOwnerID == subjectID {
		return nil
	}

	for _, required := range requiredRoles {
		for _, held := range subjectRoles {
			if required == held {
				return nil
			}
		}
	}

	return errors.New("access denied", errors.CategoryAuthz).
		WithTextCode(TextCodeForbidden).
		WithCode(errors.CodeForbidden).
		WithMetadata(map[string]any{
			"subject_id":     subjectID,
			"required_roles": requiredRoles,
		})
}
