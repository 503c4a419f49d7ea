package rbac

type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleAuthor        Role = "author"
	RoleRanker        Role = "ranker"
	RoleCommenter     Role = "commenter"
)

// Normalize maps a raw role name onto the closed role set. Anything outside
// the set is rejected rather than defaulted, so a typo in storage never
// silently grants a capability.
func Normalize(role string) (Role, bool) {
	switch Role(role) {
	case RoleAdministrator, RoleAuthor, RoleRanker, RoleCommenter:
		return Role(role), true
	default:
		return "", false
	}
}

// ParseRoles converts raw role names, dropping unknown entries.
func ParseRoles(raw []string) []Role {
	roles := make([]Role, 0, len(raw))
	for _, name := range raw {
		if role, ok := Normalize(name); ok {
			roles = append(roles, role)
		}
	}
	return roles
}

func HasAnyRole(roles []Role, required ...Role) bool {
	for _, role := range roles {
		for _, want := range required {
			if role == want {
				return true
			}
		}
	}
	return false
}

// CanModify decides ownership-based modification rights over a resource.
// Rules, first match wins: unauthenticated subjects are denied, the owner is
// allowed, administrators are allowed, everyone else is denied.
func CanModify(subjectID, ownerID string, roles []Role) bool {
	if subjectID == "" {
		return false
	}
	if subjectID == ownerID {
		return true
	}
	return HasAnyRole(roles, RoleAdministrator)
}

// CanPerform decides a capability gate: the subject must hold the required
// role or be an administrator. Roles are additive and non-hierarchical among
// themselves; only the administrator override crosses capabilities.
func CanPerform(roles []Role, required Role) bool {
	return HasAnyRole(roles, required, RoleAdministrator)
}
