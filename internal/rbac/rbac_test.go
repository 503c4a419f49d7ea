package rbac

import "testing"

func TestCanModify(t *testing.T) {
	cases := []struct {
		name      string
		subjectID string
		ownerID   string
		roles     []Role
		allow     bool
	}{
		{name: "owner", subjectID: "u1", ownerID: "u1", roles: nil, allow: true},
		{name: "administrator non-owner", subjectID: "u2", ownerID: "u1", roles: []Role{RoleAdministrator}, allow: true},
		{name: "third party", subjectID: "u2", ownerID: "u1", roles: []Role{RoleAuthor, RoleCommenter}, allow: false},
		{name: "unauthenticated", subjectID: "", ownerID: "u1", roles: []Role{RoleAdministrator}, allow: false},
		{name: "unauthenticated empty owner", subjectID: "", ownerID: "", roles: nil, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanModify(tc.subjectID, tc.ownerID, tc.roles); got != tc.allow {
				t.Fatalf("CanModify(%q, %q, %v) = %v, want %v", tc.subjectID, tc.ownerID, tc.roles, got, tc.allow)
			}
		})
	}
}

func TestCanPerform(t *testing.T) {
	cases := []struct {
		name     string
		roles    []Role
		required Role
		allow    bool
	}{
		{name: "ranker can rank", roles: []Role{RoleRanker}, required: RoleRanker, allow: true},
		{name: "commenter can comment", roles: []Role{RoleCommenter}, required: RoleCommenter, allow: true},
		{name: "ranker cannot comment", roles: []Role{RoleRanker}, required: RoleCommenter, allow: false},
		{name: "commenter cannot rank", roles: []Role{RoleCommenter}, required: RoleRanker, allow: false},
		{name: "author cannot rank", roles: []Role{RoleAuthor}, required: RoleRanker, allow: false},
		{name: "administrator can do anything", roles: []Role{RoleAdministrator}, required: RoleRanker, allow: true},
		{name: "no roles", roles: nil, required: RoleCommenter, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanPerform(tc.roles, tc.required); got != tc.allow {
				t.Fatalf("CanPerform(%v, %q) = %v, want %v", tc.roles, tc.required, got, tc.allow)
			}
		})
	}
}

func TestNormalizeRejectsUnknownRoles(t *testing.T) {
	for _, raw := range []string{"administrator", "author", "ranker", "commenter"} {
		if _, ok := Normalize(raw); !ok {
			t.Fatalf("Normalize(%q) rejected a member of the role set", raw)
		}
	}
	for _, raw := range []string{"", "admin", "Administrator", "moderator"} {
		if role, ok := Normalize(raw); ok {
			t.Fatalf("Normalize(%q) = %q, expected rejection", raw, role)
		}
	}
}

func TestParseRolesDropsUnknown(t *testing.T) {
	roles := ParseRoles([]string{"author", "moderator", "ranker", ""})
	if len(roles) != 2 || roles[0] != RoleAuthor || roles[1] != RoleRanker {
		t.Fatalf("ParseRoles = %v, want [author ranker]", roles)
	}
}
