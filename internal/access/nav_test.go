package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterVisiblePreservesOrder(t *testing.T) {
	adminRule := MustRule(ScopePlatform, RolePlatformSuperAdmin, RolePlatformStaff)
	orgRule := MustRule(ScopeOrg, RoleOrgOwner, RoleOrgManager, RoleOrgStaff)
	teamRule := MustRule(ScopeTeam, RoleTeamOwner, RoleTeamCaptain)

	links := []Link{
		{Label: "Home", Path: "/"},
		{Label: "Tournaments", Path: "/tournaments"},
		{Label: "Organizer", Path: "/organizer", Rule: &orgRule},
		{Label: "Team", Path: "/team", Rule: &teamRule},
		{Label: "Admin", Path: "/admin", Rule: &adminRule},
	}

	orgManager := &Principal{
		ID:    "u1",
		Roles: []RoleAssignment{{Scope: ScopeOrg, Role: RoleOrgManager, ScopeID: "org1"}},
	}

	visible := FilterVisible(links, orgManager)
	paths := make([]string, 0, len(visible))
	for _, l := range visible {
		paths = append(paths, l.Path)
	}
	assert.Equal(t, []string{"/", "/tournaments", "/organizer"}, paths)
}

func TestFilterVisibleNilPrincipalKeepsPublicLinks(t *testing.T) {
	adminRule := MustRule(ScopePlatform, RolePlatformStaff)
	links := []Link{
		{Label: "Home", Path: "/"},
		{Label: "Admin", Path: "/admin", Rule: &adminRule},
	}
	visible := FilterVisible(links, nil)
	assert.Len(t, visible, 1)
	assert.Equal(t, "/", visible[0].Path)
}

func TestFilterVisibleReevaluatesPerPrincipal(t *testing.T) {
	adminRule := MustRule(ScopePlatform, RolePlatformStaff)
	links := []Link{{Label: "Admin", Path: "/admin", Rule: &adminRule}}

	before := &Principal{ID: "u1"}
	assert.Empty(t, FilterVisible(links, before))

	// Promotion produces a new snapshot; the filter must see it.
	after := &Principal{
		ID:    "u1",
		Roles: []RoleAssignment{{Scope: ScopePlatform, Role: RolePlatformStaff}},
	}
	assert.Len(t, FilterVisible(links, after), 1)
}
