// Package access decides whether an authenticated principal may perform an
// action within a given scope. It owns the closed role vocabulary, the
// resolver, the HTTP route guards and the navigation filter.
package access

import "strings"

// Scope is the namespace a role applies within.
type Scope string

const (
	// ScopePlatform covers platform-wide grants.
	ScopePlatform Scope = "platform"
	// ScopeOrg covers grants on a specific organization.
	ScopeOrg Scope = "org"
	// ScopeTeam covers grants on a specific team.
	ScopeTeam Scope = "team"
)

// Platform roles.
const (
	RolePlatformSuperAdmin = "platform:super_admin"
	RolePlatformStaff      = "platform:staff"
)

// Organization roles.
const (
	RoleOrgOwner   = "org:owner"
	RoleOrgManager = "org:manager"
	RoleOrgStaff   = "org:staff"
)

// Team roles.
const (
	RoleTeamOwner   = "team:owner"
	RoleTeamCaptain = "team:captain"
	RoleTeamPlayer  = "team:player"
)

// roleVocabulary is the closed set of valid role strings. Any new role must be
// added here and nowhere else; consumers never hardcode role strings.
var roleVocabulary = map[string]Scope{
	RolePlatformSuperAdmin: ScopePlatform,
	RolePlatformStaff:      ScopePlatform,
	RoleOrgOwner:           ScopeOrg,
	RoleOrgManager:         ScopeOrg,
	RoleOrgStaff:           ScopeOrg,
	RoleTeamOwner:          ScopeTeam,
	RoleTeamCaptain:        ScopeTeam,
	RoleTeamPlayer:         ScopeTeam,
}

// PlatformAdminRoles lists roles with platform-wide administrative reach.
func PlatformAdminRoles() []string {
	return []string{RolePlatformSuperAdmin, RolePlatformStaff}
}

// OrgAdminRoles lists roles allowed to manage an organization.
func OrgAdminRoles() []string {
	return []string{RoleOrgOwner, RoleOrgManager, RoleOrgStaff}
}

// TeamManagerRoles lists roles allowed to manage a team roster.
func TeamManagerRoles() []string {
	return []string{RoleTeamOwner, RoleTeamCaptain}
}

// ValidScope reports whether s is one of the closed scope enumeration.
func ValidScope(s Scope) bool {
	switch s {
	case ScopePlatform, ScopeOrg, ScopeTeam:
		return true
	}
	return false
}

// ValidRole reports whether role belongs to the closed vocabulary.
func ValidRole(role string) bool {
	_, ok := roleVocabulary[role]
	return ok
}

// RoleScope returns the scope encoded in the role string prefix. A role string
// whose prefix disagrees with its stored scope is a data-integrity bug, not a
// runtime case.
func RoleScope(role string) Scope {
	if i := strings.IndexByte(role, ':'); i > 0 {
		return Scope(role[:i])
	}
	return ""
}
