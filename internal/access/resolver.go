package access

// CanAccess reports whether the principal satisfies the rule. The check is
// existential: one matching assignment suffices, duplicates change nothing.
//
// A nil principal always fails. A principal with no assignments fails every
// rule with a non-empty role set; malformed session data degrades to deny,
// never to an error. The function is pure and safe to call on every request
// without memoization.
func CanAccess(p *Principal, rule Rule) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Roles {
		if a.Scope != rule.Scope {
			continue
		}
		if !roleAllowed(rule.AllowedRoles, a.Role) {
			continue
		}
		if scopeIDMatches(a.ScopeID, rule.resourceID) {
			return true
		}
	}
	return false
}

// IsTeamOwner reports whether the principal holds the single
// highest-privilege team role on the resolved team. An empty teamID defaults
// to the principal's own home team.
func IsTeamOwner(p *Principal, teamID string) bool {
	if p == nil {
		return false
	}
	if teamID == "" {
		teamID = p.TeamID
	}
	for _, a := range p.Roles {
		if a.Scope != ScopeTeam || a.Role != RoleTeamOwner {
			continue
		}
		if a.ScopeID == "" || a.ScopeID == teamID {
			return true
		}
	}
	return false
}

func roleAllowed(allowed []string, role string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// scopeIDMatches applies the scope-id rule: an assignment without a scope id
// is a grant over every instance, a rule without a resource id accepts any
// instance, otherwise the ids must be equal.
func scopeIDMatches(assignmentID, resourceID string) bool {
	if assignmentID == "" || resourceID == "" {
		return true
	}
	return assignmentID == resourceID
}
