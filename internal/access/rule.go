package access

import "fmt"

// Rule is the static requirement attached to a guarded route or UI
// affordance: a scope, the set of roles that satisfy it, and optionally how to
// resolve the concrete scope instance to check against. Rules are created at
// router construction time and immutable thereafter.
//
// Routes are guarded by explicit allow-lists only: a route with no rule is
// public solely because it is mounted outside every guarded group. There is no
// "unlisted route implies allow" lookup.
type Rule struct {
	Scope        Scope
	AllowedRoles []string

	// ResourceParam names the chi URL parameter carrying the scope-instance
	// id the guard must check against. Empty means any instance of the scope
	// the principal holds a matching role in satisfies the rule.
	ResourceParam string

	resourceID string
}

// NewRule validates scope and roles against the closed vocabulary. Validation
// happens here, at construction, so a misconfigured route table fails before
// the first request is served rather than at check time.
func NewRule(scope Scope, roles ...string) (Rule, error) {
	if !ValidScope(scope) {
		return Rule{}, fmt.Errorf("access: unknown scope %q", scope)
	}
	if len(roles) == 0 {
		return Rule{}, fmt.Errorf("access: rule for scope %q needs at least one role", scope)
	}
	for _, role := range roles {
		if !ValidRole(role) {
			return Rule{}, fmt.Errorf("access: unknown role %q", role)
		}
		if RoleScope(role) != scope {
			return Rule{}, fmt.Errorf("access: role %q does not belong to scope %q", role, scope)
		}
	}
	return Rule{Scope: scope, AllowedRoles: roles}, nil
}

// MustRule is NewRule that panics. Route tables are wired at startup, so a
// bad rule kills the process before it can serve a single request.
func MustRule(scope Scope, roles ...string) Rule {
	rule, err := NewRule(scope, roles...)
	if err != nil {
		panic(err)
	}
	return rule
}

// FromParam returns a copy of the rule that resolves its scope-instance id
// from the named URL parameter at guard time.
func (r Rule) FromParam(param string) Rule {
	r.ResourceParam = param
	return r
}

// ForResource returns a copy of the rule bound to a concrete scope-instance
// id, for direct CanAccess checks outside the middleware path.
func (r Rule) ForResource(id string) Rule {
	r.resourceID = id
	return r
}

// ResourceID returns the concrete scope-instance id the rule is bound to,
// empty when the rule applies to any instance.
func (r Rule) ResourceID() string {
	return r.resourceID
}
