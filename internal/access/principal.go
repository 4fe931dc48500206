package access

import (
	"context"
	"time"
)

// RoleAssignment is one grant of a role to a principal, optionally qualified
// to a single scope instance. An empty ScopeID grants every instance of the
// scope the principal can reach.
type RoleAssignment struct {
	Scope   Scope  `json:"scope"`
	Role    string `json:"role"`
	ScopeID string `json:"scope_id,omitempty"`
}

// Principal is the authenticated actor whose role assignments are evaluated.
// It is built once per request from the session and treated as an immutable
// snapshot; the resolver never mutates or caches it.
type Principal struct {
	ID       string           `json:"id"`
	Username string           `json:"username"`
	Email    string           `json:"email"`
	OrgID    string           `json:"org_id,omitempty"`
	TeamID   string           `json:"team_id,omitempty"`
	Verified bool             `json:"verified"`
	Roles    []RoleAssignment `json:"roles"`

	// CodeExpiresAt is the validity deadline of the most recently issued
	// e-mail verification code, zero when none is outstanding.
	CodeExpiresAt time.Time `json:"-"`
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal snapshot in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context, nil when the
// request is unauthenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
