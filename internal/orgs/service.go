package orgs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

// Service handles organization business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create registers a new organization owned by ownerID. The creator becomes
// org owner and the organization becomes their home org.
func (s *Service) Create(ctx context.Context, ownerID string, req CreateOrgRequest) (*Organization, error) {
	org := &Organization{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        shared.Slugify(req.Name),
		Description: req.Description,
		LogoURL:     req.LogoURL,
		Region:      req.Region,
		OwnerID:     ownerID,
	}
	if org.Slug == "" {
		return nil, fmt.Errorf("%w: name produces an empty slug", httpx.ErrValidation)
	}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  ownerID,
		Action:   "org.create",
		Entity:   "organization",
		EntityID: org.ID,
		Meta:     map[string]any{"slug": org.Slug},
	})
	return s.repo.Get(ctx, org.ID)
}

// Get returns one organization by id or slug.
func (s *Service) Get(ctx context.Context, idOrSlug string) (*Organization, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		return s.repo.Get(ctx, idOrSlug)
	}
	return s.repo.GetBySlug(ctx, idOrSlug)
}

// List returns organizations with the total count for pagination.
func (s *Service) List(ctx context.Context, req ListOrgsRequest) ([]Organization, int, error) {
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	return s.repo.List(ctx, req)
}

// Update applies a partial organization update.
func (s *Service) Update(ctx context.Context, actorID, orgID string, req UpdateOrgRequest) (*Organization, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.LogoURL != nil {
		updates["logo_url"] = *req.LogoURL
	}
	if req.Region != nil {
		updates["region"] = *req.Region
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, orgID, updates); err != nil {
			return nil, err
		}
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "org.update",
			Entity:   "organization",
			EntityID: orgID,
		})
	}
	return s.repo.Get(ctx, orgID)
}

// Members lists users holding an org-scoped role on the organization.
func (s *Service) Members(ctx context.Context, orgID string) ([]Member, error) {
	if _, err := s.repo.Get(ctx, orgID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, orgID)
}

// AddMember grants an org-scoped role to a user. Only roles from the org
// scope of the vocabulary are accepted, and ownership is never granted here.
func (s *Service) AddMember(ctx context.Context, actorID, orgID string, req AddMemberRequest) error {
	if !access.ValidRole(req.Role) || access.RoleScope(req.Role) != access.ScopeOrg {
		return fmt.Errorf("%w: role %q is not an organization role", httpx.ErrValidation, req.Role)
	}
	if req.Role == access.RoleOrgOwner {
		return fmt.Errorf("%w: ownership is granted at creation only", httpx.ErrValidation)
	}
	if _, err := s.repo.Get(ctx, orgID); err != nil {
		return err
	}
	assignment := access.RoleAssignment{Scope: access.ScopeOrg, Role: req.Role, ScopeID: orgID}
	if err := s.repo.GrantRole(ctx, req.UserID, assignment); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "org.member.add",
		Entity:   "organization",
		EntityID: orgID,
		Meta:     map[string]any{"user_id": req.UserID, "role": req.Role},
	})
	return nil
}

// RemoveMember revokes every org-scoped role the user holds here. The owner
// cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, actorID, orgID, userID string) error {
	org, err := s.repo.Get(ctx, orgID)
	if err != nil {
		return err
	}
	if org.OwnerID == userID {
		return fmt.Errorf("%w: the owner cannot be removed", httpx.ErrConflict)
	}
	if err := s.repo.RevokeRoles(ctx, userID, orgID); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "org.member.remove",
		Entity:   "organization",
		EntityID: orgID,
		Meta:     map[string]any{"user_id": userID},
	})
	return nil
}
