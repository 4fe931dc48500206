package teams

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

const defaultMaxRoster = 7

// Service handles team business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create registers a new team owned by ownerID. The creator becomes team
// owner and the team becomes their home team.
func (s *Service) Create(ctx context.Context, ownerID string, req CreateTeamRequest) (*Team, error) {
	maxRoster := req.MaxRoster
	if maxRoster == 0 {
		maxRoster = defaultMaxRoster
	}
	team := &Team{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Slug:      shared.Slugify(req.Name),
		Tag:       req.Tag,
		Game:      req.Game,
		LogoURL:   req.LogoURL,
		Region:    req.Region,
		OwnerID:   ownerID,
		MaxRoster: maxRoster,
	}
	if team.Slug == "" {
		return nil, fmt.Errorf("%w: name produces an empty slug", httpx.ErrValidation)
	}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  ownerID,
		Action:   "team.create",
		Entity:   "team",
		EntityID: team.ID,
		Meta:     map[string]any{"slug": team.Slug, "game": team.Game},
	})
	return s.repo.Get(ctx, team.ID)
}

// Get returns one team by id or slug.
func (s *Service) Get(ctx context.Context, idOrSlug string) (*Team, error) {
	if _, err := uuid.Parse(idOrSlug); err == nil {
		return s.repo.Get(ctx, idOrSlug)
	}
	return s.repo.GetBySlug(ctx, idOrSlug)
}

// List returns teams with the total count for pagination.
func (s *Service) List(ctx context.Context, req ListTeamsRequest) ([]Team, int, error) {
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	return s.repo.List(ctx, req)
}

// Update applies a partial team update.
func (s *Service) Update(ctx context.Context, actorID, teamID string, req UpdateTeamRequest) (*Team, error) {
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Tag != nil {
		updates["tag"] = *req.Tag
	}
	if req.LogoURL != nil {
		updates["logo_url"] = *req.LogoURL
	}
	if req.Region != nil {
		updates["region"] = *req.Region
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, teamID, updates); err != nil {
			return nil, err
		}
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "team.update",
			Entity:   "team",
			EntityID: teamID,
		})
	}
	return s.repo.Get(ctx, teamID)
}

// Roster lists users holding a team-scoped role on the team.
func (s *Service) Roster(ctx context.Context, teamID string) ([]RosterMember, error) {
	if _, err := s.repo.Get(ctx, teamID); err != nil {
		return nil, err
	}
	return s.repo.Roster(ctx, teamID)
}

// AddRosterMember grants a team-scoped role to a user. Captain and player are
// the only roles grantable here; ownership moves through TransferOwnership.
func (s *Service) AddRosterMember(ctx context.Context, actorID, teamID string, req AddRosterRequest) error {
	if !access.ValidRole(req.Role) || access.RoleScope(req.Role) != access.ScopeTeam {
		return fmt.Errorf("%w: role %q is not a team role", httpx.ErrValidation, req.Role)
	}
	if req.Role == access.RoleTeamOwner {
		return fmt.Errorf("%w: ownership moves through transfer only", httpx.ErrValidation)
	}
	team, err := s.repo.Get(ctx, teamID)
	if err != nil {
		return err
	}
	size, err := s.repo.RosterSize(ctx, teamID)
	if err != nil {
		return err
	}
	if size >= team.MaxRoster {
		return fmt.Errorf("%w: roster is full (%d/%d)", httpx.ErrConflict, size, team.MaxRoster)
	}
	assignment := access.RoleAssignment{Scope: access.ScopeTeam, Role: req.Role, ScopeID: teamID}
	if err := s.repo.GrantRole(ctx, req.UserID, assignment); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "team.roster.add",
		Entity:   "team",
		EntityID: teamID,
		Meta:     map[string]any{"user_id": req.UserID, "role": req.Role},
	})
	return nil
}

// RemoveRosterMember revokes every team-scoped role the user holds here. The
// owner cannot be removed.
func (s *Service) RemoveRosterMember(ctx context.Context, actorID, teamID, userID string) error {
	team, err := s.repo.Get(ctx, teamID)
	if err != nil {
		return err
	}
	if team.OwnerID == userID {
		return fmt.Errorf("%w: the owner cannot leave without transferring ownership", httpx.ErrConflict)
	}
	if err := s.repo.RevokeRoles(ctx, userID, teamID); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "team.roster.remove",
		Entity:   "team",
		EntityID: teamID,
		Meta:     map[string]any{"user_id": userID},
	})
	return nil
}

// TransferOwnership hands the team to another roster member. The caller must
// hold team ownership; the previous owner stays on the roster as a player.
func (s *Service) TransferOwnership(ctx context.Context, actor *access.Principal, teamID, newOwnerID string) error {
	team, err := s.repo.Get(ctx, teamID)
	if err != nil {
		return err
	}
	if !access.IsTeamOwner(actor, teamID) {
		return fmt.Errorf("%w: only the team owner can transfer ownership", httpx.ErrForbidden)
	}
	if newOwnerID == team.OwnerID {
		return fmt.Errorf("%w: user already owns the team", httpx.ErrConflict)
	}
	roster, err := s.repo.Roster(ctx, teamID)
	if err != nil {
		return err
	}
	onRoster := false
	for _, m := range roster {
		if m.UserID == newOwnerID {
			onRoster = true
			break
		}
	}
	if !onRoster {
		return fmt.Errorf("%w: new owner must already be on the roster", httpx.ErrValidation)
	}
	if err := s.repo.TransferOwnership(ctx, teamID, team.OwnerID, newOwnerID); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "team.transfer",
		Entity:   "team",
		EntityID: teamID,
		Meta:     map[string]any{"new_owner_id": newOwnerID},
	})
	return nil
}

// Disband deletes the team. The caller must hold team ownership.
func (s *Service) Disband(ctx context.Context, actor *access.Principal, teamID string) error {
	if _, err := s.repo.Get(ctx, teamID); err != nil {
		return err
	}
	if !access.IsTeamOwner(actor, teamID) {
		return fmt.Errorf("%w: only the team owner can disband the team", httpx.ErrForbidden)
	}
	if err := s.repo.Disband(ctx, teamID); err != nil {
		return err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "team.disband",
		Entity:   "team",
		EntityID: teamID,
	})
	return nil
}
