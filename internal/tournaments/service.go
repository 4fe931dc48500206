package tournaments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/observability"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

// registrationLockTTL bounds the registration critical section so a crashed
// worker cannot wedge a tournament.
const registrationLockTTL = 5 * time.Second

// Notifier enqueues notification fan-out for a recipient set.
type Notifier interface {
	EnqueueNotifyFanout(ctx context.Context, userIDs []string, kind, title, body string) error
}

// Service handles tournament business logic.
type Service struct {
	repo        RepositoryPort
	redis       *redis.Client
	idempotency *shared.IdempotencyStore
	notifier    Notifier
	metrics     *observability.Metrics
	audit       *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, rdb *redis.Client, idempotency *shared.IdempotencyStore, notifier Notifier, metrics *observability.Metrics, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, redis: rdb, idempotency: idempotency, notifier: notifier, metrics: metrics, audit: audit}
}

// Create inserts a draft tournament under the organization.
func (s *Service) Create(ctx context.Context, actorID, orgID string, req CreateTournamentRequest) (*Tournament, error) {
	t := &Tournament{
		ID:          uuid.NewString(),
		OrgID:       orgID,
		Name:        req.Name,
		Slug:        shared.Slugify(req.Name),
		Game:        req.Game,
		Format:      req.Format,
		Description: req.Description,
		PrizePool:   req.PrizePool,
		MaxTeams:    req.MaxTeams,
		Status:      StatusDraft,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	}
	if t.Slug == "" {
		return nil, fmt.Errorf("%w: name produces an empty slug", httpx.ErrValidation)
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "tournament.create",
		Entity:   "tournament",
		EntityID: t.ID,
		Meta:     map[string]any{"org_id": orgID, "slug": t.Slug},
	})
	return s.repo.Get(ctx, t.ID)
}

// Get returns one tournament.
func (s *Service) Get(ctx context.Context, id string) (*Tournament, error) {
	return s.repo.Get(ctx, id)
}

// List returns tournaments with the total count for pagination.
func (s *Service) List(ctx context.Context, req ListTournamentsRequest) ([]Tournament, int, error) {
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Status != "" && !ValidStatus(req.Status) {
		return nil, 0, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, req.Status)
	}
	return s.repo.List(ctx, req)
}

// Update applies a partial tournament update. Completed and cancelled
// tournaments are immutable.
func (s *Service) Update(ctx context.Context, actorID, id string, req UpdateTournamentRequest) (*Tournament, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusCompleted || t.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: tournament is %s", httpx.ErrConflict, t.Status)
	}
	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Format != nil {
		updates["format"] = *req.Format
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PrizePool != nil {
		updates["prize_pool"] = *req.PrizePool
	}
	if req.MaxTeams != nil {
		updates["max_teams"] = *req.MaxTeams
	}
	if req.StartsAt != nil {
		updates["starts_at"] = *req.StartsAt
	}
	if req.EndsAt != nil {
		updates["ends_at"] = *req.EndsAt
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "tournament.update",
			Entity:   "tournament",
			EntityID: id,
		})
	}
	return s.repo.Get(ctx, id)
}

// UpdateStatus moves the tournament along its lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, actorID, id string, next Status) (*Tournament, error) {
	if !ValidStatus(next) {
		return nil, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, next)
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, next) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", httpx.ErrConflict, t.Status, next)
	}
	if err := s.repo.SetStatus(ctx, id, next); err != nil {
		return nil, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "tournament.status",
		Entity:   "tournament",
		EntityID: id,
		Meta:     map[string]any{"from": t.Status, "to": next},
	})
	return s.repo.Get(ctx, id)
}

// Registrations lists entries for a tournament.
func (s *Service) Registrations(ctx context.Context, tournamentID string) ([]Registration, error) {
	if _, err := s.repo.Get(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.repo.ListRegistrations(ctx, tournamentID)
}

// Register enters the actor's team into the tournament. Only the team owner
// may register; an empty teamID defaults to the actor's home team. The
// capacity check and insert run under a redis lock keyed by the tournament so
// concurrent submissions cannot oversubscribe. idempotencyKey, when present,
// makes retried submissions safe.
func (s *Service) Register(ctx context.Context, actor *access.Principal, tournamentID, teamID, idempotencyKey string) (*Registration, error) {
	if actor == nil {
		return nil, httpx.ErrUnauthorized
	}
	if teamID == "" {
		teamID = actor.TeamID
	}
	if teamID == "" {
		return nil, fmt.Errorf("%w: no team to register", httpx.ErrValidation)
	}
	if !access.IsTeamOwner(actor, teamID) {
		return nil, fmt.Errorf("%w: only the team owner can register the team", httpx.ErrForbidden)
	}
	t, err := s.repo.Get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusRegistrationOpen {
		return nil, fmt.Errorf("%w: registration is not open", httpx.ErrConflict)
	}
	if idempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "tournament_registration"); err != nil {
			return nil, err
		}
	}

	unlock, err := s.acquireRegistrationLock(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	active, err := s.repo.CountActiveRegistrations(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if active >= t.MaxTeams {
		return nil, fmt.Errorf("%w: tournament is full (%d/%d)", httpx.ErrConflict, active, t.MaxTeams)
	}

	reg := &Registration{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		TeamID:       teamID,
		Status:       RegistrationPending,
		RequestedBy:  actor.ID,
	}
	if err := s.repo.CreateRegistration(ctx, reg); err != nil {
		return nil, err
	}
	s.metrics.CountRegistration(string(RegistrationPending))
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "tournament.register",
		Entity:   "tournament",
		EntityID: tournamentID,
		Meta:     map[string]any{"team_id": teamID, "registration_id": reg.ID},
	})
	return s.repo.GetRegistration(ctx, reg.ID)
}

// Withdraw pulls the actor's team out of the tournament. Only the team owner
// may withdraw a pending or approved entry.
func (s *Service) Withdraw(ctx context.Context, actor *access.Principal, tournamentID, teamID string) error {
	if actor == nil {
		return httpx.ErrUnauthorized
	}
	if teamID == "" {
		teamID = actor.TeamID
	}
	if !access.IsTeamOwner(actor, teamID) {
		return fmt.Errorf("%w: only the team owner can withdraw the team", httpx.ErrForbidden)
	}
	reg, err := s.repo.FindRegistration(ctx, tournamentID, teamID)
	if err != nil {
		return err
	}
	if reg.Status != RegistrationPending && reg.Status != RegistrationApproved {
		return fmt.Errorf("%w: registration is %s", httpx.ErrConflict, reg.Status)
	}
	if err := s.repo.SetRegistrationStatus(ctx, reg.ID, RegistrationWithdrawn, nil, nil); err != nil {
		return err
	}
	s.metrics.CountRegistration(string(RegistrationWithdrawn))
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "tournament.withdraw",
		Entity:   "tournament",
		EntityID: tournamentID,
		Meta:     map[string]any{"team_id": teamID},
	})
	return nil
}

var orgManageRule = access.MustRule(access.ScopeOrg, access.OrgAdminRoles()...)

// Decide approves or rejects a pending registration. The actor must hold an
// org admin role on the organization that owns the tournament; the check
// resolves against the loaded row rather than the URL because the org is not
// part of the registration path.
func (s *Service) Decide(ctx context.Context, actor *access.Principal, registrationID string, req DecideRequest) (*Registration, error) {
	if actor == nil {
		return nil, httpx.ErrUnauthorized
	}
	reg, err := s.repo.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.Get(ctx, reg.TournamentID)
	if err != nil {
		return nil, err
	}
	if !access.CanAccess(actor, orgManageRule.ForResource(t.OrgID)) {
		return nil, fmt.Errorf("%w: requires an organizer role on the owning org", httpx.ErrForbidden)
	}
	if reg.Status != RegistrationPending {
		return nil, fmt.Errorf("%w: registration is %s", httpx.ErrConflict, reg.Status)
	}

	next := RegistrationRejected
	if req.Approve {
		next = RegistrationApproved
		unlock, err := s.acquireRegistrationLock(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}
	if err := s.repo.SetRegistrationStatus(ctx, reg.ID, next, &actor.ID, req.Reason); err != nil {
		return nil, err
	}
	s.metrics.CountRegistration(string(next))
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "tournament.registration." + string(next),
		Entity:   "tournament",
		EntityID: t.ID,
		Meta:     map[string]any{"registration_id": reg.ID, "team_id": reg.TeamID},
	})
	s.notifyDecision(ctx, t, reg, next)
	return s.repo.GetRegistration(ctx, reg.ID)
}

func (s *Service) notifyDecision(ctx context.Context, t *Tournament, reg *Registration, status RegistrationStatus) {
	if s.notifier == nil {
		return
	}
	members, err := s.repo.ListTeamMemberIDs(ctx, reg.TeamID)
	if err != nil || len(members) == 0 {
		return
	}
	title := fmt.Sprintf("Registration %s", status)
	body := fmt.Sprintf("Your team's entry for %s was %s.", t.Name, status)
	_ = s.notifier.EnqueueNotifyFanout(ctx, members, "registration."+string(status), title, body)
}

// acquireRegistrationLock takes the per-tournament redis lock. Without a redis
// client the section runs unlocked, which only happens in unit tests.
func (s *Service) acquireRegistrationLock(ctx context.Context, tournamentID string) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}
	key := shared.RegistrationLockKey(tournamentID)
	ok, err := s.redis.SetNX(ctx, key, "1", registrationLockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: registration busy, retry", httpx.ErrConflict)
	}
	return func() {
		s.redis.Del(context.WithoutCancel(ctx), key)
	}, nil
}
