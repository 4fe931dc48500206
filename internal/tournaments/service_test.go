package tournaments

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/observability"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
	_ "github.com/ravikarmakar/gaming-hub-sub004/testing"
)

type mockTournamentRepo struct {
	tournaments   map[string]*Tournament
	registrations map[string]*Registration
	teamMembers   map[string][]string
}

func newMockTournamentRepo() *mockTournamentRepo {
	return &mockTournamentRepo{
		tournaments:   make(map[string]*Tournament),
		registrations: make(map[string]*Registration),
		teamMembers:   make(map[string][]string),
	}
}

func (m *mockTournamentRepo) Create(_ context.Context, t *Tournament) error {
	cp := *t
	m.tournaments[t.ID] = &cp
	return nil
}

func (m *mockTournamentRepo) Get(_ context.Context, id string) (*Tournament, error) {
	t, ok := m.tournaments[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockTournamentRepo) List(_ context.Context, _ ListTournamentsRequest) ([]Tournament, int, error) {
	var out []Tournament
	for _, t := range m.tournaments {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *mockTournamentRepo) Update(_ context.Context, id string, updates map[string]any) error {
	t, ok := m.tournaments[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		t.Name = v.(string)
	}
	if v, ok := updates["max_teams"]; ok {
		t.MaxTeams = v.(int)
	}
	return nil
}

func (m *mockTournamentRepo) SetStatus(_ context.Context, id string, status Status) error {
	t, ok := m.tournaments[id]
	if !ok {
		return shared.ErrNotFound
	}
	t.Status = status
	return nil
}

func (m *mockTournamentRepo) CreateRegistration(_ context.Context, reg *Registration) error {
	for _, existing := range m.registrations {
		if existing.TournamentID == reg.TournamentID && existing.TeamID == reg.TeamID {
			return fmt.Errorf("%w: team already registered", httpx.ErrDuplicate)
		}
	}
	cp := *reg
	m.registrations[reg.ID] = &cp
	return nil
}

func (m *mockTournamentRepo) GetRegistration(_ context.Context, id string) (*Registration, error) {
	reg, ok := m.registrations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (m *mockTournamentRepo) FindRegistration(_ context.Context, tournamentID, teamID string) (*Registration, error) {
	for _, reg := range m.registrations {
		if reg.TournamentID == tournamentID && reg.TeamID == teamID {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockTournamentRepo) ListRegistrations(_ context.Context, tournamentID string) ([]Registration, error) {
	var out []Registration
	for _, reg := range m.registrations {
		if reg.TournamentID == tournamentID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (m *mockTournamentRepo) CountActiveRegistrations(_ context.Context, tournamentID string) (int, error) {
	n := 0
	for _, reg := range m.registrations {
		if reg.TournamentID == tournamentID && (reg.Status == RegistrationPending || reg.Status == RegistrationApproved) {
			n++
		}
	}
	return n, nil
}

func (m *mockTournamentRepo) SetRegistrationStatus(_ context.Context, id string, status RegistrationStatus, decidedBy, reason *string) error {
	reg, ok := m.registrations[id]
	if !ok {
		return shared.ErrNotFound
	}
	reg.Status = status
	reg.DecidedBy = decidedBy
	reg.Reason = reason
	return nil
}

func (m *mockTournamentRepo) ListTeamMemberIDs(_ context.Context, teamID string) ([]string, error) {
	return m.teamMembers[teamID], nil
}

type fanoutCapture struct {
	userIDs []string
	kind    string
}

type stubNotifier struct {
	sent []fanoutCapture
}

func (s *stubNotifier) EnqueueNotifyFanout(_ context.Context, userIDs []string, kind, _, _ string) error {
	s.sent = append(s.sent, fanoutCapture{userIDs: userIDs, kind: kind})
	return nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func teamOwner(userID, teamID string) *access.Principal {
	return &access.Principal{
		ID:     userID,
		TeamID: teamID,
		Roles: []access.RoleAssignment{
			{Scope: access.ScopeTeam, Role: access.RoleTeamOwner, ScopeID: teamID},
		},
	}
}

func organizer(userID, orgID string) *access.Principal {
	return &access.Principal{
		ID:    userID,
		OrgID: orgID,
		Roles: []access.RoleAssignment{
			{Scope: access.ScopeOrg, Role: access.RoleOrgManager, ScopeID: orgID},
		},
	}
}

func openTournament(t *testing.T, repo *mockTournamentRepo, svc *Service, maxTeams int) *Tournament {
	t.Helper()
	tour, err := svc.Create(context.Background(), "organizer-1", "org-1", CreateTournamentRequest{
		Name: "Spring Invitational", Game: "valorant", MaxTeams: maxTeams,
	})
	require.NoError(t, err)
	repo.tournaments[tour.ID].Status = StatusRegistrationOpen
	return tour
}

func TestStatusTransitions(t *testing.T) {
	repo := newMockTournamentRepo()
	svc := NewService(repo, nil, nil, nil, nil, nil)

	tour, err := svc.Create(context.Background(), "organizer-1", "org-1", CreateTournamentRequest{
		Name: "Spring Invitational", Game: "valorant", MaxTeams: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, tour.Status)

	_, err = svc.UpdateStatus(context.Background(), "organizer-1", tour.ID, StatusCompleted)
	assert.ErrorIs(t, err, httpx.ErrConflict)

	tour, err = svc.UpdateStatus(context.Background(), "organizer-1", tour.ID, StatusPublished)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, tour.Status)

	tour, err = svc.UpdateStatus(context.Background(), "organizer-1", tour.ID, StatusRegistrationOpen)
	require.NoError(t, err)

	tour, err = svc.UpdateStatus(context.Background(), "organizer-1", tour.ID, StatusCancelled)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), "organizer-1", tour.ID, StatusPublished)
	assert.ErrorIs(t, err, httpx.ErrConflict)
	_ = tour
}

func TestRegisterRequiresTeamOwner(t *testing.T) {
	repo := newMockTournamentRepo()
	svc := NewService(repo, testRedis(t), nil, nil, nil, nil)
	tour := openTournament(t, repo, svc, 8)

	player := &access.Principal{
		ID:     "user-2",
		TeamID: "team-1",
		Roles: []access.RoleAssignment{
			{Scope: access.ScopeTeam, Role: access.RoleTeamPlayer, ScopeID: "team-1"},
		},
	}
	_, err := svc.Register(context.Background(), player, tour.ID, "", "")
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	reg, err := svc.Register(context.Background(), teamOwner("user-1", "team-1"), tour.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, RegistrationPending, reg.Status)
	assert.Equal(t, "team-1", reg.TeamID)
}

func TestRegisterStatusGate(t *testing.T) {
	repo := newMockTournamentRepo()
	svc := NewService(repo, testRedis(t), nil, nil, nil, nil)
	tour, err := svc.Create(context.Background(), "organizer-1", "org-1", CreateTournamentRequest{
		Name: "Spring Invitational", Game: "valorant", MaxTeams: 8,
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), teamOwner("user-1", "team-1"), tour.ID, "", "")
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestRegisterCapacityAndDuplicates(t *testing.T) {
	repo := newMockTournamentRepo()
	svc := NewService(repo, testRedis(t), nil, nil, nil, nil)
	tour := openTournament(t, repo, svc, 2)

	_, err := svc.Register(context.Background(), teamOwner("user-1", "team-1"), tour.ID, "", "")
	require.NoError(t, err)

	// Same team twice is a duplicate, not a capacity problem.
	_, err = svc.Register(context.Background(), teamOwner("user-1", "team-1"), tour.ID, "", "")
	assert.ErrorIs(t, err, httpx.ErrDuplicate)

	_, err = svc.Register(context.Background(), teamOwner("user-2", "team-2"), tour.ID, "", "")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), teamOwner("user-3", "team-3"), tour.ID, "", "")
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestWithdraw(t *testing.T) {
	repo := newMockTournamentRepo()
	svc := NewService(repo, testRedis(t), nil, nil, nil, nil)
	tour := openTournament(t, repo, svc, 8)

	owner := teamOwner("user-1", "team-1")
	reg, err := svc.Register(context.Background(), owner, tour.ID, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Withdraw(context.Background(), owner, tour.ID, ""))
	updated, err := svc.Decide(context.Background(), organizer("organizer-1", "org-1"), reg.ID, DecideRequest{Approve: true})
	assert.ErrorIs(t, err, httpx.ErrConflict)
	assert.Nil(t, updated)

	err = svc.Withdraw(context.Background(), owner, tour.ID, "")
	assert.ErrorIs(t, err, httpx.ErrConflict)
}

func TestDecideRequiresOrganizerAndFansOut(t *testing.T) {
	repo := newMockTournamentRepo()
	repo.teamMembers["team-1"] = []string{"user-1", "user-2", "user-3"}
	notifier := &stubNotifier{}
	svc := NewService(repo, testRedis(t), nil, notifier, nil, nil)
	tour := openTournament(t, repo, svc, 8)

	reg, err := svc.Register(context.Background(), teamOwner("user-1", "team-1"), tour.ID, "", "")
	require.NoError(t, err)

	// An organizer of a different org holds the right role on the wrong id.
	_, err = svc.Decide(context.Background(), organizer("other", "org-9"), reg.ID, DecideRequest{Approve: true})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Empty(t, notifier.sent)

	decided, err := svc.Decide(context.Background(), organizer("organizer-1", "org-1"), reg.ID, DecideRequest{Approve: true})
	require.NoError(t, err)
	assert.Equal(t, RegistrationApproved, decided.Status)
	require.NotNil(t, decided.DecidedBy)
	assert.Equal(t, "organizer-1", *decided.DecidedBy)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "registration.approved", notifier.sent[0].kind)
	assert.ElementsMatch(t, []string{"user-1", "user-2", "user-3"}, notifier.sent[0].userIDs)
}

func scrapeMetrics(t *testing.T, metrics *observability.Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rr.Body.String()
}

func TestRegistrationOutcomesRecorded(t *testing.T) {
	repo := newMockTournamentRepo()
	metrics := observability.NewMetrics()
	svc := NewService(repo, testRedis(t), nil, nil, metrics, nil)
	tour := openTournament(t, repo, svc, 8)

	owner := teamOwner("user-1", "team-1")
	reg, err := svc.Register(context.Background(), owner, tour.ID, "", "")
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), organizer("organizer-1", "org-1"), reg.ID, DecideRequest{Approve: false})
	require.NoError(t, err)

	reg2, err := svc.Register(context.Background(), teamOwner("user-2", "team-2"), tour.ID, "", "")
	require.NoError(t, err)
	_, err = svc.Decide(context.Background(), organizer("organizer-1", "org-1"), reg2.ID, DecideRequest{Approve: true})
	require.NoError(t, err)

	require.NoError(t, svc.Withdraw(context.Background(), teamOwner("user-2", "team-2"), tour.ID, ""))

	body := scrapeMetrics(t, metrics)
	assert.Contains(t, body, `gaminghub_registrations_total{outcome="pending"} 2`)
	assert.Contains(t, body, `gaminghub_registrations_total{outcome="rejected"} 1`)
	assert.Contains(t, body, `gaminghub_registrations_total{outcome="approved"} 1`)
	assert.Contains(t, body, `gaminghub_registrations_total{outcome="withdrawn"} 1`)
}

func TestRegistrationLockBlocksConcurrentEntry(t *testing.T) {
	repo := newMockTournamentRepo()
	rdb := testRedis(t)
	svc := NewService(repo, rdb, nil, nil, nil, nil)
	tour := openTournament(t, repo, svc, 8)

	// Simulate another request holding the lock.
	held, err := rdb.SetNX(context.Background(), shared.RegistrationLockKey(tour.ID), "1", registrationLockTTL).Result()
	require.NoError(t, err)
	require.True(t, held)

	_, err = svc.Register(context.Background(), teamOwner("user-1", "team-1"), tour.ID, "", "")
	assert.ErrorIs(t, err, httpx.ErrConflict)

	require.NoError(t, rdb.Del(context.Background(), shared.RegistrationLockKey(tour.ID)).Err())
	_, err = svc.Register(context.Background(), teamOwner("user-1", "team-1"), tour.ID, "", "")
	require.NoError(t, err)
}
