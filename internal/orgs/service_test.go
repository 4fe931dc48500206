package orgs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
	_ "github.com/ravikarmakar/gaming-hub-sub004/testing"
)

type mockOrgRepo struct {
	orgs      map[string]*Organization
	grants    []access.RoleAssignment
	grantsFor []string
	createErr error
}

func newMockOrgRepo() *mockOrgRepo {
	return &mockOrgRepo{orgs: make(map[string]*Organization)}
}

func (m *mockOrgRepo) Create(_ context.Context, org *Organization) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.orgs {
		if existing.Slug == org.Slug {
			return httpx.ErrDuplicate
		}
	}
	cp := *org
	m.orgs[org.ID] = &cp
	m.grants = append(m.grants, access.RoleAssignment{Scope: access.ScopeOrg, Role: access.RoleOrgOwner, ScopeID: org.ID})
	m.grantsFor = append(m.grantsFor, org.OwnerID)
	return nil
}

func (m *mockOrgRepo) Get(_ context.Context, id string) (*Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrgRepo) GetBySlug(_ context.Context, slug string) (*Organization, error) {
	for _, o := range m.orgs {
		if o.Slug == slug {
			cp := *o
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockOrgRepo) List(_ context.Context, _ ListOrgsRequest) ([]Organization, int, error) {
	var out []Organization
	for _, o := range m.orgs {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *mockOrgRepo) Update(_ context.Context, id string, updates map[string]any) error {
	o, ok := m.orgs[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		o.Name = v.(string)
	}
	return nil
}

func (m *mockOrgRepo) ListMembers(_ context.Context, _ string) ([]Member, error) {
	return nil, nil
}

func (m *mockOrgRepo) GrantRole(_ context.Context, userID string, a access.RoleAssignment) error {
	m.grants = append(m.grants, a)
	m.grantsFor = append(m.grantsFor, userID)
	return nil
}

func (m *mockOrgRepo) RevokeRoles(_ context.Context, userID, orgID string) error {
	for i, a := range m.grants {
		if m.grantsFor[i] == userID && a.ScopeID == orgID {
			m.grants = append(m.grants[:i], m.grants[i+1:]...)
			m.grantsFor = append(m.grantsFor[:i], m.grantsFor[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func TestCreateGrantsOwnership(t *testing.T) {
	repo := newMockOrgRepo()
	svc := NewService(repo, nil)

	org, err := svc.Create(context.Background(), "user-1", CreateOrgRequest{Name: "Phoenix Esports"})
	require.NoError(t, err)
	assert.Equal(t, "phoenix-esports", org.Slug)
	assert.Equal(t, "user-1", org.OwnerID)

	require.Len(t, repo.grants, 1)
	assert.Equal(t, access.RoleOrgOwner, repo.grants[0].Role)
	assert.Equal(t, org.ID, repo.grants[0].ScopeID)
	assert.Equal(t, "user-1", repo.grantsFor[0])
}

func TestCreateRejectsEmptySlug(t *testing.T) {
	svc := NewService(newMockOrgRepo(), nil)
	_, err := svc.Create(context.Background(), "user-1", CreateOrgRequest{Name: "???"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestGetByIDOrSlug(t *testing.T) {
	repo := newMockOrgRepo()
	svc := NewService(repo, nil)
	org, err := svc.Create(context.Background(), "user-1", CreateOrgRequest{Name: "Night Owls"})
	require.NoError(t, err)

	byID, err := svc.Get(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, byID.ID)

	bySlug, err := svc.Get(context.Background(), "night-owls")
	require.NoError(t, err)
	assert.Equal(t, org.ID, bySlug.ID)
}

func TestAddMemberValidatesRole(t *testing.T) {
	repo := newMockOrgRepo()
	svc := NewService(repo, nil)
	org, err := svc.Create(context.Background(), "user-1", CreateOrgRequest{Name: "Night Owls"})
	require.NoError(t, err)

	err = svc.AddMember(context.Background(), "user-1", org.ID, AddMemberRequest{UserID: "user-2", Role: "team:captain"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.AddMember(context.Background(), "user-1", org.ID, AddMemberRequest{UserID: "user-2", Role: access.RoleOrgOwner})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.AddMember(context.Background(), "user-1", org.ID, AddMemberRequest{UserID: "user-2", Role: access.RoleOrgManager})
	require.NoError(t, err)
	last := repo.grants[len(repo.grants)-1]
	assert.Equal(t, access.RoleOrgManager, last.Role)
	assert.Equal(t, org.ID, last.ScopeID)
}

func TestRemoveMemberProtectsOwner(t *testing.T) {
	repo := newMockOrgRepo()
	svc := NewService(repo, nil)
	org, err := svc.Create(context.Background(), "user-1", CreateOrgRequest{Name: "Night Owls"})
	require.NoError(t, err)

	err = svc.RemoveMember(context.Background(), "user-1", org.ID, "user-1")
	assert.ErrorIs(t, err, httpx.ErrConflict)

	require.NoError(t, svc.AddMember(context.Background(), "user-1", org.ID, AddMemberRequest{UserID: "user-2", Role: access.RoleOrgStaff}))
	require.NoError(t, svc.RemoveMember(context.Background(), "user-1", org.ID, "user-2"))
	err = svc.RemoveMember(context.Background(), "user-1", org.ID, "user-2")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
