package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
)

type mockRepo struct {
	byName  map[string]Role
	inserts []Role
}

func (m *mockRepo) CreateRole(ctx context.Context, role Role) error {
	m.inserts = append(m.inserts, role)
	return nil
}

func (m *mockRepo) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	if r, ok := m.byName[name]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *mockRepo) ListRoles(ctx context.Context, plan query.PagePlan) ([]Role, int, error) {
	return query.Window(m.inserts, plan), len(m.inserts), nil
}

type permStore map[string]rbac.Permission

func (p permStore) FindPermissionsByIDs(ctx context.Context, ids []string) ([]rbac.Permission, error) {
	var out []rbac.Permission
	for _, id := range ids {
		if perm, ok := p[id]; ok {
			out = append(out, perm)
		}
	}
	return out, nil
}

func newTestService(repo *mockRepo) *Service {
	perms := permStore{
		"p-read":   {ID: "p-read", Name: "read"},
		"p-create": {ID: "p-create", Name: "create"},
	}
	return NewService(repo, rbac.NewResolver(nil, perms))
}

func TestCreateRoleWithMissingPermissionDoesNotInsert(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	_, err := svc.CreateRole(context.Background(), CreateRoleInput{
		Name:        "Auditor",
		Description: "Read only",
		Permissions: []string{"p-read", "p-ghost"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, repo.inserts)
}

func TestCreateRoleRejectsDuplicateName(t *testing.T) {
	repo := &mockRepo{byName: map[string]Role{"Admin": {ID: "r1", Name: "Admin"}}}
	svc := newTestService(repo)

	_, err := svc.CreateRole(context.Background(), CreateRoleInput{Name: "Admin", Description: "x", Permissions: []string{"p-read"}})
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Empty(t, repo.inserts)
}

func TestCreateRoleRequiresPermissions(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	_, err := svc.CreateRole(context.Background(), CreateRoleInput{Name: "Empty", Description: "x"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRoleRejectsBlankPermissionIDs(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	_, err := svc.CreateRole(context.Background(), CreateRoleInput{
		Name:        "Ghost",
		Description: "d",
		Permissions: []string{" ", ""},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Empty(t, repo.inserts)
}

func TestCreateRoleStoresResolvedPermissions(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo)

	role, err := svc.CreateRole(context.Background(), CreateRoleInput{
		Name:        "Editor",
		Description: "Edits",
		Permissions: []string{"p-read", "p-create"},
	})
	require.NoError(t, err)
	require.Len(t, repo.inserts, 1)
	assert.Equal(t, role.ID, repo.inserts[0].ID)
	assert.ElementsMatch(t, []string{"p-read", "p-create"}, role.PermissionIDs)

	page, err := svc.ListRoles(context.Background(), query.PageParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}
