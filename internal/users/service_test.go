package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rolegate/rolegate/internal/platform/password"
	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
)

type mockRepo struct {
	users map[string]User
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: map[string]User{}}
}

func (m *mockRepo) FindUserByID(ctx context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *mockRepo) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) CreateUser(ctx context.Context, u User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) UpdateUserName(ctx context.Context, id, name string) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	u.Name = name
	m.users[id] = u
	return true, nil
}

func (m *mockRepo) DeleteUser(ctx context.Context, id string) (bool, error) {
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *mockRepo) ListUsers(ctx context.Context, plan query.PagePlan) ([]User, int, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return query.Window(out, plan), len(out), nil
}

type roleStore map[string]rbac.Role

func (s roleStore) FindRolesByIDs(ctx context.Context, ids []string) ([]rbac.Role, error) {
	var out []rbac.Role
	for _, id := range ids {
		if r, ok := s[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

var basicRoleID = uuid.NewString()

func newTestService(repo *mockRepo) *Service {
	roles := roleStore{basicRoleID: {ID: basicRoleID, Name: shared.RoleBasic}}
	return NewService(repo, rbac.NewResolver(roles, nil), password.Bcrypt{Cost: bcrypt.MinCost})
}

func TestFindUserByIDStripsHashAndNormalizesRoles(t *testing.T) {
	repo := newMockRepo()
	repo.users["u1"] = User{ID: "u1", Email: "a@example.com", PasswordHash: "hash"}
	svc := newTestService(repo)

	u, err := svc.FindUserByID(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Empty(t, u.PasswordHash)
	assert.NotNil(t, u.Roles)
	assert.Empty(t, u.Roles)

	u, err = svc.FindUserByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestFindUserByEmailKeepsHash(t *testing.T) {
	repo := newMockRepo()
	repo.users["u1"] = User{ID: "u1", Email: "a@example.com", PasswordHash: "hash"}
	svc := newTestService(repo)

	u, err := svc.FindUserByEmail(context.Background(), " A@Example.com ")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "hash", u.PasswordHash)
}

func TestCreateUser(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	u, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name: "Ana", Email: "Ana@Example.com", Password: "secret1", Roles: []string{basicRoleID},
	})
	require.NoError(t, err)
	assert.Empty(t, u.PasswordHash)
	assert.Equal(t, "ana@example.com", u.Email)

	stored := repo.users[u.ID]
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	ok, err := password.Bcrypt{}.Compare(stored.PasswordHash, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{basicRoleID}, stored.Roles)
}

func TestCreateUserRejections(t *testing.T) {
	repo := newMockRepo()
	repo.users["u1"] = User{ID: "u1", Email: "taken@example.com"}
	svc := newTestService(repo)

	_, err := svc.CreateUser(context.Background(), CreateUserInput{Name: "x", Email: "taken@example.com", Password: "secret1", Roles: []string{basicRoleID}})
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{Name: "x", Email: "new@example.com", Password: "123", Roles: []string{basicRoleID}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{Name: "x", Email: "new@example.com", Password: "secret1", Roles: []string{"not-a-uuid"}})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{Name: "x", Email: "new@example.com", Password: "secret1", Roles: []string{basicRoleID, uuid.NewString()}})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Len(t, repo.users, 1)
}

func TestUpdateAndDeleteMissingUser(t *testing.T) {
	svc := newTestService(newMockRepo())
	assert.ErrorIs(t, svc.UpdateUser(context.Background(), "nope", UpdateUserInput{Name: "x"}), shared.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteUser(context.Background(), "nope"), shared.ErrNotFound)
}

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/users", NewHandler(nil, svc, shared.OpenGuard{}).MountRoutes)
	return r
}

func TestHandlerRegistrationAndLookup(t *testing.T) {
	repo := newMockRepo()
	router := newTestRouter(newTestService(repo))

	body := `{"name":"Bo","email":"bo@example.com","password":"secret1","roles":["` + basicRoleID + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	var id string
	for k := range repo.users {
		id = k
	}
	req = httptest.NewRequest(http.MethodGet, "/api/users/"+id, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"bo@example.com"`)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestHandlerValidation(t *testing.T) {
	router := newTestRouter(newTestService(newMockRepo()))

	req := httptest.NewRequest(http.MethodGet, "/api/users/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid user ID"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"name":"x","email":"bad","password":"secret1","roles":["r"]}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	req = httptest.NewRequest(http.MethodGet, "/api/users?pageSize=500", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/users/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
