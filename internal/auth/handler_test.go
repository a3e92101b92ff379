package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rolegate/rolegate/internal/auth"
	"github.com/rolegate/rolegate/internal/platform/password"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
	"github.com/rolegate/rolegate/internal/users"
	_ "github.com/rolegate/rolegate/testing"
)

type userDir struct {
	byID map[string]users.User
	err  error
}

func (d *userDir) FindUserByID(ctx context.Context, id string) (*users.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	u, ok := d.byID[id]
	if !ok {
		return nil, nil
	}
	u.PasswordHash = ""
	return &u, nil
}

func (d *userDir) FindUserByEmail(ctx context.Context, email string) (*users.User, error) {
	for _, u := range d.byID {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

type roleDir map[string]rbac.Role

func (r roleDir) FindRolesByIDs(ctx context.Context, ids []string) ([]rbac.Role, error) {
	var out []rbac.Role
	for _, id := range ids {
		if role, ok := r[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

type countingObserver struct {
	outcomes map[string]int
}

func (o *countingObserver) ObserveAuthz(outcome string) {
	o.outcomes[outcome]++
}

type fixture struct {
	codec    *auth.TokenCodec
	sessions *auth.RedisSessionStore
	users    *userDir
	service  *auth.Service
	observer *countingObserver
	router   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hasher := password.Bcrypt{Cost: bcrypt.MinCost}
	adminHash, err := hasher.Hash("admin123")
	require.NoError(t, err)
	basicHash, err := hasher.Hash("basic123")
	require.NoError(t, err)

	dir := &userDir{byID: map[string]users.User{
		"admin": {ID: "admin", Email: "admin@example.com", PasswordHash: adminHash, Roles: []string{"r-admin"}},
		"basic": {ID: "basic", Email: "basic@example.com", PasswordHash: basicHash, Roles: []string{"r-basic", "r-deleted"}},
		"bare":  {ID: "bare", Email: "bare@example.com", PasswordHash: basicHash, Roles: []string{}},
	}}
	roles := roleDir{
		"r-admin": {ID: "r-admin", Name: shared.RoleAdmin},
		"r-basic": {ID: "r-basic", Name: shared.RoleBasic},
	}

	f := &fixture{
		codec:    auth.NewTokenCodec("s3cret", time.Hour),
		sessions: auth.NewRedisSessionStore(client, "session"),
		users:    dir,
		observer: &countingObserver{outcomes: map[string]int{}},
	}
	f.service = auth.NewService(dir, hasher, f.codec, f.sessions)
	gate := auth.NewGate(f.codec, f.sessions, dir, rbac.NewResolver(roles, nil))
	mw := auth.Middleware{Gate: gate, Observer: f.observer}

	r := chi.NewRouter()
	r.Route("/api/sessions", auth.NewHandler(nil, f.service, mw, nil).MountRoutes)
	r.With(mw.RequireAny(shared.AdminOnly()...)).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		p := shared.PrincipalFromContext(r.Context())
		_, _ = w.Write([]byte(p.UserID))
	})
	r.With(mw.RequireAny(shared.AnyRole()...)).Get("/any", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	f.router = r
	return f
}

func (f *fixture) login(t *testing.T, userID string) string {
	t.Helper()
	res, err := f.service.CreateSession(context.Background(), userID)
	require.NoError(t, err)
	require.True(t, res.Success)
	return res.Token
}

func (f *fixture) get(path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestGateWithoutToken(t *testing.T) {
	f := newFixture(t)
	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "bearer abc"} {
		rec := f.get("/any", header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.JSONEq(t, `{"message":"Authentication token not supplied."}`, rec.Body.String())
	}
}

func TestGateRejectsForeignToken(t *testing.T) {
	f := newFixture(t)
	foreign, err := auth.NewTokenCodec("different", time.Hour).Sign(auth.Claims{UserID: "admin"})
	require.NoError(t, err)

	rec := f.get("/any", "Bearer "+foreign)
	assert.Equal(t, 498, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid authentication token."}`, rec.Body.String())
	assert.Equal(t, 1, f.observer.outcomes[string(auth.DenyInvalidToken)])
}

func TestGateRejectsUnregisteredToken(t *testing.T) {
	f := newFixture(t)
	token, err := f.codec.Sign(auth.Claims{UserID: "admin"})
	require.NoError(t, err)

	rec := f.get("/any", "Bearer "+token)
	assert.Equal(t, 498, rec.Code)
}

func TestGateRejectsRotatedOutToken(t *testing.T) {
	f := newFixture(t)
	first := f.login(t, "basic")
	second := f.login(t, "basic")
	require.NotEqual(t, first, second)

	assert.Equal(t, 498, f.get("/any", "Bearer "+first).Code)
	assert.Equal(t, http.StatusOK, f.get("/any", "Bearer "+second).Code)
}

func TestGateRoleMatching(t *testing.T) {
	f := newFixture(t)
	basic := f.login(t, "basic")
	admin := f.login(t, "admin")

	rec := f.get("/admin", "Bearer "+basic)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Not authorized!"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, f.get("/any", "Bearer "+basic).Code)

	rec = f.get("/admin", "Bearer "+admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Body.String())
	assert.Equal(t, 2, f.observer.outcomes["allow"])
}

func TestGateUserWithoutRoles(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "bare")

	rec := f.get("/any", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Not authorized!"}`, rec.Body.String())

	delete(f.users.byID, "bare")
	assert.Equal(t, http.StatusUnauthorized, f.get("/any", "Bearer "+token).Code)
}

func TestGateStorageFault(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "admin")
	f.users.err = shared.StorageFault("users: find", errors.New("connection reset"))

	rec := f.get("/any", "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	assert.Equal(t, 1, f.observer.outcomes["error"])
}

func TestGateDecideIsReadOnly(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "admin")
	before, err := f.sessions.FindByUser(context.Background(), "admin")
	require.NoError(t, err)

	gate := auth.NewGate(f.codec, f.sessions, f.users, rbac.NewResolver(roleDir{"r-admin": {ID: "r-admin", Name: shared.RoleAdmin}}, nil))
	d, err := gate.Decide(context.Background(), token, []string{shared.RoleAdmin, shared.RoleBasic})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, before.ID, d.Principal.SessionID)

	after, err := f.sessions.FindByUser(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLoginEndpoint(t *testing.T) {
	f := newFixture(t)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{"email":"admin@example.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid email or password"}`, rec.Body.String())

	rec = post(`{"email":"nobody@example.com","password":"admin123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid email or password"}`, rec.Body.String())

	rec = post(`{"email":"admin@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(`{"email":"admin@example.com","password":"admin123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"token":"`)
}

func TestLogoutEndsSession(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "admin")

	req := httptest.NewRequest(http.MethodDelete, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 498, f.get("/any", "Bearer "+token).Code)
}
