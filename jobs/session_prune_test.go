package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolegate/rolegate/internal/auth"
	jobmetrics "github.com/rolegate/rolegate/internal/jobs"
	"github.com/rolegate/rolegate/internal/shared"
	"github.com/rolegate/rolegate/internal/users"
	_ "github.com/rolegate/rolegate/testing"
)

type userDir struct {
	users map[string]*users.User
	err   error
}

func (d userDir) FindUserByID(_ context.Context, id string) (*users.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.users[id], nil
}

type pruneFixture struct {
	store *auth.RedisSessionStore
	codec *auth.TokenCodec
	job   *SessionPruneJob
	dir   *userDir
}

func newPruneFixture(t *testing.T) *pruneFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := auth.NewRedisSessionStore(client, "prune_test")
	codec := auth.NewTokenCodec("prune-secret", time.Hour)
	dir := &userDir{users: map[string]*users.User{
		"alive":  {ID: "alive"},
		"forged": {ID: "forged"},
	}}
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	job := NewSessionPruneJob(store, codec, dir, nil, metrics)
	return &pruneFixture{store: store, codec: codec, job: job, dir: dir}
}

func (f *pruneFixture) login(t *testing.T, userID, token string) *auth.Session {
	t.Helper()
	sess, err := f.store.Create(context.Background(), userID, token)
	require.NoError(t, err)
	return sess
}

func (f *pruneFixture) sign(t *testing.T, userID string) string {
	t.Helper()
	tok, err := f.codec.Sign(auth.Claims{UserID: userID})
	require.NoError(t, err)
	return tok
}

func TestSessionPruneRemovesStaleSessions(t *testing.T) {
	f := newPruneFixture(t)
	ctx := context.Background()

	alive := f.login(t, "alive", f.sign(t, "alive"))
	f.login(t, "deleted", f.sign(t, "deleted"))
	f.login(t, "forged", f.sign(t, "alive"))
	other, err := auth.NewTokenCodec("other-secret", time.Hour).Sign(auth.Claims{UserID: "alive"})
	require.NoError(t, err)
	f.login(t, "foreign", other)

	pruned, err := f.job.Run(ctx, SessionsPrunePayload{})
	require.NoError(t, err)
	assert.Equal(t, 3, pruned)

	var remaining []string
	require.NoError(t, f.store.Each(ctx, func(s auth.Session) error {
		remaining = append(remaining, s.ID)
		return nil
	}))
	assert.Equal(t, []string{alive.ID}, remaining)

	got, err := f.store.FindByToken(ctx, alive.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestSessionPruneDryRunKeepsSessions(t *testing.T) {
	f := newPruneFixture(t)
	ctx := context.Background()

	f.login(t, "deleted", f.sign(t, "deleted"))

	stale, err := f.job.Run(ctx, SessionsPrunePayload{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stale)

	sess, err := f.store.FindByUser(ctx, "deleted")
	require.NoError(t, err)
	assert.NotNil(t, sess)
}

func TestSessionPruneStopsOnLookupFault(t *testing.T) {
	f := newPruneFixture(t)
	f.login(t, "alive", f.sign(t, "alive"))
	f.dir.err = shared.StorageFault("find user", errors.New("connection refused"))

	_, err := f.job.Run(context.Background(), SessionsPrunePayload{})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStorage)

	sess, err := f.store.FindByUser(context.Background(), "alive")
	require.NoError(t, err)
	assert.NotNil(t, sess)
}

func TestSessionPruneHandleRejectsBadPayload(t *testing.T) {
	f := newPruneFixture(t)

	err := f.job.Handle(context.Background(), asynq.NewTask(TaskSessionsPrune, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, err := NewSessionsPruneTask(SessionsPrunePayload{})
	require.NoError(t, err)
	assert.NoError(t, f.job.Handle(context.Background(), task))
	assert.Equal(t, TaskSessionsPrune, task.Type())
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }

type stubEnqueuer struct {
	calls []SessionsPrunePayload
}

func (s *stubEnqueuer) EnqueueSessionsPrune(_ context.Context, p SessionsPrunePayload) (string, error) {
	s.calls = append(s.calls, p)
	return "task-1", nil
}

func TestJobsHandlerRoutes(t *testing.T) {
	enq := &stubEnqueuer{}
	h := NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4}}, enq, shared.OpenGuard{}, nil)
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":4,"active":0,"failed":0}`, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/sessions-prune?dryRun=true", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Len(t, enq.calls, 1)
	assert.True(t, enq.calls[0].DryRun)
}

func TestJobsHealthReportsInspectorFault(t *testing.T) {
	h := NewHandler(stubInspector{err: errors.New("redis down")}, nil, nil, nil)
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/sessions-prune", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
