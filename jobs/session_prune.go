package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rolegate/rolegate/internal/auth"
	jobmetrics "github.com/rolegate/rolegate/internal/jobs"
	"github.com/rolegate/rolegate/internal/shared"
	"github.com/rolegate/rolegate/internal/users"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SessionSource is the slice of the session store the prune job walks.
type SessionSource interface {
	Each(ctx context.Context, fn func(auth.Session) error) error
	Delete(ctx context.Context, id string) (bool, error)
}

// UserLookup reports whether a session owner still exists.
type UserLookup interface {
	FindUserByID(ctx context.Context, id string) (*users.User, error)
}

// SessionPruneJob deletes sessions whose token no longer verifies, whose token
// names another user, or whose user was deleted.
type SessionPruneJob struct {
	Sessions SessionSource
	Tokens   auth.TokenVerifier
	Users    UserLookup
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewSessionPruneJob wires dependencies for the prune handler.
func NewSessionPruneJob(sessions SessionSource, tokens auth.TokenVerifier, userLookup UserLookup, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionPruneJob {
	return &SessionPruneJob{
		Sessions: sessions,
		Tokens:   tokens,
		Users:    userLookup,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskSessionsPrune tasks.
func (j *SessionPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("sessions prune: handler not configured")
	}
	var payload SessionsPrunePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := j.Run(ctx, payload)
	return err
}

// Run walks every session once and returns how many were stale.
func (j *SessionPruneJob) Run(ctx context.Context, payload SessionsPrunePayload) (pruned int, resultErr error) {
	if j.Sessions == nil || j.Tokens == nil || j.Users == nil {
		return 0, errors.New("sessions prune: dependencies not configured")
	}
	tracker := j.metrics().Track(TaskSessionsPrune)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Bool("dry_run", payload.DryRun))
	started := j.now()
	logger.Info("starting session prune")

	var stale []string
	err := j.Sessions.Each(ctx, func(sess auth.Session) error {
		ok, err := j.live(ctx, sess)
		if err != nil {
			return err
		}
		if !ok {
			stale = append(stale, sess.ID)
		}
		return nil
	})
	if err != nil {
		logger.Error("scan sessions", slog.Any("error", err))
		return 0, err
	}

	if payload.DryRun {
		logger.Info("completed session prune", slog.Int("stale", len(stale)))
		return len(stale), nil
	}
	for _, id := range stale {
		deleted, err := j.Sessions.Delete(ctx, id)
		if err != nil {
			logger.Error("delete session", slog.String("session_id", id), slog.Any("error", err))
			j.metrics().AddPruned(pruned)
			return pruned, err
		}
		if deleted {
			pruned++
		}
	}
	j.metrics().AddPruned(pruned)

	logger.Info("completed session prune", slog.Int("pruned", pruned), slog.Duration("duration", j.now().Sub(started)))
	return pruned, nil
}

func (j *SessionPruneJob) live(ctx context.Context, sess auth.Session) (bool, error) {
	claims, err := j.Tokens.Verify(sess.Token)
	if err != nil {
		if errors.Is(err, shared.ErrConfiguration) {
			return false, err
		}
		return false, nil
	}
	if claims.UserID != sess.UserID {
		return false, nil
	}
	user, err := j.Users.FindUserByID(ctx, sess.UserID)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (j *SessionPruneJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSessionsPrune))
	}
	return slog.Default().With(slog.String("job", TaskSessionsPrune))
}

func (j *SessionPruneJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SessionPruneJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
