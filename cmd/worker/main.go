package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/rolegate/rolegate/internal/app"
	"github.com/rolegate/rolegate/internal/auth"
	"github.com/rolegate/rolegate/internal/platform/cache"
	"github.com/rolegate/rolegate/internal/platform/db"
	"github.com/rolegate/rolegate/internal/platform/password"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/roles"
	"github.com/rolegate/rolegate/internal/users"
	"github.com/rolegate/rolegate/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required by the session prune job")
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	roleRepo := roles.NewRepository(pool)
	resolver := rbac.NewResolver(roleRepo, rbac.NewPermissionRepository(pool))
	userService := users.NewService(users.NewRepository(pool), resolver, password.NewBcrypt())

	pruneJob := jobs.NewSessionPruneJob(
		auth.NewRedisSessionStore(redisClient, cfg.SessionPrefix),
		auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL),
		userService,
		logger,
		nil,
	)
	pruneTask, err := jobs.NewSessionsPruneTask(jobs.SessionsPrunePayload{})
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSessionsPrune, Handler: pruneJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SessionPruneCron, Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
