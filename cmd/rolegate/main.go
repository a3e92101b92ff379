package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rolegate/rolegate/internal/app"
	"github.com/rolegate/rolegate/internal/assessments"
	"github.com/rolegate/rolegate/internal/auth"
	"github.com/rolegate/rolegate/internal/observability"
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
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Warn("JWT_SECRET is not set; logins will fail until it is configured")
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	metrics := observability.NewMetrics()
	hasher := password.NewBcrypt()
	codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	sessions := auth.NewRedisSessionStore(redisClient, cfg.SessionPrefix)

	permissionRepo := rbac.NewPermissionRepository(dbpool)
	roleRepo := roles.NewRepository(dbpool)
	resolver := rbac.NewResolver(roleRepo, permissionRepo)

	userService := users.NewService(users.NewRepository(dbpool), resolver, hasher)
	roleService := roles.NewService(roleRepo, resolver)
	permissionService := rbac.NewService(permissionRepo)
	assessmentService := assessments.NewService(assessments.NewRepository(dbpool), userService)
	authService := auth.NewService(userService, hasher, codec, sessions)

	gate := auth.NewGate(codec, sessions, userService, resolver)
	guard := auth.Middleware{Gate: gate, Logger: logger, Observer: metrics}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Metrics:            metrics,
		AuthHandler:        auth.NewHandler(logger, authService, guard, app.LoginLimiter(cfg)),
		UsersHandler:       users.NewHandler(logger, userService, guard),
		RolesHandler:       roles.NewHandler(logger, roleService, guard),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, permissionService, guard),
		AssessmentsHandler: assessments.NewHandler(logger, assessmentService, guard),
		JobHandler:         jobs.NewHandler(inspector, jobClient, guard, logger),
		HealthChecks: map[string]app.HealthCheck{
			"postgres": dbpool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
