package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rolegate/rolegate/internal/app"
	"github.com/rolegate/rolegate/internal/platform/db"
	"github.com/rolegate/rolegate/internal/platform/password"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

//go:embed schema.sql
var schemaSQL string

func main() {
	fixturesPath := flag.String("fixtures", "", "path to a fixtures YAML file (defaults to the embedded set)")
	applySchema := flag.Bool("schema", true, "create tables before seeding")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	data := defaultFixtures
	if *fixturesPath != "" {
		data, err = os.ReadFile(*fixturesPath)
		if err != nil {
			logger.Error("read fixtures", slog.Any("error", err))
			os.Exit(1)
		}
	}
	fx, err := ParseFixtures(data)
	if err != nil {
		logger.Error("parse fixtures", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if *applySchema {
		if _, err := pool.Exec(ctx, schemaSQL); err != nil {
			logger.Error("apply schema", slog.Any("error", err))
			os.Exit(1)
		}
	}

	s := seeder{hasher: password.NewBcrypt(), logger: logger, now: time.Now().UTC()}
	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		permIDs, err := s.permissions(ctx, tx, fx.Permissions)
		if err != nil {
			return fmt.Errorf("seed permissions: %w", err)
		}
		roleIDs, err := s.roles(ctx, tx, fx.Roles, permIDs)
		if err != nil {
			return fmt.Errorf("seed roles: %w", err)
		}
		if err := s.users(ctx, tx, fx.Users, roleIDs); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		return nil
	})
	if err != nil {
		logger.Error("seed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete")
}

type seeder struct {
	hasher password.Hasher
	logger *slog.Logger
	now    time.Time
}

// Each stage is skipped when its table already holds rows; the existing
// name-to-id mapping is returned so later stages can still resolve.
func (s seeder) permissions(ctx context.Context, tx pgx.Tx, items []PermissionFixture) (map[string]string, error) {
	existing, err := nameIndex(ctx, tx, "permissions")
	if err != nil || len(existing) > 0 {
		if err == nil {
			s.logger.Info("permissions present, skipping", slog.Int("count", len(existing)))
		}
		return existing, err
	}
	ids := make(map[string]string, len(items))
	for _, p := range items {
		id := uuid.NewString()
		if _, err := tx.Exec(ctx, `INSERT INTO permissions (id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
			id, p.Name, p.Description, s.now); err != nil {
			return nil, err
		}
		ids[p.Name] = id
	}
	s.logger.Info("permissions seeded", slog.Int("count", len(ids)))
	return ids, nil
}

func (s seeder) roles(ctx context.Context, tx pgx.Tx, items []RoleFixture, permIDs map[string]string) (map[string]string, error) {
	existing, err := nameIndex(ctx, tx, "roles")
	if err != nil || len(existing) > 0 {
		if err == nil {
			s.logger.Info("roles present, skipping", slog.Int("count", len(existing)))
		}
		return existing, err
	}
	ids := make(map[string]string, len(items))
	for _, r := range items {
		perms, err := lookupIDs("permission", permIDs, r.Permissions)
		if err != nil {
			return nil, err
		}
		id := uuid.NewString()
		if _, err := tx.Exec(ctx, `INSERT INTO roles (id, name, description, permission_ids, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)`,
			id, r.Name, r.Description, perms, s.now); err != nil {
			return nil, err
		}
		ids[r.Name] = id
	}
	s.logger.Info("roles seeded", slog.Int("count", len(ids)))
	return ids, nil
}

func (s seeder) users(ctx context.Context, tx pgx.Tx, items []UserFixture, roleIDs map[string]string) error {
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("users present, skipping", slog.Int("count", count))
		return nil
	}
	for _, u := range items {
		roles, err := lookupIDs("role", roleIDs, u.Roles)
		if err != nil {
			return err
		}
		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO users (id, email, name, password_hash, role_ids, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			uuid.NewString(), strings.ToLower(strings.TrimSpace(u.Email)), u.Name, hash, roles, s.now); err != nil {
			return err
		}
	}
	s.logger.Info("users seeded", slog.Int("count", len(items)))
	return nil
}

func nameIndex(ctx context.Context, tx pgx.Tx, table string) (map[string]string, error) {
	rows, err := tx.Query(ctx, `SELECT id, name FROM `+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[name] = id
	}
	return out, rows.Err()
}
