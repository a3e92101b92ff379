package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/shared"
)

const uniqueViolation = "23505"

// PermissionRepository provides PostgreSQL backed persistence for permissions.
type PermissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository constructs a repository.
func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

// CreatePermission inserts p. A duplicate name yields shared.ErrConflict.
func (r *PermissionRepository) CreatePermission(ctx context.Context, p Permission) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO permissions (id, name, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`, p.ID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.Conflictf("Permission %s already exists", p.Name)
		}
		return shared.StorageFault("rbac: create permission", err)
	}
	return nil
}

// FindPermissionByName returns nil when no permission carries name.
func (r *PermissionRepository) FindPermissionByName(ctx context.Context, name string) (*Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at
FROM permissions WHERE name = $1`, name).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, shared.StorageFault("rbac: find permission", err)
	}
	return &p, nil
}

// FindPermissionsByIDs performs one batch lookup. Unknown ids are skipped.
func (r *PermissionRepository) FindPermissionsByIDs(ctx context.Context, ids []string) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at
FROM permissions WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, shared.StorageFault("rbac: find permissions", err)
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// ListPermissions returns one page plus the total matching count.
func (r *PermissionRepository) ListPermissions(ctx context.Context, plan query.PagePlan) ([]Permission, int, error) {
	where, args := plan.Predicate.Where(1)
	var (
		perms []Permission
		total int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions`+where, args...).Scan(&total)
	})
	g.Go(func() error {
		sql := `SELECT id, name, description, created_at, updated_at FROM permissions` + where +
			` ORDER BY created_at, id` + query.LimitOffset(len(args)+1)
		rows, err := r.pool.Query(ctx, sql, plan.Args(args)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		perms, err = scanPermissions(rows)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, shared.StorageFault("rbac: list permissions", err)
	}
	return perms, total, nil
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	perms := make([]Permission, 0)
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
