package roles

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
)

const roleColumns = `id, name, description, permission_ids, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateRole inserts role. A duplicate name yields shared.ErrConflict.
func (r *Repository) CreateRole(ctx context.Context, role Role) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO roles (`+roleColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		role.ID, role.Name, role.Description, role.PermissionIDs, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		if rbac.IsUniqueViolation(err) {
			return shared.Conflictf("Role %s already exists", role.Name)
		}
		return shared.StorageFault("roles: create", err)
	}
	return nil
}

// FindRoleByName returns nil when no role carries name.
func (r *Repository) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	if err != nil {
		return nil, shared.StorageFault("roles: find by name", err)
	}
	defer rows.Close()
	found, err := scanRoles(rows)
	if err != nil {
		return nil, shared.StorageFault("roles: find by name", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

// FindRolesByIDs implements rbac.RoleStore with a single ANY($1) query.
func (r *Repository) FindRolesByIDs(ctx context.Context, ids []string) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, shared.StorageFault("roles: find by ids", err)
	}
	defer rows.Close()
	found, err := scanRoles(rows)
	if err != nil {
		return nil, shared.StorageFault("roles: find by ids", err)
	}
	return found, nil
}

// ListRoles returns one page plus the total matching count.
func (r *Repository) ListRoles(ctx context.Context, plan query.PagePlan) ([]Role, int, error) {
	where, args := plan.Predicate.Where(1)
	var (
		list  []Role
		total int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles`+where, args...).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles`+where+
			` ORDER BY created_at, id`+query.LimitOffset(len(args)+1), plan.Args(args)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		list, err = scanRoles(rows)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, shared.StorageFault("roles: list", err)
	}
	return list, total, nil
}

func scanRoles(rows pgx.Rows) ([]Role, error) {
	out := make([]Role, 0)
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.PermissionIDs, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		if role.PermissionIDs == nil {
			role.PermissionIDs = []string{}
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ rbac.RoleStore = (*Repository)(nil)
