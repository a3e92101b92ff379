package users

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
)

const userColumns = `id, email, name, password_hash, role_ids, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindUserByID returns the user without its password hash, or nil.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*User, error) {
	u, err := r.findOne(ctx, `id = $1`, id)
	if err != nil || u == nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}

// FindUserByEmail returns the user including its password hash, or nil.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *Repository) findOne(ctx context.Context, cond string, arg any) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+cond, arg)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, shared.StorageFault("users: find", err)
	}
	return u, nil
}

// CreateUser inserts u. A duplicate email yields shared.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, u User) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Roles, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if rbac.IsUniqueViolation(err) {
			return shared.Conflictf("User with email %s already exists", u.Email)
		}
		return shared.StorageFault("users: create", err)
	}
	return nil
}

// UpdateUserName reports whether a row was modified.
func (r *Repository) UpdateUserName(ctx context.Context, id, name string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1`, id, name)
	if err != nil {
		return false, shared.StorageFault("users: update", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteUser reports whether a row was removed.
func (r *Repository) DeleteUser(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, shared.StorageFault("users: delete", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListUsers returns one page plus the total matching count. Password hashes
// are not selected.
func (r *Repository) ListUsers(ctx context.Context, plan query.PagePlan) ([]User, int, error) {
	where, args := plan.Predicate.Where(1)
	var (
		list  []User
		total int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.pool.Query(ctx, `SELECT id, email, name, '' AS password_hash, role_ids, created_at, updated_at FROM users`+where+
			` ORDER BY created_at, id`+query.LimitOffset(len(args)+1), plan.Args(args)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = make([]User, 0)
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			list = append(list, *u)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, shared.StorageFault("users: list", err)
	}
	return list, total, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Roles, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return &u, nil
}
