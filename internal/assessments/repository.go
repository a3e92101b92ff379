package assessments

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/shared"
)

const columns = `id, user_id, rating, comment, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a.
func (r *Repository) Create(ctx context.Context, a Assessment) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO assessments (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.Rating, a.Comment, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return shared.StorageFault("assessments: create", err)
	}
	return nil
}

// FindByID returns nil when the assessment does not exist.
func (r *Repository) FindByID(ctx context.Context, id string) (*Assessment, error) {
	var a Assessment
	err := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM assessments WHERE id = $1`, id).
		Scan(&a.ID, &a.UserID, &a.Rating, &a.Comment, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, shared.StorageFault("assessments: find", err)
	}
	return &a, nil
}

// Update replaces rating and comment and reports whether a row matched.
func (r *Repository) Update(ctx context.Context, id string, in UpdateInput) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE assessments SET rating = $2, comment = $3, updated_at = NOW() WHERE id = $1`,
		id, in.Rating, in.Comment)
	if err != nil {
		return false, shared.StorageFault("assessments: update", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id)
	if err != nil {
		return false, shared.StorageFault("assessments: delete", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List runs the page query and the count query with the same predicate.
func (r *Repository) List(ctx context.Context, plan query.PagePlan) ([]Assessment, int, error) {
	where, args := plan.Predicate.Where(1)
	var (
		list  []Assessment
		total int
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assessments`+where, args...).Scan(&total)
	})
	g.Go(func() error {
		rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM assessments`+where+
			` ORDER BY created_at DESC, id`+query.LimitOffset(len(args)+1), plan.Args(args)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		list = make([]Assessment, 0, plan.Limit)
		for rows.Next() {
			var a Assessment
			if err := rows.Scan(&a.ID, &a.UserID, &a.Rating, &a.Comment, &a.CreatedAt, &a.UpdatedAt); err != nil {
				return err
			}
			list = append(list, a)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, shared.StorageFault("assessments: list", err)
	}
	return list, total, nil
}
