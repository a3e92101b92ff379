package assessments

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/shared"
	"github.com/rolegate/rolegate/internal/users"
)

// RepositoryPort defines data access methods for assessments.
type RepositoryPort interface {
	Create(ctx context.Context, a Assessment) error
	FindByID(ctx context.Context, id string) (*Assessment, error)
	Update(ctx context.Context, id string, in UpdateInput) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, plan query.PagePlan) ([]Assessment, int, error)
}

// UserLookup confirms the referenced user exists.
type UserLookup interface {
	FindUserByID(ctx context.Context, id string) (*users.User, error)
}

// Service handles assessment business logic.
type Service struct {
	repo  RepositoryPort
	users UserLookup
	now   func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, users UserLookup) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

// Create stores an assessment for an existing user.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Assessment, error) {
	if err := checkRating(in.Rating); err != nil {
		return nil, err
	}
	u, err := s.users.FindUserByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, shared.NotFoundf("User not found")
	}
	now := s.now().UTC()
	a := Assessment{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Get returns the assessment or shared.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Assessment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, shared.NotFoundf("Assessment not found")
	}
	return a, nil
}

// Update replaces rating and comment.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) error {
	if err := checkRating(in.Rating); err != nil {
		return err
	}
	in.Comment = strings.TrimSpace(in.Comment)
	ok, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NotFoundf("Assessment not found")
	}
	return nil
}

// Delete removes an assessment.
func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NotFoundf("Assessment not found")
	}
	return nil
}

// List plans the filtered page and returns it with the filtered total.
func (s *Service) List(ctx context.Context, f ListFilter) (shared.Page[Assessment], error) {
	if f.Rating.IsSet() {
		if err := checkRating(f.Rating.Value); err != nil {
			return shared.Page[Assessment]{}, err
		}
	}
	plan, err := query.Plan(f.Page, f.PageSize, f.Filters()...)
	if err != nil {
		return shared.Page[Assessment]{}, err
	}
	list, total, err := s.repo.List(ctx, plan)
	if err != nil {
		return shared.Page[Assessment]{}, err
	}
	return shared.NewPage(list, total), nil
}

func checkRating(v int) error {
	if v < 1 || v > 5 {
		return shared.NewFieldError("rating", "Rating must be between 1 and 5")
	}
	return nil
}
