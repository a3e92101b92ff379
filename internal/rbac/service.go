package rbac

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/shared"
)

// PermissionRepositoryPort defines data access methods for permissions.
type PermissionRepositoryPort interface {
	PermissionStore
	CreatePermission(ctx context.Context, p Permission) error
	FindPermissionByName(ctx context.Context, name string) (*Permission, error)
	ListPermissions(ctx context.Context, plan query.PagePlan) ([]Permission, int, error)
}

// Service orchestrates permission management.
type Service struct {
	repo PermissionRepositoryPort
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo PermissionRepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreatePermission registers a permission with a unique name.
func (s *Service) CreatePermission(ctx context.Context, in CreatePermissionInput) (Permission, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Permission{}, shared.NewFieldError("name", "name is required")
	}
	existing, err := s.repo.FindPermissionByName(ctx, name)
	if err != nil {
		return Permission{}, err
	}
	if existing != nil {
		return Permission{}, shared.Conflictf("Permission %s already exists", name)
	}
	now := s.now().UTC()
	p := Permission{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreatePermission(ctx, p); err != nil {
		return Permission{}, err
	}
	return p, nil
}

// ListPermissions returns a page of permissions.
func (s *Service) ListPermissions(ctx context.Context, params query.PageParams) (shared.Page[Permission], error) {
	plan, err := query.Plan(params.Page, params.PageSize)
	if err != nil {
		return shared.Page[Permission]{}, err
	}
	perms, total, err := s.repo.ListPermissions(ctx, plan)
	if err != nil {
		return shared.Page[Permission]{}, err
	}
	return shared.NewPage(perms, total), nil
}
