package roles

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	CreateRole(ctx context.Context, role Role) error
	FindRoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context, plan query.PagePlan) ([]Role, int, error)
}

// PermissionValidator confirms that every referenced permission exists.
type PermissionValidator interface {
	ResolvePermissionsByIDs(ctx context.Context, ids []string) ([]rbac.Permission, error)
}

// Service handles role business logic.
type Service struct {
	repo  RepositoryPort
	perms PermissionValidator
	now   func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, perms PermissionValidator) *Service {
	return &Service{repo: repo, perms: perms, now: time.Now}
}

// CreateRole validates the name and every permission reference before the
// insert. A missing permission fails with shared.ErrNotFound and nothing is
// written.
func (s *Service) CreateRole(ctx context.Context, in CreateRoleInput) (Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Role{}, shared.NewFieldError("name", "name is required")
	}
	if len(in.Permissions) == 0 {
		return Role{}, shared.NewFieldError("permissions", "permissions must contain at least 1 item(s)")
	}
	existing, err := s.repo.FindRoleByName(ctx, name)
	if err != nil {
		return Role{}, err
	}
	if existing != nil {
		return Role{}, shared.Conflictf("Role %s already exists", name)
	}
	perms, err := s.perms.ResolvePermissionsByIDs(ctx, in.Permissions)
	if err != nil {
		return Role{}, err
	}
	if len(perms) == 0 {
		return Role{}, shared.NewFieldError("permissions", "permissions must contain at least 1 item(s)")
	}
	ids := make([]string, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}

	now := s.now().UTC()
	role := Role{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		PermissionIDs: ids,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return Role{}, err
	}
	return role, nil
}

// ListRoles returns a page of roles.
func (s *Service) ListRoles(ctx context.Context, params query.PageParams) (shared.Page[Role], error) {
	plan, err := query.Plan(params.Page, params.PageSize)
	if err != nil {
		return shared.Page[Role]{}, err
	}
	list, total, err := s.repo.ListRoles(ctx, plan)
	if err != nil {
		return shared.Page[Role]{}, err
	}
	return shared.NewPage(list, total), nil
}
