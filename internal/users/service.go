package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rolegate/rolegate/internal/platform/password"
	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u User) error
	UpdateUserName(ctx context.Context, id, name string) (bool, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	ListUsers(ctx context.Context, plan query.PagePlan) ([]User, int, error)
}

// RoleValidator confirms that every referenced role exists.
type RoleValidator interface {
	ResolveRolesByIDs(ctx context.Context, ids []string) ([]rbac.Role, error)
}

// Service handles user business logic and resolves identities for the
// authorization gate.
type Service struct {
	repo   RepositoryPort
	roles  RoleValidator
	hasher password.Hasher
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleValidator, hasher password.Hasher) *Service {
	return &Service{repo: repo, roles: roles, hasher: hasher, now: time.Now}
}

// FindUserByID returns the user without its password hash and with a
// non-nil role list, or nil when absent.
func (s *Service) FindUserByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.FindUserByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	u.PasswordHash = ""
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return u, nil
}

// FindUserByEmail returns the user with its password hash, or nil when absent.
func (s *Service) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil || u == nil {
		return nil, err
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return u, nil
}

// GetUser is FindUserByID with a miss reported as shared.ErrNotFound.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := s.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, shared.NotFoundf("User not found")
	}
	return u, nil
}

// CreateUser registers a user after checking email uniqueness and that every
// role exists.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	email := normalizeEmail(in.Email)
	if len(in.Password) < 6 {
		return nil, shared.NewFieldError("password", "password must be at least 6 characters long")
	}
	for _, id := range in.Roles {
		if _, err := uuid.Parse(id); err != nil {
			return nil, shared.NewFieldError("roles", "Invalid role ID")
		}
	}
	existing, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.Conflictf("E-mail already exists")
	}
	roles, err := s.roles.ResolveRolesByIDs(ctx, in.Roles)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, shared.NewFieldError("roles", "roles must contain at least 1 item(s)")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.ID)
	}

	now := s.now().UTC()
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Roles:        ids,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return &u, nil
}

// UpdateUser changes the display name only.
func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateUserInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return shared.NewFieldError("name", "name is required")
	}
	ok, err := s.repo.UpdateUserName(ctx, id, name)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NotFoundf("User not found")
	}
	return nil
}

// DeleteUser removes a user. Its session is dropped by the next prune run.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	ok, err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NotFoundf("User not found")
	}
	return nil
}

// ListUsers returns a page of users.
func (s *Service) ListUsers(ctx context.Context, params query.PageParams) (shared.Page[User], error) {
	plan, err := query.Plan(params.Page, params.PageSize)
	if err != nil {
		return shared.Page[User]{}, err
	}
	list, total, err := s.repo.ListUsers(ctx, plan)
	if err != nil {
		return shared.Page[User]{}, err
	}
	return shared.NewPage(list, total), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
