package roles

import "github.com/rolegate/rolegate/internal/rbac"

// Role is the role record managed by this package.
type Role = rbac.Role

// CreateRoleInput is the payload accepted when creating a role.
type CreateRoleInput struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=500"`
	Permissions []string `json:"permissions" validate:"required,min=1,dive,required"`
}
