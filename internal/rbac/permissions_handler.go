package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/shared"
)

// PermissionService is the behaviour PermissionsHandler needs.
type PermissionService interface {
	CreatePermission(ctx context.Context, in CreatePermissionInput) (Permission, error)
	ListPermissions(ctx context.Context, params query.PageParams) (shared.Page[Permission], error)
}

// PermissionsHandler serves /api/permissions.
type PermissionsHandler struct {
	logger    *slog.Logger
	service   PermissionService
	guard     shared.RoleGuard
	validator *validator.Validate
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service PermissionService, guard shared.RoleGuard) *PermissionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PermissionsHandler{logger: logger, service: service, guard: guard, validator: httpx.NewValidator()}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequireAny(shared.AdminOnly()...)).Post("/", h.createPermission)
	r.With(h.guard.RequireAny(shared.AnyRole()...)).Get("/", h.listPermissions)
}

func (h *PermissionsHandler) createPermission(w http.ResponseWriter, r *http.Request) {
	var in CreatePermissionInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.CreatePermission(r.Context(), in); err != nil {
		h.fail(w, "create permission", err)
		return
	}
	httpx.Success(w, http.StatusCreated)
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	params, err := query.PageParamsFrom(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.ListPermissions(r.Context(), params)
	if err != nil {
		h.fail(w, "list permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *PermissionsHandler) fail(w http.ResponseWriter, op string, err error) {
	if status, _ := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
