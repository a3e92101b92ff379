package roles

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

// RoleService is the behaviour Handler needs.
type RoleService interface {
	CreateRole(ctx context.Context, in CreateRoleInput) (Role, error)
	ListRoles(ctx context.Context, params query.PageParams) (shared.Page[Role], error)
}

// Handler manages role endpoints.
type Handler struct {
	logger    *slog.Logger
	service   RoleService
	guard     shared.RoleGuard
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service RoleService, guard shared.RoleGuard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validator: httpx.NewValidator()}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequireAny(shared.AdminOnly()...)).Post("/", h.createRole)
	r.With(h.guard.RequireAny(shared.AnyRole()...)).Get("/", h.listRoles)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var in CreateRoleInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.CreateRole(r.Context(), in); err != nil {
		if status, _ := httpx.StatusFor(err); status >= http.StatusInternalServerError {
			h.logger.Error("create role", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusCreated)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	params, err := query.PageParamsFrom(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.ListRoles(r.Context(), params)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}
