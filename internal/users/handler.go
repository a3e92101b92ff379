package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/shared"
)

// UserService is the behaviour Handler needs.
type UserService interface {
	GetUser(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*User, error)
	UpdateUser(ctx context.Context, id string, in UpdateUserInput) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, params query.PageParams) (shared.Page[User], error)
}

// Handler manages user endpoints.
type Handler struct {
	logger    *slog.Logger
	service   UserService
	guard     shared.RoleGuard
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service UserService, guard shared.RoleGuard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validator: httpx.NewValidator()}
}

// MountRoutes registers user routes. Registration is public.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.createUser)
	r.With(h.guard.RequireAny(shared.AdminOnly()...)).Get("/", h.listUsers)
	r.Route("/{userId}", func(r chi.Router) {
		r.With(h.guard.RequireAny(shared.AnyRole()...)).Get("/", h.getUser)
		r.With(h.guard.RequireAny(shared.AdminOnly()...)).Put("/", h.updateUser)
		r.With(h.guard.RequireAny(shared.AdminOnly()...)).Delete("/", h.deleteUser)
	})
}

type userResponse struct {
	Success bool  `json:"success"`
	User    *User `json:"user"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in CreateUserInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.CreateUser(r.Context(), in); err != nil {
		h.fail(w, "create user", err)
		return
	}
	httpx.Success(w, http.StatusCreated)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, userResponse{Success: true, User: u})
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var in UpdateUserInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.UpdateUser(r.Context(), id, in); err != nil {
		h.fail(w, "update user", err)
		return
	}
	httpx.Success(w, http.StatusOK)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, "delete user", err)
		return
	}
	httpx.Success(w, http.StatusOK)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	params, err := query.PageParamsFrom(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status, _ := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "userId")
	if _, err := uuid.Parse(raw); err != nil {
		httpx.RespondError(w, shared.NewFieldError("userId", "Invalid user ID"))
		return "", false
	}
	return raw, true
}
