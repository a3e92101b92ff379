package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/shared"
)

// LoginService is the behaviour Handler needs.
type LoginService interface {
	Login(ctx context.Context, email, plain string) (LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger       *slog.Logger
	service      LoginService
	guard        shared.RoleGuard
	loginLimiter func(http.Handler) http.Handler
	validator    *validator.Validate
}

// NewHandler constructs a Handler instance. loginLimiter may be nil.
func NewHandler(logger *slog.Logger, service LoginService, guard shared.RoleGuard, loginLimiter func(http.Handler) http.Handler) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if loginLimiter == nil {
		loginLimiter = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		logger:       logger,
		service:      service,
		guard:        guard,
		loginLimiter: loginLimiter,
		validator:    httpx.NewValidator(),
	}
}

// MountRoutes registers session routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.loginLimiter).Post("/", h.handleLogin)
	r.With(h.guard.RequireAny(shared.AnyRole()...)).Delete("/", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, h.validator, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if status, _ := httpx.StatusFor(err); status >= http.StatusInternalServerError {
			h.logger.Error("login", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	p := shared.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	if err := h.service.Logout(r.Context(), p.SessionID); err != nil {
		h.logger.Error("logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Success(w, http.StatusOK)
}
