package assessments

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/query"
	"github.com/rolegate/rolegate/internal/shared"
)

// AssessmentService is the behaviour Handler needs.
type AssessmentService interface {
	Create(ctx context.Context, in CreateInput) (*Assessment, error)
	Get(ctx context.Context, id string) (*Assessment, error)
	Update(ctx context.Context, id string, in UpdateInput) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ListFilter) (shared.Page[Assessment], error)
}

// Handler serves /api/assessments.
type Handler struct {
	logger    *slog.Logger
	service   AssessmentService
	guard     shared.RoleGuard
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service AssessmentService, guard shared.RoleGuard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validator: httpx.NewValidator()}
}

// MountRoutes registers assessment routes. Every route is open to any role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(shared.AnyRole()...))
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{assessmentId}", h.get)
		r.Put("/{assessmentId}", h.update)
		r.Delete("/{assessmentId}", h.delete)
	})
}

// ParseListFilter reads page, pageSize, rating, ratingComparison, startDate
// and endDate.
func ParseListFilter(values url.Values) (ListFilter, error) {
	params, err := query.PageParamsFrom(values)
	if err != nil {
		return ListFilter{}, err
	}
	rating, err := query.OptionalInt(values, "rating")
	if err != nil {
		return ListFilter{}, err
	}
	if rating != nil {
		if err := checkRating(*rating); err != nil {
			return ListFilter{}, err
		}
	}
	mode, err := query.ParseComparison("ratingComparison", values.Get("ratingComparison"))
	if err != nil {
		return ListFilter{}, err
	}
	start, err := query.OptionalTime(values, "startDate")
	if err != nil {
		return ListFilter{}, err
	}
	end, err := query.OptionalTime(values, "endDate")
	if err != nil {
		return ListFilter{}, err
	}
	return ListFilter{
		PageParams: params,
		Rating:     query.NumberFilterFor(FieldRating, rating, mode),
		StartDate:  start,
		EndDate:    end,
	}, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.Create(r.Context(), in); err != nil {
		h.fail(w, "create assessment", err)
		return
	}
	httpx.Success(w, http.StatusCreated)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseListFilter(r.URL.Query())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "list assessments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := assessmentID(w, r)
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get assessment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := assessmentID(w, r)
	if !ok {
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(r, h.validator, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Update(r.Context(), id, in); err != nil {
		h.fail(w, "update assessment", err)
		return
	}
	httpx.Success(w, http.StatusOK)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := assessmentID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete assessment", err)
		return
	}
	httpx.Success(w, http.StatusOK)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status, _ := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func assessmentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "assessmentId")
	if _, err := uuid.Parse(raw); err != nil {
		httpx.RespondError(w, shared.NewFieldError("assessmentId", "Invalid assessment ID"))
		return "", false
	}
	return raw, true
}
