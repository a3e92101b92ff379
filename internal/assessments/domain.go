package assessments

import (
	"time"

	"github.com/rolegate/rolegate/internal/query"
)

// Column names shared by the repository and list filters.
const (
	FieldRating    = "rating"
	FieldCreatedAt = "created_at"
)

// Assessment is a rated comment left for a user.
type Assessment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FieldValue lets list predicates run against in-memory assessments.
func (a Assessment) FieldValue(name string) any {
	switch name {
	case FieldRating:
		return a.Rating
	case FieldCreatedAt:
		return a.CreatedAt
	default:
		return nil
	}
}

// CreateInput is the payload for a new assessment.
type CreateInput struct {
	UserID  string `json:"userId" validate:"required,uuid"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// UpdateInput replaces the rating and comment.
type UpdateInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// ListFilter holds the optional list query parameters.
type ListFilter struct {
	query.PageParams
	Rating    query.NumberFilter
	StartDate *time.Time
	EndDate   *time.Time
}

// Filters converts f into planner filters.
func (f ListFilter) Filters() []query.Filter {
	return []query.Filter{
		f.Rating,
		query.DateRange{Field: FieldCreatedAt, From: f.StartDate, To: f.EndDate},
	}
}
