// Package query turns page/pageSize/filter request parameters into a bounded
// page plan that every list repository executes the same way.
package query

import (
	"github.com/rolegate/rolegate/internal/shared"
)

const (
	// DefaultPage is applied when the request omits page.
	DefaultPage = 1
	// DefaultPageSize is applied when the request omits pageSize.
	DefaultPageSize = 10
	// MaxPageSize caps pageSize on every list endpoint.
	MaxPageSize = 100
)

// Filter contributes conditions to a page plan. A filter that is not set
// contributes nothing.
type Filter interface {
	Conditions() []Condition
}

// PagePlan is the (skip, limit, predicate) triple a repository executes.
// The same predicate must back the total count query.
type PagePlan struct {
	Skip      int
	Limit     int
	Predicate Predicate
}

// Plan validates paging input and folds the filters into a predicate.
func Plan(page, pageSize int, filters ...Filter) (PagePlan, error) {
	if page < 1 {
		return PagePlan{}, shared.NewFieldError("page", "Page must be greater than or equal to 1")
	}
	if pageSize < 1 {
		return PagePlan{}, shared.NewFieldError("pageSize", "Page size must be greater than or equal to 1")
	}
	if pageSize > MaxPageSize {
		return PagePlan{}, shared.NewFieldError("pageSize", "Page size must be less than or equal to 100")
	}

	var pred Predicate
	for _, f := range filters {
		if f == nil {
			continue
		}
		pred = append(pred, f.Conditions()...)
	}
	return PagePlan{
		Skip:      (page - 1) * pageSize,
		Limit:     pageSize,
		Predicate: pred,
	}, nil
}
