package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rolegate/rolegate/internal/shared"
)

// PageParams carries the raw paging values of a list request.
type PageParams struct {
	Page     int
	PageSize int
}

// PageParamsFrom reads page and pageSize, applying the request defaults.
// Range checks are left to Plan.
func PageParamsFrom(values url.Values) (PageParams, error) {
	page, err := intParam(values, "page", DefaultPage)
	if err != nil {
		return PageParams{}, err
	}
	size, err := intParam(values, "pageSize", DefaultPageSize)
	if err != nil {
		return PageParams{}, err
	}
	return PageParams{Page: page, PageSize: size}, nil
}

// OptionalInt parses an optional integer parameter.
func OptionalInt(values url.Values, name string) (*int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, shared.NewFieldError(name, "Invalid "+name+" value")
	}
	return &v, nil
}

// OptionalTime parses an optional ISO-8601 timestamp or calendar date.
func OptionalTime(values url.Values, name string) (*time.Time, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, shared.NewFieldError(name, "Invalid "+name+" format")
}

func intParam(values url.Values, name string, def int) (int, error) {
	v, err := OptionalInt(values, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return def, nil
	}
	return *v, nil
}
