package query

import (
	"strings"
	"time"

	"github.com/rolegate/rolegate/internal/shared"
)

// Comparison selects how a numeric filter matches. CompareNone means the
// filter is absent.
type Comparison string

const (
	CompareNone Comparison = ""
	CompareEq   Comparison = "eq"
	CompareGt   Comparison = "gt"
	CompareLt   Comparison = "lt"
)

// ParseComparison accepts "", "eq", "gt" and "lt".
func ParseComparison(field, raw string) (Comparison, error) {
	switch c := Comparison(strings.TrimSpace(raw)); c {
	case CompareNone, CompareEq, CompareGt, CompareLt:
		return c, nil
	default:
		return CompareNone, shared.NewFieldError(field, "Invalid "+field+" value")
	}
}

// NumberFilter is the tagged variant {None, Eq(v), Gt(v), Lt(v)} over one
// numeric field. The zero value is None.
type NumberFilter struct {
	Field string
	Mode  Comparison
	Value int
}

// Eq matches field == v.
func Eq(field string, v int) NumberFilter { return NumberFilter{Field: field, Mode: CompareEq, Value: v} }

// Gt matches field > v.
func Gt(field string, v int) NumberFilter { return NumberFilter{Field: field, Mode: CompareGt, Value: v} }

// Lt matches field < v.
func Lt(field string, v int) NumberFilter { return NumberFilter{Field: field, Mode: CompareLt, Value: v} }

// NumberFilterFor builds the variant from optional request values. A value
// without a comparison mode yields None: the filter is omitted, equality is
// not assumed.
func NumberFilterFor(field string, value *int, mode Comparison) NumberFilter {
	if value == nil || mode == CompareNone {
		return NumberFilter{Field: field}
	}
	return NumberFilter{Field: field, Mode: mode, Value: *value}
}

// IsSet reports whether the filter contributes a condition.
func (f NumberFilter) IsSet() bool {
	return f.Mode != CompareNone
}

// Conditions implements Filter.
func (f NumberFilter) Conditions() []Condition {
	switch f.Mode {
	case CompareEq:
		return []Condition{{Field: f.Field, Op: OpEq, Value: f.Value}}
	case CompareGt:
		return []Condition{{Field: f.Field, Op: OpGt, Value: f.Value}}
	case CompareLt:
		return []Condition{{Field: f.Field, Op: OpLt, Value: f.Value}}
	default:
		return nil
	}
}

// DateRange bounds a timestamp field inclusively. Either bound may be nil.
type DateRange struct {
	Field string
	From  *time.Time
	To    *time.Time
}

// Conditions implements Filter.
func (r DateRange) Conditions() []Condition {
	var out []Condition
	if r.From != nil {
		out = append(out, Condition{Field: r.Field, Op: OpGte, Value: *r.From})
	}
	if r.To != nil {
		out = append(out, Condition{Field: r.Field, Op: OpLte, Value: *r.To})
	}
	return out
}

// Match is an equality filter on a single field.
type Match struct {
	Field string
	Value any
}

// Conditions implements Filter.
func (m Match) Conditions() []Condition {
	if m.Value == nil {
		return nil
	}
	return []Condition{{Field: m.Field, Op: OpEq, Value: m.Value}}
}
