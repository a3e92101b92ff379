package query

import (
	"strings"
	"time"
)

// Fielder exposes named field values so a predicate can be evaluated in
// memory, for example by cache layers and test doubles.
type Fielder interface {
	FieldValue(name string) any
}

// Matches reports whether rec satisfies every condition.
func (p Predicate) Matches(rec Fielder) bool {
	for _, c := range p {
		cmp, ok := compare(rec.FieldValue(c.Field), c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case OpEq:
			if cmp != 0 {
				return false
			}
		case OpGt:
			if cmp <= 0 {
				return false
			}
		case OpLt:
			if cmp >= 0 {
				return false
			}
		case OpGte:
			if cmp < 0 {
				return false
			}
		case OpLte:
			if cmp > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Window applies skip/limit to an already filtered slice.
func Window[T any](items []T, plan PagePlan) []T {
	if plan.Skip >= len(items) {
		return []T{}
	}
	end := plan.Skip + plan.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[plan.Skip:end]
}

func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case int:
		bv, ok := toInt64(b)
		return cmpInt(int64(av), bv), ok
	case int64:
		bv, ok := toInt64(b)
		return cmpInt(av, bv), ok
	case string:
		bv, ok := b.(string)
		return strings.Compare(av, bv), ok
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	default:
		return 0, false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
