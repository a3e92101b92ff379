package query

import (
	"strconv"
	"strings"
)

// Operator is a comparison understood by every repository.
type Operator string

const (
	OpEq  Operator = "="
	OpGt  Operator = ">"
	OpLt  Operator = "<"
	OpGte Operator = ">="
	OpLte Operator = "<="
)

// Condition compares one field against a value.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Predicate is a conjunction of conditions. An empty predicate matches all.
type Predicate []Condition

// Where renders the predicate as a SQL WHERE clause with positional
// parameters starting at $start. Field names come from repository code,
// never from request input.
func (p Predicate) Where(start int) (string, []any) {
	if len(p) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(p))
	args := make([]any, 0, len(p))
	for i, c := range p {
		parts = append(parts, c.Field+" "+string(c.Op)+" $"+strconv.Itoa(start+i))
		args = append(args, c.Value)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

// Fields lists the fields the predicate touches, in order.
func (p Predicate) Fields() []string {
	out := make([]string, 0, len(p))
	for _, c := range p {
		out = append(out, c.Field)
	}
	return out
}

// LimitOffset renders " LIMIT $n OFFSET $n+1" for a plan's Limit and Skip.
func LimitOffset(n int) string {
	return " LIMIT $" + strconv.Itoa(n) + " OFFSET $" + strconv.Itoa(n+1)
}

// Args returns the WHERE arguments followed by limit and skip, in a fresh slice.
func (p PagePlan) Args(whereArgs []any) []any {
	out := make([]any, 0, len(whereArgs)+2)
	out = append(out, whereArgs...)
	return append(out, p.Limit, p.Skip)
}
