package shared

// Page is the response envelope of every list endpoint. Total counts the
// filtered set, not the whole collection.
type Page[T any] struct {
	Total int `json:"total"`
	Data  []T `json:"data"`
}

// NewPage builds a Page and never returns a nil Data slice.
func NewPage[T any](items []T, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Total: total, Data: items}
}
