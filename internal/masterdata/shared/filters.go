package shared

const (
	DefaultPage  = 1
	DefaultLimit = 25
)

// ListFilters carries the standard directory list parameters.
type ListFilters struct {
	Page    int
	Limit   int
	Buscar  string
	SortBy  string
	SortDir string
}

// Offset derives the SQL offset from page and limit, clamping at zero.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}
