package student

import (
	"fmt"
	"math"
	"strings"
)

const (
	DefaultLimit = 10
	DefaultPage  = 1
)

// sortColumns maps the sortable wire fields to their columns.
var sortColumns = map[string]string{
	"name":      "name",
	"idSv":      "id_sv",
	"address":   "address",
	"born":      "born",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// Filter narrows a list call. Name matches exactly.
type Filter struct {
	Name *string
}

// QueryOptions controls ordering and pagination of a list call.
// SortBy takes the form "field:desc,field:asc".
type QueryOptions struct {
	SortBy string
	Limit  int
	Page   int
}

type Page struct {
	Results      []Student `json:"results"`
	Page         int       `json:"page"`
	Limit        int       `json:"limit"`
	TotalPages   int       `json:"totalPages"`
	TotalResults int       `json:"totalResults"`
}

func (o QueryOptions) limit() int {
	if o.Limit > 0 {
		return o.Limit
	}
	return DefaultLimit
}

func (o QueryOptions) page() int {
	if o.Page > 0 {
		return o.Page
	}
	return DefaultPage
}

// offset saturates at math.MaxInt instead of overflowing.
func (o QueryOptions) offset() int {
	skipped, limit := o.page()-1, o.limit()
	if skipped > math.MaxInt/limit {
		return math.MaxInt
	}
	return skipped * limit
}

// orderBy turns SortBy into ORDER BY expressions.
func (o QueryOptions) orderBy() ([]string, error) {
	if o.SortBy == "" {
		return []string{"created_at ASC"}, nil
	}

	var order []string
	for _, criterion := range strings.Split(o.SortBy, ",") {
		field, direction, _ := strings.Cut(strings.TrimSpace(criterion), ":")
		column, ok := sortColumns[field]
		if !ok {
			return nil, fmt.Errorf("%w: cannot sort by %q", ErrInvalidInput, field)
		}
		switch direction {
		case "", "asc":
			order = append(order, column+" ASC")
		case "desc":
			order = append(order, column+" DESC")
		default:
			return nil, fmt.Errorf("%w: unknown sort direction %q", ErrInvalidInput, direction)
		}
	}
	return order, nil
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
