package listing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matthieukhl/freshmart/internal/types"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Sort is a single-field ordering resolved to a column name
type Sort struct {
	Column     string
	Descending bool
}

// SQL renders the ORDER BY clause body. Column always comes from a whitelist.
func (s Sort) SQL() string {
	if s.Descending {
		return s.Column + " DESC"
	}
	return s.Column + " ASC"
}

// ParseSort reads "field", "-field", "field:asc" or "field:desc".
// allowed maps API field names to columns; unknown fields are rejected.
func ParseSort(raw string, allowed map[string]string, def Sort) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}

	field := raw
	descending := false
	switch {
	case strings.HasPrefix(raw, "-"):
		field = raw[1:]
		descending = true
	case strings.Contains(raw, ":"):
		parts := strings.SplitN(raw, ":", 2)
		field = parts[0]
		switch strings.ToLower(parts[1]) {
		case "desc":
			descending = true
		case "asc":
		default:
			return Sort{}, types.Validation("listing.ParseSort", fmt.Sprintf("Invalid sort direction: %s", parts[1]),
				types.FieldError{Field: "sort", Message: "direction must be asc or desc"})
		}
	}

	column, ok := allowed[field]
	if !ok {
		return Sort{}, types.Validation("listing.ParseSort", fmt.Sprintf("Cannot sort by %s", field),
			types.FieldError{Field: "sort", Message: "unsupported sort field"})
	}

	return Sort{Column: column, Descending: descending}, nil
}

// Page is a resolved offset/limit window
type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// ParsePage reads the page and limit query parameters, falling back to defaults
func ParsePage(page, limit string) (Page, error) {
	p := Page{Number: DefaultPage, Limit: DefaultLimit}

	if page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 1 {
			return Page{}, types.Validation("listing.ParsePage", "Page must be a positive integer",
				types.FieldError{Field: "page", Message: "must be a positive integer"})
		}
		p.Number = n
	}

	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return Page{}, types.Validation("listing.ParsePage", "Limit must be a positive integer",
				types.FieldError{Field: "limit", Message: "must be a positive integer"})
		}
		if n > MaxLimit {
			n = MaxLimit
		}
		p.Limit = n
	}

	return p, nil
}

// Result is one page of a listing
type Result[T any] struct {
	Items []T
	Count int
	Total int
	Page  int
	Pages int
}

func NewResult[T any](items []T, total int, page Page) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items: items,
		Count: len(items),
		Total: total,
		Page:  page.Number,
		Pages: int(math.Ceil(float64(total) / float64(page.Limit))),
	}
}
