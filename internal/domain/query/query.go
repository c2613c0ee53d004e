package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/pixsearch/internal/domain"
)

// MaxTermLength is the longest search term the upstream accepts.
const MaxTermLength = 100

// Query is an immutable search term plus the page it addresses.
type Query struct {
	term string
	page int
}

// New validates and normalizes a search query.
// The term is trimmed; an empty term or a page below 1 is rejected.
func New(term string, page int) (Query, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return Query{}, fmt.Errorf("search term is required: %w", domain.ErrValidation)
	}
	if len([]rune(term)) > MaxTermLength {
		return Query{}, fmt.Errorf("search term too long (max %d chars): %w", MaxTermLength, domain.ErrValidation)
	}
	if page < 1 {
		return Query{}, fmt.Errorf("page must be >= 1, got %d: %w", page, domain.ErrValidation)
	}
	return Query{term: term, page: page}, nil
}

// Term returns the normalized search term.
func (q Query) Term() string { return q.term }

// Page returns the 1-based page number.
func (q Query) Page() int { return q.page }

// Next returns the query for the following page.
func (q Query) Next() Query {
	return Query{term: q.term, page: q.page + 1}
}

