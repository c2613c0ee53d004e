package page

import "github.com/kailas-cloud/pixsearch/internal/domain/image"

// DefaultSize is the number of hits requested per page.
const DefaultSize = 15

// Page is one batch of results as returned by the upstream.
// It is produced fresh per request and never merged.
type Page struct {
	items          []image.Image
	totalAvailable int
	pageRequested  int
}

// New creates a Page. Negative totals are clamped to zero.
func New(items []image.Image, totalAvailable, pageRequested int) Page {
	if totalAvailable < 0 {
		totalAvailable = 0
	}
	return Page{
		items:          items,
		totalAvailable: totalAvailable,
		pageRequested:  pageRequested,
	}
}

// Items returns the hits of this page in upstream order.
func (p Page) Items() []image.Image { return p.items }

// TotalAvailable returns how many hits the upstream is willing to serve for the term.
func (p Page) TotalAvailable() int { return p.totalAvailable }

// PageRequested returns the 1-based page this batch answers.
func (p Page) PageRequested() int { return p.pageRequested }

// Len returns the number of hits on this page.
func (p Page) Len() int { return len(p.items) }

// IsEmpty reports whether the page carries no hits.
func (p Page) IsEmpty() bool { return len(p.items) == 0 }

// HasMore reports whether results remain after this page.
func (p Page) HasMore(pageSize int) bool {
	return HasMore(p.totalAvailable, p.pageRequested, pageSize)
}

// HasMore reports whether totalAvailable exceeds the hits covered by pages 1..page.
// There is no server cursor; this comparison is the only signal.
func HasMore(totalAvailable, page, pageSize int) bool {
	if page < 1 || pageSize <= 0 {
		return false
	}
	return totalAvailable > page*pageSize
}
