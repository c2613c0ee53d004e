package session

import (
	"context"

	dompage "github.com/kailas-cloud/pixsearch/internal/domain/page"
)

// PageFetcher is the consumer interface for the upstream search API.
type PageFetcher interface {
	FetchPage(ctx context.Context, term string, page, pageSize int) (dompage.Page, error)
}

// StateStore persists session state between requests.
type StateStore interface {
	Load(ctx context.Context, id string) (State, error)
	Save(ctx context.Context, id string, st State) error
	Delete(ctx context.Context, id string) error
}
