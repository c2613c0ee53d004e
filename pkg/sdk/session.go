package pixsearch

import (
	"context"
	"time"

	sessionuc "github.com/kailas-cloud/pixsearch/internal/usecase/session"
)

// Session accumulates pages of one search. A new Submit discards earlier
// results and supersedes any fetch still in flight.
type Session struct {
	inner *sessionuc.Session
	obs   *observer
}

// Submit starts a new search and loads its first page.
func (s *Session) Submit(ctx context.Context, term string) error {
	start := time.Now()
	err := s.inner.Submit(ctx, term)
	s.obs.observe(opSubmit, term, start, len(s.inner.State().Gallery.Items), err)
	return err
}

// LoadMore appends the next page. It returns ErrNoMoreResults once HasMore is false.
func (s *Session) LoadMore(ctx context.Context) error {
	start := time.Now()
	before := s.inner.State()
	err := s.inner.LoadMore(ctx)
	added := len(s.inner.State().Gallery.Items) - len(before.Gallery.Items)
	s.obs.observe(opLoadMore, before.Term, start, max(added, 0), err)
	return err
}

// Images returns every image loaded so far, in order.
func (s *Session) Images() []Image {
	items := s.inner.State().Gallery.Items
	out := make([]Image, 0, len(items))
	for _, it := range items {
		out = append(out, imageFromDisplay(it))
	}
	return out
}

// HasMore reports whether LoadMore can fetch another page.
func (s *Session) HasMore() bool {
	st := s.inner.State()
	return st.Status == sessionuc.StatusDisplaying && st.Gallery.Affordance.Active()
}

// Term returns the current search term.
func (s *Session) Term() string { return s.inner.State().Term }

// Page returns the last page loaded.
func (s *Session) Page() int { return s.inner.State().Page }

// TotalAvailable returns the number of hits the API can page through.
func (s *Session) TotalAvailable() int { return s.inner.State().TotalAvailable }

// Notices returns messages produced since the last call and forgets them.
func (s *Session) Notices() []Notice {
	ns := s.inner.DrainNotices()
	out := make([]Notice, 0, len(ns))
	for _, n := range ns {
		out = append(out, noticeFromSession(n))
	}
	return out
}
