package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pixsearch/internal/domain"
	dompage "github.com/kailas-cloud/pixsearch/internal/domain/page"
	"github.com/kailas-cloud/pixsearch/internal/domain/query"
	logpkg "github.com/kailas-cloud/pixsearch/internal/logger"
	"github.com/kailas-cloud/pixsearch/internal/usecase/gallery"
)

// TransitionHook observes status changes. It runs under the session lock and must not block.
type TransitionHook func(from, to Status)

// StaleHook observes results discarded because a newer request superseded them.
type StaleHook func()

// Session is the search controller: it owns the state and sequences
// fetch, render and affordance updates.
//
// Every fetch gets a new generation. A result whose generation is no longer
// current is discarded, and a new Submit cancels the fetch it supersedes.
type Session struct {
	mu       sync.Mutex
	state    State
	fetcher  PageFetcher
	renderer *gallery.Renderer
	hook     TransitionHook
	onStale  StaleHook
	cancel   context.CancelFunc
	now      func() time.Time
	newRef   func() string
}

// New creates an idle Session.
func New(fetcher PageFetcher, renderer *gallery.Renderer) *Session {
	return &Session{
		state:    NewState(),
		fetcher:  fetcher,
		renderer: renderer,
		now:      time.Now,
		newRef:   func() string { return xid.New().String() },
	}
}

// WithState restores previously persisted state. Transient statuses are settled.
func (s *Session) WithState(st State) *Session {
	s.state = st.Clone().settled()
	return s
}

// WithTransitionHook sets the status change observer.
func (s *Session) WithTransitionHook(h TransitionHook) *Session {
	s.hook = h
	return s
}

// WithStaleHook sets the observer of discarded results.
func (s *Session) WithStaleHook(h StaleHook) *Session {
	s.onStale = h
	return s
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// DrainNotices returns pending notices and forgets them.
func (s *Session) DrainNotices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state.Notices
	s.state.Notices = nil
	return out
}

// Submit starts a new search for term.
//
// An empty term yields a validation notice and ErrValidation without touching
// the rest of the state. Otherwise the page resets to 1, the gallery is
// cleared and the first page is fetched.
func (s *Session) Submit(ctx context.Context, term string) error {
	q, err := query.New(term, 1)
	if err != nil {
		msg := MsgEmptyTerm
		if strings.TrimSpace(term) != "" {
			msg = MsgInvalidTerm
		}
		s.mu.Lock()
		s.notify(LevelError, msg)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state.Generation++
	gen := s.state.Generation
	s.state.Term = q.Term()
	s.state.Page = 1
	s.state.TotalAvailable = 0
	s.state.Notices = nil
	s.state.Gallery.Clear()
	s.transition(StatusSearching)
	s.mu.Unlock()
	defer cancel()

	p, err := s.fetcher.FetchPage(fetchCtx, q.Term(), q.Page(), s.renderer.PageSize())
	return s.complete(ctx, gen, q, p, err, StatusIdle)
}

// LoadMore fetches the next page and appends it to the gallery.
// It is only accepted while results are displayed and the "load more" affordance is active.
func (s *Session) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Busy() {
		s.mu.Unlock()
		return fmt.Errorf("load more: %w", domain.ErrBusy)
	}
	if s.state.Status != StatusDisplaying || !s.state.Gallery.Affordance.Active() {
		s.mu.Unlock()
		return fmt.Errorf("load more: %w", domain.ErrNoMoreResults)
	}
	cur, err := query.New(s.state.Term, s.state.Page)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("load more: %w", err)
	}
	next := cur.Next()

	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state.Generation++
	gen := s.state.Generation
	s.state.Notices = nil
	s.transition(StatusLoadingMore)
	s.mu.Unlock()
	defer cancel()

	p, err := s.fetcher.FetchPage(fetchCtx, next.Term(), next.Page(), s.renderer.PageSize())
	return s.complete(ctx, gen, next, p, err, StatusDisplaying)
}

// Reset cancels any fetch in flight and returns the session to idle with an
// empty gallery. The generation keeps counting so late results are discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state.Generation++
	s.state.Term = ""
	s.state.Page = 0
	s.state.TotalAvailable = 0
	s.state.Notices = nil
	s.state.Gallery.Clear()
	if s.state.Status != StatusIdle {
		s.transition(StatusIdle)
	}
}

// complete applies a fetch outcome if gen is still current.
func (s *Session) complete(
	ctx context.Context,
	gen uint64,
	q query.Query,
	p dompage.Page,
	fetchErr error,
	fallback Status,
) error {
	log := logpkg.FromContext(ctx).With(
		zap.String("term", q.Term()),
		zap.Int("page", q.Page()),
		zap.Uint64("generation", gen),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.state.Generation {
		log.Debug("discarding superseded result", zap.Uint64("current_generation", s.state.Generation))
		if s.onStale != nil {
			s.onStale()
		}
		return fmt.Errorf("generation %d superseded by %d: %w", gen, s.state.Generation, domain.ErrStaleRequest)
	}
	s.cancel = nil

	if fetchErr != nil {
		s.fail(log, fetchErr, fallback)
		return fetchErr
	}

	s.state.Page = q.Page()
	s.state.TotalAvailable = p.TotalAvailable()

	if q.Page() == 1 && p.IsEmpty() {
		s.state.Gallery.SetAffordance(gallery.Affordance{Kind: gallery.AffordanceNone})
		s.notify(LevelInfo, MsgNoResults)
		s.transition(StatusDisplaying)
		log.Debug("search returned no results")
		return nil
	}

	s.state.Gallery.Append(s.renderer.Render(p.Items()))
	s.state.Gallery.SetMoreAffordance(s.renderer, q.Page(), p.TotalAvailable())
	if q.Page() > 1 && !s.state.Gallery.Affordance.Active() {
		s.notify(LevelInfo, MsgEndOfResults)
	}
	s.transition(StatusDisplaying)

	log.Debug("page displayed",
		zap.Int("items", p.Len()),
		zap.Int("visible", s.state.Gallery.Len()),
		zap.Int("total_available", p.TotalAvailable()),
	)
	return nil
}

// fail records an error notice and settles on fallback. Page and visible items stay as they were.
func (s *Session) fail(log *zap.Logger, err error, fallback Status) {
	ref := s.newRef()
	msg := fmt.Sprintf(MsgFetchFailed, ref)
	if errors.Is(err, domain.ErrRateLimited) {
		msg = MsgRateLimited
	}
	log.Warn("search fetch failed", zap.String("ref", ref), zap.Error(err))

	s.state.Notices = append(s.state.Notices, Notice{
		Ref:     ref,
		Level:   LevelError,
		Message: msg,
		Time:    s.now(),
	})
	s.transition(StatusError)
	s.transition(fallback)
}

func (s *Session) notify(level NoticeLevel, msg string) {
	s.state.Notices = append(s.state.Notices, Notice{
		Ref:     s.newRef(),
		Level:   level,
		Message: msg,
		Time:    s.now(),
	})
}

func (s *Session) transition(to Status) {
	from := s.state.Status
	s.state.Status = to
	if s.hook != nil {
		s.hook(from, to)
	}
}
