package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pixsearch/internal/domain"
	logpkg "github.com/kailas-cloud/pixsearch/internal/logger"
	"github.com/kailas-cloud/pixsearch/internal/usecase/gallery"
)

// Registry hands out sessions by id. Sessions in use stay live in memory so
// concurrent requests for the same id share one generation counter; idle
// sessions live only in the StateStore.
type Registry struct {
	mu       sync.Mutex
	live     map[string]*liveSession
	store    StateStore
	fetcher  PageFetcher
	renderer *gallery.Renderer
	hook     TransitionHook
	onStale  StaleHook
}

type liveSession struct {
	session *Session
	refs    int
	// saveMu orders persistence: the snapshot is taken under it, so the last
	// write to the store is always the newest state.
	saveMu sync.Mutex
}

// NewRegistry creates a Registry backed by store.
func NewRegistry(fetcher PageFetcher, renderer *gallery.Renderer, store StateStore) *Registry {
	return &Registry{
		live:     make(map[string]*liveSession),
		store:    store,
		fetcher:  fetcher,
		renderer: renderer,
	}
}

// WithTransitionHook sets the hook installed on every session handed out.
func (r *Registry) WithTransitionHook(h TransitionHook) *Registry {
	r.hook = h
	return r
}

// WithStaleHook sets the stale result observer installed on every session handed out.
func (r *Registry) WithStaleHook(h StaleHook) *Registry {
	r.onStale = h
	return r
}

// NewID returns a fresh session id.
func (r *Registry) NewID() string {
	return xid.New().String()
}

// ValidID reports whether id looks like one produced by NewID.
func ValidID(id string) bool {
	_, err := xid.FromString(id)
	return err == nil
}

// Do runs fn against the session identified by id, then persists the
// resulting state. A missing session starts idle. The returned state is the
// snapshot that was persisted; err is fn's error unless persisting failed.
func (r *Registry) Do(ctx context.Context, id string, fn func(*Session) error) (State, error) {
	if !ValidID(id) {
		return State{}, fmt.Errorf("session id %q: %w", id, domain.ErrValidation)
	}

	ls, err := r.acquire(ctx, id)
	if err != nil {
		return State{}, err
	}
	defer r.release(id)

	fnErr := fn(ls.session)

	ls.saveMu.Lock()
	st := ls.session.State()
	err = r.store.Save(ctx, id, st)
	ls.saveMu.Unlock()
	if err != nil {
		logpkg.FromContext(ctx).Error("failed to persist session", zap.String("session_id", id), zap.Error(err))
		if fnErr == nil {
			return st, fmt.Errorf("persist session: %w", err)
		}
	}
	return st, fnErr
}

// Forget resets the session identified by id and drops its persisted state.
// Requests still running against it finish as superseded.
func (r *Registry) Forget(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("session id %q: %w", id, domain.ErrValidation)
	}

	ls, err := r.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer r.release(id)

	ls.session.Reset()

	ls.saveMu.Lock()
	defer ls.saveMu.Unlock()
	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("forget session: %w", err)
	}
	return nil
}

func (r *Registry) acquire(ctx context.Context, id string) (*liveSession, error) {
	r.mu.Lock()
	if ls, ok := r.live[id]; ok {
		ls.refs++
		r.mu.Unlock()
		return ls, nil
	}
	r.mu.Unlock()

	st, err := r.store.Load(ctx, id)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		st = NewState()
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have restored the same id while the store was read.
	if ls, ok := r.live[id]; ok {
		ls.refs++
		return ls, nil
	}
	s := New(r.fetcher, r.renderer).WithState(st).WithTransitionHook(r.hook).WithStaleHook(r.onStale)
	ls := &liveSession{session: s, refs: 1}
	r.live[id] = ls
	return ls, nil
}

func (r *Registry) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls, ok := r.live[id]
	if !ok {
		return
	}
	ls.refs--
	if ls.refs <= 0 {
		delete(r.live, id)
	}
}

// Live returns the number of sessions currently held in memory.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
