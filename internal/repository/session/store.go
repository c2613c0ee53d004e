package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/pixsearch/internal/db"
	"github.com/kailas-cloud/pixsearch/internal/domain"
	sessionuc "github.com/kailas-cloud/pixsearch/internal/usecase/session"
)

// store is the consumer interface for session persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Store persists session state as JSON under {prefix}session:{id}.
// Every save refreshes the TTL, so active sessions never expire.
type Store struct {
	store  store
	prefix string
	ttl    time.Duration
}

// Compile-time check: Store implements the session state store.
var _ sessionuc.StateStore = (*Store)(nil)

// New creates a session store.
func New(s store, prefix string, ttl time.Duration) *Store {
	return &Store{store: s, prefix: prefix, ttl: ttl}
}

// Load returns the persisted state for id or domain.ErrSessionNotFound.
func (s *Store) Load(ctx context.Context, id string) (sessionuc.State, error) {
	key := s.key(id)
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return sessionuc.State{}, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
		}
		return sessionuc.State{}, fmt.Errorf("session GET %s: %w", key, err)
	}

	var st sessionuc.State
	if err := json.Unmarshal(data, &st); err != nil {
		return sessionuc.State{}, fmt.Errorf("session GET %s decode: %w", key, err)
	}
	return st, nil
}

// Save stores st for id and refreshes its TTL.
func (s *Store) Save(ctx context.Context, id string, st sessionuc.State) error {
	key := s.key(id)
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("session SET %s encode: %w", key, err)
	}
	if err := s.store.SetWithTTL(ctx, key, data, s.ttl); err != nil {
		return fmt.Errorf("session SET %s: %w", key, err)
	}
	return nil
}

// Delete forgets the session.
func (s *Store) Delete(ctx context.Context, id string) error {
	key := s.key(id)
	if err := s.store.Del(ctx, key); err != nil {
		return fmt.Errorf("session DEL %s: %w", key, err)
	}
	return nil
}

func (s *Store) key(id string) string {
	return s.prefix + "session:" + id
}
