package manager

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store keeps session states by session id. Load returns nil for an unknown
// or expired session.
type Store interface {
	Load(ctx context.Context, sessionID string) (*SessionState, error)
	Save(ctx context.Context, state *SessionState) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore holds states in a bounded LRU whose entries expire after ttl.
type MemoryStore struct {
	lru *expirable.LRU[string, SessionState]
}

func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = defaultStoreSize
	}
	return &MemoryStore{lru: expirable.NewLRU[string, SessionState](size, nil, ttl)}
}

const defaultStoreSize = 10000

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*SessionState, error) {
	state, ok := s.lru.Get(sessionID)
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (s *MemoryStore) Save(_ context.Context, state *SessionState) error {
	s.lru.Add(state.SessionID, *state)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.lru.Remove(sessionID)
	return nil
}
