package auth

import (
	"context"
	"sync"
)

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// MemStore is an in-memory session [Store] guarded by a RWMutex. It is the
// default backend; sessions do not survive a restart.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemStore creates an empty in-memory session store.
func NewMemStore() *MemStore {
	return &MemStore{sessions: make(map[string]Session)}
}

// Put stores a session under its token.
func (s *MemStore) Put(ctx context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

// Get retrieves a session by token.
func (s *MemStore) Get(ctx context.Context, token string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

// Delete removes a session by token. Absent tokens are a no-op.
func (s *MemStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Count reports the number of live sessions.
func (s *MemStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
