package lesson

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// MemStore is an in-memory [Store] guarded by a RWMutex. It is the default
// lesson backend; contents do not survive a restart.
type MemStore struct {
	mu      sync.RWMutex
	lessons map[string]*Lesson
}

// NewMemStore creates an empty in-memory lesson store.
func NewMemStore() *MemStore {
	return &MemStore{lessons: make(map[string]*Lesson)}
}

// Create inserts a new lesson, assigning an ID when none is set.
func (s *MemStore) Create(ctx context.Context, l *Lesson) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.lessons[l.ID] = &cp
	return nil
}

// Get retrieves a lesson by ID.
func (s *MemStore) Get(ctx context.Context, id string) (*Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lessons[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

// Update replaces an existing lesson's content.
func (s *MemStore) Update(ctx context.Context, l *Lesson) error {
	if err := l.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.lessons[l.ID]
	if !ok {
		return ErrNotFound
	}
	l.CreatedAt = existing.CreatedAt
	l.UpdatedAt = time.Now().UTC()
	cp := *l
	s.lessons[l.ID] = &cp
	return nil
}

// Delete removes a lesson by ID.
func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lessons[id]; !ok {
		return ErrNotFound
	}
	delete(s.lessons, id)
	return nil
}

// List returns summaries of all lessons, newest first. Ties are broken by
// title for deterministic output.
func (s *MemStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, len(s.lessons))
	for _, l := range s.lessons {
		summaries = append(summaries, l.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].Title < summaries[j].Title
	})
	return summaries, nil
}
