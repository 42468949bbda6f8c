// Package lesson defines the lesson content model and its storage interface.
//
// A lesson is a small reading-plus-dialogue unit that a student practises
// against: an article the assistant can quote from and a scripted dialogue the
// assistant roleplays one side of. Lessons are created and edited by
// instructors; students only read them.
//
// Two [Store] implementations exist: [MemStore] (default, process-local) and
// [PostgresStore] (optional, for deployments that want lessons to survive
// restarts).
package lesson

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by store lookups for an unknown lesson ID.
var ErrNotFound = errors.New("lesson not found")

// Lesson is a complete practice unit.
type Lesson struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Article   string    `json:"article"`
	Dialogue  string    `json:"dialogue"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is the listing view of a lesson. It deliberately omits the content
// fields so that list responses stay small.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks that all content fields are present. It is called by store
// implementations before any write.
func (l *Lesson) Validate() error {
	var missing []string
	if strings.TrimSpace(l.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(l.Article) == "" {
		missing = append(missing, "article")
	}
	if strings.TrimSpace(l.Dialogue) == "" {
		missing = append(missing, "dialogue")
	}
	if len(missing) > 0 {
		return fmt.Errorf("lesson: missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Summary returns the listing view of the lesson.
func (l *Lesson) Summary() Summary {
	return Summary{ID: l.ID, Title: l.Title, CreatedAt: l.CreatedAt}
}

// Store provides CRUD operations for lessons.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create inserts a new lesson. If the lesson has no ID one is assigned.
	// The lesson is validated before insertion and its timestamps are set.
	Create(ctx context.Context, l *Lesson) error

	// Get retrieves a lesson by ID. Returns [ErrNotFound] if no lesson with
	// the given ID exists.
	Get(ctx context.Context, id string) (*Lesson, error)

	// Update replaces the content of an existing lesson and refreshes its
	// UpdatedAt timestamp. Returns [ErrNotFound] if the lesson does not exist.
	Update(ctx context.Context, l *Lesson) error

	// Delete removes a lesson by ID. Returns [ErrNotFound] if the lesson does
	// not exist.
	Delete(ctx context.Context, id string) error

	// List returns summaries of all lessons, newest first.
	List(ctx context.Context) ([]Summary, error)
}
