package lesson

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the lessons table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS lessons (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    article    TEXT NOT NULL,
    dialogue   TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_lessons_created ON lessons(created_at DESC);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new [PostgresStore] that uses the given database
// connection or pool. The caller is responsible for calling
// [PostgresStore.Migrate] to ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database, creating the lessons
// table and index if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("lesson: migrate: %w", err)
	}
	return nil
}

// Create inserts a new lesson, assigning an ID when none is set.
func (s *PostgresStore) Create(ctx context.Context, l *Lesson) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO lessons (id, title, article, dialogue)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query, l.ID, l.Title, l.Article, l.Dialogue).
		Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("lesson: lesson with id %q already exists", l.ID)
		}
		return fmt.Errorf("lesson: create: %w", err)
	}
	return nil
}

// Get retrieves a lesson by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Lesson, error) {
	const query = `
		SELECT id, title, article, dialogue, created_at, updated_at
		FROM lessons
		WHERE id = $1`

	var l Lesson
	err := s.db.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.Title, &l.Article, &l.Dialogue, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lesson: get %q: %w", id, err)
	}
	return &l, nil
}

// Update replaces the content of an existing lesson.
func (s *PostgresStore) Update(ctx context.Context, l *Lesson) error {
	if err := l.Validate(); err != nil {
		return err
	}

	const query = `
		UPDATE lessons SET
			title = $2, article = $3, dialogue = $4, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query, l.ID, l.Title, l.Article, l.Dialogue).
		Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lesson: update %q: %w", l.ID, err)
	}
	return nil
}

// Delete removes a lesson by ID.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM lessons WHERE id = $1`
	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("lesson: delete %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns summaries of all lessons, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]Summary, error) {
	const query = `
		SELECT id, title, created_at
		FROM lessons
		ORDER BY created_at DESC, title`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("lesson: list: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("lesson: list scan: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lesson: list: %w", err)
	}
	return summaries, nil
}

// isDuplicateKeyError checks whether a PostgreSQL error is a unique-violation
// (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
