// Package sqlite is a single-node quiz store for deployments without Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	"outcome-quiz-service/internal/domain"
	"outcome-quiz-service/internal/quizdoc"
)

const schema = `
CREATE TABLE IF NOT EXISTS quizzes (
    id         TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    play_count INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL
)`

// Store keeps quiz documents and play counts in a SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the SQLite database at dsn, applies pragmas and creates the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadQuiz fetches and validates a quiz document.
func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM quizzes WHERE id = ?`, quizID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz, err := quizdoc.Decode([]byte(raw))
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("quiz %s: %w", quizID, err)
	}
	return quiz, nil
}

// SaveQuiz inserts or replaces a quiz document, keeping its play count.
func (s *Store) SaveQuiz(ctx context.Context, quiz domain.Quiz, raw []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quizzes (id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		quiz.ID, string(raw), s.now().UTC())
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

// IncrementPlays bumps the completed play count for quizID.
func (s *Store) IncrementPlays(ctx context.Context, quizID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE quizzes SET play_count = play_count + 1 WHERE id = ?`, quizID)
	if err != nil {
		return fmt.Errorf("increment plays: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment plays: %w", err)
	}
	if n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// Plays returns the completed play count for quizID.
func (s *Store) Plays(ctx context.Context, quizID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT play_count FROM quizzes WHERE id = ?`, quizID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrQuizNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read plays: %w", err)
	}
	return n, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}
