package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"outcome-quiz-service/internal/domain"
	"outcome-quiz-service/internal/quizdoc"
)

// QuizStore reads and writes quiz JSONB documents and their play counts in Postgres.
type QuizStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool, now: time.Now}
}

// LoadQuiz fetches and validates a quiz document.
func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz, err := quizdoc.Decode(raw)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("quiz %s: %w", quizID, err)
	}
	return quiz, nil
}

// SaveQuiz inserts or replaces a quiz document, keeping its play count.
func (s *QuizStore) SaveQuiz(ctx context.Context, quiz domain.Quiz, raw []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quizzes (id, data, updated_at) VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		quiz.ID, string(raw), s.now())
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

// IncrementPlays bumps the completed play count for quizID.
func (s *QuizStore) IncrementPlays(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE quizzes SET play_count = play_count + 1 WHERE id=$1`, quizID)
	if err != nil {
		return fmt.Errorf("increment plays: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

// Plays returns the completed play count for quizID.
func (s *QuizStore) Plays(ctx context.Context, quizID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT play_count FROM quizzes WHERE id=$1`, quizID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrQuizNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read plays: %w", err)
	}
	return n, nil
}
