package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"outcome-quiz-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(sampleQuiz())}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(quiz.Results) != 2 {
		t.Fatalf("expected results to survive caching, got %+v", quiz.Results)
	}
}

func TestQuizRepositoryExpiresAndInvalidates(t *testing.T) {
	now := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(sampleQuiz())}
	repo := NewQuizRepositoryWithClock(loader, time.Minute, func() time.Time { return now })

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}

	repo.Invalidate("quiz-1")
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 3 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestStaticQuizLoaderUnknownQuiz(t *testing.T) {
	_, err := NewStaticQuizLoader().LoadQuiz(context.Background(), "missing")
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:   "quiz-1",
		Mode: domain.ModeNumeric,
		Questions: []domain.Question{
			{
				ID:     "q1",
				Order:  1,
				Prompt: "How often do you exercise?",
				Options: []domain.Option{
					{ID: "o1", Text: "Daily", Score: 10},
					{ID: "o2", Text: "Never", Score: 0},
				},
			},
		},
		Results: []domain.Result{
			{ID: "A", Title: "Couch", MinScore: 0, MaxScore: 5},
			{ID: "B", Title: "Athlete", MinScore: 6, MaxScore: 10},
		},
	}
}
