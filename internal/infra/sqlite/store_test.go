package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"outcome-quiz-service/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadAndCountPlays(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	quiz := domain.Quiz{
		ID:   "quiz-1",
		Mode: domain.ModeNumeric,
		Questions: []domain.Question{
			{ID: "q1", Order: 1, Options: []domain.Option{{ID: "o1", Score: 3}}},
		},
		Results: []domain.Result{{ID: "A", MinScore: 0, MaxScore: 5}},
	}
	raw, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := s.SaveQuiz(ctx, quiz, raw); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.LoadQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Questions[0].Options[0].Score != 3 || loaded.Results[0].MaxScore != 5 {
		t.Fatalf("unexpected quiz %+v", loaded)
	}

	for i := 0; i < 2; i++ {
		if err := s.IncrementPlays(ctx, "quiz-1"); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	// Re-importing keeps the play count.
	if err := s.SaveQuiz(ctx, quiz, raw); err != nil {
		t.Fatalf("save again: %v", err)
	}
	if n, err := s.Plays(ctx, "quiz-1"); err != nil || n != 2 {
		t.Fatalf("expected 2 plays, got %d (%v)", n, err)
	}
}

func TestUnknownQuiz(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.LoadQuiz(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if err := s.IncrementPlays(ctx, "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	broken := domain.Quiz{ID: "broken", Mode: domain.ModeNumeric}
	raw, _ := json.Marshal(broken)
	if err := s.SaveQuiz(ctx, broken, raw); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.LoadQuiz(ctx, "broken"); err == nil {
		t.Fatalf("expected validation error")
	}
}
