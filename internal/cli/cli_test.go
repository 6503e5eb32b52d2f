package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"outcome-quiz-service/internal/config"
	"outcome-quiz-service/internal/infra/memory"
	"outcome-quiz-service/internal/infra/sqlite"
	"outcome-quiz-service/internal/quizdoc"
)

const quizJSON = `{
  "id": "imported",
  "mode": "NUMERIC",
  "questions": [{"id": "q1", "order": 1, "options": [{"id": "o1", "score": 4}]}],
  "results": [{"id": "low", "minScore": 0, "maxScore": 5}]
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestValidateCommand(t *testing.T) {
	good := writeFile(t, "good.json", quizJSON)
	bad := writeFile(t, "bad.json", `{"id":"x","mode":"NUMERIC","questions":[],"results":[]}`)

	cmd := NewValidateCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{good, bad})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected failure for invalid document")
	}
	if !strings.Contains(out.String(), "good.json: ok (NUMERIC, 1 questions, 1 results)") {
		t.Fatalf("unexpected stdout %q", out.String())
	}
	if !strings.Contains(errOut.String(), "NO_QUESTIONS") {
		t.Fatalf("expected NO_QUESTIONS in stderr, got %q", errOut.String())
	}
}

func TestImportIntoSQLite(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "quiz.json", quizJSON)

	cfg := config.Config{}
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "quiz.db")
	if err := runImport(ctx, cfg, []string{path}); err != nil {
		t.Fatalf("import: %v", err)
	}

	store, err := sqlite.Open(cfg.SQLite.Path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()
	quiz, err := store.LoadQuiz(ctx, "imported")
	if err != nil {
		t.Fatalf("load imported quiz: %v", err)
	}
	if quiz.Results[0].ID != "low" {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
}

func TestImportRequiresStore(t *testing.T) {
	if err := runImport(context.Background(), config.Config{}, []string{"unused.json"}); err == nil {
		t.Fatalf("expected error without a configured store")
	}
}

func TestBuildBackendsDefaultsToMemory(t *testing.T) {
	b, err := buildBackends(context.Background(), config.Config{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer b.close()

	if _, ok := b.sessions.(*memory.SessionStore); !ok {
		t.Fatalf("expected memory session store, got %T", b.sessions)
	}
	if _, ok := b.plays.(*memory.PlayCounter); !ok {
		t.Fatalf("expected memory play counter, got %T", b.plays)
	}
	quiz, err := b.quizzes.GetQuiz(context.Background(), "energy")
	if err != nil {
		t.Fatalf("get sample quiz: %v", err)
	}
	if err := quizdoc.Validate(quiz); err != nil {
		t.Fatalf("sample quiz invalid: %v", err)
	}
}

func TestSampleQuizzesAreValid(t *testing.T) {
	for _, quiz := range sampleQuizzes() {
		if err := quizdoc.Validate(quiz); err != nil {
			t.Fatalf("sample %s invalid: %v", quiz.ID, err)
		}
	}
}
