package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"outcome-quiz-service/internal/domain"
	"outcome-quiz-service/internal/engine"
)

// SessionRepository stores in-progress session snapshots (in-memory, Redis, etc),
// keyed by quiz and session id. Load returns domain.ErrSessionNotFound when nothing is stored.
type SessionRepository interface {
	Save(ctx context.Context, handle domain.SessionHandle) error
	Load(ctx context.Context, quizID, sessionID string) (domain.SessionHandle, error)
	Delete(ctx context.Context, quizID, sessionID string) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// PlayCounter records completed plays of a quiz.
type PlayCounter interface {
	IncrementPlays(ctx context.Context, quizID string) error
}

// Progress is the state handed back to the caller after every call. Exactly one of
// Question and Result is set.
type Progress struct {
	Handle   domain.SessionHandle
	Question *domain.Question
	Result   *domain.ResolvedResult
	Resumed  bool
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	plays    PlayCounter
	resolver engine.Resolver
	tracer   trace.Tracer
	newID    func() string
}

func NewQuizService(store SessionRepository, quizzes QuizRepository, plays PlayCounter, resolver engine.Resolver) *QuizService {
	return &QuizService{
		sessions: store,
		quizzes:  quizzes,
		plays:    plays,
		resolver: resolver,
		tracer:   otel.Tracer("outcome-quiz-service/internal/app"),
		newID:    uuid.NewString,
	}
}

// Start opens a play session. A stored snapshot for sessionID is resumed when it is
// still valid for the quiz; an empty sessionID gets a fresh one.
func (s *QuizService) Start(ctx context.Context, quizID, sessionID string) (p Progress, err error) {
	ctx, span := s.tracer.Start(ctx, "QuizService.Start", trace.WithAttributes(attribute.String("quiz.id", quizID)))
	defer func() { endSpan(span, err) }()

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return Progress{}, err
	}

	if sessionID == "" {
		sessionID = s.newID()
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	var handle domain.SessionHandle
	saved, err := s.sessions.Load(ctx, quizID, sessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		handle, err = engine.Start(quiz, sessionID)
	case err != nil:
		return Progress{}, fmt.Errorf("load session: %w", err)
	default:
		handle, err = engine.Restore(quiz, saved)
		switch {
		case err != nil:
		case handle.State == domain.StateNotStarted:
			log.Printf("discarding stale session %s for quiz %s at index %d", sessionID, quizID, saved.Index)
		case saved.State == domain.StateInProgress:
			p.Resumed = true
		}
	}
	if err != nil {
		return Progress{}, err
	}

	// The stored snapshot is the reference every answer is checked against.
	if err := s.sessions.Save(ctx, handle); err != nil {
		return Progress{}, fmt.Errorf("save session: %w", err)
	}

	q, err := engine.CurrentQuestion(quiz, handle)
	if err != nil {
		return Progress{}, err
	}
	p.Handle = handle
	p.Question = &q
	return p, nil
}

// Answer applies one answer to the caller's handle. The handle must match the stored
// snapshot, so a handle that was already answered from is rejected. The snapshot is
// persisted only after the next index is known, so a failed call leaves the caller's
// handle valid for a retry. The final answer resolves the session, drops its snapshot
// and counts one play.
func (s *QuizService) Answer(ctx context.Context, handle domain.SessionHandle, questionIndex int, optionID string) (p Progress, err error) {
	ctx, span := s.tracer.Start(ctx, "QuizService.Answer", trace.WithAttributes(
		attribute.String("quiz.id", handle.QuizID),
		attribute.String("session.id", handle.SessionID),
		attribute.Int("question.index", questionIndex),
	))
	defer func() { endSpan(span, err) }()

	quiz, err := s.quizzes.GetQuiz(ctx, handle.QuizID)
	if err != nil {
		return Progress{Handle: handle}, err
	}

	if err := s.checkCurrent(ctx, handle, questionIndex); err != nil {
		return Progress{Handle: handle}, err
	}

	step, err := engine.Answer(quiz, handle, questionIndex, optionID)
	if err != nil {
		return Progress{Handle: handle}, err
	}

	if step.Request == nil {
		if err := s.sessions.Save(ctx, step.Handle); err != nil {
			return Progress{Handle: handle}, fmt.Errorf("save session: %w", err)
		}
		q, err := engine.CurrentQuestion(quiz, step.Handle)
		if err != nil {
			return Progress{Handle: handle}, err
		}
		return Progress{Handle: step.Handle, Question: &q}, nil
	}

	if err := s.sessions.Delete(ctx, handle.QuizID, handle.SessionID); err != nil {
		log.Printf("delete finished session %s: %v", handle.SessionID, err)
	}

	resolved, err := s.resolve(ctx, quiz, *step.Request)
	if err != nil {
		return Progress{Handle: step.Handle}, err
	}

	if err := s.plays.IncrementPlays(ctx, quiz.ID); err != nil {
		log.Printf("increment plays for quiz %s: %v", quiz.ID, err)
	}
	return Progress{Handle: engine.Complete(step.Handle), Result: &resolved}, nil
}

// Replay resolves a complete answer history, one option ID per question, without
// touching session snapshots or play counts. It backs shared result links.
func (s *QuizService) Replay(ctx context.Context, quizID string, optionIDs []string) (res domain.ResolvedResult, err error) {
	ctx, span := s.tracer.Start(ctx, "QuizService.Replay", trace.WithAttributes(attribute.String("quiz.id", quizID)))
	defer func() { endSpan(span, err) }()

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.ResolvedResult{}, err
	}
	if len(quiz.Questions) == 0 {
		return domain.ResolvedResult{}, domain.ErrNoQuestions
	}
	if len(optionIDs) != len(quiz.Questions) {
		return domain.ResolvedResult{}, fmt.Errorf("replay needs %d answers, got %d: %w", len(quiz.Questions), len(optionIDs), domain.ErrQuestionNotFound)
	}

	agg, err := engine.Replay(quiz, optionIDs)
	if err != nil {
		return domain.ResolvedResult{}, err
	}
	return s.resolve(ctx, quiz, domain.ResolutionRequest{
		QuizID:    quiz.ID,
		Mode:      quiz.Mode,
		AxisCount: quiz.AxisCount,
		Aggregate: agg,
	})
}

// checkCurrent rejects a handle that no longer matches the stored snapshot. A missing
// snapshot means the session already resolved (or expired) and cannot take answers.
func (s *QuizService) checkCurrent(ctx context.Context, handle domain.SessionHandle, questionIndex int) error {
	if handle.Finished() {
		return domain.ErrSessionFinished
	}
	saved, err := s.sessions.Load(ctx, handle.QuizID, handle.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.ErrSessionFinished
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if saved.Index != handle.Index || saved.State != handle.State {
		return &domain.SequenceViolation{Expected: saved.Index, Got: questionIndex}
	}
	return nil
}

func (s *QuizService) resolve(ctx context.Context, quiz domain.Quiz, req domain.ResolutionRequest) (domain.ResolvedResult, error) {
	resolved, err := s.resolver.Resolve(req, quiz.Results)
	if err != nil {
		log.Printf("quiz %s cannot be resolved: %v", quiz.ID, err)
		return domain.ResolvedResult{}, err
	}
	if resolved.Degraded {
		// Content gap: the user still sees the first authored result.
		log.Printf("quiz %s: no exact result for score=%d code=%q, fell back to %s (trace %s)",
			quiz.ID, req.Aggregate.Score, resolved.TypeCode, resolved.ResultID,
			trace.SpanFromContext(ctx).SpanContext().TraceID())
		trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("resolution.degraded", true))
	}
	return resolved, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
