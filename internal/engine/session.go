package engine

import "outcome-quiz-service/internal/domain"

// Step is the outcome of one answer. Request is set only when the answer finished the quiz.
type Step struct {
	Handle  domain.SessionHandle
	Request *domain.ResolutionRequest
}

// Start opens a session for quiz. A quiz without questions cannot be played.
func Start(quiz domain.Quiz, sessionID string) (domain.SessionHandle, error) {
	if len(quiz.Questions) == 0 {
		return domain.SessionHandle{}, domain.ErrNoQuestions
	}
	return domain.SessionHandle{
		SessionID: sessionID,
		QuizID:    quiz.ID,
		State:     domain.StateNotStarted,
	}, nil
}

// Restore re-enters a saved session. Snapshots that point past the last question, belong
// to another quiz or were already finished are treated as stale and yield a fresh session.
func Restore(quiz domain.Quiz, saved domain.SessionHandle) (domain.SessionHandle, error) {
	fresh, err := Start(quiz, saved.SessionID)
	if err != nil {
		return domain.SessionHandle{}, err
	}
	if saved.QuizID != quiz.ID || saved.Finished() {
		return fresh, nil
	}
	if saved.Index < 0 || saved.Index >= len(quiz.Questions) {
		return fresh, nil
	}
	restored := saved
	restored.Aggregate = cloneAggregate(saved.Aggregate)
	restored.State = domain.StateInProgress
	return restored, nil
}

// CurrentQuestion returns the question the session is waiting on.
func CurrentQuestion(quiz domain.Quiz, handle domain.SessionHandle) (domain.Question, error) {
	questions := quiz.OrderedQuestions()
	if handle.Finished() || handle.Index < 0 || handle.Index >= len(questions) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return questions[handle.Index], nil
}

// Answer applies the option chosen for questionIndex. The returned handle is a new value;
// on any error the caller's handle is still the valid state.
func Answer(quiz domain.Quiz, handle domain.SessionHandle, questionIndex int, optionID string) (Step, error) {
	if handle.Finished() {
		return Step{}, domain.ErrSessionFinished
	}
	if questionIndex != handle.Index {
		return Step{}, &domain.SequenceViolation{Expected: handle.Index, Got: questionIndex}
	}
	questions := quiz.OrderedQuestions()
	if questionIndex < 0 || questionIndex >= len(questions) {
		return Step{}, domain.ErrQuestionNotFound
	}
	opt, ok := questions[questionIndex].Option(optionID)
	if !ok {
		return Step{}, domain.ErrOptionNotFound
	}

	next := handle
	next.Aggregate = Apply(quiz.Mode, handle.Aggregate, opt)

	if questionIndex+1 < len(questions) {
		next.Index = questionIndex + 1
		next.State = domain.StateInProgress
		return Step{Handle: next}, nil
	}

	next.State = domain.StateAwaitingResolution
	return Step{
		Handle: next,
		Request: &domain.ResolutionRequest{
			QuizID:    quiz.ID,
			Mode:      quiz.Mode,
			AxisCount: quiz.AxisCount,
			Aggregate: next.Aggregate,
		},
	}, nil
}

// Complete moves a session awaiting resolution into its terminal state.
func Complete(handle domain.SessionHandle) domain.SessionHandle {
	handle.State = domain.StateResolved
	return handle
}
