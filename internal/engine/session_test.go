package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outcome-quiz-service/internal/domain"
)

func twoQuestionNumericQuiz() domain.Quiz {
	return domain.Quiz{
		ID:   "quiz-num",
		Mode: domain.ModeNumeric,
		// Authored out of order on purpose; Order decides.
		Questions: []domain.Question{
			{ID: "q2", Order: 20, Options: []domain.Option{{ID: "q2-ten", Score: 10}, {ID: "q2-zero"}}},
			{ID: "q1", Order: 10, Options: []domain.Option{{ID: "q1-ten", Score: 10}, {ID: "q1-zero"}}},
		},
		Results: numericResults(),
	}
}

func TestStartRejectsEmptyQuiz(t *testing.T) {
	_, err := Start(domain.Quiz{ID: "empty"}, "s1")
	require.ErrorIs(t, err, domain.ErrNoQuestions)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestEndToEndNumericSession(t *testing.T) {
	quiz := twoQuestionNumericQuiz()

	handle, err := Start(quiz, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateNotStarted, handle.State)

	q, err := CurrentQuestion(quiz, handle)
	require.NoError(t, err)
	assert.Equal(t, "q1", q.ID)

	step, err := Answer(quiz, handle, 0, "q1-ten")
	require.NoError(t, err)
	assert.Nil(t, step.Request)
	assert.Equal(t, domain.StateInProgress, step.Handle.State)
	assert.Equal(t, 1, step.Handle.Index)

	step, err = Answer(quiz, step.Handle, 1, "q2-ten")
	require.NoError(t, err)
	require.NotNil(t, step.Request)
	assert.Equal(t, domain.StateAwaitingResolution, step.Handle.State)
	assert.Equal(t, 20, step.Request.Aggregate.Score)

	res, err := Resolver{}.Resolve(*step.Request, quiz.Results)
	require.NoError(t, err)
	assert.Equal(t, "B", res.ResultID)
	assert.Equal(t, domain.StateResolved, Complete(step.Handle).State)
}

func TestAnswerRejectsOutOfSequence(t *testing.T) {
	quiz := domain.Quiz{
		ID:   "quiz-3",
		Mode: domain.ModeNumeric,
		Questions: []domain.Question{
			{ID: "a", Order: 1, Options: []domain.Option{{ID: "a1", Score: 1}}},
			{ID: "b", Order: 2, Options: []domain.Option{{ID: "b1", Score: 2}}},
			{ID: "c", Order: 3, Options: []domain.Option{{ID: "c1", Score: 4}}},
		},
	}
	handle, err := Start(quiz, "s1")
	require.NoError(t, err)
	step, err := Answer(quiz, handle, 0, "a1")
	require.NoError(t, err)
	step, err = Answer(quiz, step.Handle, 1, "b1")
	require.NoError(t, err)
	at2 := step.Handle
	require.Equal(t, 2, at2.Index)

	_, err = Answer(quiz, at2, 0, "a1")
	var violation *domain.SequenceViolation
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, 2, violation.Expected)
	assert.Equal(t, 0, violation.Got)
	assert.Equal(t, 3, at2.Aggregate.Score)
	assert.Equal(t, 2, at2.Index)
}

func TestAnswerRejectsUnknownOptionAndFinishedSession(t *testing.T) {
	quiz := twoQuestionNumericQuiz()
	handle, err := Start(quiz, "s1")
	require.NoError(t, err)

	_, err = Answer(quiz, handle, 0, "nope")
	require.ErrorIs(t, err, domain.ErrOptionNotFound)

	handle.State = domain.StateResolved
	_, err = Answer(quiz, handle, 0, "q1-ten")
	require.ErrorIs(t, err, domain.ErrSessionFinished)
}

func TestRestore(t *testing.T) {
	quiz := twoQuestionNumericQuiz()
	saved := domain.SessionHandle{
		SessionID: "s1",
		QuizID:    quiz.ID,
		State:     domain.StateInProgress,
		Index:     1,
		Aggregate: domain.Aggregate{Score: 10},
	}

	restored, err := Restore(quiz, saved)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, restored.State)
	assert.Equal(t, 1, restored.Index)
	assert.Equal(t, 10, restored.Aggregate.Score)

	stale := []domain.SessionHandle{
		{SessionID: "s1", QuizID: quiz.ID, Index: 2, Aggregate: domain.Aggregate{Score: 20}},
		{SessionID: "s1", QuizID: quiz.ID, Index: -1},
		{SessionID: "s1", QuizID: "other", Index: 1},
		{SessionID: "s1", QuizID: quiz.ID, Index: 1, State: domain.StateAwaitingResolution},
	}
	for _, snap := range stale {
		got, err := Restore(quiz, snap)
		require.NoError(t, err)
		assert.Equal(t, domain.StateNotStarted, got.State)
		assert.Equal(t, 0, got.Index)
		assert.Equal(t, 0, got.Aggregate.Score)
		assert.Equal(t, "s1", got.SessionID)
	}
}
