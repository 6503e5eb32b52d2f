package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when no progress record exists for a session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionFinished is returned when answering a session that already reached resolution.
	ErrSessionFinished = errors.New("quiz session already finished")
	// ErrQuestionNotFound indicates a question index outside the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")

	// ErrNoQuestions is a configuration error: the quiz was authored without questions.
	ErrNoQuestions = &ConfigurationError{Code: "NO_QUESTIONS"}
	// ErrNoResults is a configuration error: the quiz was authored without results.
	ErrNoResults = &ConfigurationError{Code: "NO_RESULTS"}
)

// ConfigurationError reports quiz content that cannot be played. It is not retryable
// and belongs on the operator path.
type ConfigurationError struct {
	Code string
}

func (e *ConfigurationError) Error() string {
	return "quiz configuration error: " + e.Code
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// SequenceViolation is returned when an answer is tagged for a question index other than
// the session's current one. The session is left unchanged; the caller should re-sync
// from Expected.
type SequenceViolation struct {
	Expected int
	Got      int
}

func (e *SequenceViolation) Error() string {
	return fmt.Sprintf("answer for question %d rejected: session is at question %d", e.Got, e.Expected)
}
