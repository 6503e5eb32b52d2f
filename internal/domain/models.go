package domain

import "sort"

// ResolutionMode selects how a finished aggregate is matched against authored results.
type ResolutionMode string

const (
	ModeNumeric     ResolutionMode = "NUMERIC"
	ModeDimensional ResolutionMode = "DIMENSIONAL"
)

// Option represents a possible answer for a question.
// Numeric quizzes read Score; dimensional quizzes read TypeCode and Weight.
type Option struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Score    int      `json:"score,omitempty"`
	TypeCode string   `json:"typeCode,omitempty"`
	Weight   *float64 `json:"weight,omitempty"` // defaults to 1 if nil
}

// EffectiveWeight returns the option weight, treating an unset weight as 1.
func (o Option) EffectiveWeight() float64 {
	if o.Weight == nil {
		return 1
	}
	return *o.Weight
}

// Question is one step of a quiz. Order decides position; gaps are allowed.
type Question struct {
	ID      string   `json:"id"`
	Order   int      `json:"order"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// Option looks up an option by ID.
func (q Question) Option(optionID string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// Result is an authored outcome. Numeric quizzes use the inclusive [MinScore, MaxScore]
// band, dimensional quizzes use TypeCode.
type Result struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	MinScore    int    `json:"minScore,omitempty"`
	MaxScore    int    `json:"maxScore,omitempty"`
	TypeCode    string `json:"typeCode,omitempty"`
}

// Quiz is an ordered set of questions plus the catalog of results they resolve into.
type Quiz struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Mode      ResolutionMode `json:"mode"`
	AxisCount int            `json:"axisCount,omitempty"`
	Questions []Question     `json:"questions"`
	Results   []Result       `json:"results"`
}

// OrderedQuestions returns the questions sorted by Order. Ties keep authoring order.
func (q Quiz) OrderedQuestions() []Question {
	out := make([]Question, len(q.Questions))
	copy(out, q.Questions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// Aggregate is the running accumulation of a play session.
type Aggregate struct {
	Score   int                `json:"score"`
	Weights map[string]float64 `json:"weights,omitempty"`
	Choices []string           `json:"choices,omitempty"`
}

// SessionState is the lifecycle stage of a play session.
type SessionState string

const (
	StateNotStarted         SessionState = "NOT_STARTED"
	StateInProgress         SessionState = "IN_PROGRESS"
	StateAwaitingResolution SessionState = "AWAITING_RESOLUTION"
	StateResolved           SessionState = "RESOLVED"
)

// SessionHandle is the serializable state of one quiz attempt.
// Callers hold it and pass it back in; nothing keeps it globally.
type SessionHandle struct {
	SessionID string       `json:"sessionId"`
	QuizID    string       `json:"quizId"`
	State     SessionState `json:"state"`
	Index     int          `json:"index"`
	Aggregate Aggregate    `json:"aggregate"`
}

// Finished reports whether the session no longer accepts answers.
func (h SessionHandle) Finished() bool {
	return h.State == StateAwaitingResolution || h.State == StateResolved
}

// ResolutionRequest is produced when the last question has been answered.
type ResolutionRequest struct {
	QuizID    string         `json:"quizId"`
	Mode      ResolutionMode `json:"mode"`
	AxisCount int            `json:"axisCount,omitempty"`
	Aggregate Aggregate      `json:"aggregate"`
}

// ResolvedResult is what the display and sharing layer receives.
type ResolvedResult struct {
	ResultID     string `json:"resultId"`
	Result       Result `json:"result"`
	NumericScore *int   `json:"numericScore,omitempty"`
	TypeCode     string `json:"typeCode,omitempty"`
	// Degraded is set when no exact match existed and the first authored result was used.
	Degraded bool `json:"degraded,omitempty"`
}
