// Package engine folds quiz answers into aggregates, drives play sessions through
// their states and resolves finished aggregates into authored results. Everything
// here is pure and safe to call concurrently from independent sessions.
package engine

import (
	"fmt"

	"outcome-quiz-service/internal/domain"
)

// Apply folds one chosen option into the aggregate and returns the next aggregate.
// The input aggregate is never modified.
func Apply(mode domain.ResolutionMode, agg domain.Aggregate, option domain.Option) domain.Aggregate {
	next := cloneAggregate(agg)
	switch mode {
	case domain.ModeDimensional:
		if option.TypeCode == "" {
			return next
		}
		if next.Weights == nil {
			next.Weights = make(map[string]float64)
		}
		next.Choices = append(next.Choices, option.TypeCode)
		next.Weights[option.TypeCode] += option.EffectiveWeight()
	default:
		next.Score += option.Score
	}
	return next
}

// Replay rebuilds the aggregate from a full or partial answer history, one option ID per
// question in question order.
func Replay(quiz domain.Quiz, optionIDs []string) (domain.Aggregate, error) {
	questions := quiz.OrderedQuestions()
	if len(optionIDs) > len(questions) {
		return domain.Aggregate{}, fmt.Errorf("replay %d answers: %w", len(optionIDs), domain.ErrQuestionNotFound)
	}
	agg := domain.Aggregate{}
	for i, optionID := range optionIDs {
		opt, ok := questions[i].Option(optionID)
		if !ok {
			return domain.Aggregate{}, fmt.Errorf("question %d option %q: %w", i, optionID, domain.ErrOptionNotFound)
		}
		agg = Apply(quiz.Mode, agg, opt)
	}
	return agg, nil
}

func cloneAggregate(agg domain.Aggregate) domain.Aggregate {
	out := domain.Aggregate{Score: agg.Score}
	if agg.Weights != nil {
		out.Weights = make(map[string]float64, len(agg.Weights))
		for k, v := range agg.Weights {
			out.Weights[k] = v
		}
	}
	if agg.Choices != nil {
		out.Choices = append(make([]string, 0, len(agg.Choices)+1), agg.Choices...)
	}
	return out
}
