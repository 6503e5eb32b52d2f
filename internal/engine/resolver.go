package engine

import (
	"sort"
	"strings"

	"outcome-quiz-service/internal/domain"
)

// ScoringBasis decides how dimensional candidates are scored. It is chosen once per
// resolution and applies to every axis.
type ScoringBasis int

const (
	// BasisFrequency counts how often a character was chosen.
	BasisFrequency ScoringBasis = iota
	// BasisWeighted sums the weights accumulated for a character.
	BasisWeighted
)

// BasisFor returns BasisWeighted as soon as any accumulated weight is non-zero.
func BasisFor(agg domain.Aggregate) ScoringBasis {
	for _, w := range agg.Weights {
		if w != 0 {
			return BasisWeighted
		}
	}
	return BasisFrequency
}

// Resolver selects one authored result for a finished aggregate.
type Resolver struct {
	// LegacyCodeLength caps the code length built when the catalog has no usable
	// axis alphabet. Zero falls back to the quiz axis count.
	LegacyCodeLength int
}

// Resolve is deterministic and total for a non-empty catalog. A result picked because
// nothing matched exactly is returned with Degraded set.
func (r Resolver) Resolve(req domain.ResolutionRequest, results []domain.Result) (domain.ResolvedResult, error) {
	if len(results) == 0 {
		return domain.ResolvedResult{}, domain.ErrNoResults
	}
	if req.Mode == domain.ModeDimensional {
		return r.resolveDimensional(req, results), nil
	}
	return resolveNumeric(req.Aggregate.Score, results), nil
}

func resolveNumeric(score int, results []domain.Result) domain.ResolvedResult {
	s := score
	for _, res := range results {
		if res.MinScore <= score && score <= res.MaxScore {
			return domain.ResolvedResult{ResultID: res.ID, Result: res, NumericScore: &s}
		}
	}
	return domain.ResolvedResult{ResultID: results[0].ID, Result: results[0], NumericScore: &s, Degraded: true}
}

func (r Resolver) resolveDimensional(req domain.ResolutionRequest, results []domain.Result) domain.ResolvedResult {
	basis := BasisFor(req.Aggregate)
	scores := candidateScores(basis, req.Aggregate)

	var code string
	if alphabets, ok := axisAlphabets(req.AxisCount, results); ok {
		code = consensusCode(alphabets, scores)
	} else {
		code = legacyCode(scores, r.legacyLimit(req.AxisCount))
	}

	for _, res := range results {
		if res.TypeCode == code {
			return domain.ResolvedResult{ResultID: res.ID, Result: res, TypeCode: code}
		}
	}
	return domain.ResolvedResult{ResultID: results[0].ID, Result: results[0], TypeCode: code, Degraded: true}
}

func (r Resolver) legacyLimit(axisCount int) int {
	if r.LegacyCodeLength > 0 {
		return r.LegacyCodeLength
	}
	return axisCount
}

// candidateScores builds the score table for the chosen basis. Characters absent from
// the table score zero.
func candidateScores(basis ScoringBasis, agg domain.Aggregate) map[string]float64 {
	scores := make(map[string]float64)
	if basis == BasisWeighted {
		for k, w := range agg.Weights {
			scores[k] = w
		}
		return scores
	}
	for _, c := range agg.Choices {
		scores[c]++
	}
	return scores
}

// axisAlphabets collects the sorted distinct characters at every axis position of the
// catalog's type codes. It fails when no result carries a code of the expected length.
func axisAlphabets(axisCount int, results []domain.Result) ([][]string, bool) {
	if axisCount <= 0 {
		return nil, false
	}
	seen := make([]map[string]struct{}, axisCount)
	for k := range seen {
		seen[k] = make(map[string]struct{})
	}
	usable := false
	for _, res := range results {
		chars := []rune(res.TypeCode)
		if len(chars) != axisCount {
			continue
		}
		usable = true
		for k, c := range chars {
			seen[k][string(c)] = struct{}{}
		}
	}
	if !usable {
		return nil, false
	}
	alphabets := make([][]string, axisCount)
	for k, set := range seen {
		letters := make([]string, 0, len(set))
		for c := range set {
			letters = append(letters, c)
		}
		sort.Strings(letters)
		alphabets[k] = letters
	}
	return alphabets, true
}

// consensusCode picks the best scoring character per axis. Only a strict improvement
// replaces the current best, so ties go to the lexicographically first letter.
func consensusCode(alphabets [][]string, scores map[string]float64) string {
	var b strings.Builder
	for _, letters := range alphabets {
		best := letters[0]
		bestScore := scores[best]
		for _, c := range letters[1:] {
			if scores[c] > bestScore {
				best, bestScore = c, scores[c]
			}
		}
		b.WriteString(best)
	}
	return b.String()
}

// legacyCode ranks every observed character by score, keeps the top limit and joins them
// in lexicographic order. A non-positive limit keeps all characters.
func legacyCode(scores map[string]float64, limit int) string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if scores[keys[i]] != scores[keys[j]] {
			return scores[keys[i]] > scores[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if limit > 0 && limit < len(keys) {
		keys = keys[:limit]
	}
	sort.Strings(keys)
	return strings.Join(keys, "")
}
