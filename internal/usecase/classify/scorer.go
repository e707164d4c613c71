package classify

import (
	"github.com/bkyoung/backport/internal/domain"
	"github.com/bkyoung/backport/internal/pattern"
)

// Scorer computes confidence scores from pattern matches. It is stateless
// beyond the immutable pattern set and never fails: an empty message, diff,
// or author simply rates 0 on that signal.
type Scorer struct {
	patterns *pattern.Set
}

// NewScorer constructs a scorer over the given pattern set.
func NewScorer(patterns *pattern.Set) *Scorer {
	return &Scorer{patterns: patterns}
}

// Score returns the commit's confidence score in [0,100].
func (s *Scorer) Score(commit domain.Commit) int {
	return s.patterns.Rates(commit).Score()
}

// Rates exposes the raw per-signal hit counts, shown during review.
func (s *Scorer) Rates(commit domain.Commit) domain.RateTriple {
	return s.patterns.Rates(commit)
}

// EffectiveScore folds a recorded decision into the score: a remembered skip
// pins the commit to 0, a remembered backport to 100. Used by PR aggregation.
func (s *Scorer) EffectiveScore(commit domain.Commit, decision domain.Decision, hasDecision bool) int {
	if hasDecision {
		switch decision {
		case domain.DecisionSkip:
			return 0
		case domain.DecisionBackport:
			return domain.MaxScore
		}
	}
	return s.Score(commit)
}
