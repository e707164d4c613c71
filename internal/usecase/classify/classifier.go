package classify

import (
	"context"
	"fmt"

	"github.com/bkyoung/backport/internal/domain"
)

// Classifier combines scoring, the decision cache, and already-applied
// detection into commit and PR classifications. It performs no mutation and
// no human interaction; the driver acts on its results.
type Classifier struct {
	history History
	cache   DecisionCache
	scorer  *Scorer
}

// NewClassifier wires a classifier over its three inputs.
func NewClassifier(history History, cache DecisionCache, scorer *Scorer) *Classifier {
	return &Classifier{history: history, cache: cache, scorer: scorer}
}

// CommitClassification is the result of classifying one non-merge commit.
type CommitClassification struct {
	Commit  domain.Commit
	Outcome domain.Outcome
	Score   int
}

// ClassifyCommit runs the per-commit state machine:
//
//  1. a recorded skip wins unconditionally
//  2. score 0 skips
//  3. an already-applied commit is done
//  4. a recorded backport, or a perfect score, backports
//  5. everything else asks
func (c *Classifier) ClassifyCommit(ctx context.Context, commit domain.Commit) (CommitClassification, error) {
	result := CommitClassification{Commit: commit}

	decision, hasDecision, err := c.cache.Get(ctx, commit.ID)
	if err != nil {
		return result, fmt.Errorf("decision lookup for %s: %w", commit.ID.Short(), err)
	}
	if hasDecision && decision == domain.DecisionSkip {
		result.Outcome = domain.OutcomeSkip
		return result, nil
	}

	// A recorded backport pins the effective score to 100, mirroring PR
	// aggregation; without it a zero score skips outright.
	result.Score = c.scorer.EffectiveScore(commit, decision, hasDecision)
	if result.Score == 0 {
		result.Outcome = domain.OutcomeSkip
		return result, nil
	}

	applied, err := c.history.IsAlreadyApplied(ctx, commit.ID)
	if err != nil {
		return result, fmt.Errorf("applied check for %s: %w", commit.ID.Short(), err)
	}
	if applied {
		result.Outcome = domain.OutcomeDone
		return result, nil
	}

	if (hasDecision && decision == domain.DecisionBackport) || result.Score == domain.MaxScore {
		result.Outcome = domain.OutcomeBackport
		return result, nil
	}

	result.Outcome = domain.OutcomeAsk
	return result, nil
}

// PRClassification is the aggregate result for one merge commit.
type PRClassification struct {
	Merge   domain.Commit
	Class   domain.PRClass
	Members []domain.Commit
	Sum     int

	// Decided is set when a decision record on the merge commit itself
	// short-circuited aggregation.
	Decided  bool
	Decision domain.Decision
}

// ClassifyPR aggregates member-commit scores into one of the five PR classes
// and applies the strategy override. A decision record on the merge commit
// short-circuits: skip wins before anything else, backport forces the whole
// PR, and a remembered pick always re-descends.
func (c *Classifier) ClassifyPR(ctx context.Context, merge domain.Commit, targetBranch string, strategy domain.Strategy, mixedThreshold int) (PRClassification, error) {
	result := PRClassification{Merge: merge}

	decision, hasDecision, err := c.cache.Get(ctx, merge.ID)
	if err != nil {
		return result, fmt.Errorf("decision lookup for %s: %w", merge.ID.Short(), err)
	}
	if hasDecision && decision == domain.DecisionSkip {
		result.Class = domain.PRClassSkip
		result.Decided = true
		result.Decision = decision
		return result, nil
	}

	memberIDs, err := c.history.ListPRMembers(ctx, targetBranch, merge.ID)
	if err != nil {
		return result, fmt.Errorf("list members of %s: %w", merge.ID.Short(), err)
	}
	result.Members = make([]domain.Commit, 0, len(memberIDs))
	for _, id := range memberIDs {
		member, err := c.history.CommitMeta(ctx, id)
		if err != nil {
			return result, fmt.Errorf("commit meta for %s: %w", id.Short(), err)
		}
		result.Members = append(result.Members, member)
	}

	if hasDecision {
		result.Decided = true
		result.Decision = decision
		switch decision {
		case domain.DecisionBackport:
			result.Class = domain.PRClassBackport
		case domain.DecisionPick:
			result.Class = domain.PRClassPick
		}
		return result, nil
	}

	// A PR with no merge-base-delimited commits should not occur; treat it
	// as class 0 so the threshold comparisons below never divide by zero.
	count := len(result.Members)
	if count == 0 {
		result.Class = domain.PRClassSkip
		return result, nil
	}

	allApplied := true
	for _, member := range result.Members {
		applied, err := c.history.IsAlreadyApplied(ctx, member.ID)
		if err != nil {
			return result, fmt.Errorf("applied check for %s: %w", member.ID.Short(), err)
		}
		if !applied {
			allApplied = false
		}

		memberDecision, hasMemberDecision, err := c.cache.Get(ctx, member.ID)
		if err != nil {
			return result, fmt.Errorf("decision lookup for %s: %w", member.ID.Short(), err)
		}
		result.Sum += c.scorer.EffectiveScore(member, memberDecision, hasMemberDecision)
	}

	// Precedence matters: all-applied beats any score. Threshold ties are
	// inclusive on both boundaries.
	switch {
	case allApplied:
		result.Class = domain.PRClassDone
	case result.Sum >= domain.MaxScore*count:
		result.Class = domain.PRClassBackport
	case result.Sum >= domain.MaxScore/2*count:
		result.Class = domain.PRClassAsk
	case result.Sum > 0:
		result.Class = domain.PRClassPick
	default:
		result.Class = domain.PRClassSkip
	}

	result.Class = applyStrategy(result.Class, strategy, count, mixedThreshold)
	return result, nil
}

// applyStrategy demotes PR-granularity classes when the configured strategy
// disallows wholesale backports. DONE and SKIP are not score classes and are
// never demoted.
func applyStrategy(class domain.PRClass, strategy domain.Strategy, count, mixedThreshold int) domain.PRClass {
	if class != domain.PRClassAsk && class != domain.PRClassBackport {
		return class
	}
	switch strategy {
	case domain.StrategyCommits:
		return domain.PRClassPick
	case domain.StrategyMixed:
		if count < mixedThreshold {
			return domain.PRClassPick
		}
	}
	return class
}
