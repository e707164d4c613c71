package classify

import (
	"context"
	"fmt"
	"io"

	"github.com/bkyoung/backport/internal/domain"
	"github.com/bkyoung/backport/internal/pattern"
)

// DriverDeps captures the collaborators for the backport driver.
type DriverDeps struct {
	History        History
	Cache          DecisionCache
	Patterns       *pattern.Set
	Reviewer       Reviewer
	Executor       Executor
	Logger         Logger
	Out            io.Writer
	TargetBranch   string
	Strategy       domain.Strategy
	MixedThreshold int
	DryRun         bool
}

// Driver walks a revision range PR by PR, oldest first, and turns
// classifications into cherry-picks, questions, or skips. Processing is
// strictly sequential; the only suspension points are human input and the
// external merge tool.
type Driver struct {
	deps       DriverDeps
	classifier *Classifier
	scorer     *Scorer
}

// NewDriver constructs the driver and its classifier.
func NewDriver(deps DriverDeps) *Driver {
	scorer := NewScorer(deps.Patterns)
	return &Driver{
		deps:       deps,
		classifier: NewClassifier(deps.History, deps.Cache, scorer),
		scorer:     scorer,
	}
}

// Summary counts what a run did, for the completion line and tests.
type Summary struct {
	PRs        int
	Backported int
	Skipped    int
	Asked      int
	Done       int
}

// Run processes every merge commit in (start, end]. On abort or executor
// failure the error names the commit that was in flight.
func (d *Driver) Run(ctx context.Context, start, end domain.CommitID) (Summary, error) {
	var summary Summary

	mergeIDs, err := d.deps.History.ListMergeCommits(ctx, start, end)
	if err != nil {
		return summary, fmt.Errorf("list merge commits %s..%s: %w", start.Short(), end.Short(), err)
	}

	for _, id := range mergeIDs {
		merge, err := d.deps.History.CommitMeta(ctx, id)
		if err != nil {
			return summary, fmt.Errorf("commit meta for %s: %w", id.Short(), err)
		}
		summary.PRs++
		if err := d.processPR(ctx, merge, &summary); err != nil {
			return summary, fmt.Errorf("pr %s: %w", id.Short(), err)
		}
	}

	fmt.Fprintf(d.deps.Out, "processed %d PRs: %d backported, %d skipped, %d asked, %d already applied\n",
		summary.PRs, summary.Backported, summary.Skipped, summary.Asked, summary.Done)
	return summary, nil
}

func (d *Driver) processPR(ctx context.Context, merge domain.Commit, summary *Summary) error {
	cls, err := d.classifier.ClassifyPR(ctx, merge, d.deps.TargetBranch, d.deps.Strategy, d.deps.MixedThreshold)
	if err != nil {
		return err
	}

	d.logInfo(ctx, "pr classified", map[string]interface{}{
		"commit":  merge.ID.Short(),
		"class":   cls.Class.String(),
		"members": len(cls.Members),
		"sum":     cls.Sum,
	})

	switch cls.Class {
	case domain.PRClassDone:
		summary.Done++
		d.report(domain.OutcomeDone, merge)
		return nil

	case domain.PRClassBackport:
		summary.Backported++
		return d.applyMerge(ctx, merge)

	case domain.PRClassAsk:
		return d.askPR(ctx, cls, summary)

	case domain.PRClassPick:
		return d.descend(ctx, cls, summary)

	default:
		summary.Skipped++
		d.report(domain.OutcomeSkip, merge)
		return nil
	}
}

// askPR defers a majority-match PR to the human at PR granularity.
func (d *Driver) askPR(ctx context.Context, cls PRClassification, summary *Summary) error {
	merge := cls.Merge

	if d.deps.DryRun {
		summary.Asked++
		d.report(domain.OutcomeAsk, merge)
		return nil
	}

	result, err := d.deps.Reviewer.Review(ctx, d.prTarget(cls))
	if err != nil {
		return err
	}

	switch result.Action {
	case ActionBackport:
		if result.Remember {
			if err := d.deps.Cache.Set(ctx, merge.ID, domain.DecisionBackport); err != nil {
				return err
			}
		}
		summary.Backported++
		return d.applyMerge(ctx, merge)

	case ActionPick:
		if result.Remember {
			if err := d.deps.Cache.Set(ctx, merge.ID, domain.DecisionPick); err != nil {
				return err
			}
		}
		return d.descend(ctx, cls, summary)

	default:
		if result.Remember {
			if err := d.deps.Cache.Set(ctx, merge.ID, domain.DecisionSkip); err != nil {
				return err
			}
		}
		summary.Skipped++
		d.report(domain.OutcomeSkip, merge)
		return nil
	}
}

// descend classifies every member commit independently. When none of them
// ends up applied, the PR itself is recorded as skipped so re-runs converge
// without asking again. This is the engine's only unprompted cache write.
func (d *Driver) descend(ctx context.Context, cls PRClassification, summary *Summary) error {
	anyApplied := false
	for _, member := range cls.Members {
		applied, err := d.ProcessCommit(ctx, member, summary)
		if err != nil {
			return err
		}
		if applied {
			anyApplied = true
		}
	}

	if !anyApplied && !d.deps.DryRun {
		if err := d.deps.Cache.Set(ctx, cls.Merge.ID, domain.DecisionSkip); err != nil {
			return fmt.Errorf("record pr skip for %s: %w", cls.Merge.ID.Short(), err)
		}
	}
	return nil
}

// ProcessCommit classifies one non-merge commit and acts on the outcome.
// Reports whether this run applied the commit.
func (d *Driver) ProcessCommit(ctx context.Context, commit domain.Commit, summary *Summary) (bool, error) {
	cls, err := d.classifier.ClassifyCommit(ctx, commit)
	if err != nil {
		return false, err
	}

	switch cls.Outcome {
	case domain.OutcomeSkip:
		summary.Skipped++
		d.report(domain.OutcomeSkip, commit)
		return false, nil

	case domain.OutcomeDone:
		summary.Done++
		d.report(domain.OutcomeDone, commit)
		return false, nil

	case domain.OutcomeBackport:
		summary.Backported++
		return true, d.apply(ctx, commit)

	default: // ask
		return d.askCommit(ctx, commit, cls.Score, summary)
	}
}

func (d *Driver) askCommit(ctx context.Context, commit domain.Commit, score int, summary *Summary) (bool, error) {
	if d.deps.DryRun {
		summary.Asked++
		d.report(domain.OutcomeAsk, commit)
		return false, nil
	}

	result, err := d.deps.Reviewer.Review(ctx, ReviewTarget{
		Commit:       commit,
		Score:        score,
		Matches:      d.deps.Patterns.Matches(commit),
		MatchedPaths: d.deps.Patterns.MatchedPaths(commit),
	})
	if err != nil {
		return false, err
	}

	if result.Action == ActionBackport {
		if result.Remember {
			if err := d.deps.Cache.Set(ctx, commit.ID, domain.DecisionBackport); err != nil {
				return false, err
			}
		}
		summary.Backported++
		return true, d.apply(ctx, commit)
	}

	if result.Remember {
		if err := d.deps.Cache.Set(ctx, commit.ID, domain.DecisionSkip); err != nil {
			return false, err
		}
	}
	summary.Skipped++
	d.report(domain.OutcomeSkip, commit)
	return false, nil
}

func (d *Driver) apply(ctx context.Context, commit domain.Commit) error {
	if d.deps.DryRun {
		fmt.Fprintf(d.deps.Out, "backport %s  %s (dry run)\n", commit.ID.Short(), commit.Subject())
		return nil
	}
	d.report(domain.OutcomeBackport, commit)
	if err := d.deps.Executor.Apply(ctx, commit); err != nil {
		return fmt.Errorf("backport %s: %w", commit.ID.Short(), err)
	}
	return nil
}

func (d *Driver) applyMerge(ctx context.Context, merge domain.Commit) error {
	if d.deps.DryRun {
		fmt.Fprintf(d.deps.Out, "backport %s  %s (dry run, whole PR)\n", merge.ID.Short(), merge.Subject())
		return nil
	}
	d.report(domain.OutcomeBackport, merge)
	if err := d.deps.Executor.ApplyMerge(ctx, merge); err != nil {
		return fmt.Errorf("backport %s: %w", merge.ID.Short(), err)
	}
	return nil
}

// prTarget builds the review target for PR-granularity questions: the merge
// commit plus the matches of every member, so the human sees why the PR
// scored the way it did.
func (d *Driver) prTarget(cls PRClassification) ReviewTarget {
	target := ReviewTarget{
		Commit: cls.Merge,
		IsPR:   true,
	}
	if len(cls.Members) > 0 {
		target.Score = cls.Sum / len(cls.Members)
	}
	for _, member := range cls.Members {
		target.Matches = append(target.Matches, d.deps.Patterns.Matches(member)...)
		target.MatchedPaths = append(target.MatchedPaths, d.deps.Patterns.MatchedPaths(member)...)
	}
	return target
}

func (d *Driver) report(outcome domain.Outcome, commit domain.Commit) {
	fmt.Fprintf(d.deps.Out, "%-8s %s  %s\n", outcome, commit.ID.Short(), commit.Subject())
}

func (d *Driver) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if d.deps.Logger != nil {
		d.deps.Logger.LogInfo(ctx, message, fields)
	}
}
