// Package classify implements the backport decision engine: the scoring
// model, the commit and PR state machines, and the driver that walks a
// revision range and turns classifications into actions.
package classify

import (
	"context"
	"errors"

	"github.com/bkyoung/backport/internal/domain"
	"github.com/bkyoung/backport/internal/pattern"
)

// ErrAborted is returned when the human quits interactive review. It unwinds
// to the top-level driver, which exits non-zero; already-applied backports
// stay committed.
var ErrAborted = errors.New("review aborted")

// History is the version-control query port. Implementations must return
// merge commits oldest first so replays apply in forward order.
type History interface {
	ListMergeCommits(ctx context.Context, start, end domain.CommitID) ([]domain.CommitID, error)
	ListPRMembers(ctx context.Context, targetBranch string, merge domain.CommitID) ([]domain.CommitID, error)
	CommitMeta(ctx context.Context, id domain.CommitID) (domain.Commit, error)
	IsAlreadyApplied(ctx context.Context, id domain.CommitID) (bool, error)
	MergeBase(ctx context.Context, a, b string) (domain.CommitID, error)
}

// DecisionCache is the durable commit-id → decision mapping. Get is consulted
// on every evaluation; Set is called from interactive review, plus the single
// engine auto-write when a per-commit descent applied nothing.
type DecisionCache interface {
	Get(ctx context.Context, id domain.CommitID) (domain.Decision, bool, error)
	Set(ctx context.Context, id domain.CommitID, decision domain.Decision) error
	Close() error
}

// ReviewAction is the choice the human resolved an ambiguous case to.
type ReviewAction int

const (
	ActionBackport ReviewAction = iota
	ActionSkip
	ActionPick // PR review only: descend to per-commit handling
)

func (a ReviewAction) String() string {
	switch a {
	case ActionBackport:
		return "backport"
	case ActionSkip:
		return "skip"
	case ActionPick:
		return "pick"
	default:
		return "unknown"
	}
}

// ReviewTarget carries everything the reviewer shows the human.
type ReviewTarget struct {
	Commit       domain.Commit
	IsPR         bool
	Score        int
	Matches      []pattern.Match
	MatchedPaths []string
}

// ReviewResult is the resolved action, with Remember set when the human chose
// a persist variant.
type ReviewResult struct {
	Action   ReviewAction
	Remember bool
}

// Reviewer presents an ambiguous commit or PR to a human and blocks until a
// terminal choice. Returns ErrAborted when the human quits.
type Reviewer interface {
	Review(ctx context.Context, target ReviewTarget) (ReviewResult, error)
}

// Executor applies resolved backport decisions to the working tree.
// Implementations handle conflicts internally (external merge tool) and
// return an error only when the run cannot continue.
type Executor interface {
	// Apply cherry-picks a single non-merge commit.
	Apply(ctx context.Context, commit domain.Commit) error
	// ApplyMerge flattens a merge commit against its first parent and
	// applies the result with a synthesized message.
	ApplyMerge(ctx context.Context, commit domain.Commit) error
}

// Logger is the structured logging port consumed by the driver.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}
