package classify_test

import (
	"context"
	"fmt"

	"github.com/bkyoung/backport/internal/domain"
	"github.com/bkyoung/backport/internal/usecase/classify"
)

// fakeHistory serves canned commits and membership. Merge commits are listed
// in the order given, which the real adapter guarantees is oldest first.
type fakeHistory struct {
	commits map[domain.CommitID]domain.Commit
	merges  []domain.CommitID
	members map[domain.CommitID][]domain.CommitID
	applied map[domain.CommitID]bool
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		commits: make(map[domain.CommitID]domain.Commit),
		members: make(map[domain.CommitID][]domain.CommitID),
		applied: make(map[domain.CommitID]bool),
	}
}

func (h *fakeHistory) addCommit(c domain.Commit) {
	h.commits[c.ID] = c
}

func (h *fakeHistory) addPR(merge domain.Commit, members ...domain.Commit) {
	h.addCommit(merge)
	h.merges = append(h.merges, merge.ID)
	for _, m := range members {
		h.addCommit(m)
		h.members[merge.ID] = append(h.members[merge.ID], m.ID)
	}
}

func (h *fakeHistory) ListMergeCommits(ctx context.Context, start, end domain.CommitID) ([]domain.CommitID, error) {
	return h.merges, nil
}

func (h *fakeHistory) ListPRMembers(ctx context.Context, targetBranch string, merge domain.CommitID) ([]domain.CommitID, error) {
	return h.members[merge], nil
}

func (h *fakeHistory) CommitMeta(ctx context.Context, id domain.CommitID) (domain.Commit, error) {
	c, ok := h.commits[id]
	if !ok {
		return domain.Commit{}, fmt.Errorf("no such commit %s", id)
	}
	return c, nil
}

func (h *fakeHistory) IsAlreadyApplied(ctx context.Context, id domain.CommitID) (bool, error) {
	return h.applied[id], nil
}

func (h *fakeHistory) MergeBase(ctx context.Context, a, b string) (domain.CommitID, error) {
	return "base", nil
}

// fakeCache is an in-memory decision cache that records writes.
type fakeCache struct {
	decisions map[domain.CommitID]domain.Decision
	writes    []domain.CommitID
}

func newFakeCache() *fakeCache {
	return &fakeCache{decisions: make(map[domain.CommitID]domain.Decision)}
}

func (c *fakeCache) Get(ctx context.Context, id domain.CommitID) (domain.Decision, bool, error) {
	d, ok := c.decisions[id]
	return d, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, id domain.CommitID, decision domain.Decision) error {
	c.decisions[id] = decision
	c.writes = append(c.writes, id)
	return nil
}

func (c *fakeCache) Close() error { return nil }

// scriptedReviewer returns queued results in order and fails when asked more
// often than scripted.
type scriptedReviewer struct {
	results []classify.ReviewResult
	targets []classify.ReviewTarget
	abort   bool
}

func (r *scriptedReviewer) Review(ctx context.Context, target classify.ReviewTarget) (classify.ReviewResult, error) {
	r.targets = append(r.targets, target)
	if r.abort {
		return classify.ReviewResult{}, classify.ErrAborted
	}
	if len(r.results) == 0 {
		return classify.ReviewResult{}, fmt.Errorf("unexpected review of %s", target.Commit.ID)
	}
	result := r.results[0]
	r.results = r.results[1:]
	return result, nil
}

// recordingExecutor records applies instead of touching a working tree.
type recordingExecutor struct {
	applied []domain.CommitID
	merges  []domain.CommitID
	failOn  domain.CommitID
}

func (e *recordingExecutor) Apply(ctx context.Context, commit domain.Commit) error {
	if commit.ID == e.failOn {
		return fmt.Errorf("cherry-pick failed")
	}
	e.applied = append(e.applied, commit.ID)
	return nil
}

func (e *recordingExecutor) ApplyMerge(ctx context.Context, commit domain.Commit) error {
	if commit.ID == e.failOn {
		return fmt.Errorf("cherry-pick failed")
	}
	e.merges = append(e.merges, commit.ID)
	return nil
}
