// Package git implements the version-control ports against a local
// repository: history queries backed by go-git, and cherry-pick execution
// backed by the git binary (go-git has no sequencer).
package git

import (
	"context"
	"fmt"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bkyoung/backport/internal/domain"
)

// appliedMarkerPrefix is the provenance marker `git cherry-pick -x` leaves in
// commit messages. Already-applied detection searches the target branch for it.
const appliedMarkerPrefix = "cherry picked from commit "

// History implements the history port for one repository and target branch.
type History struct {
	repoDir      string
	targetBranch string
}

// NewHistory constructs a history adapter. Already-applied detection scans
// targetBranch, which is where backports land.
func NewHistory(repoDir, targetBranch string) *History {
	return &History{repoDir: repoDir, targetBranch: targetBranch}
}

func (h *History) open() (*goGit.Repository, error) {
	repo, err := goGit.PlainOpenWithOptions(h.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return repo, nil
}

// ListMergeCommits returns the merge commits reachable from end but not from
// start, oldest first, so the driver replays history forward.
func (h *History) ListMergeCommits(ctx context.Context, start, end domain.CommitID) ([]domain.CommitID, error) {
	repo, err := h.open()
	if err != nil {
		return nil, err
	}

	startCommit, err := resolveCommit(repo, start.String())
	if err != nil {
		return nil, fmt.Errorf("resolve start: %w", err)
	}
	endCommit, err := resolveCommit(repo, end.String())
	if err != nil {
		return nil, fmt.Errorf("resolve end: %w", err)
	}

	var merges []domain.CommitID
	iter := object.NewCommitPreorderIter(endCommit, nil, []plumbing.Hash{startCommit.Hash})
	err = iter.ForEach(func(c *object.Commit) error {
		if c.NumParents() > 1 {
			merges = append(merges, domain.CommitID(c.Hash.String()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s..%s: %w", start.Short(), end.Short(), err)
	}

	reverse(merges)
	return merges, nil
}

// ListPRMembers returns the non-merge commits between the merge-base of
// (target branch, the PR's first parent) and the PR itself, oldest first.
func (h *History) ListPRMembers(ctx context.Context, targetBranch string, merge domain.CommitID) ([]domain.CommitID, error) {
	repo, err := h.open()
	if err != nil {
		return nil, err
	}

	mergeCommit, err := resolveCommit(repo, merge.String())
	if err != nil {
		return nil, fmt.Errorf("resolve merge commit: %w", err)
	}
	if mergeCommit.NumParents() < 2 {
		return nil, fmt.Errorf("%s is not a merge commit", merge.Short())
	}

	firstParent, err := mergeCommit.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("first parent of %s: %w", merge.Short(), err)
	}
	targetCommit, err := resolveCommit(repo, targetBranch)
	if err != nil {
		return nil, fmt.Errorf("resolve target branch %s: %w", targetBranch, err)
	}

	bases, err := targetCommit.MergeBase(firstParent)
	if err != nil {
		return nil, fmt.Errorf("merge base of %s and %s: %w", targetBranch, merge.Short(), err)
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("no merge base between %s and %s", targetBranch, merge.Short())
	}

	var members []domain.CommitID
	iter := object.NewCommitPreorderIter(mergeCommit, nil, []plumbing.Hash{bases[0].Hash})
	err = iter.ForEach(func(c *object.Commit) error {
		if c.NumParents() <= 1 {
			members = append(members, domain.CommitID(c.Hash.String()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk members of %s: %w", merge.Short(), err)
	}

	reverse(members)
	return members, nil
}

// CommitMeta loads the commit attributes the decision engine consumes.
// Changed paths come from the stat against the first parent.
func (h *History) CommitMeta(ctx context.Context, id domain.CommitID) (domain.Commit, error) {
	repo, err := h.open()
	if err != nil {
		return domain.Commit{}, err
	}
	commit, err := resolveCommit(repo, id.String())
	if err != nil {
		return domain.Commit{}, fmt.Errorf("resolve %s: %w", id.Short(), err)
	}

	parents := make([]domain.CommitID, 0, commit.NumParents())
	for _, hash := range commit.ParentHashes {
		parents = append(parents, domain.CommitID(hash.String()))
	}

	stats, err := commit.Stats()
	if err != nil {
		return domain.Commit{}, fmt.Errorf("stats for %s: %w", id.Short(), err)
	}
	paths := make([]string, 0, len(stats))
	for _, stat := range stats {
		paths = append(paths, stat.Name)
	}

	return domain.Commit{
		ID:           domain.CommitID(commit.Hash.String()),
		Message:      commit.Message,
		Author:       fmt.Sprintf("%s <%s>", commit.Author.Name, commit.Author.Email),
		Parents:      parents,
		ChangedPaths: paths,
	}, nil
}

// IsAlreadyApplied reports whether the target branch carries a commit whose
// message names id in a provenance marker.
func (h *History) IsAlreadyApplied(ctx context.Context, id domain.CommitID) (bool, error) {
	out, err := runGitCommand(ctx, h.repoDir,
		"log", "--fixed-strings", "--grep", appliedMarkerPrefix+id.String(), "--format=%H", h.targetBranch)
	if err != nil {
		return false, fmt.Errorf("applied search for %s: %w", id.Short(), err)
	}
	return strings.TrimSpace(out) != "", nil
}

// MergeBase returns the most recent common ancestor of two revisions.
func (h *History) MergeBase(ctx context.Context, a, b string) (domain.CommitID, error) {
	repo, err := h.open()
	if err != nil {
		return "", err
	}
	commitA, err := resolveCommit(repo, a)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", a, err)
	}
	commitB, err := resolveCommit(repo, b)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", b, err)
	}
	bases, err := commitA.MergeBase(commitB)
	if err != nil {
		return "", fmt.Errorf("merge base of %s and %s: %w", a, b, err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("no merge base between %s and %s", a, b)
	}
	return domain.CommitID(bases[0].Hash.String()), nil
}

// Diff returns the unified diff of one commit, restricted to paths when
// non-empty. Serves the reviewer's inspection actions.
func (h *History) Diff(ctx context.Context, id domain.CommitID, paths []string) (string, error) {
	args := []string{"show", "--format=", "--patch", id.String()}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := runGitCommand(ctx, h.repoDir, args...)
	if err != nil {
		return "", fmt.Errorf("diff for %s: %w", id.Short(), err)
	}
	return out, nil
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		name := plumbing.Revision(candidate)
		hash, err := repo.ResolveRevision(name)
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}

func reverse(ids []domain.CommitID) {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
}
