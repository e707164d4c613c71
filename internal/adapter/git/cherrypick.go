package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/bkyoung/backport/internal/domain"
)

// CherryPickOptions tune how commits land on the target branch.
type CherryPickOptions struct {
	// SignOff appends a Signed-off-by trailer to each picked commit.
	SignOff bool
	// SignCommits GPG-signs each picked commit.
	SignCommits bool
	// MergeTool is invoked in the working tree when a pick conflicts.
	// Empty means conflicts fail the pick instead.
	MergeTool string
}

// CherryPicker applies commits onto the checked-out branch via the git
// binary. Each pick carries -x so the provenance marker makes the result
// discoverable by the already-applied scan.
type CherryPicker struct {
	repoDir string
	opts    CherryPickOptions
}

// NewCherryPicker constructs an executor over repoDir.
func NewCherryPicker(repoDir string, opts CherryPickOptions) *CherryPicker {
	return &CherryPicker{repoDir: repoDir, opts: opts}
}

// Apply cherry-picks a single non-merge commit. Conflicts are handed to the
// configured merge tool and the pick is continued once the tree is clean.
func (p *CherryPicker) Apply(ctx context.Context, commit domain.Commit) error {
	args := p.pickArgs(commit.ID, false)
	if _, err := runGitCommand(ctx, p.repoDir, args...); err != nil {
		return p.resolveConflict(ctx, commit.ID, err)
	}
	return nil
}

// ApplyMerge cherry-picks a merge commit against its first parent and then
// rewrites the message: the merge summary line goes away and a provenance
// marker for the merge itself is appended, so reruns find it.
func (p *CherryPicker) ApplyMerge(ctx context.Context, commit domain.Commit) error {
	args := p.pickArgs(commit.ID, true)
	if _, err := runGitCommand(ctx, p.repoDir, args...); err != nil {
		if err = p.resolveConflict(ctx, commit.ID, err); err != nil {
			return err
		}
	}

	rewritten := strings.TrimRight(StripMergeSummary(commit.Message), "\n")
	rewritten += fmt.Sprintf("\n\n(cherry picked from commit %s)\n", commit.ID)
	amendArgs := []string{"commit", "--amend", "-m", rewritten}
	if p.opts.SignOff {
		amendArgs = append(amendArgs, "--signoff")
	}
	if p.opts.SignCommits {
		amendArgs = append(amendArgs, "-S")
	}
	if _, err := runGitCommand(ctx, p.repoDir, amendArgs...); err != nil {
		return fmt.Errorf("amend message of picked %s: %w", commit.ID.Short(), err)
	}
	return nil
}

func (p *CherryPicker) pickArgs(id domain.CommitID, merge bool) []string {
	args := []string{"cherry-pick", "-x", "-Xpatience"}
	if merge {
		args = append(args, "-m", "1")
	}
	if p.opts.SignOff {
		args = append(args, "--signoff")
	}
	if p.opts.SignCommits {
		args = append(args, "-S")
	}
	return append(args, id.String())
}

// resolveConflict inspects a failed pick. When unmerged paths remain and a
// merge tool is configured, the tool runs in the working tree and the pick is
// continued. Anything else aborts the pick and reports the original error.
func (p *CherryPicker) resolveConflict(ctx context.Context, id domain.CommitID, pickErr error) error {
	unmerged, err := runGitCommand(ctx, p.repoDir, "diff", "--name-only", "--diff-filter=U")
	if err != nil || strings.TrimSpace(unmerged) == "" {
		p.abortPick(ctx)
		return fmt.Errorf("cherry-pick %s: %w", id.Short(), pickErr)
	}
	if p.opts.MergeTool == "" {
		p.abortPick(ctx)
		return fmt.Errorf("cherry-pick %s conflicts and no merge tool is configured: %w", id.Short(), pickErr)
	}

	if err := runInteractive(ctx, p.repoDir, p.opts.MergeTool); err != nil {
		p.abortPick(ctx)
		return fmt.Errorf("merge tool for %s: %w", id.Short(), err)
	}

	// core.editor=true keeps --continue from opening an editor over the
	// terminal the merge tool just released.
	if _, err := runGitCommand(ctx, p.repoDir, "-c", "core.editor=true", "cherry-pick", "--continue"); err != nil {
		p.abortPick(ctx)
		return fmt.Errorf("continue cherry-pick of %s: %w", id.Short(), err)
	}
	return nil
}

// abortPick resets the sequencer so the working tree is usable after a
// failure. Its own error is deliberately dropped; the pick error is the one
// worth reporting.
func (p *CherryPicker) abortPick(ctx context.Context) {
	_, _ = runGitCommand(ctx, p.repoDir, "cherry-pick", "--abort")
}

// StripMergeSummary removes the leading "Merge ..." line that forges put on
// merge commits, leaving the PR title as the new subject. Messages without
// one pass through unchanged.
func StripMergeSummary(message string) string {
	lines := strings.Split(message, "\n")
	if len(lines) == 0 || !strings.HasPrefix(lines[0], "Merge ") {
		return message
	}
	rest := lines[1:]
	for len(rest) > 0 && strings.TrimSpace(rest[0]) == "" {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return message
	}
	return strings.Join(rest, "\n")
}
