// Package review implements the interactive reviewer: it presents ambiguous
// commits and PRs to a human, offers inspection actions, and resolves each
// case to a backport, skip, or pick decision.
package review

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bkyoung/backport/internal/domain"
	"github.com/bkyoung/backport/internal/usecase/classify"
)

// Inspector fetches diffs for the inspection actions. Implemented by the git
// adapter.
type Inspector interface {
	// Diff returns the unified diff of the commit, restricted to the given
	// paths when non-empty.
	Diff(ctx context.Context, id domain.CommitID, paths []string) (string, error)
}

// Options tune reviewer behavior for the environment it runs in.
type Options struct {
	// SingleKey reads raw single keystrokes instead of buffered lines.
	// Enable only when stdin is a terminal.
	SingleKey bool
	// Color enables ANSI highlighting of pattern matches.
	Color bool
}

// Reviewer blocks on human input to resolve ambiguous classifications. It is
// the only suspension point in the engine besides the external merge tool.
type Reviewer struct {
	in        *bufio.Reader
	out       io.Writer
	inspector Inspector
	opts      Options
}

// NewReviewer constructs a reviewer over the given streams.
func NewReviewer(in io.Reader, out io.Writer, inspector Inspector, opts Options) *Reviewer {
	return &Reviewer{
		in:        bufio.NewReader(in),
		out:       out,
		inspector: inspector,
		opts:      opts,
	}
}

// reviewState tracks where the input loop is. Resolved and aborted are
// terminal; the showing states print and fall back to awaiting input.
type reviewState int

const (
	stateAwaitingInput reviewState = iota
	stateShowingInfo
	stateShowingFiles
	stateShowingDiff
	stateShowingFullDiff
	stateResolved
	stateAborted
)

// Review presents the target and loops on single-character choices until the
// human resolves or aborts. Returns classify.ErrAborted on quit.
func (r *Reviewer) Review(ctx context.Context, target classify.ReviewTarget) (classify.ReviewResult, error) {
	r.printHeader(target)

	var result classify.ReviewResult
	state := stateAwaitingInput
	for {
		switch state {
		case stateShowingInfo:
			r.showInfo(target)
			state = stateAwaitingInput

		case stateShowingFiles:
			r.showFiles(target)
			state = stateAwaitingInput

		case stateShowingDiff:
			r.showDiff(ctx, target, target.MatchedPaths)
			state = stateAwaitingInput

		case stateShowingFullDiff:
			r.showDiff(ctx, target, nil)
			state = stateAwaitingInput

		case stateResolved:
			return result, nil

		case stateAborted:
			return classify.ReviewResult{}, classify.ErrAborted

		default:
			r.printPrompt(target)
			key, err := r.readKey()
			if err != nil {
				return classify.ReviewResult{}, fmt.Errorf("read review input: %w", err)
			}
			state, result = r.transition(target, key)
		}
	}
}

// transition maps one input key to the next state. Unknown keys reprint the
// help and stay in awaiting-input.
func (r *Reviewer) transition(target classify.ReviewTarget, key byte) (reviewState, classify.ReviewResult) {
	switch key {
	case 'y', 'b':
		return stateResolved, classify.ReviewResult{Action: classify.ActionBackport}
	case 'Y', 'B':
		return stateResolved, classify.ReviewResult{Action: classify.ActionBackport, Remember: true}
	case 'n', 's':
		return stateResolved, classify.ReviewResult{Action: classify.ActionSkip}
	case 'N', 'S':
		return stateResolved, classify.ReviewResult{Action: classify.ActionSkip, Remember: true}
	case 'p':
		if target.IsPR {
			return stateResolved, classify.ReviewResult{Action: classify.ActionPick}
		}
	case 'P':
		if target.IsPR {
			return stateResolved, classify.ReviewResult{Action: classify.ActionPick, Remember: true}
		}
	case 'i':
		return stateShowingInfo, classify.ReviewResult{}
	case 'f':
		return stateShowingFiles, classify.ReviewResult{}
	case 'd':
		return stateShowingDiff, classify.ReviewResult{}
	case 'D':
		return stateShowingFullDiff, classify.ReviewResult{}
	case 'q':
		return stateAborted, classify.ReviewResult{}
	}
	r.printHelp(target)
	return stateAwaitingInput, classify.ReviewResult{}
}

// readKey consumes one choice. In line mode the first non-space character of
// the line is the key, so piped input and tests can feed one choice per line.
func (r *Reviewer) readKey() (byte, error) {
	if r.opts.SingleKey {
		return readRawKey(r.in)
	}
	for {
		line, err := r.in.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

func (r *Reviewer) printHeader(target classify.ReviewTarget) {
	kind := "commit"
	if target.IsPR {
		kind = "pr"
	}
	fmt.Fprintf(r.out, "\n%s %s  %s\n", kind, target.Commit.ID.Short(), target.Commit.Subject())
	fmt.Fprintf(r.out, "score %d/100, %d pattern hits\n", target.Score, len(target.Matches))
	for _, match := range target.Matches {
		fmt.Fprintf(r.out, "  %-7s %s => %s\n", match.Signal, match.Pattern, r.highlight(match.Text))
	}
}

func (r *Reviewer) printPrompt(target classify.ReviewTarget) {
	if target.IsPR {
		fmt.Fprint(r.out, "[y]backport [n]skip [p]ick per-commit [i]nfo [f]iles [d]iff [D]full [q]uit (upper-case remembers)? ")
		return
	}
	fmt.Fprint(r.out, "[y]backport [n]skip [i]nfo [f]iles [d]iff [D]full [q]uit (upper-case remembers)? ")
}

func (r *Reviewer) printHelp(target classify.ReviewTarget) {
	fmt.Fprintln(r.out, "y/b backport, Y/B backport and remember, n/s skip, N/S skip and remember")
	if target.IsPR {
		fmt.Fprintln(r.out, "p pick per-commit this run, P pick and remember")
	}
	fmt.Fprintln(r.out, "i commit info, f changed files, d diff of matched paths, D full diff, q abort run")
}

func (r *Reviewer) showInfo(target classify.ReviewTarget) {
	fmt.Fprintf(r.out, "commit %s\nauthor %s\n\n%s\n", target.Commit.ID, target.Commit.Author, target.Commit.Message)
}

func (r *Reviewer) showFiles(target classify.ReviewTarget) {
	matched := make(map[string]bool, len(target.MatchedPaths))
	for _, p := range target.MatchedPaths {
		matched[p] = true
	}
	for _, p := range target.Commit.ChangedPaths {
		if matched[p] {
			fmt.Fprintf(r.out, "  %s\n", r.highlight(p))
		} else {
			fmt.Fprintf(r.out, "  %s\n", p)
		}
	}
}

func (r *Reviewer) showDiff(ctx context.Context, target classify.ReviewTarget, paths []string) {
	if r.inspector == nil {
		fmt.Fprintln(r.out, "diff viewer not available")
		return
	}
	diff, err := r.inspector.Diff(ctx, target.Commit.ID, paths)
	if err != nil {
		fmt.Fprintf(r.out, "diff failed: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, diff)
}

func (r *Reviewer) highlight(s string) string {
	if !r.opts.Color {
		return s
	}
	return "\033[1;31m" + s + "\033[0m"
}
