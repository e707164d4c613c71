// Package report implements the pure classification mode: it tags commits by
// the areas their diffs touch and prints one summary line per commit, without
// mutating anything.
package report

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/backport/internal/domain"
	"github.com/bkyoung/backport/internal/usecase/classify"
)

// tag pairs a name with the path pattern that marks a commit as touching
// that area. Tags are evaluated independently against the commit's aggregate
// path list; the result is a set, so table order only affects display order.
type tag struct {
	name    string
	pattern *regexp.Regexp
}

var componentTags = []tag{
	{"docs", regexp.MustCompile(`(^|/)(docs?|man)/|\.(md|rst|txt)$`)},
	{"build", regexp.MustCompile(`(^|/)(Makefile|CMakeLists\.txt|configure|go\.mod|go\.sum)|\.(mk|cmake)$`)},
	{"ci", regexp.MustCompile(`(^|/)\.(github|gitlab-ci|circleci)|(^|/)ci/`)},
	{"tests", regexp.MustCompile(`(^|/)(tests?|testdata)/|_test\.go$`)},
	{"cli", regexp.MustCompile(`(^|/)(cmd|cli)/`)},
	{"storage", regexp.MustCompile(`(^|/)(store|storage|db|migrations)/`)},
	{"core", regexp.MustCompile(`(^|/)(src|lib|internal|kernel|core)/`)},
}

var featureTags = []tag{
	{"fix", regexp.MustCompile(`(?i)^fix|\bfix(es|ed)?\b`)},
	{"feature", regexp.MustCompile(`(?i)^feat|\badd(s|ed)?\b`)},
	{"revert", regexp.MustCompile(`(?i)^revert\b`)},
	{"security", regexp.MustCompile(`(?i)\b(cve-\d{4}-\d+|security|overflow|use.after.free)\b`)},
}

// Reporter prints component and feature tags for explicit commit lists.
type Reporter struct {
	history classify.History
	out     io.Writer
	caser   cases.Caser
}

// NewReporter constructs a reporter over the history port.
func NewReporter(history classify.History, out io.Writer) *Reporter {
	return &Reporter{
		history: history,
		out:     out,
		caser:   cases.Title(language.English),
	}
}

// Report prints one line per commit: identifier, component tags from the
// changed paths, and feature tags from the message subject.
func (r *Reporter) Report(ctx context.Context, ids []domain.CommitID) error {
	for _, id := range ids {
		commit, err := r.history.CommitMeta(ctx, id)
		if err != nil {
			return fmt.Errorf("commit meta for %s: %w", id.Short(), err)
		}
		fmt.Fprintf(r.out, "%s  %s\n", commit.ID.Short(), strings.Join(r.tagsFor(commit), ", "))
	}
	return nil
}

func (r *Reporter) tagsFor(commit domain.Commit) []string {
	pathAggregate := strings.Join(commit.ChangedPaths, "\n")

	var names []string
	for _, t := range componentTags {
		if t.pattern.MatchString(pathAggregate) {
			names = append(names, r.caser.String(t.name))
		}
	}
	for _, t := range featureTags {
		if t.pattern.MatchString(commit.Subject()) {
			names = append(names, r.caser.String(t.name))
		}
	}
	if len(names) == 0 {
		return []string{"Untagged"}
	}
	return names
}
