// Package pattern loads and evaluates the three classification pattern sets:
// commit-message patterns, changed-path patterns, and author patterns.
package pattern

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bkyoung/backport/internal/domain"
)

// File names searched inside the pattern directory. A missing file leaves
// that signal empty, which rates every commit 0 on it.
const (
	MessageFile = "message.patterns"
	PathFile    = "path.patterns"
	AuthorFile  = "author.patterns"
)

// Set holds the compiled pattern lists. It is built once at startup and
// read-only afterwards.
type Set struct {
	message []*regexp.Regexp
	path    []*regexp.Regexp
	author  []*regexp.Regexp
}

// Load reads the three pattern files from dir. Blank lines and lines starting
// with '#' are skipped. A pattern that fails to compile is a configuration
// error and aborts loading.
func Load(dir string) (*Set, error) {
	message, err := loadFile(filepath.Join(dir, MessageFile))
	if err != nil {
		return nil, err
	}
	path, err := loadFile(filepath.Join(dir, PathFile))
	if err != nil {
		return nil, err
	}
	author, err := loadFile(filepath.Join(dir, AuthorFile))
	if err != nil {
		return nil, err
	}
	return &Set{message: message, path: path, author: author}, nil
}

// NewSet compiles pattern sets from in-memory lists. Used by tests and by
// callers that source patterns from somewhere other than the config directory.
func NewSet(message, path, author []string) (*Set, error) {
	compiled := func(exprs []string) ([]*regexp.Regexp, error) {
		out := make([]*regexp.Regexp, 0, len(exprs))
		for _, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
			}
			out = append(out, re)
		}
		return out, nil
	}

	m, err := compiled(message)
	if err != nil {
		return nil, err
	}
	p, err := compiled(path)
	if err != nil {
		return nil, err
	}
	a, err := compiled(author)
	if err != nil {
		return nil, err
	}
	return &Set{message: m, path: p, author: a}, nil
}

func loadFile(path string) ([]*regexp.Regexp, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open pattern file %s: %w", path, err)
	}
	defer f.Close()

	var patterns []*regexp.Regexp
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		re, err := regexp.Compile(line)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q from %s: %w", line, path, err)
		}
		patterns = append(patterns, re)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pattern file %s: %w", path, err)
	}
	return patterns, nil
}

// Rates counts pattern hits for one commit, per signal. Occurrences are
// counted, not capped: a message matching two message patterns rates 2.
// The score collapses counts to booleans, but the counts themselves are
// shown during interactive review.
func (s *Set) Rates(commit domain.Commit) domain.RateTriple {
	triple := domain.RateTriple{}
	for _, re := range s.message {
		triple.Message += len(re.FindAllStringIndex(commit.Message, -1))
	}
	for _, re := range s.path {
		for _, p := range commit.ChangedPaths {
			if re.MatchString(p) {
				triple.Path++
			}
		}
	}
	for _, re := range s.author {
		triple.Author += len(re.FindAllStringIndex(commit.Author, -1))
	}
	return triple
}

// Match describes a single pattern hit for reviewer display.
type Match struct {
	Signal  string // "message", "path", or "author"
	Pattern string
	Text    string // the matched text (a path for path patterns)
}

// Matches returns every individual pattern hit for the commit, in signal
// order. Used by the interactive reviewer to show why a commit matched.
func (s *Set) Matches(commit domain.Commit) []Match {
	var matches []Match
	for _, re := range s.message {
		for _, hit := range re.FindAllString(commit.Message, -1) {
			matches = append(matches, Match{Signal: "message", Pattern: re.String(), Text: hit})
		}
	}
	for _, re := range s.path {
		for _, p := range commit.ChangedPaths {
			if re.MatchString(p) {
				matches = append(matches, Match{Signal: "path", Pattern: re.String(), Text: p})
			}
		}
	}
	for _, re := range s.author {
		for _, hit := range re.FindAllString(commit.Author, -1) {
			matches = append(matches, Match{Signal: "author", Pattern: re.String(), Text: hit})
		}
	}
	return matches
}

// MatchedPaths returns the changed paths that hit at least one path pattern.
// The diff shown during review is restricted to these.
func (s *Set) MatchedPaths(commit domain.Commit) []string {
	var paths []string
	for _, p := range commit.ChangedPaths {
		for _, re := range s.path {
			if re.MatchString(p) {
				paths = append(paths, p)
				break
			}
		}
	}
	return paths
}
