package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/backport/internal/domain"
)

type testRepo struct {
	t    *testing.T
	dir  string
	repo *goGit.Repository
	wt   *goGit.Worktree
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()
	dir := t.TempDir()
	repo, err := goGit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &testRepo{t: t, dir: dir, repo: repo, wt: wt}
}

func (r *testRepo) signature() *object.Signature {
	return &object.Signature{Name: "Jo Doe", Email: "jo@example.com", When: time.Now()}
}

func (r *testRepo) commit(message string, files map[string]string) domain.CommitID {
	r.t.Helper()
	for name, content := range files {
		path := filepath.Join(r.dir, name)
		require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(r.t, os.WriteFile(path, []byte(content), 0o644))
		_, err := r.wt.Add(name)
		require.NoError(r.t, err)
	}
	hash, err := r.wt.Commit(message, &goGit.CommitOptions{
		Author:            r.signature(),
		AllowEmptyCommits: true,
	})
	require.NoError(r.t, err)
	return domain.CommitID(hash.String())
}

// mergeCommit records a two-parent commit without touching the index, the
// way a forge records a squashless PR merge.
func (r *testRepo) mergeCommit(message string, first, second domain.CommitID) domain.CommitID {
	r.t.Helper()
	hash, err := r.wt.Commit(message, &goGit.CommitOptions{
		Author:            r.signature(),
		AllowEmptyCommits: true,
		Parents: []plumbing.Hash{
			plumbing.NewHash(first.String()),
			plumbing.NewHash(second.String()),
		},
	})
	require.NoError(r.t, err)
	return domain.CommitID(hash.String())
}

func (r *testRepo) branch(name string, at domain.CommitID) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), plumbing.NewHash(at.String()))
	require.NoError(r.t, r.repo.Storer.SetReference(ref))
}

// linearHistory builds: base -> f1 -> f2 -> merge(base, f2), with a release
// branch parked at base. Models one merged PR with two member commits.
func linearHistory(t *testing.T) (*testRepo, domain.CommitID, domain.CommitID, domain.CommitID, domain.CommitID) {
	t.Helper()
	r := newTestRepo(t)
	base := r.commit("initial import", map[string]string{"README.md": "hello\n"})
	r.branch("release", base)
	f1 := r.commit("fix: checksum off by one", map[string]string{"net/tcp.go": "package net\n"})
	f2 := r.commit("tests for checksum fix", map[string]string{"net/tcp_test.go": "package net\n"})
	merge := r.mergeCommit("Merge pull request #42 from jo/fix-checksum\n\nfix: checksum off by one\n", base, f2)
	return r, base, f1, f2, merge
}

func TestListMergeCommits(t *testing.T) {
	r, base, _, _, merge := linearHistory(t)
	h := NewHistory(r.dir, "release")

	merges, err := h.ListMergeCommits(context.Background(), base, merge)
	require.NoError(t, err)
	assert.Equal(t, []domain.CommitID{merge}, merges)

	t.Run("empty range has no merges", func(t *testing.T) {
		merges, err := h.ListMergeCommits(context.Background(), merge, merge)
		require.NoError(t, err)
		assert.Empty(t, merges)
	})

	t.Run("unresolvable revision is an error", func(t *testing.T) {
		_, err := h.ListMergeCommits(context.Background(), "nonsense", merge)
		assert.Error(t, err)
	})
}

func TestListPRMembers(t *testing.T) {
	r, _, f1, f2, merge := linearHistory(t)
	h := NewHistory(r.dir, "release")

	members, err := h.ListPRMembers(context.Background(), "release", merge)
	require.NoError(t, err)
	assert.Equal(t, []domain.CommitID{f1, f2}, members, "members come back oldest first")

	t.Run("non-merge commit is rejected", func(t *testing.T) {
		_, err := h.ListPRMembers(context.Background(), "release", f1)
		assert.Error(t, err)
	})
}

func TestCommitMeta(t *testing.T) {
	r, _, f1, _, merge := linearHistory(t)
	h := NewHistory(r.dir, "release")

	commit, err := h.CommitMeta(context.Background(), f1)
	require.NoError(t, err)
	assert.Equal(t, f1, commit.ID)
	assert.Equal(t, "fix: checksum off by one", commit.Subject())
	assert.Equal(t, "Jo Doe <jo@example.com>", commit.Author)
	assert.Equal(t, []string{"net/tcp.go"}, commit.ChangedPaths)
	assert.False(t, commit.IsMerge())

	t.Run("merge commit carries both parents", func(t *testing.T) {
		commit, err := h.CommitMeta(context.Background(), merge)
		require.NoError(t, err)
		assert.True(t, commit.IsMerge())
		assert.Len(t, commit.Parents, 2)
	})
}

func TestMergeBase(t *testing.T) {
	r, base, _, _, merge := linearHistory(t)
	h := NewHistory(r.dir, "release")

	got, err := h.MergeBase(context.Background(), "release", merge.String())
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestIsAlreadyApplied(t *testing.T) {
	r, base, f1, _, _ := linearHistory(t)
	h := NewHistory(r.dir, "release")

	applied, err := h.IsAlreadyApplied(context.Background(), f1)
	require.NoError(t, err)
	assert.False(t, applied)

	// Land a commit on release that carries the provenance marker.
	require.NoError(t, r.wt.Checkout(&goGit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("release")}))
	r.commit("fix: checksum off by one\n\n(cherry picked from commit "+f1.String()+")\n", nil)

	applied, err = h.IsAlreadyApplied(context.Background(), f1)
	require.NoError(t, err)
	assert.True(t, applied)

	t.Run("marker for another commit does not match", func(t *testing.T) {
		applied, err := h.IsAlreadyApplied(context.Background(), base)
		require.NoError(t, err)
		assert.False(t, applied)
	})
}

func TestDiff(t *testing.T) {
	r, _, f1, f2, _ := linearHistory(t)
	h := NewHistory(r.dir, "release")

	t.Run("unrestricted diff shows the change", func(t *testing.T) {
		diff, err := h.Diff(context.Background(), f1, nil)
		require.NoError(t, err)
		assert.Contains(t, diff, "net/tcp.go")
	})

	t.Run("path filter hides unrelated files", func(t *testing.T) {
		diff, err := h.Diff(context.Background(), f2, []string{"docs/"})
		require.NoError(t, err)
		assert.NotContains(t, diff, "net/tcp_test.go")
	})
}
