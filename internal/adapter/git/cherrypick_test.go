package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/backport/internal/domain"
)

// pickFixture builds the merged-PR history, checks out the release branch,
// and gives the git binary an identity to commit with.
func pickFixture(t *testing.T) (*testRepo, domain.CommitID, domain.CommitID) {
	t.Helper()
	r, _, f1, _, merge := linearHistory(t)
	ctx := context.Background()
	_, err := runGitCommand(ctx, r.dir, "config", "user.name", "Jo Doe")
	require.NoError(t, err)
	_, err = runGitCommand(ctx, r.dir, "config", "user.email", "jo@example.com")
	require.NoError(t, err)
	require.NoError(t, r.wt.Checkout(&goGit.CheckoutOptions{Branch: plumbing.NewBranchReferenceName("release")}))
	return r, f1, merge
}

func releaseLog(t *testing.T, r *testRepo) string {
	t.Helper()
	out, err := runGitCommand(context.Background(), r.dir, "log", "--format=%B", "release")
	require.NoError(t, err)
	return out
}

func TestApply(t *testing.T) {
	r, f1, _ := pickFixture(t)
	picker := NewCherryPicker(r.dir, CherryPickOptions{})

	require.NoError(t, picker.Apply(context.Background(), domain.Commit{ID: f1}))

	log := releaseLog(t, r)
	assert.Contains(t, log, "fix: checksum off by one")
	assert.Contains(t, log, "(cherry picked from commit "+f1.String()+")")
	assert.FileExists(t, filepath.Join(r.dir, "net", "tcp.go"))
}

func TestApplyMerge(t *testing.T) {
	r, _, merge := pickFixture(t)
	picker := NewCherryPicker(r.dir, CherryPickOptions{})

	message := "Merge pull request #42 from jo/fix-checksum\n\nfix: checksum off by one\n"
	require.NoError(t, picker.ApplyMerge(context.Background(), domain.Commit{ID: merge, Message: message}))

	log := releaseLog(t, r)
	assert.NotContains(t, log, "Merge pull request")
	assert.Contains(t, log, "fix: checksum off by one")
	assert.Contains(t, log, "(cherry picked from commit "+merge.String()+")")
	assert.FileExists(t, filepath.Join(r.dir, "net", "tcp.go"))
	assert.FileExists(t, filepath.Join(r.dir, "net", "tcp_test.go"))
}

func TestApplyConflict(t *testing.T) {
	t.Run("no merge tool aborts the pick", func(t *testing.T) {
		r, f1, _ := pickFixture(t)
		r.commit("divergent change", map[string]string{"net/tcp.go": "package othernet\n"})
		picker := NewCherryPicker(r.dir, CherryPickOptions{})

		err := picker.Apply(context.Background(), domain.Commit{ID: f1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), f1.Short())

		// The sequencer must be cleaned up so the next pick can run.
		unmerged, gitErr := runGitCommand(context.Background(), r.dir, "diff", "--name-only", "--diff-filter=U")
		require.NoError(t, gitErr)
		assert.Empty(t, strings.TrimSpace(unmerged))
	})

	t.Run("merge tool resolves and the pick continues", func(t *testing.T) {
		r, f1, _ := pickFixture(t)
		r.commit("divergent change", map[string]string{"net/tcp.go": "package othernet\n"})

		tool := filepath.Join(t.TempDir(), "resolve.sh")
		script := "#!/bin/sh\ngit checkout --theirs net/tcp.go && git add net/tcp.go\n"
		require.NoError(t, os.WriteFile(tool, []byte(script), 0o755))

		picker := NewCherryPicker(r.dir, CherryPickOptions{MergeTool: tool})
		require.NoError(t, picker.Apply(context.Background(), domain.Commit{ID: f1}))

		log := releaseLog(t, r)
		assert.Contains(t, log, "(cherry picked from commit "+f1.String()+")")
	})
}

func TestApplySignOff(t *testing.T) {
	r, f1, _ := pickFixture(t)
	picker := NewCherryPicker(r.dir, CherryPickOptions{SignOff: true})

	require.NoError(t, picker.Apply(context.Background(), domain.Commit{ID: f1}))
	assert.Contains(t, releaseLog(t, r), "Signed-off-by: Jo Doe <jo@example.com>")
}

func TestStripMergeSummary(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			"forge merge message",
			"Merge pull request #42 from jo/fix\n\nfix: checksum off by one\n",
			"fix: checksum off by one\n",
		},
		{
			"branch merge message",
			"Merge branch 'feature' into main\n\nadd widget\nmore detail\n",
			"add widget\nmore detail\n",
		},
		{
			"plain message untouched",
			"fix: checksum off by one\n\nlonger body\n",
			"fix: checksum off by one\n\nlonger body\n",
		},
		{
			"bare merge line kept rather than emptied",
			"Merge branch 'feature'\n",
			"Merge branch 'feature'\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripMergeSummary(tc.message))
		})
	}
}
