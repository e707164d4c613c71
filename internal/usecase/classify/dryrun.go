package classify

import (
	"context"

	"github.com/bkyoung/backport/internal/domain"
)

// readOnlyCache answers reads from the wrapped cache and swallows writes.
type readOnlyCache struct {
	inner DecisionCache
}

// NewReadOnlyCache wraps a decision cache so dry runs can consult recorded
// decisions without ever persisting new ones.
func NewReadOnlyCache(inner DecisionCache) DecisionCache {
	return &readOnlyCache{inner: inner}
}

func (c *readOnlyCache) Get(ctx context.Context, id domain.CommitID) (domain.Decision, bool, error) {
	return c.inner.Get(ctx, id)
}

func (c *readOnlyCache) Set(ctx context.Context, id domain.CommitID, decision domain.Decision) error {
	return nil
}

func (c *readOnlyCache) Close() error {
	return c.inner.Close()
}

// nopExecutor accepts every apply without touching the working tree.
type nopExecutor struct{}

// NewNopExecutor returns an executor that performs no picks. Used for dry
// runs, where the driver reports what it would have applied.
func NewNopExecutor() Executor {
	return nopExecutor{}
}

func (nopExecutor) Apply(ctx context.Context, commit domain.Commit) error      { return nil }
func (nopExecutor) ApplyMerge(ctx context.Context, commit domain.Commit) error { return nil }
