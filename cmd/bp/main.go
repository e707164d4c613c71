package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bkyoung/backport/internal/adapter/cache"
	"github.com/bkyoung/backport/internal/adapter/cache/sqlite"
	"github.com/bkyoung/backport/internal/adapter/cli"
	gitadapter "github.com/bkyoung/backport/internal/adapter/git"
	"github.com/bkyoung/backport/internal/adapter/observability"
	"github.com/bkyoung/backport/internal/config"
	"github.com/bkyoung/backport/internal/pattern"
	"github.com/bkyoung/backport/internal/usecase/classify"
	"github.com/bkyoung/backport/internal/usecase/report"
	"github.com/bkyoung/backport/internal/usecase/review"
	"github.com/bkyoung/backport/internal/version"
)

// Compile-time checks that the adapters satisfy the use case ports.
var (
	_ classify.History       = (*gitadapter.History)(nil)
	_ review.Inspector       = (*gitadapter.History)(nil)
	_ classify.Executor      = (*gitadapter.CherryPicker)(nil)
	_ classify.DecisionCache = (*cache.DirStore)(nil)
	_ classify.DecisionCache = (*sqlite.Store)(nil)
	_ classify.Reviewer      = (*review.Reviewer)(nil)
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "bp",
		EnvPrefix:   "BP",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	repoDir := cfg.Git.RepositoryDir
	if repoDir == "" {
		repoDir = "."
	}
	if cfg.Git.TargetBranch == "" {
		return fmt.Errorf("git.targetBranch must be configured (the branch backports land on)")
	}

	patterns, err := pattern.Load(cfg.Patterns.Directory)
	if err != nil {
		return fmt.Errorf("load patterns from %s: %w", cfg.Patterns.Directory, err)
	}

	decisionCache, err := buildCache(cfg.Cache)
	if err != nil {
		return fmt.Errorf("open decision cache: %w", err)
	}
	defer decisionCache.Close()

	history := gitadapter.NewHistory(repoDir, cfg.Git.TargetBranch)
	picker := gitadapter.NewCherryPicker(repoDir, gitadapter.CherryPickOptions{
		SignOff:     cfg.Backport.SignOff,
		SignCommits: cfg.Backport.SignCommits,
		MergeTool:   cfg.Backport.MergeTool,
	})

	reviewer := review.NewReviewer(os.Stdin, os.Stdout, history, review.Options{
		SingleKey: review.IsInteractive(),
		Color:     review.IsOutputTerminal(),
	})

	app := &backportApp{
		deps: classify.DriverDeps{
			History:        history,
			Cache:          decisionCache,
			Patterns:       patterns,
			Reviewer:       reviewer,
			Executor:       picker,
			Logger:         buildLogger(cfg.Logging),
			Out:            os.Stdout,
			TargetBranch:   cfg.Git.TargetBranch,
			MixedThreshold: cfg.Strategy.MixedThreshold,
		},
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:          app,
		Tagger:          report.NewReporter(history, os.Stdout),
		DefaultStrategy: cfg.Strategy.Mode,
		DefaultEnd:      cfg.Git.UpstreamBranch,
		Version:         version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// backportApp builds a driver per invocation so the request's dry-run and
// strategy settings apply without mutating shared state.
type backportApp struct {
	deps classify.DriverDeps
}

func (a *backportApp) Run(ctx context.Context, req cli.RunRequest) (classify.Summary, error) {
	deps := a.deps
	deps.Strategy = req.Strategy
	if req.DryRun {
		// Dry runs must not reach the cache or the working tree.
		deps.DryRun = true
		deps.Cache = classify.NewReadOnlyCache(deps.Cache)
		deps.Executor = classify.NewNopExecutor()
	}
	return classify.NewDriver(deps).Run(ctx, req.Start, req.End)
}

func buildCache(cfg config.CacheConfig) (classify.DecisionCache, error) {
	switch cfg.Backend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
		return sqlite.NewStore(cfg.Path)
	case "", "dir":
		return cache.NewDirStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want dir or sqlite)", cfg.Backend)
	}
}

func buildLogger(cfg config.LoggingConfig) classify.Logger {
	if !cfg.Enabled {
		return observability.NopLogger{}
	}
	return observability.NewDefaultLogger(
		observability.ParseLogLevel(cfg.Level),
		observability.ParseLogFormat(cfg.Format),
	)
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "bp"))
	}
	return paths
}
