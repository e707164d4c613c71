// Package cli wires the command surface. Commands stay thin: they parse
// flags, resolve defaults from config, and delegate to the use cases.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bkyoung/backport/internal/domain"
	"github.com/bkyoung/backport/internal/usecase/classify"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// RunRequest carries one invocation of the backport run.
type RunRequest struct {
	Start    domain.CommitID
	End      domain.CommitID
	DryRun   bool
	Strategy domain.Strategy
}

// BackportRunner defines the dependency required to run the run command.
type BackportRunner interface {
	Run(ctx context.Context, req RunRequest) (classify.Summary, error)
}

// CommitTagger defines the dependency required to run the classify command.
type CommitTagger interface {
	Report(ctx context.Context, ids []domain.CommitID) error
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Runner          BackportRunner
	Tagger          CommitTagger
	Args            Arguments
	DefaultStrategy string
	DefaultEnd      string
	Version         string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "bp",
		Short: "Pattern-driven backport assistant",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(runCommand(deps.Runner, deps.DefaultStrategy, deps.DefaultEnd))
	root.AddCommand(classifyCommand(deps.Tagger))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func runCommand(runner BackportRunner, defaultStrategy, defaultEnd string) *cobra.Command {
	var dryRun bool
	var strategyFlag string

	cmd := &cobra.Command{
		Use:   "run <start> [end]",
		Short: "Walk merged PRs in a range and backport the ones that qualify",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := args[0]
			end := defaultEnd
			if len(args) > 1 {
				end = args[1]
			}
			if end == "" {
				return fmt.Errorf("end revision not specified; pass it as an argument or configure git.upstreamBranch")
			}

			strategyName := strategyFlag
			if strategyName == "" {
				strategyName = defaultStrategy
			}
			strategy, err := domain.ParseStrategy(strategyName)
			if err != nil {
				return err
			}

			summary, err := runner.Run(cmd.Context(), RunRequest{
				Start:    domain.CommitID(start),
				End:      domain.CommitID(end),
				DryRun:   dryRun,
				Strategy: strategy,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d PRs: %d backported, %d skipped, %d asked, %d already done\n",
				summary.PRs, summary.Backported, summary.Skipped, summary.Asked, summary.Done)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report outcomes without mutating the repository or the cache")
	cmd.Flags().StringVar(&strategyFlag, "strategy", "", "Cherry-pick granularity: PR, MIXED, or COMMITS (overrides config)")

	return cmd
}

func classifyCommand(tagger CommitTagger) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <commit>...",
		Short: "Tag commits by the areas they touch, without backporting",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]domain.CommitID, 0, len(args))
			for _, arg := range args {
				ids = append(ids, domain.CommitID(arg))
			}
			return tagger.Report(cmd.Context(), ids)
		},
	}
}
