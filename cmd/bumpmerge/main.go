package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/moeryomenko/bumpmerge/internal/automerge"
	"github.com/moeryomenko/bumpmerge/internal/config"
	"github.com/moeryomenko/bumpmerge/internal/hosting"
	"github.com/moeryomenko/bumpmerge/internal/logger"
	"github.com/moeryomenko/bumpmerge/internal/merge"
	"github.com/moeryomenko/bumpmerge/internal/policy"
)

func main() {
	// .env is loaded before flag defaults are bound to the environment.
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// exitError carries the exact exit status for the run's outcome.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

type rootFlags struct {
	token       string
	repository  string
	prNumber    int
	eventName   string
	actors      string
	updateTypes string
	denylist    string
	strategy    string
	mergeMode   string
	authorEmail string
	localRepo   string
	dryRun      bool
	logLevel    string
	logJSON     bool
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	cmd := &cobra.Command{
		Use:   "bumpmerge",
		Short: "Merge automated dependency-bump pull requests that pass policy",
		Long: `Decide whether a dependency-bump pull request is safe to merge without
human review, and trigger merging when it is.

A pull request passes when every changed file is a known manifest or
lockfile, every changed manifest key is a dependency map, no changed
package is denylisted, and every version transition is an allowed
semantic-version bump for its dependency map. Any ambiguity denies.

Each denial reason maps to a distinct exit code so calling automation
can assert on the exact cause.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.token, "token", os.Getenv("GITHUB_TOKEN"), "Hosting API token")
	cmd.Flags().StringVar(&flags.repository, "repository", os.Getenv("GITHUB_REPOSITORY"), "Repository slug, owner/name")
	cmd.Flags().IntVar(&flags.prNumber, "pr", 0, "Pull request number to evaluate")
	cmd.Flags().StringVar(&flags.eventName, "event", os.Getenv("GITHUB_EVENT_NAME"), "CI event that started this run")
	cmd.Flags().StringVar(&flags.actors, "actors", "", "Comma-separated allow-list of PR authors")
	cmd.Flags().StringVar(&flags.updateTypes, "allowed-update-types", "", "Comma-separated key:class pairs, e.g. dependencies:minor,devDependencies:patch")
	cmd.Flags().StringVar(&flags.denylist, "denylist", "", "Comma-separated package names that are never auto-merged")
	cmd.Flags().StringVar(&flags.strategy, "merge-strategy", "squash", "Merge strategy: merge, squash or rebase")
	cmd.Flags().StringVar(&flags.mergeMode, "merge-mode", config.MergeModeAutoMerge, "Trigger design: automerge or poll")
	cmd.Flags().StringVar(&flags.authorEmail, "author-email", "", "Commit author email for the merge commit")
	cmd.Flags().StringVar(&flags.localRepo, "local-repo", "", "Read changed files and manifests from this checkout instead of the hosting API")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Evaluate the verdict without triggering merge")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().BoolVar(&flags.logJSON, "log-json", false, "Log in JSON format")
	return cmd
}

func run(ctx context.Context, flags rootFlags) error {
	log := logger.New(logger.Config{Level: flags.logLevel, JSON: flags.logJSON})

	cfg, err := buildConfig(flags)
	if err != nil {
		return err
	}

	gh, err := hosting.NewGitHub(cfg.Token, cfg.Owner, cfg.Repo)
	if err != nil {
		return err
	}
	var changes hosting.ChangeSource = gh
	if cfg.LocalRepo != "" {
		local, err := hosting.OpenLocal(cfg.LocalRepo)
		if err != nil {
			return err
		}
		changes = local
	}

	var trigger merge.Trigger
	switch cfg.MergeMode {
	case config.MergeModePoll:
		trigger = merge.NewPoller(gh, cfg.Strategy, log)
	default:
		trigger = merge.NewAutoMerge(gh, cfg.Strategy, cfg.AuthorEmail, log)
	}

	bot := automerge.New(
		changes,
		gh,
		policy.NewEngine(cfg.UpdateTypes, policy.NewDenyList(cfg.Denylist)),
		trigger,
		automerge.Options{
			EventName: cfg.EventName,
			Actors:    cfg.Actors,
			DryRun:    cfg.DryRun,
		},
		log,
	)

	verdict, err := bot.Run(ctx, cfg.PRNumber)
	if err != nil {
		var trigErr *merge.Error
		if errors.As(err, &trigErr) {
			return &exitError{code: trigErr.Reason.ExitCode(), msg: trigErr.Error()}
		}
		return err
	}
	if !verdict.Allowed {
		return &exitError{code: verdict.Reason.ExitCode(), msg: verdict.String()}
	}
	log.Info("done", "verdict", verdict.String())
	return nil
}

func buildConfig(flags rootFlags) (*config.Config, error) {
	owner, repo, err := config.ParseRepository(flags.repository)
	if err != nil {
		return nil, err
	}
	updateTypes, err := config.ParseUpdateTypes(flags.updateTypes)
	if err != nil {
		return nil, err
	}
	strategy, err := config.ParseMergeStrategy(flags.strategy)
	if err != nil {
		return nil, err
	}
	cfg := &config.Config{
		Token:       flags.token,
		Owner:       owner,
		Repo:        repo,
		PRNumber:    flags.prNumber,
		EventName:   flags.eventName,
		Actors:      config.ParseList(flags.actors),
		UpdateTypes: updateTypes,
		Denylist:    config.ParseList(flags.denylist),
		Strategy:    strategy,
		MergeMode:   flags.mergeMode,
		AuthorEmail: flags.authorEmail,
		LocalRepo:   flags.localRepo,
		DryRun:      flags.dryRun,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
