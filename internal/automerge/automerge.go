// Package automerge wires the change source, policy engine and merge
// trigger into the single-invocation evaluation of one pull request.
package automerge

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/moeryomenko/bumpmerge/internal/hosting"
	"github.com/moeryomenko/bumpmerge/internal/manifest"
	"github.com/moeryomenko/bumpmerge/internal/merge"
	"github.com/moeryomenko/bumpmerge/internal/policy"
)

// Event names that carry a pull request context.
var pullRequestEvents = []string{"pull_request", "pull_request_target"}

// Options are the pre-policy gates and run switches.
type Options struct {
	// EventName is the CI event that started this run; empty skips the gate.
	EventName string
	// Actors is the allow-list of PR authors. An empty list denies everyone.
	Actors []string
	// DryRun evaluates the verdict without invoking the merge trigger.
	DryRun bool
}

// Bot evaluates one pull request end to end.
type Bot struct {
	changes hosting.ChangeSource
	pulls   hosting.PullRequests
	engine  *policy.Engine
	trigger merge.Trigger
	opts    Options
	log     *log.Logger
}

// New creates the orchestrator.
func New(changes hosting.ChangeSource, pulls hosting.PullRequests, engine *policy.Engine, trigger merge.Trigger, opts Options, logger *log.Logger) *Bot {
	return &Bot{
		changes: changes,
		pulls:   pulls,
		engine:  engine,
		trigger: trigger,
		opts:    opts,
		log:     logger,
	}
}

// Run produces the verdict for the pull request and, when it is allowed and
// not a dry run, invokes the merge trigger. Stages run strictly in order:
// scope validation must pass before any manifest is fetched, and the
// trigger fires only on an allowed verdict. A non-nil error is a
// collaborator or trigger failure, not a policy outcome.
func (b *Bot) Run(ctx context.Context, prNumber int) (policy.Verdict, error) {
	if b.opts.EventName != "" && !slices.Contains(pullRequestEvents, b.opts.EventName) {
		return policy.Deny(policy.ReasonUnsupportedTrigger,
			fmt.Sprintf("event %q is not a pull request event", b.opts.EventName)), nil
	}

	pr, err := b.pulls.Get(ctx, prNumber)
	if err != nil {
		return policy.Verdict{}, err
	}
	b.log.Info("evaluating pull request", "pr", pr.Number, "title", pr.Title, "author", pr.Author)

	if !slices.Contains(b.opts.Actors, pr.Author) {
		return policy.Deny(policy.ReasonActorNotAllowed,
			fmt.Sprintf("author %q is not in the actor allow-list", pr.Author)), nil
	}

	files, err := b.changes.ChangedFiles(ctx, pr.HeadSHA)
	if err != nil {
		return policy.Verdict{}, err
	}
	if !policy.ValidateScope(files) {
		return policy.Deny(policy.ReasonFileNotAllowed,
			fmt.Sprintf("commit %s touches files outside the manifest allow-list", pr.HeadSHA)), nil
	}
	b.log.Debug("change scope validated", "files", len(files))

	base, err := b.manifestAt(ctx, pr.BaseSHA)
	if err != nil {
		return policy.Verdict{}, err
	}
	head, err := b.manifestAt(ctx, pr.HeadSHA)
	if err != nil {
		return policy.Verdict{}, err
	}

	verdict := b.engine.Evaluate(manifest.Diff(base, head), base, head)
	b.log.Info("policy verdict", "pr", pr.Number, "verdict", verdict.String())
	if !verdict.Allowed {
		return verdict, nil
	}

	if b.opts.DryRun {
		b.log.Info("dry run, merge trigger skipped", "pr", pr.Number)
		return verdict, nil
	}
	if err := b.trigger.Run(ctx, pr); err != nil {
		return verdict, err
	}
	return verdict, nil
}

func (b *Bot) manifestAt(ctx context.Context, ref string) (manifest.Manifest, error) {
	raw, err := b.changes.FileContent(ctx, policy.ManifestFile, ref)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s at %s: %w", policy.ManifestFile, ref, err)
	}
	return m, nil
}
