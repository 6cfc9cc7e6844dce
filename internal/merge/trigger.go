// Package merge acts on a passing policy verdict: either by scheduling the
// hosting platform's own auto-merge, or by polling for mergeability and
// merging directly.
package merge

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/moeryomenko/bumpmerge/internal/hosting"
	"github.com/moeryomenko/bumpmerge/internal/models"
	"github.com/moeryomenko/bumpmerge/internal/policy"
)

// Trigger merges or schedules merging of a pull request whose changes were
// already allowed by the policy engine.
type Trigger interface {
	Run(ctx context.Context, pr *models.PullRequest) error
}

// Error ties a trigger failure to its policy reason so the process exit
// status can encode the exact cause.
type Error struct {
	Reason policy.Reason
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AutoMerge is the primary trigger design: a single enable-auto-merge call.
// The platform performs the merge itself once status checks pass; a failed
// mutation is fatal for the run and never retried here.
type AutoMerge struct {
	pulls       hosting.PullRequests
	strategy    models.MergeStrategy
	authorEmail string
	log         *log.Logger
}

// NewAutoMerge creates the auto-merge trigger.
func NewAutoMerge(pulls hosting.PullRequests, strategy models.MergeStrategy, authorEmail string, logger *log.Logger) *AutoMerge {
	return &AutoMerge{
		pulls:       pulls,
		strategy:    strategy,
		authorEmail: authorEmail,
		log:         logger,
	}
}

// Run enables auto-merge for the pull request. Success requires the
// platform to report an enabled timestamp.
func (t *AutoMerge) Run(ctx context.Context, pr *models.PullRequest) error {
	result, err := t.pulls.EnableAutoMerge(ctx, pr.NodeID, t.strategy, t.authorEmail)
	if err != nil {
		return &Error{Reason: policy.ReasonMergeTriggerFailed, Err: err}
	}
	if result == nil {
		return &Error{
			Reason: policy.ReasonMergeTriggerFailed,
			Err:    errors.New("platform reported no auto-merge enabled timestamp"),
		}
	}
	t.log.Info("auto-merge enabled", "pr", pr.Number, "enabled_at", result.EnabledAt)
	return nil
}
