package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sethvargo/go-retry"

	"github.com/moeryomenko/bumpmerge/internal/hosting"
	"github.com/moeryomenko/bumpmerge/internal/models"
	"github.com/moeryomenko/bumpmerge/internal/policy"
)

// pollSchedule spaces ticks between merge attempts. Checks are usually
// still running right after a PR opens, so delays escalate quickly, then
// hold flat at the last entry to bound retry cost over the full window.
var pollSchedule = []time.Duration{
	1 * time.Second,
	1 * time.Second,
	1 * time.Second,
	2 * time.Second,
	3 * time.Second,
	4 * time.Second,
	5 * time.Second,
	10 * time.Second,
	20 * time.Second,
	40 * time.Second,
	60 * time.Second,
}

// pollCeiling is the wall-clock bound on the whole polling loop.
const pollCeiling = 6 * time.Hour

// Poller is the fallback trigger design: re-fetch the pull request on each
// tick and attempt a direct merge once it reports mergeable, using the head
// SHA as a concurrency guard.
type Poller struct {
	pulls    hosting.PullRequests
	strategy models.MergeStrategy
	ceiling  time.Duration
	schedule []time.Duration
	log      *log.Logger
}

// NewPoller creates the polling trigger with the default schedule and ceiling.
func NewPoller(pulls hosting.PullRequests, strategy models.MergeStrategy, logger *log.Logger) *Poller {
	return &Poller{
		pulls:    pulls,
		strategy: strategy,
		ceiling:  pollCeiling,
		schedule: pollSchedule,
		log:      logger,
	}
}

// Run polls until the pull request merges, is rejected, or the ceiling
// elapses. A closed PR and a moved head are terminal: retrying under a
// changed head would bypass the verdict that was just computed.
func (p *Poller) Run(ctx context.Context, pr *models.PullRequest) error {
	ctx, cancel := context.WithTimeout(ctx, p.ceiling)
	defer cancel()

	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		return p.tick(ctx, pr.Number)
	})
	if err == nil {
		return nil
	}
	var terminal *Error
	if errors.As(err, &terminal) {
		return terminal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Reason: policy.ReasonTimedOut,
			Err:    fmt.Errorf("pull request #%d did not merge within %s", pr.Number, p.ceiling),
		}
	}
	return &Error{Reason: policy.ReasonMergeTriggerFailed, Err: err}
}

func (p *Poller) backoff() retry.Backoff {
	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		i := attempt
		if i >= len(p.schedule) {
			i = len(p.schedule) - 1
		}
		attempt++
		return p.schedule[i], false
	})
}

func (p *Poller) tick(ctx context.Context, number int) error {
	pr, err := p.pulls.Get(ctx, number)
	if err != nil {
		p.log.Warn("failed to fetch pull request, will retry", "pr", number, "error", err)
		return retry.RetryableError(err)
	}
	if !pr.Open() {
		return &Error{
			Reason: policy.ReasonPRNotOpen,
			Err:    fmt.Errorf("pull request #%d is %s", number, pr.State),
		}
	}
	if pr.Mergeable == nil || !*pr.Mergeable {
		p.log.Debug("pull request not mergeable yet", "pr", number)
		return retry.RetryableError(fmt.Errorf("pull request #%d is not mergeable yet", number))
	}
	if err := p.pulls.Merge(ctx, number, pr.HeadSHA, p.strategy); err != nil {
		if errors.Is(err, hosting.ErrHeadChanged) {
			return &Error{Reason: policy.ReasonPRHeadChanged, Err: err}
		}
		p.log.Warn("merge attempt failed, will retry", "pr", number, "error", err)
		return retry.RetryableError(err)
	}
	p.log.Info("pull request merged", "pr", number)
	return nil
}
