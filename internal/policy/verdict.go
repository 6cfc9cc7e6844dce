package policy

import "fmt"

// Reason identifies why a run was denied or failed. Every reason maps to a
// distinct exit code so that calling automation can assert on the exact
// cause; there is no generic failure bucket.
type Reason string

const (
	ReasonUnsupportedTrigger       Reason = "unsupported_trigger"
	ReasonActorNotAllowed          Reason = "actor_not_allowed"
	ReasonFileNotAllowed           Reason = "file_not_allowed"
	ReasonUnexpectedChanges        Reason = "unexpected_changes"
	ReasonUnexpectedPropertyChange Reason = "unexpected_property_change"
	ReasonVersionChangeNotAllowed  Reason = "version_change_not_allowed"
	ReasonPRNotOpen                Reason = "pr_not_open"
	ReasonPRHeadChanged            Reason = "pr_head_changed"
	ReasonTimedOut                 Reason = "timed_out"
	ReasonMergeTriggerFailed       Reason = "merge_trigger_failed"
)

// ExitCode returns the process exit status for the reason.
func (r Reason) ExitCode() int {
	switch r {
	case ReasonUnsupportedTrigger:
		return 2
	case ReasonActorNotAllowed:
		return 3
	case ReasonFileNotAllowed:
		return 4
	case ReasonUnexpectedChanges:
		return 5
	case ReasonUnexpectedPropertyChange:
		return 6
	case ReasonVersionChangeNotAllowed:
		return 7
	case ReasonPRNotOpen:
		return 8
	case ReasonPRHeadChanged:
		return 9
	case ReasonTimedOut:
		return 10
	case ReasonMergeTriggerFailed:
		return 11
	default:
		return 1
	}
}

// Verdict is the engine's decision for one pull request.
type Verdict struct {
	Allowed bool
	Reason  Reason
	Detail  string
}

// Allow builds a passing verdict.
func Allow() Verdict {
	return Verdict{Allowed: true}
}

// Deny builds a failing verdict with a human-readable detail.
func Deny(reason Reason, detail string) Verdict {
	return Verdict{Reason: reason, Detail: detail}
}

func (v Verdict) String() string {
	if v.Allowed {
		return "allowed"
	}
	if v.Detail == "" {
		return fmt.Sprintf("denied (%s)", v.Reason)
	}
	return fmt.Sprintf("denied (%s): %s", v.Reason, v.Detail)
}
