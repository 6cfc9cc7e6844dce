package models

import "time"

// ChangedFile is one entry of a commit's file-level diff.
type ChangedFile struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// File statuses reported by the hosting platform.
const (
	StatusAdded    = "added"
	StatusModified = "modified"
	StatusRemoved  = "removed"
	StatusRenamed  = "renamed"
)

// PullRequest is the subset of pull request state the engine acts on.
type PullRequest struct {
	Number  int
	NodeID  string
	Title   string
	Author  string
	State   string
	BaseSHA string
	HeadSHA string
	// Mergeable is nil while the hosting platform is still computing
	// mergeability for the current head.
	Mergeable *bool
}

// Open reports whether the pull request is still open.
func (pr *PullRequest) Open() bool {
	return pr.State == "open"
}

// MergeStrategy selects how the hosting platform combines the PR commits.
type MergeStrategy string

const (
	MergeStrategyMerge  MergeStrategy = "merge"
	MergeStrategySquash MergeStrategy = "squash"
	MergeStrategyRebase MergeStrategy = "rebase"
)

// AutoMergeResult is the outcome of an enable-auto-merge mutation.
type AutoMergeResult struct {
	EnabledAt time.Time
}
