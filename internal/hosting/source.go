// Package hosting abstracts the source-control hosting platform behind the
// handful of operations the policy engine and merge trigger consume. No
// REST or GraphQL shape leaks past this package.
package hosting

import (
	"context"
	"errors"

	"github.com/moeryomenko/bumpmerge/internal/models"
)

// ErrHeadChanged is returned by Merge when the pull request head moved
// between the mergeable check and the merge call. The platform rejects the
// merge itself; this error only names that rejection.
var ErrHeadChanged = errors.New("pull request head changed")

// ChangeSource exposes read access to a repository's commits and file
// revisions.
type ChangeSource interface {
	// ChangedFiles lists the file-level diff introduced by the commit at ref.
	ChangedFiles(ctx context.Context, ref string) ([]models.ChangedFile, error)
	// FileContent returns the raw bytes of path at revision ref.
	FileContent(ctx context.Context, path, ref string) ([]byte, error)
}

// PullRequests exposes the pull request operations the merge trigger needs.
type PullRequests interface {
	// Get fetches the current state of a pull request.
	Get(ctx context.Context, number int) (*models.PullRequest, error)
	// Merge merges the pull request, guarded by the expected head SHA.
	// Returns ErrHeadChanged when the guard no longer matches.
	Merge(ctx context.Context, number int, expectedHeadSHA string, strategy models.MergeStrategy) error
	// EnableAutoMerge schedules the platform's own auto-merge for the pull
	// request identified by its opaque node ID. A nil result means the
	// platform did not report an enabled timestamp.
	EnableAutoMerge(ctx context.Context, nodeID string, strategy models.MergeStrategy, authorEmail string) (*models.AutoMergeResult, error)
}
