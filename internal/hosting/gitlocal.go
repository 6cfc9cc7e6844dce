package hosting

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/moeryomenko/bumpmerge/internal/models"
)

// Local is a ChangeSource backed by an on-disk clone. CI jobs typically
// have the repository checked out already, which makes hosting-API round
// trips unnecessary for scope validation and manifest fetches. Pull request
// operations still require the platform client.
type Local struct {
	repo *git.Repository
}

// OpenLocal opens the repository at path.
func OpenLocal(path string) (*Local, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return &Local{repo: repo}, nil
}

// ChangedFiles lists the diff between the commit at ref and its first
// parent. Renames are not detected and surface as an add plus a remove,
// which downstream validation rejects anyway.
func (l *Local) ChangedFiles(ctx context.Context, ref string) ([]models.ChangedFile, error) {
	commit, err := l.commitAt(ref)
	if err != nil {
		return nil, err
	}
	if commit.NumParents() == 0 {
		return nil, fmt.Errorf("commit %s has no parent to diff against", ref)
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent of %s: %w", ref, err)
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read parent tree: %w", err)
	}
	commitTree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read commit tree: %w", err)
	}
	changes, err := object.DiffTreeContext(ctx, parentTree, commitTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	files := make([]models.ChangedFile, 0, len(changes))
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, fmt.Errorf("failed to classify change: %w", err)
		}
		switch action {
		case merkletrie.Insert:
			files = append(files, models.ChangedFile{Name: change.To.Name, Status: models.StatusAdded})
		case merkletrie.Delete:
			files = append(files, models.ChangedFile{Name: change.From.Name, Status: models.StatusRemoved})
		case merkletrie.Modify:
			files = append(files, models.ChangedFile{Name: change.To.Name, Status: models.StatusModified})
		}
	}
	return files, nil
}

// FileContent returns the content of path at revision ref.
func (l *Local) FileContent(_ context.Context, path, ref string) ([]byte, error) {
	commit, err := l.commitAt(ref)
	if err != nil {
		return nil, err
	}
	file, err := commit.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s at %s: %w", path, ref, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s at %s: %w", path, ref, err)
	}
	return []byte(contents), nil
}

func (l *Local) commitAt(ref string) (*object.Commit, error) {
	hash, err := l.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %s: %w", ref, err)
	}
	commit, err := l.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", ref, err)
	}
	return commit, nil
}
