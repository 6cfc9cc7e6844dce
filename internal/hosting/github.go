package hosting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"

	"github.com/moeryomenko/bumpmerge/internal/models"
)

// GitHub implements ChangeSource and PullRequests against the GitHub API.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHub creates an authenticated GitHub client for one repository.
func NewGitHub(token, owner, repo string) (*GitHub, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("github token is required")
	}
	if owner == "" || repo == "" {
		return nil, errors.New("repository owner and name are required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &GitHub{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}, nil
}

// ChangedFiles lists the files changed by the commit at ref.
func (g *GitHub) ChangedFiles(ctx context.Context, ref string) ([]models.ChangedFile, error) {
	commit, _, err := g.client.Repositories.GetCommit(ctx, g.owner, g.repo, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", ref, err)
	}
	files := make([]models.ChangedFile, 0, len(commit.Files))
	for _, f := range commit.Files {
		files = append(files, models.ChangedFile{
			Name:   f.GetFilename(),
			Status: f.GetStatus(),
		})
	}
	return files, nil
}

// FileContent returns the decoded content of path at revision ref.
func (g *GitHub) FileContent(ctx context.Context, path, ref string) ([]byte, error) {
	content, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path,
		&github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s at %s: %w", path, ref, err)
	}
	if content == nil {
		return nil, fmt.Errorf("%s at %s is not a file", path, ref)
	}
	decoded, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s at %s: %w", path, ref, err)
	}
	return []byte(decoded), nil
}

// Get fetches the pull request state.
func (g *GitHub) Get(ctx context.Context, number int) (*models.PullRequest, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, g.owner, g.repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request #%d: %w", number, err)
	}
	return &models.PullRequest{
		Number:    pr.GetNumber(),
		NodeID:    pr.GetNodeID(),
		Title:     pr.GetTitle(),
		Author:    pr.GetUser().GetLogin(),
		State:     pr.GetState(),
		BaseSHA:   pr.GetBase().GetSHA(),
		HeadSHA:   pr.GetHead().GetSHA(),
		Mergeable: pr.Mergeable,
	}, nil
}

// Merge merges the pull request with expectedHeadSHA as concurrency guard.
func (g *GitHub) Merge(ctx context.Context, number int, expectedHeadSHA string, strategy models.MergeStrategy) error {
	_, _, err := g.client.PullRequests.Merge(ctx, g.owner, g.repo, number, "",
		&github.PullRequestOptions{
			SHA:         expectedHeadSHA,
			MergeMethod: string(strategy),
		})
	if err != nil {
		var ghErr *github.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusConflict {
			return ErrHeadChanged
		}
		return fmt.Errorf("failed to merge pull request #%d: %w", number, err)
	}
	return nil
}

// The auto-merge mutation has no REST equivalent, so it goes through the
// GraphQL endpoint with the same authenticated client.
const enableAutoMergeMutation = `mutation($pullRequestId: ID!, $mergeMethod: PullRequestMergeMethod!, $authorEmail: String) {
  enablePullRequestAutoMerge(input: {pullRequestId: $pullRequestId, mergeMethod: $mergeMethod, authorEmail: $authorEmail}) {
    pullRequest {
      autoMergeRequest {
        enabledAt
      }
    }
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type enableAutoMergeResponse struct {
	Data struct {
		EnablePullRequestAutoMerge struct {
			PullRequest struct {
				AutoMergeRequest struct {
					EnabledAt *time.Time `json:"enabledAt"`
				} `json:"autoMergeRequest"`
			} `json:"pullRequest"`
		} `json:"enablePullRequestAutoMerge"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// EnableAutoMerge schedules GitHub's auto-merge for the pull request.
func (g *GitHub) EnableAutoMerge(ctx context.Context, nodeID string, strategy models.MergeStrategy, authorEmail string) (*models.AutoMergeResult, error) {
	vars := map[string]any{
		"pullRequestId": nodeID,
		"mergeMethod":   strings.ToUpper(string(strategy)),
	}
	if authorEmail != "" {
		vars["authorEmail"] = authorEmail
	}
	req, err := g.client.NewRequest(http.MethodPost, "graphql", graphQLRequest{
		Query:     enableAutoMergeMutation,
		Variables: vars,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build auto-merge request: %w", err)
	}
	var resp enableAutoMergeResponse
	if _, err := g.client.Do(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to enable auto-merge: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("failed to enable auto-merge: %s", resp.Errors[0].Message)
	}
	enabledAt := resp.Data.EnablePullRequestAutoMerge.PullRequest.AutoMergeRequest.EnabledAt
	if enabledAt == nil {
		return nil, nil
	}
	return &models.AutoMergeResult{EnabledAt: *enabledAt}, nil
}
