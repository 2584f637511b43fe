package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
)

const DefaultMessage = "Auto Update"

// GitHub publishes files with the GitHub repository contents API. Existing files are
// updated conditionally on their current revision (blob SHA) so that a file that
// changed in the meantime is reported as a conflict rather than overwritten.
type GitHub struct {
	client  *github.Client
	owner   string
	repo    string
	branch  string
	message string
}

// NewGitHub returns a publisher for an 'owner/repo' repository. A blank branch
// publishes to the repository default branch.
func NewGitHub(client *github.Client, repository, branch, message string) (*GitHub, error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(repository), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid repository '%s' - expected something like 'owner/repo'", repository)
	}

	if strings.TrimSpace(message) == "" {
		message = DefaultMessage
	}

	return &GitHub{
		client:  client,
		owner:   owner,
		repo:    repo,
		branch:  strings.TrimSpace(branch),
		message: message,
	}, nil
}

func (g *GitHub) Publish(ctx context.Context, path string, content []byte) Result {
	path = strings.TrimPrefix(path, "/")
	revision := g.revision(ctx, path)

	opts := github.RepositoryContentFileOptions{
		Message: github.String(g.message),
		Content: content,
	}

	if g.branch != "" {
		opts.Branch = github.String(g.branch)
	}

	var err error
	if revision == "" {
		_, _, err = g.client.Repositories.CreateFile(ctx, g.owner, g.repo, path, &opts)
	} else {
		opts.SHA = github.String(revision)
		_, _, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, path, &opts)
	}

	result := Result{
		Path:     path,
		Revision: revision,
	}

	switch {
	case err == nil && revision == "":
		result.Status = Created

	case err == nil:
		result.Status = Updated

	case isConflict(err):
		result.Status = Conflict
		result.Err = err

	default:
		result.Status = Failed
		result.Err = err
	}

	return result
}

// revision returns the SHA of the file currently at path. Any error (not just 'not
// found') is treated as 'no file' - if the file does exist the update will fail with
// a conflict.
func (g *GitHub) revision(ctx context.Context, path string) string {
	var opts *github.RepositoryContentGetOptions
	if g.branch != "" {
		opts = &github.RepositoryContentGetOptions{Ref: g.branch}
	}

	file, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path, opts)
	if err != nil || file == nil {
		return ""
	}

	return file.GetSHA()
}

func isConflict(err error) bool {
	var e *github.ErrorResponse

	if errors.As(err, &e) && e.Response != nil {
		return e.Response.StatusCode == http.StatusConflict || e.Response.StatusCode == http.StatusUnprocessableEntity
	}

	return false
}
