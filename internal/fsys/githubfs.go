package fsys

import (
	"context"
	"errors"
	"fmt"
	"path"

	gh "coursefs/internal/github"
)

// ContentService is the slice of the GitHub service this backend needs.
type ContentService interface {
	ReadFile(ctx context.Context, owner, repo, path, ref string) (string, error)
	WriteFile(ctx context.Context, owner, repo, path, content, message, branch string) error
	UploadImage(ctx context.Context, owner, repo, path string, data []byte, branch string) (string, error)
}

// GitHubFS delegates every operation to an authenticated GitHub session
// bound to one owner/repo/branch triple.
type GitHubFS struct {
	Service ContentService
	Owner   string
	Repo    string
	Branch  string
}

func NewGitHubFS(svc ContentService, owner, repo, branch string) *GitHubFS {
	return &GitHubFS{Service: svc, Owner: owner, Repo: repo, Branch: branch}
}

func (g *GitHubFS) ReadFile(ctx context.Context, p string) (string, error) {
	content, err := g.Service.ReadFile(ctx, g.Owner, g.Repo, p, g.Branch)
	if err != nil {
		if errors.Is(err, gh.ErrNotFound) {
			return "", fmt.Errorf("githubfs: read %s: %w", p, ErrNotFound)
		}
		return "", err
	}
	return content, nil
}

func (g *GitHubFS) WriteFile(ctx context.Context, p, content string) error {
	return g.Service.WriteFile(ctx, g.Owner, g.Repo, p, content, "Update "+p, g.Branch)
}

// CreateDirectory writes an empty placeholder file under the path; the
// remote has no directory concept.
func (g *GitHubFS) CreateDirectory(ctx context.Context, p string) error {
	keep := path.Join(p, ".keep")
	return g.Service.WriteFile(ctx, g.Owner, g.Repo, keep, "", "Create directory "+p, g.Branch)
}

// ListDir is unimplemented and always reports empty.
func (g *GitHubFS) ListDir(ctx context.Context, p string) ([]string, error) {
	return nil, nil
}

// Exists attempts a read and treats any failure as absence. Auth failures
// and transient transport errors read as "does not exist" too; callers who
// need to tell those apart should use ReadFile directly.
func (g *GitHubFS) Exists(ctx context.Context, p string) bool {
	_, err := g.ReadFile(ctx, p)
	return err == nil
}

func (g *GitHubFS) UploadImage(ctx context.Context, p string, data []byte) (string, error) {
	return g.Service.UploadImage(ctx, g.Owner, g.Repo, p, data, g.Branch)
}

var _ FileSystem = (*GitHubFS)(nil)
