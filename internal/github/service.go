// Package github wraps the GitHub REST API behind the small set of content
// operations this service needs: user lookup, repository listing/creation,
// single-file read/write, image upload and multi-file commits.
package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"coursefs/internal/domain"
)

var (
	// ErrNotAuthenticated is returned by every data operation before
	// Authenticate has succeeded.
	ErrNotAuthenticated = errors.New("github: not authenticated (call Authenticate first)")

	// ErrNotFound marks a missing remote path.
	ErrNotFound = errors.New("github: not found")

	// ErrIsDirectory marks a path that resolved to a directory listing
	// where a file was expected.
	ErrIsDirectory = errors.New("github: path is a directory")
)

// Service holds one authenticated GitHub session. The zero value (or New's
// result) is unauthenticated; all state lives on the value, never in package
// globals, so independent sessions can coexist.
type Service struct {
	// BaseURL overrides api.github.com, e.g. for GitHub Enterprise or a
	// test server. Must be set before Authenticate.
	BaseURL string

	HTTP   *http.Client
	client *github.Client
	user   *domain.User
}

func New() *Service {
	tr := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &Service{
		HTTP: &http.Client{
			Timeout:   60 * time.Second,
			Transport: tr,
		},
	}
}

// Authenticate exchanges a personal access token for an authenticated
// session and caches the current user's login, avatar URL and email.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return domain.User{}, fmt.Errorf("github: empty token")
	}

	httpClient := s.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	octx := context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	client := github.NewClient(oauth2.NewClient(octx, ts))

	if s.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(s.BaseURL, "/") + "/")
		if err != nil {
			return domain.User{}, fmt.Errorf("github: parse base url: %w", err)
		}
		client.BaseURL = base
		client.UploadURL = base
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return domain.User{}, fmt.Errorf("github: authenticate: %w", err)
	}

	s.client = client
	s.user = &domain.User{
		Login:     user.GetLogin(),
		AvatarURL: user.GetAvatarURL(),
		Email:     user.GetEmail(),
	}
	return *s.user, nil
}

// IsAuthenticated reports whether Authenticate has succeeded on this session.
func (s *Service) IsAuthenticated() bool {
	return s.client != nil
}

// User returns the cached account summary from the last Authenticate call.
func (s *Service) User() (domain.User, bool) {
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// ListRepos returns up to 100 of the authenticated user's repositories,
// most recently updated first.
func (s *Service) ListRepos(ctx context.Context) ([]domain.Repository, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	repos, _, err := s.client.Repositories.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: 100},
	})
	if err != nil {
		return nil, fmt.Errorf("github: list repos: %w", err)
	}

	out := make([]domain.Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, toRepository(r))
	}
	return out, nil
}

// CreateRepo creates a repository for the authenticated user, auto-initialized
// with a README so the default branch exists right away.
func (s *Service) CreateRepo(ctx context.Context, name string, private bool) (domain.Repository, error) {
	if !s.IsAuthenticated() {
		return domain.Repository{}, ErrNotAuthenticated
	}

	created, _, err := s.client.Repositories.Create(ctx, "", &github.Repository{
		Name:     github.String(name),
		Private:  github.Bool(private),
		AutoInit: github.Bool(true),
	})
	if err != nil {
		return domain.Repository{}, fmt.Errorf("github: create repo %s: %w", name, err)
	}
	return toRepository(created), nil
}

// ReadFile fetches one file's content at an optional branch ref and decodes
// it to a UTF-8 string. A missing path yields ErrNotFound; a path resolving
// to a directory listing yields ErrIsDirectory. Anything else is passed
// through unchanged.
func (s *Service) ReadFile(ctx context.Context, owner, repo, path, ref string) (string, error) {
	if !s.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}

	fc, _, resp, err := s.client.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		if isNotFound(resp, err) {
			return "", fmt.Errorf("github: read %s/%s/%s: %w", owner, repo, path, ErrNotFound)
		}
		return "", fmt.Errorf("github: read %s/%s/%s: %w", owner, repo, path, err)
	}
	if fc == nil {
		return "", fmt.Errorf("github: read %s/%s/%s: %w", owner, repo, path, ErrIsDirectory)
	}

	content, err := fc.GetContent()
	if err != nil {
		return "", fmt.Errorf("github: decode %s/%s/%s: %w", owner, repo, path, err)
	}
	return content, nil
}

// WriteFile creates or updates one file. It first looks up the path's current
// blob SHA (a not-found lookup means "new file"; any other lookup error is
// re-raised) and supplies that SHA on update so a concurrent edit is not
// silently overwritten.
func (s *Service) WriteFile(ctx context.Context, owner, repo, path, content, message, branch string) error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	sha := ""
	fc, _, resp, err := s.client.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{Ref: branch})
	switch {
	case err != nil && isNotFound(resp, err):
		// new file
	case err != nil:
		return fmt.Errorf("github: lookup %s/%s/%s: %w", owner, repo, path, err)
	case fc == nil:
		return fmt.Errorf("github: write %s/%s/%s: %w", owner, repo, path, ErrIsDirectory)
	default:
		sha = fc.GetSHA()
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: []byte(content),
	}
	if branch != "" {
		opts.Branch = github.String(branch)
	}

	if sha != "" {
		opts.SHA = github.String(sha)
		if _, _, err := s.client.Repositories.UpdateFile(ctx, owner, repo, path, opts); err != nil {
			return fmt.Errorf("github: update %s/%s/%s: %w", owner, repo, path, err)
		}
		return nil
	}
	if _, _, err := s.client.Repositories.CreateFile(ctx, owner, repo, path, opts); err != nil {
		return fmt.Errorf("github: create %s/%s/%s: %w", owner, repo, path, err)
	}
	return nil
}

// UploadImage writes raw bytes as a new file (no prior-SHA lookup, so this is
// a pure create) and returns the constructed raw-content URL. Existence and
// branch are not validated.
func (s *Service) UploadImage(ctx context.Context, owner, repo, path string, data []byte, branch string) (string, error) {
	if !s.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String("Upload " + path),
		Content: data,
	}
	if branch != "" {
		opts.Branch = github.String(branch)
	}
	if _, _, err := s.client.Repositories.CreateFile(ctx, owner, repo, path, opts); err != nil {
		return "", fmt.Errorf("github: upload %s/%s/%s: %w", owner, repo, path, err)
	}

	ref := branch
	if ref == "" {
		ref = "main"
	}
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", owner, repo, ref, path), nil
}

// CommitMulti builds one commit containing multiple file changes: resolve the
// branch tip, resolve its base tree, create a tree layered on it from items,
// create a commit with the tip as sole parent, then move the branch ref to
// the new commit. Returns the new commit SHA. The ref update is a plain
// fast-forward with no expected-old-value check.
func (s *Service) CommitMulti(ctx context.Context, owner, repo string, items []domain.TreeItem, message, branch string) (string, error) {
	if !s.IsAuthenticated() {
		return "", ErrNotAuthenticated
	}
	if len(items) == 0 {
		return "", fmt.Errorf("github: commit with no tree items")
	}
	if branch == "" {
		branch = "main"
	}

	ref, _, err := s.client.Git.GetRef(ctx, owner, repo, "refs/heads/"+branch)
	if err != nil {
		return "", fmt.Errorf("github: get ref %s: %w", branch, err)
	}
	parentSHA := ref.GetObject().GetSHA()

	parent, _, err := s.client.Git.GetCommit(ctx, owner, repo, parentSHA)
	if err != nil {
		return "", fmt.Errorf("github: get commit %s: %w", parentSHA, err)
	}

	entries := make([]*github.TreeEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, toTreeEntry(it))
	}
	tree, _, err := s.client.Git.CreateTree(ctx, owner, repo, parent.GetTree().GetSHA(), entries)
	if err != nil {
		return "", fmt.Errorf("github: create tree: %w", err)
	}

	commit, _, err := s.client.Git.CreateCommit(ctx, owner, repo, &github.Commit{
		Message: github.String(message),
		Tree:    tree,
		Parents: []*github.Commit{{SHA: github.String(parentSHA)}},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("github: create commit: %w", err)
	}

	ref.Object.SHA = commit.SHA
	if _, _, err := s.client.Git.UpdateRef(ctx, owner, repo, ref, false); err != nil {
		return "", fmt.Errorf("github: update ref %s: %w", branch, err)
	}
	return commit.GetSHA(), nil
}

func toRepository(r *github.Repository) domain.Repository {
	out := domain.Repository{
		ID:            r.GetID(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Private:       r.GetPrivate(),
		DefaultBranch: r.GetDefaultBranch(),
	}
	if o := r.GetOwner(); o != nil {
		out.Owner = domain.User{
			Login:     o.GetLogin(),
			AvatarURL: o.GetAvatarURL(),
			Email:     o.GetEmail(),
		}
	}
	return out
}

func toTreeEntry(it domain.TreeItem) *github.TreeEntry {
	e := &github.TreeEntry{
		Path: github.String(it.Path),
		Mode: github.String(it.Mode),
		Type: github.String(it.Type),
	}
	if e.GetMode() == "" {
		e.Mode = github.String(domain.TreeModeFile)
	}
	if e.GetType() == "" {
		e.Type = github.String(domain.TreeTypeBlob)
	}
	// Leaving both Content and SHA unset makes the tree API drop the path.
	if it.Content != "" {
		e.Content = github.String(it.Content)
	} else if it.SHA != "" {
		e.SHA = github.String(it.SHA)
	}
	return e
}

func isNotFound(resp *github.Response, err error) bool {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusNotFound {
		return true
	}
	return resp != nil && resp.StatusCode == http.StatusNotFound
}
