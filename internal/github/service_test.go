package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursefs/internal/domain"
)

// fakeGitHub emulates the subset of the REST API the service touches:
// user lookup, repo list/create, contents CRUD and the git data endpoints.
type fakeGitHub struct {
	t     *testing.T
	mux   *http.ServeMux
	srv   *httptest.Server
	owner string
	repo  string

	// path -> content, sha assigned on write
	files map[string]string
	shas  map[string]string

	// recorded requests
	lastContentsPut map[string]any
	createdTree     []map[string]any
	createdCommit   map[string]any
	updatedRef      map[string]any
	branchTip       string
	baseTreeSHA     string
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	f := &fakeGitHub{
		t:           t,
		mux:         http.NewServeMux(),
		owner:       "octocat",
		repo:        "course-content",
		files:       map[string]string{},
		shas:        map[string]string{},
		branchTip:   "tip000",
		baseTreeSHA: "basetree000",
	}
	f.register()
	f.srv = httptest.NewServer(f.mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGitHub) register() {
	f.mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"login":      "octocat",
			"avatar_url": "https://avatars.test/octocat.png",
			"email":      "octo@example.com",
		})
	})

	f.mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sort"); got != "updated" {
			f.t.Errorf("Expected sort=updated, got %q", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "100" {
			f.t.Errorf("Expected per_page=100, got %q", got)
		}
		writeJSON(w, []map[string]any{
			{
				"id": 1, "name": "course-content", "full_name": "octocat/course-content",
				"private": true, "default_branch": "main",
				"owner": map[string]any{"login": "octocat"},
			},
			{
				"id": 2, "name": "site", "full_name": "octocat/site",
				"private": false, "default_branch": "main",
				"owner": map[string]any{"login": "octocat"},
			},
		})
	})

	f.mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		if auto, _ := body["auto_init"].(bool); !auto {
			f.t.Error("Expected auto_init=true on repo creation")
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{
			"id": 99, "name": body["name"],
			"full_name":      "octocat/" + body["name"].(string),
			"private":        body["private"],
			"default_branch": "main",
			"owner":          map[string]any{"login": "octocat"},
		})
	})

	contents := fmt.Sprintf("/repos/%s/%s/contents/", f.owner, f.repo)
	f.mux.HandleFunc(contents, func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, contents)
		switch r.Method {
		case http.MethodGet:
			if path == "dir" {
				// directory listing
				writeJSON(w, []map[string]any{{"type": "file", "name": "x", "path": "dir/x"}})
				return
			}
			content, ok := f.files[path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				writeJSON(w, map[string]any{"message": "Not Found"})
				return
			}
			writeJSON(w, map[string]any{
				"type":     "file",
				"name":     path,
				"path":     path,
				"sha":      f.shas[path],
				"encoding": "base64",
				"content":  base64.StdEncoding.EncodeToString([]byte(content)),
			})
		case http.MethodPut:
			var body map[string]any
			require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
			f.lastContentsPut = body
			raw, err := base64.StdEncoding.DecodeString(body["content"].(string))
			require.NoError(f.t, err)
			f.files[path] = string(raw)
			f.shas[path] = fmt.Sprintf("sha-%d", len(f.shas)+1)
			writeJSON(w, map[string]any{
				"content": map[string]any{"path": path, "sha": f.shas[path]},
				"commit":  map[string]any{"sha": "c1"},
			})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	gitBase := fmt.Sprintf("/repos/%s/%s/git/", f.owner, f.repo)
	f.mux.HandleFunc(gitBase+"ref/heads/main", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"ref":    "refs/heads/main",
			"object": map[string]any{"type": "commit", "sha": f.branchTip},
		})
	})
	f.mux.HandleFunc("GET "+gitBase+"commits/"+"tip000", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"sha":  f.branchTip,
			"tree": map[string]any{"sha": f.baseTreeSHA},
		})
	})
	f.mux.HandleFunc("POST "+gitBase+"trees", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			BaseTree string           `json:"base_tree"`
			Tree     []map[string]any `json:"tree"`
		}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		if body.BaseTree != f.baseTreeSHA {
			f.t.Errorf("Expected base_tree %q, got %q", f.baseTreeSHA, body.BaseTree)
		}
		f.createdTree = body.Tree
		writeJSON(w, map[string]any{"sha": "newtree000"})
	})
	f.mux.HandleFunc("POST "+gitBase+"commits", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.createdCommit = body
		writeJSON(w, map[string]any{
			"sha":     "newcommit000",
			"tree":    map[string]any{"sha": "newtree000"},
			"parents": []map[string]any{{"sha": f.branchTip}},
		})
	})
	f.mux.HandleFunc("PATCH "+gitBase+"refs/heads/main", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.updatedRef = body
		writeJSON(w, map[string]any{
			"ref":    "refs/heads/main",
			"object": map[string]any{"type": "commit", "sha": body["sha"]},
		})
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func authedService(t *testing.T, f *fakeGitHub) *Service {
	svc := New()
	svc.BaseURL = f.srv.URL
	_, err := svc.Authenticate(context.Background(), "ghp_test")
	require.NoError(t, err)
	return svc
}

func TestAuthenticateCachesUser(t *testing.T) {
	f := newFakeGitHub(t)

	svc := New()
	svc.BaseURL = f.srv.URL

	if svc.IsAuthenticated() {
		t.Fatal("Expected fresh service to be unauthenticated")
	}

	user, err := svc.Authenticate(context.Background(), "ghp_test")
	require.NoError(t, err)
	assert.Equal(t, "octocat", user.Login)
	assert.Equal(t, "https://avatars.test/octocat.png", user.AvatarURL)
	assert.Equal(t, "octo@example.com", user.Email)

	require.True(t, svc.IsAuthenticated())
	cached, ok := svc.User()
	require.True(t, ok)
	assert.Equal(t, user, cached)
}

func TestAuthenticateEmptyToken(t *testing.T) {
	svc := New()
	_, err := svc.Authenticate(context.Background(), "  ")
	require.Error(t, err)
	assert.False(t, svc.IsAuthenticated())
}

func TestOperationsRequireAuthentication(t *testing.T) {
	svc := New()
	ctx := context.Background()

	_, err := svc.ListRepos(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.CreateRepo(ctx, "x", false)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.ReadFile(ctx, "o", "r", "p", "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	err = svc.WriteFile(ctx, "o", "r", "p", "c", "m", "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.UploadImage(ctx, "o", "r", "p", []byte{1}, "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.CommitMulti(ctx, "o", "r", []domain.TreeItem{{Path: "p"}}, "m", "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestListRepos(t *testing.T) {
	f := newFakeGitHub(t)
	svc := authedService(t, f)

	repos, err := svc.ListRepos(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, domain.Repository{
		ID: 1, Name: "course-content", FullName: "octocat/course-content",
		Private: true, DefaultBranch: "main",
		Owner: domain.User{Login: "octocat"},
	}, repos[0])
}

func TestCreateRepo(t *testing.T) {
	f := newFakeGitHub(t)
	svc := authedService(t, f)

	repo, err := svc.CreateRepo(context.Background(), "new-course", true)
	require.NoError(t, err)
	assert.Equal(t, "new-course", repo.Name)
	assert.Equal(t, "octocat/new-course", repo.FullName)
	assert.True(t, repo.Private)
	assert.Equal(t, "main", repo.DefaultBranch)
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	f := newFakeGitHub(t)
	svc := authedService(t, f)
	ctx := context.Background()

	cases := []struct {
		name    string
		path    string
		content string
	}{
		{"ascii", "src/content/a1/lesson-1.mdx", "# Lesson 1\n\nPlain ASCII body.\n"},
		{"multibyte", "src/content/a1/lesson-2.mdx", "# Lección 2\n\nKöln, 東京, emoji 🎓\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.WriteFile(ctx, f.owner, f.repo, tc.path, tc.content, "add lesson", "main")
			require.NoError(t, err)

			got, err := svc.ReadFile(ctx, f.owner, f.repo, tc.path, "main")
			require.NoError(t, err)
			assert.Equal(t, tc.content, got)
		})
	}
}

func TestWriteFileNewFileOmitsSHA(t *testing.T) {
	f := newFakeGitHub(t)
	svc := authedService(t, f)

	err := svc.WriteFile(context.Background(), f.owner, f.repo, "course.yaml", "title: T\n", "init", "main")
	require.NoError(t, err)

	_, hasSHA := f.lastContentsPut["sha"]
	assert.False(t, hasSHA, "create of a new file must not carry a sha")
	assert.Equal(t, "init", f.lastContentsPut["message"])
	assert.Equal(t, "main", f.lastContentsPut["branch"])
}

func TestWriteFileExistingIncludesSHA(t *testing.T) {
	f := newFakeGitHub(t)
	f.files["course.yaml"] = "title: Old\n"
	f.shas["course.yaml"] = "oldsha"
	svc := authedService(t, f)

	err := svc.WriteFile(context.Background(), f.owner, f.repo, "course.yaml", "title: New\n", "update", "main")
	require.NoError(t, err)

	assert.Equal(t, "oldsha", f.lastContentsPut["sha"], "update must carry the current blob sha")
	assert.Equal(t, "title: New\n", f.files["course.yaml"])
}

func TestReadFileNotFound(t *testing.T) {
	f := newFakeGitHub(t)
	svc := authedService(t, f)

	_, err := svc.ReadFile(context.Background(), f.owner, f.repo, "missing.mdx", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrIsDirectory)
}

func TestReadFileIsDirectory(t *testing.T) {
	f := newFakeGitHub(t)
	svc := authedService(t, f)

	_, err := svc.ReadFile(context.Background(), f.owner, f.repo, "dir", "")
	assert.ErrorIs(t, err, ErrIsDirectory)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestUploadImage(t *testing.T) {
	f := newFakeGitHub(t)
	svc := authedService(t, f)

	data := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0x01}
	url, err := svc.UploadImage(context.Background(), f.owner, f.repo, "images/logo.png", data, "")
	require.NoError(t, err)
	assert.Equal(t, "https://raw.githubusercontent.com/octocat/course-content/main/images/logo.png", url)
	assert.Equal(t, string(data), f.files["images/logo.png"])
}

func TestCommitMulti(t *testing.T) {
	f := newFakeGitHub(t)
	svc := authedService(t, f)

	items := []domain.TreeItem{
		{Path: "src/content/course.yaml", Mode: domain.TreeModeFile, Type: domain.TreeTypeBlob, Content: "title: T\n"},
		{Path: "src/content/a1/lesson-1.mdx", Content: "# L1\n"},
		{Path: "src/content/old.mdx"}, // no content, no sha: deletion
	}

	sha, err := svc.CommitMulti(context.Background(), f.owner, f.repo, items, "sync course", "")
	require.NoError(t, err)
	assert.Equal(t, "newcommit000", sha)

	// tree layered on the base tree with exactly the supplied items
	require.Len(t, f.createdTree, 3)
	assert.Equal(t, "src/content/course.yaml", f.createdTree[0]["path"])
	assert.Equal(t, "100644", f.createdTree[0]["mode"])
	assert.Equal(t, "blob", f.createdTree[0]["type"])
	assert.Equal(t, "title: T\n", f.createdTree[0]["content"])

	// defaults applied when mode/type omitted
	assert.Equal(t, "100644", f.createdTree[1]["mode"])
	assert.Equal(t, "blob", f.createdTree[1]["type"])

	// deletion encodes a null sha
	delSHA, present := f.createdTree[2]["sha"]
	assert.True(t, present, "deletion entry must carry an explicit sha")
	assert.Nil(t, delSHA)

	// one new commit whose sole parent is the prior tip; the commits API
	// takes parents as bare SHA strings
	parents := f.createdCommit["parents"].([]any)
	require.Len(t, parents, 1)
	assert.Equal(t, "tip000", parents[0])
	assert.Equal(t, "sync course", f.createdCommit["message"])

	// branch ref fast-forwarded to the new commit
	assert.Equal(t, "newcommit000", f.updatedRef["sha"])
}

func TestCommitMultiNoItems(t *testing.T) {
	f := newFakeGitHub(t)
	svc := authedService(t, f)

	_, err := svc.CommitMulti(context.Background(), f.owner, f.repo, nil, "m", "main")
	require.Error(t, err)
}
