package domain

// User is the reduced view of the authenticated GitHub account that the
// service caches after a successful token exchange.
type User struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	Email     string `json:"email,omitempty"`
}

// Repository is the reduced repository summary returned by list/create.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"fullName"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"defaultBranch"`
	Owner         User   `json:"owner"`
}

// Git tree entry modes and types as the content API spells them.
const (
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeDirectory  = "040000"
	TreeModeSubmodule  = "160000"
	TreeModeSymlink    = "120000"

	TreeTypeBlob   = "blob"
	TreeTypeTree   = "tree"
	TreeTypeCommit = "commit"
)

// TreeItem is a single entry destined for a multi-file commit: a path plus
// either inline content or an existing object hash. Leaving both Content and
// SHA empty encodes a deletion of the path.
type TreeItem struct {
	Path    string `json:"path"`
	Mode    string `json:"mode"`
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	SHA     string `json:"sha,omitempty"`
}
