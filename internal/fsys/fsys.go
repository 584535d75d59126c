// Package fsys abstracts course content storage behind a small read/write
// contract so callers can swap between a deployed static site, a GitHub
// repository or an SFTP mirror at construction time.
package fsys

import (
	"context"
	"errors"
)

// ErrNotFound marks a path that the backing store does not have.
var ErrNotFound = errors.New("fsys: not found")

// FileSystem is the capability set shared by every content backend.
type FileSystem interface {
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, content string) error
	CreateDirectory(ctx context.Context, path string) error
	ListDir(ctx context.Context, path string) ([]string, error)
	// Exists reports whether a ReadFile on the same path would succeed.
	// Implementations fold every failure into false.
	Exists(ctx context.Context, path string) bool
	// UploadImage stores raw bytes and returns a reference the backend
	// considers addressable.
	UploadImage(ctx context.Context, path string, data []byte) (string, error)
}
