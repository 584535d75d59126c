package fsys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"

	"coursefs/internal/httpx"
)

// StaticFS reads a previously deployed site over plain GET. It is read-only
// in practice: writes are accepted but do nothing beyond a log line, and
// uploaded images live only for the life of the process.
type StaticFS struct {
	BaseURL string
	HTTP    *http.Client
	Retry   httpx.RetryConfig

	mu     sync.Mutex
	images map[string][]byte
}

func NewStaticFS(baseURL string) *StaticFS {
	return &StaticFS{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
		Retry: httpx.DefaultRetryConfig(),
	}
}

func (s *StaticFS) ReadFile(ctx context.Context, path string) (string, error) {
	url := s.BaseURL + "/" + strings.TrimPrefix(path, "/")

	header := http.Header{}
	header.Set("Accept-Encoding", "br")

	resp, body, err := httpx.Get(ctx, s.HTTP, url, header, s.Retry)
	if err != nil {
		var herr *httpx.HTTPError
		if errors.As(err, &herr) && herr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("staticfs: read %s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("staticfs: read %s: %w", path, err)
	}

	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "br") {
		decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return "", fmt.Errorf("staticfs: decode %s: %w", path, err)
		}
		return string(decoded), nil
	}
	return string(body), nil
}

// WriteFile is accepted but does nothing; the deployed site is immutable.
func (s *StaticFS) WriteFile(ctx context.Context, path, content string) error {
	log.Printf("staticfs: ignoring write of %d bytes to %s", len(content), path)
	return nil
}

// CreateDirectory is accepted but does nothing.
func (s *StaticFS) CreateDirectory(ctx context.Context, path string) error {
	log.Printf("staticfs: ignoring mkdir %s", path)
	return nil
}

// ListDir always reports empty; the static origin cannot enumerate paths.
func (s *StaticFS) ListDir(ctx context.Context, path string) ([]string, error) {
	return nil, nil
}

// Exists always reports false; probing the origin per call is not worth it
// when ReadFile already distinguishes absence.
func (s *StaticFS) Exists(ctx context.Context, path string) bool {
	return false
}

// UploadImage keeps the bytes in-process and hands back a mem:// reference.
// The reference is not persisted and not shareable across sessions.
func (s *StaticFS) UploadImage(ctx context.Context, path string, data []byte) (string, error) {
	ref := "mem://" + uuid.NewString()

	s.mu.Lock()
	if s.images == nil {
		s.images = map[string][]byte{}
	}
	s.images[ref] = data
	s.mu.Unlock()

	log.Printf("staticfs: stored %d bytes for %s as %s", len(data), path, ref)
	return ref, nil
}

// Image resolves a reference produced by UploadImage in this process.
func (s *StaticFS) Image(ref string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.images[ref]
	return data, ok
}

var _ FileSystem = (*StaticFS)(nil)
