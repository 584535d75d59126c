package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"coursefs/internal/config"
	"coursefs/internal/domain"
	"coursefs/internal/github"
)

func main() {
	var (
		dir     = flag.String("dir", ".", "local directory whose files become the commit")
		prefix  = flag.String("prefix", "", "remote path prefix to place the files under")
		message = flag.String("message", "Sync course content", "commit message")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg := config.Load()
	if cfg.GitHubToken == "" || cfg.GitHubOwner == "" || cfg.GitHubRepo == "" {
		log.Fatal("missing env vars: GITHUB_TOKEN / GITHUB_OWNER / GITHUB_REPO")
	}

	items, err := buildTreeItems(*dir, *prefix)
	if err != nil {
		log.Fatalf("collect error: %v", err)
	}
	if len(items) == 0 {
		log.Fatalf("no files found under %s", *dir)
	}

	svc := github.New()
	svc.BaseURL = cfg.GitHubBaseURL
	if _, err := svc.Authenticate(ctx, cfg.GitHubToken); err != nil {
		log.Fatalf("auth error: %v", err)
	}

	sha, err := svc.CommitMulti(ctx, cfg.GitHubOwner, cfg.GitHubRepo, items, *message, cfg.GitHubBranch)
	if err != nil {
		log.Fatalf("commit error: %v", err)
	}
	fmt.Printf("OK: committed %d files to %s/%s@%s as %s\n", len(items), cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubBranch, sha)
}

// buildTreeItems turns every regular file under root into a tree entry,
// with paths made relative to root and slash-separated.
func buildTreeItems(root, prefix string) ([]domain.TreeItem, error) {
	var items []domain.TreeItem
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		remote := filepath.ToSlash(rel)
		if prefix != "" {
			remote = prefix + "/" + remote
		}
		items = append(items, domain.TreeItem{
			Path:    remote,
			Mode:    domain.TreeModeFile,
			Type:    domain.TreeTypeBlob,
			Content: string(data),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
