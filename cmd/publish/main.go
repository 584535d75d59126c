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

	"coursefs/internal/concurrency"
	"coursefs/internal/config"
	"coursefs/internal/fsys"
)

func main() {
	var (
		dir     = flag.String("dir", ".", "local directory to mirror")
		workers = flag.Int("workers", 4, "parallel uploads")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	cfg := config.Load()

	remote, err := fsys.DialSFTP(ctx, fsys.SFTPConfig{
		Host:                  cfg.SFTPHost,
		Port:                  cfg.SFTPPort,
		User:                  cfg.SFTPUser,
		Pass:                  cfg.SFTPPass,
		RemoteDir:             cfg.SFTPRemoteDir,
		InsecureIgnoreHostKey: cfg.SFTPInsecure,
	})
	if err != nil {
		log.Fatalf("sftp error: %v", err)
	}
	defer remote.Close()

	files, err := collectFiles(*dir)
	if err != nil {
		log.Fatalf("collect error: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no files found under %s", *dir)
	}

	errs := concurrency.ForEach(ctx, files, concurrency.ParallelOptions{MaxWorkers: *workers},
		func(ctx context.Context, _ int, rel string) error {
			data, err := os.ReadFile(filepath.Join(*dir, filepath.FromSlash(rel)))
			if err != nil {
				return err
			}
			return remote.WriteFile(ctx, rel, string(data))
		})
	for _, err := range errs {
		log.Printf("upload error: %v", err)
	}
	if len(errs) > 0 {
		log.Fatalf("published with %d failures", len(errs))
	}
	fmt.Printf("OK: published %d files to %s\n", len(files), cfg.SFTPHost)
}

// collectFiles lists every regular file under root as a slash-separated
// path relative to root.
func collectFiles(root string) ([]string, error) {
	var out []string
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
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
