package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"coursefs/internal/config"
	"coursefs/internal/domain"
	"coursefs/internal/fsys"
	"coursefs/internal/github"
	"coursefs/internal/loader"
)

func main() {
	var (
		source = flag.String("source", "static", "content source: static or github")
		outDir = flag.String("out", "", "write the course to this directory instead of printing the outline")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cfg := config.Load()

	var fs fsys.FileSystem
	switch *source {
	case "static":
		fs = fsys.NewStaticFS(cfg.StaticBaseURL)
	case "github":
		if cfg.GitHubToken == "" || cfg.GitHubOwner == "" || cfg.GitHubRepo == "" {
			log.Fatal("missing env vars: GITHUB_TOKEN / GITHUB_OWNER / GITHUB_REPO")
		}
		svc := github.New()
		svc.BaseURL = cfg.GitHubBaseURL
		if _, err := svc.Authenticate(ctx, cfg.GitHubToken); err != nil {
			log.Fatalf("auth error: %v", err)
		}
		fs = fsys.NewGitHubFS(svc, cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubBranch)
	default:
		log.Fatalf("unknown source %q (want static or github)", *source)
	}

	l := &loader.Loader{FS: fs}
	var structure domain.CourseStructure
	if *source == "static" {
		// The static backend cannot answer existence probes.
		structure = l.LoadCourseStructureDirect(ctx)
	} else {
		structure = l.LoadCourseStructure(ctx)
	}
	fmt.Printf("OK: course %q with %d lessons\n", structure.Title, len(structure.Leaves()))

	if *outDir == "" {
		for _, leaf := range structure.Leaves() {
			fmt.Printf("- %s (%s)\n", leaf.Title, leaf.Path)
		}
		return
	}

	manifest, err := yaml.Marshal(structure)
	if err != nil {
		log.Fatalf("marshal manifest error: %v", err)
	}
	dst := filepath.Join(*outDir, "src/content/course.yaml")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		log.Fatalf("mkdir error: %v", err)
	}
	if err := os.WriteFile(dst, manifest, 0o644); err != nil {
		log.Fatalf("write manifest error: %v", err)
	}

	lessons := l.LoadLessons(ctx, structure)
	written := 0
	for path, body := range lessons {
		dst := filepath.Join(*outDir, loader.LessonPath(path))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			log.Fatalf("mkdir error: %v", err)
		}
		if err := os.WriteFile(dst, []byte(body), 0o644); err != nil {
			log.Fatalf("write error: %v", err)
		}
		written++
	}
	fmt.Printf("OK: wrote %d lesson files under %s\n", written, *outDir)
}
