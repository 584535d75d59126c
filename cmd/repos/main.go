package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"coursefs/internal/config"
	"coursefs/internal/github"
)

func main() {
	var (
		create  = flag.String("create", "", "create a repository with this name instead of listing")
		private = flag.Bool("private", true, "create the repository as private")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg := config.Load()
	if cfg.GitHubToken == "" {
		log.Fatal("missing env var: GITHUB_TOKEN")
	}

	svc := github.New()
	svc.BaseURL = cfg.GitHubBaseURL

	user, err := svc.Authenticate(ctx, cfg.GitHubToken)
	if err != nil {
		log.Fatalf("auth error: %v", err)
	}
	fmt.Printf("OK: authenticated as %s\n", user.Login)

	if *create != "" {
		repo, err := svc.CreateRepo(ctx, *create, *private)
		if err != nil {
			log.Fatalf("create repo error: %v", err)
		}
		fmt.Printf("OK: created %s (default branch %s)\n", repo.FullName, repo.DefaultBranch)
		return
	}

	repos, err := svc.ListRepos(ctx)
	if err != nil {
		log.Fatalf("list repos error: %v", err)
	}

	fmt.Printf("OK: fetched %d repositories\n", len(repos))
	for i, r := range repos {
		visibility := "public"
		if r.Private {
			visibility = "private"
		}
		fmt.Printf("%d) %s [%s] default=%s\n", i+1, r.FullName, visibility, r.DefaultBranch)
	}
}
