package config

import (
	"os"
	"strconv"
)

type Config struct {
	// GitHub
	GitHubToken   string
	GitHubBaseURL string
	GitHubOwner   string
	GitHubRepo    string
	GitHubBranch  string

	// Static site
	StaticBaseURL string

	// SFTP mirror
	SFTPHost      string
	SFTPPort      int
	SFTPUser      string
	SFTPPass      string
	SFTPRemoteDir string
	SFTPInsecure  bool
}

func Load() Config {
	return Config{
		// GitHub
		GitHubToken:   os.Getenv("GITHUB_TOKEN"),
		GitHubBaseURL: os.Getenv("GITHUB_BASE_URL"),
		GitHubOwner:   os.Getenv("GITHUB_OWNER"),
		GitHubRepo:    os.Getenv("GITHUB_REPO"),
		GitHubBranch:  getenv("GITHUB_BRANCH", "main"),

		// Static site
		StaticBaseURL: getenv("STATIC_BASE_URL", "https://course.example.com"),

		// SFTP mirror
		SFTPHost:      os.Getenv("SFTP_HOST"),
		SFTPPort:      getenvInt("SFTP_PORT", 22),
		SFTPUser:      os.Getenv("SFTP_USER"),
		SFTPPass:      os.Getenv("SFTP_PASS"),
		SFTPRemoteDir: getenv("SFTP_REMOTE_DIR", "/"),
		SFTPInsecure:  getenvBool("SFTP_INSECURE_HOST_KEY", false),
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
