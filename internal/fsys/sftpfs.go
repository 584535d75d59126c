package fsys

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SFTPConfig describes the mirror host. RemoteDir is the root every path
// is resolved under.
type SFTPConfig struct {
	Host                  string
	Port                  int
	User                  string
	Pass                  string
	RemoteDir             string
	InsecureIgnoreHostKey bool
}

// SFTPFS mirrors course content to an SFTP host. Unlike the other backends
// it has a real directory tree, so ListDir and Exists are fully implemented.
type SFTPFS struct {
	cfg    SFTPConfig
	ssh    *ssh.Client
	client *sftp.Client
}

// DialSFTP connects and returns a backend ready for use. Callers own the
// connection and must Close it.
func DialSFTP(ctx context.Context, cfg SFTPConfig) (*SFTPFS, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		return nil, fmt.Errorf("sftpfs: missing env SFTP_HOST / SFTP_USER / SFTP_PASS")
	}
	if cfg.Port <= 0 {
		cfg.Port = 22
	}
	if cfg.RemoteDir == "" {
		cfg.RemoteDir = "/"
	}

	cb := ssh.InsecureIgnoreHostKey()
	if !cfg.InsecureIgnoreHostKey {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("sftpfs: resolve home for known_hosts: %w", err)
		}
		cb, err = knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
		if err != nil {
			return nil, fmt.Errorf("sftpfs: load known_hosts: %w", err)
		}
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Pass)},
		HostKeyCallback: cb,
		Timeout:         20 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	type dialRes struct {
		client *ssh.Client
		err    error
	}
	ch := make(chan dialRes, 1)
	go func() {
		c, err := ssh.Dial("tcp", addr, sshCfg)
		ch <- dialRes{client: c, err: err}
	}()

	var sshClient *ssh.Client
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("sftpfs: dial canceled: %w", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("sftpfs: dial error: %w", r.err)
		}
		sshClient = r.client
	}

	cli, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftpfs: new client: %w", err)
	}

	return &SFTPFS{cfg: cfg, ssh: sshClient, client: cli}, nil
}

func (s *SFTPFS) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	if s.ssh != nil {
		return s.ssh.Close()
	}
	return nil
}

func (s *SFTPFS) remote(p string) string {
	return path.Join(s.cfg.RemoteDir, p)
}

func (s *SFTPFS) ReadFile(ctx context.Context, p string) (string, error) {
	src, err := s.client.Open(s.remote(p))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("sftpfs: read %s: %w", p, ErrNotFound)
		}
		return "", fmt.Errorf("sftpfs: open %s: %w", p, err)
	}
	defer src.Close()

	b, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("sftpfs: read %s: %w", p, err)
	}
	return string(b), nil
}

func (s *SFTPFS) WriteFile(ctx context.Context, p, content string) error {
	remotePath := s.remote(p)
	if err := s.client.MkdirAll(path.Dir(remotePath)); err != nil {
		return fmt.Errorf("sftpfs: mkdir %s: %w", path.Dir(remotePath), err)
	}

	dst, err := s.client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("sftpfs: create %s: %w", p, err)
	}
	defer dst.Close()

	if _, err := dst.Write([]byte(content)); err != nil {
		return fmt.Errorf("sftpfs: write %s: %w", p, err)
	}
	return nil
}

func (s *SFTPFS) CreateDirectory(ctx context.Context, p string) error {
	if err := s.client.MkdirAll(s.remote(p)); err != nil {
		return fmt.Errorf("sftpfs: mkdir %s: %w", p, err)
	}
	return nil
}

func (s *SFTPFS) ListDir(ctx context.Context, p string) ([]string, error) {
	entries, err := s.client.ReadDir(s.remote(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("sftpfs: list %s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("sftpfs: list %s: %w", p, err)
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, path.Join(p, e.Name()))
	}
	return out, nil
}

func (s *SFTPFS) Exists(ctx context.Context, p string) bool {
	_, err := s.client.Stat(s.remote(p))
	return err == nil
}

func (s *SFTPFS) UploadImage(ctx context.Context, p string, data []byte) (string, error) {
	if err := s.WriteFile(ctx, p, string(data)); err != nil {
		return "", err
	}
	return fmt.Sprintf("sftp://%s%s", s.cfg.Host, s.remote(p)), nil
}

var _ FileSystem = (*SFTPFS)(nil)
