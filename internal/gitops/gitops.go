// Package gitops snapshots the data dir into a local git repository.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Ignore is written to .gitignore by Init. Secrets, inbox exports and
// transient store files never belong in a snapshot.
var Ignore = []string{
	".env",
	"import/",
	"*.tmp",
	"*.db-wal",
	"*.db-shm",
}

// Init initializes a new git repository at dir and writes .gitignore.
func Init(dir string) error {
	cmd := exec.Command("git", "init", "--quiet")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	ignore := strings.Join(Ignore, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(ignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Committer snapshots one repository with a fixed identity.
type Committer struct {
	Dir         string
	AuthorName  string
	AuthorEmail string
}

// HasChanges reports whether the working tree differs from HEAD.
func (c Committer) HasChanges() (bool, error) {
	status := c.git("status", "--porcelain")
	out, err := status.Output()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return len(strings.TrimSpace(string(out))) > 0, nil
}

// CommitAll stages all files and creates a commit. It returns the short
// commit hash, or "" when there was nothing to commit.
func (c Committer) CommitAll(message string) (string, error) {
	changed, err := c.HasChanges()
	if err != nil {
		return "", err
	}
	if !changed {
		return "", nil
	}

	if out, err := c.git("add", "-A").CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	author := fmt.Sprintf("%s <%s>", c.AuthorName, c.AuthorEmail)
	if out, err := c.git("commit", "--quiet", "-m", message, "--author", author).CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := c.git("rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// git builds a command in c.Dir. The committer identity is the author so
// commits work without a global git config.
func (c Committer) git(args ...string) *exec.Cmd {
	cmd := exec.Command("git", args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+c.AuthorName,
		"GIT_COMMITTER_EMAIL="+c.AuthorEmail,
	)
	return cmd
}
