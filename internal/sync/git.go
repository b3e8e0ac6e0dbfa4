package sync

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitDestination keeps a door's transition export committed to a file in a
// git working tree, pushing each change.
type GitDestination struct {
	door   string
	repo   string // path to the local clone
	file   string // file path within the repo
	branch string // branch to commit and push to
}

// NewGitDestination creates a git destination for the given door. repo is
// the path to an existing local clone.
func NewGitDestination(door, repo, file, branch string) *GitDestination {
	return &GitDestination{
		door:   door,
		repo:   repo,
		file:   file,
		branch: branch,
	}
}

// Write replaces the export file with data and commits and pushes when the
// contents changed. An unchanged export is a no-op.
func (d *GitDestination) Write(ctx context.Context, data []byte) error {
	if _, err := d.git(ctx, "checkout", d.branch); err != nil {
		return fmt.Errorf("git checkout %s: %w", d.branch, err)
	}

	// Pull latest to minimize conflicts. Errors are ignored since the
	// remote might not have the branch yet.
	_, _ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	filePath := filepath.Join(d.repo, d.file)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	if _, err := d.git(ctx, "add", d.file); err != nil {
		return fmt.Errorf("git add: %w", err)
	}

	staged, err := d.git(ctx, "status", "--porcelain", "--", d.file)
	if err != nil {
		return fmt.Errorf("git status: %w", err)
	}
	if staged == "" {
		return nil
	}

	if _, err := d.git(ctx, "commit", "-m", d.commitMessage()); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}
	if _, err := d.git(ctx, "push", "origin", d.branch); err != nil {
		return fmt.Errorf("git push: %w", err)
	}
	return nil
}

func (d *GitDestination) commitMessage() string {
	return fmt.Sprintf("doord: sync %s transition log", d.door)
}

// git runs a git command in the clone and returns its trimmed combined
// output. On failure the output is folded into the error.
func (d *GitDestination) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	out, err := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed != "" {
			return trimmed, fmt.Errorf("%w: %s", err, trimmed)
		}
		return trimmed, err
	}
	return trimmed, nil
}
