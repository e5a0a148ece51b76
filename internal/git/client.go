package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/quantmind-br/cargofmt/internal/domain"
)

// RealClient implements Client using go-git
type RealClient struct{}

// NewClient creates a new RealClient
func NewClient() *RealClient {
	return &RealClient{}
}

// PlainOpenWithOptions calls git.PlainOpenWithOptions
func (c *RealClient) PlainOpenWithOptions(path string, o *git.PlainOpenOptions) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, o)
}

// Ensure StatusDetector implements domain.ChangeDetector
var _ domain.ChangeDetector = (*StatusDetector)(nil)

// StatusDetector finds changed files from the worktree status
type StatusDetector struct {
	client Client
}

// NewStatusDetector creates a detector; a nil client uses go-git directly
func NewStatusDetector(client Client) *StatusDetector {
	if client == nil {
		client = NewClient()
	}
	return &StatusDetector{client: client}
}

// Changed returns the absolute paths of every file in the repository
// enclosing dir whose staged or worktree status is not unmodified. Untracked
// files count as changed.
func (d *StatusDetector) Changed(ctx context.Context, dir string) (map[string]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo, err := d.client.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotRepository, dir)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}

	root := wt.Filesystem.Root()
	changed := make(map[string]bool)
	for path, st := range status {
		if st.Staging == git.Unmodified && st.Worktree == git.Unmodified {
			continue
		}
		changed[filepath.Join(root, filepath.FromSlash(path))] = true
	}
	return changed, nil
}
