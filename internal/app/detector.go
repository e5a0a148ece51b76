package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/quantmind-br/cargofmt/internal/domain"
	"github.com/quantmind-br/cargofmt/internal/utils"
	"github.com/quantmind-br/cargofmt/internal/workspace"
)

// DetectOptions controls which manifests a run covers
type DetectOptions struct {
	// Workspace expands every input to all members of its workspace
	Workspace bool
	// Exclude drops manifests whose slash-separated absolute path matches
	Exclude []glob.Glob
	// Changes, when set, keeps only manifests the detector reports as changed
	Changes domain.ChangeDetector
}

// DetectManifests resolves the user's inputs into the sorted list of
// manifests to process. It fails with domain.ErrNoManifests when nothing is
// left.
func DetectManifests(ctx context.Context, paths []string, opts DetectOptions) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	inputs := paths
	if opts.Workspace {
		var err error
		if inputs, err = expandWorkspaces(paths); err != nil {
			return nil, err
		}
	}

	manifests, err := utils.CollectManifests(inputs)
	if err != nil {
		return nil, err
	}

	manifests = excluded(manifests, opts.Exclude)

	if opts.Changes != nil {
		if manifests, err = changedOnly(ctx, paths, manifests, opts.Changes); err != nil {
			return nil, err
		}
	}

	if len(manifests) == 0 {
		return nil, domain.ErrNoManifests
	}
	return manifests, nil
}

func expandWorkspaces(paths []string) ([]string, error) {
	var out []string
	roots := make(map[string]bool)
	for _, p := range paths {
		root, err := workspace.FindRoot(utils.ExpandPath(p))
		if err != nil {
			return nil, err
		}
		if roots[root] {
			continue
		}
		roots[root] = true

		members, err := workspace.Members(root)
		if err != nil {
			return nil, err
		}
		out = append(out, members...)
	}
	return out, nil
}

func excluded(manifests []string, patterns []glob.Glob) []string {
	if len(patterns) == 0 {
		return manifests
	}
	out := manifests[:0]
	for _, m := range manifests {
		if !matchesAny(filepath.ToSlash(m), patterns) {
			out = append(out, m)
		}
	}
	return out
}

func matchesAny(path string, patterns []glob.Glob) bool {
	for _, g := range patterns {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// changedOnly asks the detector once per repository enclosing an input
func changedOnly(ctx context.Context, paths, manifests []string, detector domain.ChangeDetector) ([]string, error) {
	changed := make(map[string]bool)
	queried := make(map[string]bool)
	for _, p := range paths {
		dir, err := filepath.Abs(utils.ExpandPath(p))
		if err != nil {
			return nil, err
		}
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			dir = filepath.Dir(dir)
		}
		if queried[dir] {
			continue
		}
		queried[dir] = true

		files, err := detector.Changed(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to detect changed files: %w", err)
		}
		for f := range files {
			changed[f] = true
		}
	}

	var out []string
	for _, m := range manifests {
		if changed[m] {
			out = append(out, m)
		}
	}
	return out, nil
}
