// Package workspace locates the project root of a manifest and expands
// workspace member lists into manifest paths.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/quantmind-br/cargofmt/internal/domain"
)

// ManifestName is the file name of a package manifest
const ManifestName = "Cargo.toml"

// ErrInvalidMember indicates a members entry that is not a usable glob
var ErrInvalidMember = errors.New("invalid workspace member pattern")

// header holds the parts of a manifest that matter for discovery
type header struct {
	Package   map[string]any `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
		Exclude []string `toml:"exclude"`
	} `toml:"workspace"`
}

func readHeader(path string) (*header, error) {
	var h header
	if _, err := toml.DecodeFile(path, &h); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &h, nil
}

// FindRoot walks up from start (a file or directory) and returns the
// outermost Cargo.toml declaring [workspace]. Without a workspace the nearest
// Cargo.toml is returned.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	var nearest, root string
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			if nearest == "" {
				nearest = candidate
			}
			h, err := readHeader(candidate)
			if err != nil {
				return "", err
			}
			if h.Workspace != nil {
				root = candidate
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	switch {
	case root != "":
		return root, nil
	case nearest != "":
		return nearest, nil
	default:
		return "", fmt.Errorf("%w: no %s above %s", domain.ErrNotFound, ManifestName, start)
	}
}

// Members expands the workspace of rootManifest into member manifest paths,
// in declaration order. The root manifest comes first when it also declares
// a [package]. A manifest without [workspace] is its own only member.
func Members(rootManifest string) ([]string, error) {
	rootManifest, err := filepath.Abs(rootManifest)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(rootManifest)
	if err != nil {
		return nil, err
	}

	var out []string
	if h.Package != nil || h.Workspace == nil {
		out = append(out, rootManifest)
	}
	if h.Workspace == nil {
		return out, nil
	}

	rootDir := filepath.Dir(rootManifest)
	excluded := make([]string, 0, len(h.Workspace.Exclude))
	for _, e := range h.Workspace.Exclude {
		excluded = append(excluded, filepath.Join(rootDir, filepath.FromSlash(e)))
	}

	seen := map[string]bool{rootManifest: true}
	for _, pattern := range h.Workspace.Members {
		matches, err := filepath.Glob(filepath.Join(rootDir, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMember, pattern)
		}
		for _, dir := range matches {
			if isExcluded(dir, excluded) {
				continue
			}
			candidate := filepath.Join(dir, ManifestName)
			if seen[candidate] {
				continue
			}
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			seen[candidate] = true
			out = append(out, candidate)
		}
	}
	return out, nil
}

func isExcluded(dir string, excluded []string) bool {
	for _, e := range excluded {
		if dir == e || strings.HasPrefix(dir, e+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
