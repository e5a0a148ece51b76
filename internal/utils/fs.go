package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ManifestName is the file name of a package manifest
const ManifestName = "Cargo.toml"

// skipDirs are never searched for manifests
var skipDirs = map[string]bool{
	"target":       true,
	"node_modules": true,
	"vendor":       true,
}

// IsManifest reports whether path names a Cargo.toml
func IsManifest(path string) bool {
	return filepath.Base(path) == ManifestName
}

// CollectManifests resolves files and directories into a sorted, de-duplicated
// list of absolute manifest paths. Directories are searched recursively,
// skipping build output and hidden directories.
func CollectManifests(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		abs, err := filepath.Abs(ExpandPath(p))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(abs)
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != abs && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Name() == ManifestName {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}

	sort.Strings(out)
	return out, nil
}

// EnsureDir ensures the parent directory of path exists
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}
