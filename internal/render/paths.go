package render

import "path/filepath"

// RelPath expresses p relative to the package root, slash separated. Paths
// that cannot be made relative are returned as they are.
func RelPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
