package manifest

import "path"

// Conventional defaults Cargo applies when a field is left out.
const (
	DefaultLibPath     = "src/lib.rs"
	DefaultMainPath    = "src/main.rs"
	DefaultBuildScript = "build.rs"
	DefaultBranch      = "master"
	DefaultReadme      = "README.md"
	DefaultEdition     = "2015"
)

// targetDirs maps the non-library kinds to the directory their sources are
// discovered in.
var targetDirs = map[TargetKind]string{
	KindBin:     "src/bin",
	KindExample: "examples",
	KindTest:    "tests",
	KindBench:   "benches",
}

// TargetDir returns the discovery directory for kind, relative to the package root.
func TargetDir(kind TargetKind) (string, bool) {
	dir, ok := targetDirs[kind]
	return dir, ok
}

// ConventionalPaths returns every slash-separated path, relative to the
// package root, at which a target of the given kind and name is found
// without an explicit path key.
func ConventionalPaths(kind TargetKind, name string) []string {
	switch kind {
	case KindLib:
		return []string{DefaultLibPath}
	case KindCustomBuild:
		return []string{DefaultBuildScript}
	case KindBin:
		return []string{
			DefaultMainPath,
			path.Join(targetDirs[KindBin], name+".rs"),
			path.Join(targetDirs[KindBin], name, "main.rs"),
		}
	}
	dir, ok := targetDirs[kind]
	if !ok {
		return nil
	}
	return []string{
		path.Join(dir, name+".rs"),
		path.Join(dir, name, "main.rs"),
	}
}

// IsConventionalPath reports whether rel is one of the conventional paths
// for the target.
func IsConventionalPath(kind TargetKind, name, rel string) bool {
	for _, p := range ConventionalPaths(kind, name) {
		if p == rel {
			return true
		}
	}
	return false
}

// LibName returns the default library target name for a package.
func LibName(pkgName string) string {
	out := []byte(pkgName)
	for i, c := range out {
		if c == '-' {
			out[i] = '_'
		}
	}
	return string(out)
}
