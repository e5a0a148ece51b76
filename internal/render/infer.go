package render

import "github.com/quantmind-br/cargofmt/internal/manifest"

// Inference says which target keys Cargo would fill in by itself.
type Inference struct {
	OmitName bool
	OmitPath bool
}

// InferTarget decides, for a target whose source lives at relPath (relative
// to the package root), whether its name and path keys are implied.
func InferTarget(t manifest.Target, pkgName, relPath string) Inference {
	return Inference{
		OmitName: t.Kind == manifest.KindLib &&
			(t.Name == pkgName || t.Name == manifest.LibName(pkgName)),
		OmitPath: manifest.IsConventionalPath(t.Kind, t.Name, relPath),
	}
}
