package manifest

import "strings"

// Manifest is the structured description of one package.
type Manifest struct {
	// Root is the absolute directory containing the manifest.
	Root string

	Name          string
	Description   string
	Version       string
	Authors       []string
	Keywords      []string
	Categories    []string
	License       string
	LicenseFile   string
	Readme        string
	Homepage      string
	Repository    string
	Documentation string
	Exclude       []string
	Include       []string
	Links         string
	Edition       string
	Publish       *Publish
	DefaultRun    string

	AutoBenches  bool
	AutoBins     bool
	AutoExamples bool
	AutoTests    bool

	Targets      []Target
	Dependencies []Dependency
	Features     []Feature

	// Metadata holds the [package.metadata] table, nil when absent.
	Metadata Table
}

// New returns a manifest with the library defaults applied.
func New(root, name, version string) *Manifest {
	return &Manifest{
		Root:         root,
		Name:         name,
		Version:      version,
		Edition:      DefaultEdition,
		AutoBenches:  true,
		AutoBins:     true,
		AutoExamples: true,
		AutoTests:    true,
	}
}

// Library returns the library target, if any.
func (m *Manifest) Library() (Target, bool) {
	for _, t := range m.Targets {
		if t.Kind == KindLib {
			return t, true
		}
	}
	return Target{}, false
}

// BuildScript returns the build script target, if any.
func (m *Manifest) BuildScript() (Target, bool) {
	for _, t := range m.Targets {
		if t.Kind == KindCustomBuild {
			return t, true
		}
	}
	return Target{}, false
}

// TargetsOf returns the targets of one kind in their original order.
func (m *Manifest) TargetsOf(kind TargetKind) []Target {
	var out []Target
	for _, t := range m.Targets {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// Publish restricts where a package may be published.
// An empty Registries list means publishing is disabled.
type Publish struct {
	Registries []string
}

// TargetKind identifies the kind of build artifact.
type TargetKind int

const (
	KindLib TargetKind = iota
	KindBin
	KindExample
	KindTest
	KindBench
	KindCustomBuild
)

// String returns the Cargo spelling of the kind.
func (k TargetKind) String() string {
	switch k {
	case KindLib:
		return "lib"
	case KindBin:
		return "bin"
	case KindExample:
		return "example"
	case KindTest:
		return "test"
	case KindBench:
		return "bench"
	case KindCustomBuild:
		return "custom-build"
	default:
		return "unknown"
	}
}

// CrateTypeProcMacro is the crate-type tag of procedural macro libraries.
const CrateTypeProcMacro = "proc-macro"

// Target is one build artifact.
type Target struct {
	Kind       TargetKind
	CrateTypes []string
	Name       string
	// SrcPath is the absolute path of the target's root source file.
	SrcPath string
	Harness bool
	Doc     bool
}

// IsProcMacro reports whether the target carries the proc-macro crate type.
func (t Target) IsProcMacro() bool {
	for _, ct := range t.CrateTypes {
		if ct == CrateTypeProcMacro {
			return true
		}
	}
	return false
}

// DepKind is the dependency group kind.
type DepKind int

const (
	DepNormal DepKind = iota
	DepDevelopment
	DepBuild
)

// TableName returns the section name for the kind.
func (k DepKind) TableName() string {
	switch k {
	case DepDevelopment:
		return "dev-dependencies"
	case DepBuild:
		return "build-dependencies"
	default:
		return "dependencies"
	}
}

// SourceKind identifies where a dependency comes from.
type SourceKind int

const (
	SourceRegistry SourceKind = iota
	SourcePath
	SourceGit
)

// Source locates a dependency.
type Source struct {
	Kind SourceKind
	// Path is absolute for SourcePath.
	Path   string
	Git    string
	Tag    string
	Branch string
	Rev    string
}

// WildcardReq is the unconstrained version requirement.
const WildcardReq = "*"

// Dependency is a required package.
type Dependency struct {
	// Name is the key under which the dependency appears in the manifest.
	Name string
	// Package is the real package name when renamed, empty otherwise.
	Package         string
	Req             string
	Source          Source
	Kind            DepKind
	Platform        string
	DefaultFeatures bool
	Features        []string
	Optional        bool
}

// IsRenamed reports whether the dependency key differs from the package name.
func (d Dependency) IsRenamed() bool {
	return d.Package != "" && d.Package != d.Name
}

// DepActivationPrefix marks a feature value that activates an optional dependency.
const DepActivationPrefix = "dep:"

// Feature is a named feature and the specs it activates.
type Feature struct {
	Name     string
	Activate []string
}

// StripDepPrefix removes the dep: activation prefix from a feature value.
func StripDepPrefix(spec string) string {
	return strings.TrimPrefix(spec, DepActivationPrefix)
}

// Datetime is a TOML date, time or datetime in its literal spelling.
type Datetime string

// Entry is one key of a Table. Value is a string, int64, float64, bool,
// Datetime, []any or Table.
type Entry struct {
	Key   string
	Value any
}

// Table is an ordered TOML table.
type Table []Entry

// Get returns the value stored under key.
func (t Table) Get(key string) (any, bool) {
	for _, e := range t {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}
