package render

import (
	"sort"
	"strings"

	"github.com/quantmind-br/cargofmt/internal/manifest"
)

type depGroup struct {
	header string
	deps   []manifest.Dependency
}

var depKinds = []manifest.DepKind{
	manifest.DepNormal,
	manifest.DepDevelopment,
	manifest.DepBuild,
}

// dependencyGroups buckets dependencies by (kind, platform): per kind the
// platform-less group first, then platform groups in sorted order. Platform
// names are always quoted, bare target triples included.
func dependencyGroups(deps []manifest.Dependency) []depGroup {
	var groups []depGroup
	for _, kind := range depKinds {
		byPlatform := make(map[string][]manifest.Dependency)
		for _, d := range deps {
			if d.Kind == kind {
				byPlatform[d.Platform] = append(byPlatform[d.Platform], d)
			}
		}
		platforms := make([]string, 0, len(byPlatform))
		for p := range byPlatform {
			platforms = append(platforms, p)
		}
		sort.Strings(platforms)

		for _, p := range platforms {
			group := append([]manifest.Dependency(nil), byPlatform[p]...)
			sort.SliceStable(group, func(i, j int) bool { return group[i].Name < group[j].Name })
			header := kind.TableName()
			if p != "" {
				header = "target." + Quote(p) + "." + header
			}
			groups = append(groups, depGroup{header: header, deps: group})
		}
	}
	return groups
}

func (r *renderer) dependencies() {
	for _, g := range dependencyGroups(r.m.Dependencies) {
		r.w.table(g.header)
		for _, d := range g.deps {
			r.entry(g.header, d.Name, r.dependencyValue(d))
		}
	}
}

func needsTable(d manifest.Dependency) bool {
	return d.Source.Kind != manifest.SourceRegistry ||
		d.IsRenamed() ||
		!d.DefaultFeatures ||
		len(d.Features) > 0 ||
		d.Optional
}

func (r *renderer) dependencyValue(d manifest.Dependency) string {
	if !needsTable(d) {
		return FormatVersionReq(d.Req)
	}

	var fields []string
	add := func(key, value string) {
		fields = append(fields, key+" = "+value)
	}
	if d.IsRenamed() {
		add("package", Quote(d.Package))
	}
	switch d.Source.Kind {
	case manifest.SourcePath:
		add("path", Quote(RelPath(r.m.Root, d.Source.Path)))
	case manifest.SourceGit:
		add("git", Quote(d.Source.Git))
		switch {
		case d.Source.Tag != "":
			add("tag", Quote(d.Source.Tag))
		case d.Source.Branch != "":
			if d.Source.Branch != manifest.DefaultBranch {
				add("branch", Quote(d.Source.Branch))
			}
		case d.Source.Rev != "":
			add("rev", Quote(d.Source.Rev))
		}
	}
	if d.Req != "" && d.Req != manifest.WildcardReq {
		add("version", FormatVersionReq(d.Req))
	}
	if !d.DefaultFeatures {
		add("default-features", "false")
	}
	if len(d.Features) > 0 {
		add("features", flatArray(quoteAll(d.Features)))
	}
	if d.Optional {
		add("optional", "true")
	}
	if len(fields) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(fields, ", ") + " }"
}

func (r *renderer) features() {
	if len(r.m.Features) == 0 {
		return
	}
	const t = "features"
	r.w.table(t)
	for _, f := range r.m.Features {
		specs := make([]string, len(f.Activate))
		for i, s := range f.Activate {
			specs[i] = Quote(manifest.StripDepPrefix(s))
		}
		r.entry(t, f.Name, flatArray(specs))
	}
}
