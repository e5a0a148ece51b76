package render

import "github.com/quantmind-br/cargofmt/internal/manifest"

func (r *renderer) packageTable() {
	const t = "package"
	m := r.m

	r.w.table(t)
	r.entry(t, "name", Quote(m.Name))
	r.optString(t, "description", m.Description)
	r.entry(t, "version", Quote(m.Version))
	r.optList(t, "authors", m.Authors)
	r.optList(t, "keywords", m.Keywords)
	r.optList(t, "categories", m.Categories)
	r.optString(t, "license", m.License)
	r.optString(t, "license-file", m.LicenseFile)
	if m.Readme != manifest.DefaultReadme {
		r.optString(t, "readme", m.Readme)
	}
	r.optString(t, "homepage", m.Homepage)
	r.optString(t, "repository", m.Repository)
	r.optString(t, "documentation", m.Documentation)
	r.optList(t, "exclude", m.Exclude)
	r.optList(t, "include", m.Include)
	r.optString(t, "links", m.Links)
	r.optString(t, "edition", m.Edition)
	if m.Publish != nil {
		if len(m.Publish.Registries) == 0 {
			r.entry(t, "publish", "false")
		} else {
			r.entry(t, "publish", listValue(m.Publish.Registries))
		}
	}
	r.optString(t, "default-run", m.DefaultRun)

	autoFlags := []struct {
		key string
		on  bool
	}{
		{"autobenches", m.AutoBenches},
		{"autobins", m.AutoBins},
		{"autoexamples", m.AutoExamples},
		{"autotests", m.AutoTests},
	}
	for _, f := range autoFlags {
		if !f.on {
			r.entry(t, f.key, "false")
		}
	}

	if bs, ok := m.BuildScript(); ok {
		if rel := RelPath(m.Root, bs.SrcPath); rel != manifest.DefaultBuildScript {
			r.entry(t, "build", Quote(rel))
		}
	}
}

// metadata flattens nested tables into dotted headers. A table's own
// entries come first, then its sub-tables in order; a table with no entries
// of its own gets no header.
func (r *renderer) metadata(path []string, tbl manifest.Table) {
	var scalars []manifest.Entry
	var subs []manifest.Entry
	for _, e := range tbl {
		if _, ok := e.Value.(manifest.Table); ok {
			subs = append(subs, e)
		} else {
			scalars = append(scalars, e)
		}
	}

	if len(scalars) > 0 {
		header := dottedKey(path)
		r.w.table(header)
		for _, e := range scalars {
			key := Key(e.Key)
			r.w.keyValue(r.comments.Lookup(header, e.Key), key, metadataValue(key, e.Value))
		}
	}
	for _, e := range subs {
		r.metadata(append(path[:len(path):len(path)], e.Key), e.Value.(manifest.Table))
	}
}
