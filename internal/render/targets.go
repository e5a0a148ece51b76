package render

import "github.com/quantmind-br/cargofmt/internal/manifest"

var targetOrder = []manifest.TargetKind{
	manifest.KindBin,
	manifest.KindExample,
	manifest.KindTest,
	manifest.KindBench,
}

func (r *renderer) targets() {
	if lib, ok := r.m.Library(); ok {
		r.target(lib)
	}
	for _, kind := range targetOrder {
		for _, t := range r.m.TargetsOf(kind) {
			r.target(t)
		}
	}
}

type line struct {
	key, value string
}

func (r *renderer) target(t manifest.Target) {
	rel := RelPath(r.m.Root, t.SrcPath)
	inf := InferTarget(t, r.m.Name, rel)

	var body []line
	if t.Kind == manifest.KindLib && t.IsProcMacro() {
		body = append(body, line{"proc-macro", "true"})
	}
	if !inf.OmitPath {
		body = append(body, line{"path", Quote(rel)})
	}
	if !t.Harness {
		body = append(body, line{"harness", "false"})
	}
	if t.Kind == manifest.KindLib && !t.Doc {
		body = append(body, line{"doc", "false"})
	}
	if len(body) == 0 {
		return
	}

	if !inf.OmitName {
		body = append([]line{{"name", Quote(t.Name)}}, body...)
	}

	table := t.Kind.String()
	if t.Kind == manifest.KindLib {
		r.w.table(table)
		for _, l := range body {
			r.entry(table, l.key, l.value)
		}
		return
	}

	// Every [[bin]] entry shares the qualified key "[bin].<key>", so a
	// recovered comment cannot be told apart between entries.
	r.w.arrayTable(table)
	for _, l := range body {
		r.w.keyValue("", Key(l.key), l.value)
	}
}
