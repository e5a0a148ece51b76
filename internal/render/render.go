package render

import (
	"bytes"
	"io"

	"github.com/quantmind-br/cargofmt/internal/comments"
	"github.com/quantmind-br/cargofmt/internal/manifest"
)

// Render writes m in canonical form to out, re-attaching the recovered
// comments. The first write error aborts the render and is returned as is.
func Render(out io.Writer, m *manifest.Manifest, c comments.Map) error {
	r := &renderer{w: &writer{out: out}, m: m, comments: c}
	r.packageTable()
	r.metadata([]string{"package", "metadata"}, m.Metadata)
	r.targets()
	r.dependencies()
	r.features()
	return r.w.err
}

// Bytes renders m into a fresh buffer.
func Bytes(m *manifest.Manifest, c comments.Map) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, m, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type renderer struct {
	w        *writer
	m        *manifest.Manifest
	comments comments.Map
}

func (r *renderer) entry(table, key, value string) {
	r.w.keyValue(r.comments.Lookup(table, key), Key(key), value)
}

func (r *renderer) optString(table, key, value string) {
	if value != "" {
		r.entry(table, key, Quote(value))
	}
}

func (r *renderer) optList(table, key string, items []string) {
	if len(items) > 0 {
		r.entry(table, key, listValue(items))
	}
}
