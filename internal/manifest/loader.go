package manifest

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Loader loads Cargo.toml files into the structured model
type Loader struct{}

// NewLoader creates a new manifest loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and decodes a manifest file. The raw source is returned with
// the model so callers can recover comments from it.
func (l *Loader) Load(path string) (*Manifest, []byte, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve manifest directory: %w", err)
	}

	m, err := l.LoadFromBytes(root, data)
	if err != nil {
		return nil, data, err
	}
	return m, data, nil
}

// LoadFromBytes decodes manifest source whose package root is root.
func (l *Loader) LoadFromBytes(root string, data []byte) (*Manifest, error) {
	var raw map[string]any
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	d := &decoder{root: root, order: keyOrder(meta)}
	return d.decode(raw)
}

// NormalizeReq spells a version requirement the way semver displays it: a
// bare version gets the implicit caret and an empty requirement becomes the
// wildcard.
func NormalizeReq(req string) string {
	req = strings.TrimSpace(req)
	if req == "" {
		return WildcardReq
	}
	if c := req[0]; c >= '0' && c <= '9' {
		return "^" + req
	}
	return req
}

var topLevelSections = map[string]bool{
	"package":            true,
	"lib":                true,
	"bin":                true,
	"example":            true,
	"test":               true,
	"bench":              true,
	"dependencies":       true,
	"dev-dependencies":   true,
	"dev_dependencies":   true,
	"build-dependencies": true,
	"build_dependencies": true,
	"target":             true,
	"features":           true,
}

var packageKeys = map[string]bool{
	"name": true, "version": true, "description": true, "authors": true,
	"keywords": true, "categories": true, "license": true, "license-file": true,
	"readme": true, "homepage": true, "repository": true, "documentation": true,
	"exclude": true, "include": true, "links": true, "edition": true,
	"publish": true, "default-run": true, "autobenches": true, "autobins": true,
	"autoexamples": true, "autotests": true, "build": true, "metadata": true,
}

var targetKeys = map[string]bool{
	"name": true, "path": true, "harness": true, "doc": true,
	"proc-macro": true, "crate-type": true,
}

var dependencyKeys = map[string]bool{
	"version": true, "path": true, "git": true, "branch": true, "tag": true,
	"rev": true, "package": true, "default-features": true,
	"default_features": true, "features": true, "optional": true,
}

var depSections = []struct {
	names []string
	kind  DepKind
}{
	{[]string{"dependencies"}, DepNormal},
	{[]string{"dev-dependencies", "dev_dependencies"}, DepDevelopment},
	{[]string{"build-dependencies", "build_dependencies"}, DepBuild},
}

type decoder struct {
	root  string
	order map[string]int
}

// keyOrder indexes every key path, and every prefix of it, by the position
// it first appears in the source.
func keyOrder(meta toml.MetaData) map[string]int {
	order := make(map[string]int)
	for i, key := range meta.Keys() {
		for n := 1; n <= len(key); n++ {
			p := strings.Join(key[:n], "\x00")
			if _, seen := order[p]; !seen {
				order[p] = i
			}
		}
	}
	return order
}

// keys returns the keys of tbl in source order; keys the metadata does not
// know about sort last, alphabetically.
func (d *decoder) keys(tbl map[string]any, path ...string) []string {
	prefix := strings.Join(path, "\x00")
	pos := func(k string) int {
		p := k
		if prefix != "" {
			p = prefix + "\x00" + k
		}
		if i, ok := d.order[p]; ok {
			return i
		}
		return math.MaxInt
	}

	out := make([]string, 0, len(tbl))
	for k := range tbl {
		out = append(out, k)
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := pos(out[i]), pos(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i] < out[j]
	})
	return out
}

func (d *decoder) decode(raw map[string]any) (*Manifest, error) {
	for _, k := range d.keys(raw) {
		if !topLevelSections[k] {
			return nil, fmt.Errorf("%w: section [%s]", ErrUnsupported, k)
		}
	}

	pkgRaw, ok := raw["package"]
	if !ok {
		return nil, ErrNoPackage
	}
	pkg, ok := pkgRaw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: package must be a table", ErrInvalidField)
	}

	m, err := d.decodePackage(pkg)
	if err != nil {
		return nil, err
	}
	if err := d.decodeTargets(raw, pkg, m); err != nil {
		return nil, err
	}
	if err := d.decodeDependencies(raw, m); err != nil {
		return nil, err
	}
	if err := d.decodeFeatures(raw, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (d *decoder) decodePackage(pkg map[string]any) (*Manifest, error) {
	for _, k := range d.keys(pkg, "package") {
		if !packageKeys[k] {
			return nil, fmt.Errorf("%w: package.%s", ErrUnsupported, k)
		}
	}

	name, err := str(pkg, "name", "package")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: package.name is required", ErrInvalidField)
	}
	version, err := str(pkg, "version", "package")
	if err != nil {
		return nil, err
	}
	if version == "" {
		version = "0.0.0"
	}

	m := New(d.root, name, version)

	strFields := []struct {
		key string
		dst *string
	}{
		{"description", &m.Description},
		{"license", &m.License},
		{"license-file", &m.LicenseFile},
		{"readme", &m.Readme},
		{"homepage", &m.Homepage},
		{"repository", &m.Repository},
		{"documentation", &m.Documentation},
		{"links", &m.Links},
		{"edition", &m.Edition},
		{"default-run", &m.DefaultRun},
	}
	for _, f := range strFields {
		v, err := str(pkg, f.key, "package")
		if err != nil {
			return nil, err
		}
		if v != "" {
			*f.dst = v
		}
	}

	listFields := []struct {
		key string
		dst *[]string
	}{
		{"authors", &m.Authors},
		{"keywords", &m.Keywords},
		{"categories", &m.Categories},
		{"exclude", &m.Exclude},
		{"include", &m.Include},
	}
	for _, f := range listFields {
		v, err := strs(pkg, f.key, "package")
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	boolFields := []struct {
		key string
		dst *bool
	}{
		{"autobenches", &m.AutoBenches},
		{"autobins", &m.AutoBins},
		{"autoexamples", &m.AutoExamples},
		{"autotests", &m.AutoTests},
	}
	for _, f := range boolFields {
		v, err := boolean(pkg, f.key, "package", true)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	switch v := pkg["publish"].(type) {
	case nil:
	case bool:
		if !v {
			m.Publish = &Publish{}
		}
	case []any:
		regs, err := strs(pkg, "publish", "package")
		if err != nil {
			return nil, err
		}
		m.Publish = &Publish{Registries: regs}
	default:
		return nil, fmt.Errorf("%w: package.publish must be a boolean or an array", ErrInvalidField)
	}

	if md, ok := pkg["metadata"]; ok {
		tbl, ok := md.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: package.metadata must be a table", ErrInvalidField)
		}
		m.Metadata = d.table(tbl, "package", "metadata")
	}

	return m, nil
}

// table converts a decoded map into an ordered Table.
func (d *decoder) table(tbl map[string]any, path ...string) Table {
	out := make(Table, 0, len(tbl))
	for _, k := range d.keys(tbl, path...) {
		sub := append(append([]string(nil), path...), k)
		out = append(out, Entry{Key: k, Value: d.value(tbl[k], sub)})
	}
	return out
}

func (d *decoder) value(v any, path []string) any {
	switch v := v.(type) {
	case map[string]any:
		return d.table(v, path...)
	case []map[string]any:
		out := make([]any, len(v))
		for i, t := range v {
			out[i] = d.table(t, path...)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = d.value(e, path)
		}
		return out
	case time.Time:
		return formatDatetime(v)
	case int64, float64, bool, string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (d *decoder) decodeTargets(raw, pkg map[string]any, m *Manifest) error {
	if lib, ok := raw["lib"]; ok {
		tbl, ok := lib.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: lib must be a table", ErrInvalidField)
		}
		t, err := d.target(tbl, KindLib, "lib", m)
		if err != nil {
			return err
		}
		m.Targets = append(m.Targets, t)
	} else if d.exists(DefaultLibPath) {
		m.Targets = append(m.Targets, Target{
			Kind:    KindLib,
			Name:    LibName(m.Name),
			SrcPath: d.abs(DefaultLibPath),
			Harness: true,
			Doc:     true,
		})
	}

	groups := []struct {
		section string
		kind    TargetKind
		auto    bool
	}{
		{"bin", KindBin, m.AutoBins},
		{"example", KindExample, m.AutoExamples},
		{"test", KindTest, m.AutoTests},
		{"bench", KindBench, m.AutoBenches},
	}
	for _, g := range groups {
		declared, err := d.targetArray(raw, g.section, g.kind, m)
		if err != nil {
			return err
		}
		m.Targets = append(m.Targets, declared...)
		if g.auto {
			m.Targets = append(m.Targets, d.discover(g.kind, m, declared)...)
		}
	}

	switch b := pkg["build"].(type) {
	case nil:
		if d.exists(DefaultBuildScript) {
			m.Targets = append(m.Targets, buildTarget(d.abs(DefaultBuildScript)))
		}
	case string:
		m.Targets = append(m.Targets, buildTarget(d.abs(b)))
	case bool:
		if b {
			m.Targets = append(m.Targets, buildTarget(d.abs(DefaultBuildScript)))
		}
	default:
		return fmt.Errorf("%w: package.build must be a string or boolean", ErrInvalidField)
	}
	return nil
}

func buildTarget(path string) Target {
	return Target{Kind: KindCustomBuild, Name: "build-script-build", SrcPath: path, Harness: true}
}

func (d *decoder) targetArray(raw map[string]any, section string, kind TargetKind, m *Manifest) ([]Target, error) {
	v, ok := raw[section]
	if !ok {
		return nil, nil
	}
	var tables []map[string]any
	switch v := v.(type) {
	case []map[string]any:
		tables = v
	case []any:
		for _, e := range v {
			t, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s entries must be tables", ErrInvalidField, section)
			}
			tables = append(tables, t)
		}
	default:
		return nil, fmt.Errorf("%w: %s must be an array of tables", ErrInvalidField, section)
	}

	out := make([]Target, 0, len(tables))
	for _, tbl := range tables {
		t, err := d.target(tbl, kind, section, m)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (d *decoder) target(tbl map[string]any, kind TargetKind, section string, m *Manifest) (Target, error) {
	for k := range tbl {
		if !targetKeys[k] {
			return Target{}, fmt.Errorf("%w: %s.%s", ErrUnsupported, section, k)
		}
	}

	name, err := str(tbl, "name", section)
	if err != nil {
		return Target{}, err
	}
	if name == "" {
		if kind != KindLib {
			return Target{}, fmt.Errorf("%w: %s.name is required", ErrInvalidField, section)
		}
		name = LibName(m.Name)
	}

	t := Target{Kind: kind, Name: name}
	if t.Harness, err = boolean(tbl, "harness", section, true); err != nil {
		return Target{}, err
	}
	if t.Doc, err = boolean(tbl, "doc", section, true); err != nil {
		return Target{}, err
	}

	crateTypes, err := strs(tbl, "crate-type", section)
	if err != nil {
		return Target{}, err
	}
	for _, ct := range crateTypes {
		switch ct {
		case "lib", "rlib":
		case CrateTypeProcMacro:
			t.CrateTypes = append(t.CrateTypes, ct)
		default:
			return Target{}, fmt.Errorf("%w: %s.crate-type %q", ErrUnsupported, section, ct)
		}
	}
	procMacro, err := boolean(tbl, "proc-macro", section, false)
	if err != nil {
		return Target{}, err
	}
	if procMacro && !t.IsProcMacro() {
		t.CrateTypes = append(t.CrateTypes, CrateTypeProcMacro)
	}
	if len(t.CrateTypes) > 0 && kind != KindLib && kind != KindExample {
		return Target{}, fmt.Errorf("%w: %s cannot be a proc-macro", ErrUnsupported, section)
	}

	path, err := str(tbl, "path", section)
	if err != nil {
		return Target{}, err
	}
	if path == "" {
		path = d.inferPath(kind, name, m.Name)
	}
	t.SrcPath = d.abs(path)
	return t, nil
}

// inferPath picks the first conventional path that exists, falling back to
// the first candidate.
func (d *decoder) inferPath(kind TargetKind, name, pkgName string) string {
	candidates := ConventionalPaths(kind, name)
	if kind == KindBin {
		// src/main.rs belongs to the binary named after the package, and
		// is only tried after the src/bin candidates.
		candidates = candidates[1:]
		if name == pkgName {
			candidates = append(candidates, DefaultMainPath)
		}
	}
	for _, c := range candidates {
		if d.exists(c) {
			return c
		}
	}
	if kind == KindBin && name == pkgName {
		return DefaultMainPath
	}
	return candidates[0]
}

// discover finds targets of kind that are not declared explicitly.
func (d *decoder) discover(kind TargetKind, m *Manifest, declared []Target) []Target {
	taken := make(map[string]bool)
	for _, t := range declared {
		taken[t.Name] = true
		taken[t.SrcPath] = true
	}

	var found []Target
	add := func(name, rel string) {
		p := d.abs(rel)
		if taken[name] || taken[p] {
			return
		}
		taken[name] = true
		taken[p] = true
		found = append(found, Target{Kind: kind, Name: name, SrcPath: p, Harness: true, Doc: true})
	}

	if kind == KindBin && d.exists(DefaultMainPath) {
		add(m.Name, DefaultMainPath)
	}

	dir, ok := TargetDir(kind)
	if !ok {
		return found
	}
	entries, err := os.ReadDir(filepath.Join(d.root, filepath.FromSlash(dir)))
	if err != nil {
		return found
	}
	var names []string
	paths := make(map[string]string)
	for _, e := range entries {
		switch {
		case e.IsDir():
			rel := dir + "/" + e.Name() + "/main.rs"
			if d.exists(rel) {
				names = append(names, e.Name())
				paths[e.Name()] = rel
			}
		case strings.HasSuffix(e.Name(), ".rs"):
			name := strings.TrimSuffix(e.Name(), ".rs")
			names = append(names, name)
			paths[name] = dir + "/" + e.Name()
		}
	}
	sort.Strings(names)
	for _, name := range names {
		add(name, paths[name])
	}
	return found
}

func (d *decoder) decodeDependencies(raw map[string]any, m *Manifest) error {
	for _, sec := range depSections {
		for _, name := range sec.names {
			if err := d.depTable(raw, name, sec.kind, "", []string{name}, m); err != nil {
				return err
			}
		}
	}

	tv, ok := raw["target"]
	if !ok {
		return nil
	}
	targets, ok := tv.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: target must be a table", ErrInvalidField)
	}
	for _, platform := range d.keys(targets, "target") {
		ptbl, ok := targets[platform].(map[string]any)
		if !ok {
			return fmt.Errorf("%w: target.%s must be a table", ErrInvalidField, platform)
		}
		known := make(map[string]bool)
		for _, sec := range depSections {
			for _, name := range sec.names {
				known[name] = true
				path := []string{"target", platform, name}
				if err := d.depTable(ptbl, name, sec.kind, platform, path, m); err != nil {
					return err
				}
			}
		}
		for k := range ptbl {
			if !known[k] {
				return fmt.Errorf("%w: target.%s.%s", ErrUnsupported, platform, k)
			}
		}
	}
	return nil
}

func (d *decoder) depTable(parent map[string]any, section string, kind DepKind, platform string, path []string, m *Manifest) error {
	v, ok := parent[section]
	if !ok {
		return nil
	}
	tbl, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %s must be a table", ErrInvalidField, strings.Join(path, "."))
	}
	for _, name := range d.keys(tbl, path...) {
		dep, err := d.dependency(name, tbl[name], strings.Join(path, "."))
		if err != nil {
			return err
		}
		dep.Kind = kind
		dep.Platform = platform
		m.Dependencies = append(m.Dependencies, dep)
	}
	return nil
}

func (d *decoder) dependency(name string, v any, where string) (Dependency, error) {
	dep := Dependency{Name: name, DefaultFeatures: true}
	where = where + "." + name

	switch v := v.(type) {
	case string:
		dep.Req = NormalizeReq(v)
		return dep, nil
	case map[string]any:
		for k := range v {
			if !dependencyKeys[k] {
				return Dependency{}, fmt.Errorf("%w: %s.%s", ErrUnsupported, where, k)
			}
		}

		var err error
		fields := []struct {
			key string
			dst *string
		}{
			{"package", &dep.Package},
			{"git", &dep.Source.Git},
			{"branch", &dep.Source.Branch},
			{"tag", &dep.Source.Tag},
			{"rev", &dep.Source.Rev},
		}
		for _, f := range fields {
			if *f.dst, err = str(v, f.key, where); err != nil {
				return Dependency{}, err
			}
		}

		req, err := str(v, "version", where)
		if err != nil {
			return Dependency{}, err
		}
		dep.Req = NormalizeReq(req)

		path, err := str(v, "path", where)
		if err != nil {
			return Dependency{}, err
		}
		switch {
		case path != "":
			dep.Source.Kind = SourcePath
			dep.Source.Path = d.abs(path)
		case dep.Source.Git != "":
			dep.Source.Kind = SourceGit
		}

		defaultKey := "default-features"
		if _, ok := v[defaultKey]; !ok {
			defaultKey = "default_features"
		}
		if dep.DefaultFeatures, err = boolean(v, defaultKey, where, true); err != nil {
			return Dependency{}, err
		}
		if dep.Features, err = strs(v, "features", where); err != nil {
			return Dependency{}, err
		}
		if dep.Optional, err = boolean(v, "optional", where, false); err != nil {
			return Dependency{}, err
		}
		return dep, nil
	default:
		return Dependency{}, fmt.Errorf("%w: %s must be a string or a table", ErrInvalidField, where)
	}
}

func (d *decoder) decodeFeatures(raw map[string]any, m *Manifest) error {
	v, ok := raw["features"]
	if !ok {
		return nil
	}
	tbl, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: features must be a table", ErrInvalidField)
	}
	for _, name := range d.keys(tbl, "features") {
		specs, err := strs(tbl, name, "features")
		if err != nil {
			return err
		}
		m.Features = append(m.Features, Feature{Name: name, Activate: specs})
	}
	return nil
}

func (d *decoder) abs(rel string) string {
	p := filepath.FromSlash(rel)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(d.root, p)
}

func (d *decoder) exists(rel string) bool {
	info, err := os.Stat(d.abs(rel))
	return err == nil && !info.IsDir()
}

func str(tbl map[string]any, key, where string) (string, error) {
	switch v := tbl[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case map[string]any:
		if _, ok := v["workspace"]; ok {
			return "", fmt.Errorf("%w: %s.%s is inherited from the workspace", ErrUnsupported, where, key)
		}
	}
	return "", fmt.Errorf("%w: %s.%s must be a string", ErrInvalidField, where, key)
}

func strs(tbl map[string]any, key, where string) ([]string, error) {
	switch v := tbl[key].(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s must contain only strings", ErrInvalidField, where, key)
			}
			out = append(out, s)
		}
		return out, nil
	case map[string]any:
		if _, ok := v["workspace"]; ok {
			return nil, fmt.Errorf("%w: %s.%s is inherited from the workspace", ErrUnsupported, where, key)
		}
	}
	return nil, fmt.Errorf("%w: %s.%s must be an array of strings", ErrInvalidField, where, key)
}

func boolean(tbl map[string]any, key, where string, def bool) (bool, error) {
	switch v := tbl[key].(type) {
	case nil:
		return def, nil
	case bool:
		return v, nil
	}
	return false, fmt.Errorf("%w: %s.%s must be a boolean", ErrInvalidField, where, key)
}

// formatDatetime spells a decoded datetime the way it was written, keeping
// local dates and times local.
func formatDatetime(t time.Time) Datetime {
	switch t.Location().String() {
	case "datetime-local":
		return Datetime(t.Format("2006-01-02T15:04:05.999999999"))
	case "date-local":
		return Datetime(t.Format("2006-01-02"))
	case "time-local":
		return Datetime(t.Format("15:04:05.999999999"))
	}
	return Datetime(t.Format(time.RFC3339Nano))
}
