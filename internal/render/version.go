package render

import "strings"

// FormatVersionReq spells a version requirement as a TOML string. Caret
// requirements of the form ^MAJOR[.MINOR[.PATCH]] become the fully dotted
// version, which Cargo reads as the same caret requirement; every other form
// is quoted literally.
func FormatVersionReq(req string) string {
	if v, ok := caretVersion(req); ok {
		return `"` + v + `"`
	}
	return Quote(req)
}

func caretVersion(req string) (string, bool) {
	rest, ok := strings.CutPrefix(req, "^")
	if !ok {
		return "", false
	}
	parts := strings.Split(rest, ".")
	if len(parts) > 3 {
		return "", false
	}
	for _, p := range parts {
		if p == "" || strings.Trim(p, "0123456789") != "" {
			return "", false
		}
	}
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return strings.Join(parts, "."), true
}
