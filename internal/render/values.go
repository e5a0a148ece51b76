package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/quantmind-br/cargofmt/internal/manifest"
)

const (
	// maxLineWidth is the longest metadata line kept on one line.
	maxLineWidth = 100
	indent       = "    "
)

// Quote spells s as a TOML string. Strings containing a double quote but no
// single quote use the literal form; everything else is a basic string with
// escapes.
func Quote(s string) string {
	if strings.Contains(s, `"`) && !strings.Contains(s, "'") && !hasControl(s) {
		return "'" + s + "'"
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			if isControl(r) {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// hasControl reports whether s holds a character a literal string cannot.
func hasControl(s string) bool {
	for _, r := range s {
		if isControl(r) && r != '\t' {
			return true
		}
	}
	return false
}

// Key spells a TOML key, bare when possible.
func Key(k string) string {
	if k == "" {
		return `""`
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return Quote(k)
		}
	}
	return k
}

// dottedKey joins path segments into a dotted key.
func dottedKey(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = Key(p)
	}
	return strings.Join(parts, ".")
}

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = Quote(s)
	}
	return out
}

// flatArray renders [a, b, c].
func flatArray(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

// prettyArray renders one element per line with trailing commas.
func prettyArray(items []string) string {
	var b strings.Builder
	b.WriteString("[\n")
	for _, it := range items {
		b.WriteString(indent)
		b.WriteString(it)
		b.WriteString(",\n")
	}
	b.WriteString("]")
	return b.String()
}

// listValue renders a string list that prefers the pretty layout once it
// holds more than one element.
func listValue(items []string) string {
	quoted := quoteAll(items)
	if len(quoted) > 1 {
		return prettyArray(quoted)
	}
	return flatArray(quoted)
}

// formatValue spells a metadata value on a single line.
func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat(v)
	case manifest.Datetime:
		return string(v)
	case []any:
		items := make([]string, len(v))
		for i, e := range v {
			items[i] = formatValue(e)
		}
		return flatArray(items)
	case manifest.Table:
		if len(v) == 0 {
			return "{}"
		}
		fields := make([]string, len(v))
		for i, e := range v {
			fields[i] = Key(e.Key) + " = " + formatValue(e.Value)
		}
		return "{ " + strings.Join(fields, ", ") + " }"
	default:
		return Quote(fmt.Sprint(v))
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// metadataValue renders a metadata value for the line "key = value": arrays
// move to the pretty layout when the flat line would exceed maxLineWidth.
func metadataValue(key string, v any) string {
	flat := formatValue(v)
	arr, ok := v.([]any)
	if !ok || len(arr) < 2 {
		return flat
	}
	if utf8.RuneCountInString(key+" = "+flat) <= maxLineWidth {
		return flat
	}
	items := make([]string, len(arr))
	for i, e := range arr {
		items[i] = formatValue(e)
	}
	return prettyArray(items)
}
