package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/quantmind-br/cargofmt/internal/domain"
	"gopkg.in/yaml.v3"
)

// Format selects the report encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a report format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", domain.NewValidationError("format", fmt.Sprintf("unknown report format %q (want text, json or yaml)", s))
	}
}

// ReportOptions controls the text report
type ReportOptions struct {
	Color bool
	// Verbose lists unchanged manifests too
	Verbose bool
}

type report struct {
	Results []domain.Result `json:"results" yaml:"results"`
	Summary domain.Summary  `json:"summary" yaml:"summary"`
}

// Report writes results in the given format
func Report(w io.Writer, results []domain.Result, format Format, opts ReportOptions) error {
	doc := report{Results: results, Summary: domain.Summarize(results)}
	if doc.Results == nil {
		doc.Results = []domain.Result{}
	}

	if format == FormatJSON || format == FormatYAML {
		return Encode(w, doc, format)
	}
	return textReport(w, doc, opts)
}

// Encode writes v as indented JSON or YAML
func Encode(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return domain.NewValidationError("format", fmt.Sprintf("%q is not a structured format", format))
	}
}

func textReport(w io.Writer, doc report, opts ReportOptions) error {
	paint := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	styles := map[domain.Status]func(a ...interface{}) string{
		domain.StatusUnchanged:   paint(color.Faint),
		domain.StatusFormatted:   paint(color.FgGreen),
		domain.StatusNeedsFormat: paint(color.FgYellow, color.Bold),
		domain.StatusPrinted:     paint(color.FgCyan),
		domain.StatusSkipped:     paint(color.FgMagenta),
		domain.StatusFailed:      paint(color.FgRed, color.Bold),
	}

	var b strings.Builder
	for _, r := range doc.Results {
		if r.Status == domain.StatusUnchanged && !opts.Verbose {
			continue
		}
		label := fmt.Sprintf("%-12s", r.Status)
		if style, ok := styles[r.Status]; ok {
			label = style(label)
		}
		fmt.Fprintf(&b, "%s %s", label, r.Path)
		if r.Reason != "" {
			fmt.Fprintf(&b, ": %s", r.Reason)
		}
		b.WriteByte('\n')
	}

	s := doc.Summary
	parts := []string{fmt.Sprintf("%d manifest(s)", s.Total)}
	counts := []struct {
		n     int
		label string
	}{
		{s.Formatted, "formatted"},
		{s.NeedsFormat, "need formatting"},
		{s.Unchanged, "unchanged"},
		{s.Printed, "printed"},
		{s.Skipped, "skipped"},
		{s.Failed, "failed"},
	}
	for _, c := range counts {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.label))
		}
	}
	line := strings.Join(parts, ", ")
	if s.CacheHits > 0 {
		line += fmt.Sprintf(" (%d from cache)", s.CacheHits)
	}
	b.WriteString(line)
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}
