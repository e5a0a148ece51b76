package domain

import "time"

// Status is the outcome of formatting one manifest
type Status string

const (
	// StatusUnchanged means the manifest was already canonical
	StatusUnchanged Status = "unchanged"
	// StatusFormatted means the manifest was rewritten in place
	StatusFormatted Status = "formatted"
	// StatusNeedsFormat means check mode found a difference
	StatusNeedsFormat Status = "needs-format"
	// StatusPrinted means the canonical form went to stdout
	StatusPrinted Status = "printed"
	// StatusSkipped means the manifest holds content that cannot be reproduced
	StatusSkipped Status = "skipped"
	// StatusFailed means processing the manifest failed
	StatusFailed Status = "failed"
)

// Result describes what happened to one manifest
type Result struct {
	Path     string        `json:"path" yaml:"path"`
	Status   Status        `json:"status" yaml:"status"`
	CacheHit bool          `json:"cache_hit" yaml:"cache_hit"`
	Duration time.Duration `json:"-" yaml:"-"`
	Reason   string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Output   []byte        `json:"-" yaml:"-"` // Canonical text, set in stdout mode
	Err      error         `json:"-" yaml:"-"`
}

// Summary aggregates a run's results
type Summary struct {
	Total       int `json:"total" yaml:"total"`
	Unchanged   int `json:"unchanged" yaml:"unchanged"`
	Formatted   int `json:"formatted" yaml:"formatted"`
	NeedsFormat int `json:"needs_format" yaml:"needs_format"`
	Printed     int `json:"printed" yaml:"printed"`
	Skipped     int `json:"skipped" yaml:"skipped"`
	Failed      int `json:"failed" yaml:"failed"`
	CacheHits   int `json:"cache_hits" yaml:"cache_hits"`
}

// Summarize counts results by status
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusUnchanged:
			s.Unchanged++
		case StatusFormatted:
			s.Formatted++
		case StatusNeedsFormat:
			s.NeedsFormat++
		case StatusPrinted:
			s.Printed++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		if r.CacheHit {
			s.CacheHits++
		}
	}
	return s
}

// OK reports whether the run should exit successfully in the given mode
func (s Summary) OK(check bool) bool {
	if s.Failed > 0 {
		return false
	}
	return !check || s.NeedsFormat == 0
}

// CacheStats describes the render cache contents
type CacheStats struct {
	Directory string `json:"directory" yaml:"directory"`
	Entries   int    `json:"entries" yaml:"entries"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
}
