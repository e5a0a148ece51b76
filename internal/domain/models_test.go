package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSummarize(t *testing.T) {
	results := []Result{
		{Path: "a", Status: StatusUnchanged, CacheHit: true},
		{Path: "b", Status: StatusFormatted},
		{Path: "c", Status: StatusNeedsFormat},
		{Path: "d", Status: StatusSkipped, Reason: "workspace"},
		{Path: "e", Status: StatusFailed, Err: errors.New("boom")},
		{Path: "f", Status: StatusPrinted, CacheHit: true},
	}

	s := Summarize(results)

	assert.Equal(t, Summary{
		Total:       6,
		Unchanged:   1,
		Formatted:   1,
		NeedsFormat: 1,
		Printed:     1,
		Skipped:     1,
		Failed:      1,
		CacheHits:   2,
	}, s)
}

func TestSummary_OK(t *testing.T) {
	tests := []struct {
		name     string
		summary  Summary
		check    bool
		expected bool
	}{
		{"all clean", Summary{Total: 2, Unchanged: 2}, true, true},
		{"needs format in check mode", Summary{Total: 1, NeedsFormat: 1}, true, false},
		{"needs format outside check mode", Summary{Total: 1, NeedsFormat: 1}, false, true},
		{"failure", Summary{Total: 1, Failed: 1}, false, false},
		{"skipped is fine", Summary{Total: 1, Skipped: 1}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.summary.OK(tt.check))
		})
	}
}

func TestResult_FieldTags(t *testing.T) {
	r := Result{
		Path:     "/w/Cargo.toml",
		Status:   StatusSkipped,
		Reason:   "unsupported",
		Duration: time.Second,
		Output:   []byte("x"),
		Err:      errors.New("hidden"),
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/w/Cargo.toml","status":"skipped","cache_hit":false,"reason":"unsupported"}`, string(data))

	out, err := yaml.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), "status: skipped")
	assert.NotContains(t, string(out), "hidden")
}

func TestDefaultFormatOptions(t *testing.T) {
	opts := DefaultFormatOptions()

	assert.True(t, opts.Verify)
	assert.False(t, opts.Check)
	assert.False(t, opts.Stdout)
	assert.Zero(t, opts.Workers)
}
