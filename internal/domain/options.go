package domain

// FormatOptions contains the per-run switches shared by the CLI and the formatter.
type FormatOptions struct {
	Check       bool
	Stdout      bool
	ChangedOnly bool
	Verify      bool
	NoCache     bool
	Workers     int
}

// DefaultFormatOptions returns FormatOptions with default values.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{Verify: true}
}
