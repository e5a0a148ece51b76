package utils

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Standard progress bar descriptions
const (
	DescFormatting = "Formatting"
	DescChecking   = "Checking"
)

// NewProgressBar creates a consistently styled progress bar drawn on out.
//
// Behavior:
//   - For unknown totals (total < 0): spinner mode.
//   - For known totals: count and iterations/second.
//   - The bar clears itself when finished so the report that follows starts
//     on a clean line.
//
// Example:
//
//	bar := utils.NewProgressBar(len(manifests), utils.DescFormatting, os.Stderr)
//	defer bar.Finish()
func NewProgressBar(total int, description string, out io.Writer) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	}

	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		opts = append(opts,
			progressbar.OptionShowIts(),
		)
	}

	return progressbar.NewOptions(total, opts...)
}
