package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantmind-br/cargofmt/internal/domain"
)

// Ensure AtomicWriter implements domain.Writer
var _ domain.Writer = (*AtomicWriter)(nil)

// AtomicWriter replaces files through a temporary sibling and a rename, so
// readers never observe a half-written manifest.
type AtomicWriter struct {
	retrier *Retrier
	dryRun  bool
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	Retry  RetrierOptions
	DryRun bool
}

// NewAtomicWriter creates a new atomic writer
func NewAtomicWriter(opts WriterOptions) *AtomicWriter {
	return &AtomicWriter{
		retrier: NewRetrier(opts.Retry),
		dryRun:  opts.DryRun,
	}
}

// Write replaces path with data, keeping the original file mode. Failures
// wrap domain.ErrWriteFailed.
func (w *AtomicWriter) Write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.dryRun {
		return nil
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}

	err = w.retrier.Retry(ctx, func() error {
		return os.Rename(tmpName, path)
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrWriteFailed, err)
	}
	committed = true
	return nil
}
