package output

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/quantmind-br/cargofmt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetrierOptions {
	return RetrierOptions{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	}
}

func TestAtomicWriter_Write(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces existing file and keeps mode", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "Cargo.toml")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0600))

		w := NewAtomicWriter(WriterOptions{Retry: fastRetry()})
		require.NoError(t, w.Write(ctx, path, []byte("new")))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("creates missing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "Cargo.toml")

		w := NewAtomicWriter(WriterOptions{})
		require.NoError(t, w.Write(ctx, path, []byte("content")))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "Cargo.toml")

		w := NewAtomicWriter(WriterOptions{})
		require.NoError(t, w.Write(ctx, path, []byte("a")))
		require.NoError(t, w.Write(ctx, path, []byte("b")))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "Cargo.toml", entries[0].Name())
	})

	t.Run("missing directory fails with ErrWriteFailed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope", "Cargo.toml")

		err := NewAtomicWriter(WriterOptions{}).Write(ctx, path, []byte("x"))

		assert.ErrorIs(t, err, domain.ErrWriteFailed)
	})

	t.Run("rename onto a directory fails and cleans up", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "Cargo.toml")
		require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0755))

		err := NewAtomicWriter(WriterOptions{Retry: fastRetry()}).Write(ctx, target, []byte("x"))

		assert.ErrorIs(t, err, domain.ErrWriteFailed)
		entries, readErr := os.ReadDir(dir)
		require.NoError(t, readErr)
		assert.Len(t, entries, 1)
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "Cargo.toml")

		require.NoError(t, NewAtomicWriter(WriterOptions{DryRun: true}).Write(ctx, path, []byte("x")))

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := NewAtomicWriter(WriterOptions{}).Write(cancelled, filepath.Join(t.TempDir(), "Cargo.toml"), nil)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetrier_Retry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		err := NewRetrier(fastRetry()).Retry(ctx, func() error {
			calls++
			if calls < 3 {
				return syscall.EBUSY
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		perm := errors.New("permission denied")
		calls := 0
		err := NewRetrier(fastRetry()).Retry(ctx, func() error {
			calls++
			return perm
		})

		assert.ErrorIs(t, err, perm)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := NewRetrier(fastRetry()).Retry(ctx, func() error {
			calls++
			return syscall.EBUSY
		})

		assert.ErrorIs(t, err, syscall.EBUSY)
		assert.Equal(t, 4, calls)
	})
}

func TestNewRetrier_Defaults(t *testing.T) {
	r := NewRetrier(RetrierOptions{})
	def := DefaultRetrierOptions()

	assert.Equal(t, def.MaxRetries, r.maxRetries)
	assert.Equal(t, def.InitialInterval, r.initialInterval)
	assert.Equal(t, def.MaxInterval, r.maxInterval)
	assert.Equal(t, def.Multiplier, r.multiplier)
}
