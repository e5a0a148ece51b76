package cache

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/quantmind-br/cargofmt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryCache(t *testing.T) *BadgerCache {
	t.Helper()
	c, err := NewBadgerCache(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.False(t, opts.InMemory)
	assert.False(t, opts.Logger)
	assert.Equal(t, DefaultDirectory(), opts.Directory)
}

func TestDefaultDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".cargofmt", "cache"), DefaultDirectory())
}

func TestGenerateKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, GenerateKey([]byte("a")), GenerateKey([]byte("a")))
	})

	t.Run("sha256 hex length", func(t *testing.T) {
		assert.Len(t, GenerateKey([]byte("a")), 64)
	})

	t.Run("part boundaries matter", func(t *testing.T) {
		assert.NotEqual(t,
			GenerateKey([]byte("ab"), []byte("c")),
			GenerateKey([]byte("a"), []byte("bc")),
		)
	})
}

func TestRenderKey(t *testing.T) {
	src := []byte("[package]\nname = \"x\"\n")
	base := RenderKey("1.0.0", "/w/Cargo.toml", src)

	assert.Contains(t, base, PrefixRender+":")
	assert.Equal(t, base, RenderKey("1.0.0", "/w/./Cargo.toml", src))
	assert.NotEqual(t, base, RenderKey("1.0.1", "/w/Cargo.toml", src))
	assert.NotEqual(t, base, RenderKey("1.0.0", "/v/Cargo.toml", src))
	assert.NotEqual(t, base, RenderKey("1.0.0", "/w/Cargo.toml", append(src, '\n')))
}

func TestCodec(t *testing.T) {
	value := bytes.Repeat([]byte("[dependencies]\nserde = \"1.0.0\"\n"), 100)

	packed, err := compress(value)
	require.NoError(t, err)
	assert.Less(t, len(packed), len(value))

	unpacked, err := decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, value, unpacked)

	_, err = decompress([]byte("not zstd"))
	assert.Error(t, err)
}

func TestNewBadgerCache(t *testing.T) {
	t.Run("creates in-memory cache", func(t *testing.T) {
		c, err := NewBadgerCache(Options{InMemory: true})
		require.NoError(t, err)
		assert.NotNil(t, c)
		require.NoError(t, c.Close())
	})

	t.Run("creates file-based cache", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "cache")
		c, err := NewBadgerCache(Options{Directory: dir})
		require.NoError(t, err)
		require.NoError(t, c.Close())

		_, err = os.Stat(dir)
		assert.NoError(t, err)
	})

	t.Run("persists across reopen", func(t *testing.T) {
		dir := t.TempDir()
		ctx := context.Background()

		c, err := NewBadgerCache(Options{Directory: dir})
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
		require.NoError(t, c.Close())

		c, err = NewBadgerCache(Options{Directory: dir})
		require.NoError(t, err)
		defer c.Close()

		got, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		c, err := NewBadgerCache(Options{Directory: t.TempDir()})
		require.NoError(t, err)
		require.NoError(t, c.Close())
		assert.NoError(t, c.Close())
	})
}

func TestBadgerCache_GetSet(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key is a cache miss", func(t *testing.T) {
		c := newMemoryCache(t)

		value, err := c.Get(ctx, "render:missing")

		assert.ErrorIs(t, err, domain.ErrCacheMiss)
		assert.Nil(t, value)
	})

	t.Run("round trips through compression", func(t *testing.T) {
		c := newMemoryCache(t)
		value := []byte("[package]\nname = \"foo\"\n")

		require.NoError(t, c.Set(ctx, "render:a", value, time.Hour))

		got, err := c.Get(ctx, "render:a")
		require.NoError(t, err)
		assert.Equal(t, value, got)
	})

	t.Run("empty value", func(t *testing.T) {
		c := newMemoryCache(t)

		require.NoError(t, c.Set(ctx, "render:empty", nil, 0))

		got, err := c.Get(ctx, "render:empty")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("overwrite", func(t *testing.T) {
		c := newMemoryCache(t)

		require.NoError(t, c.Set(ctx, "k", []byte("one"), 0))
		require.NoError(t, c.Set(ctx, "k", []byte("two"), 0))

		got, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got)
	})

	t.Run("cancelled context", func(t *testing.T) {
		c := newMemoryCache(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		assert.ErrorIs(t, c.Set(cancelled, "k", []byte("v"), 0), context.Canceled)
		_, err := c.Get(cancelled, "k")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBadgerCache_HasDelete(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache(t)

	assert.False(t, c.Has(ctx, "k"))
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	assert.True(t, c.Has(ctx, "k"))

	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, c.Has(ctx, "k"))
}

func TestBadgerCache_ClearAndStats(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0))
	}
	assert.Equal(t, int64(5), c.Size())
	assert.Equal(t, 5, c.Stats().Entries)

	require.NoError(t, c.Clear())
	assert.Equal(t, int64(0), c.Size())
}

func TestBadgerCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := newMemoryCache(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		key := fmt.Sprintf("render:%d", i)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, key, []byte("content"), time.Hour)
		}()
		go func() {
			defer wg.Done()
			_, _ = c.Get(ctx, key)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), c.Size())
}
