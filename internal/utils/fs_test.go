package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("[package]\n"), 0644))
}

func TestIsManifest(t *testing.T) {
	assert.True(t, IsManifest("Cargo.toml"))
	assert.True(t, IsManifest("/a/b/Cargo.toml"))
	assert.False(t, IsManifest("cargo.toml"))
	assert.False(t, IsManifest("/a/Cargo.lock"))
}

func TestCollectManifests(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Cargo.toml"))
	touch(t, filepath.Join(root, "crates", "b", "Cargo.toml"))
	touch(t, filepath.Join(root, "crates", "a", "Cargo.toml"))
	touch(t, filepath.Join(root, "target", "package", "x", "Cargo.toml"))
	touch(t, filepath.Join(root, ".git", "Cargo.toml"))
	touch(t, filepath.Join(root, "crates", "a", "notes.toml"))

	t.Run("walks directories", func(t *testing.T) {
		got, err := CollectManifests([]string{root})
		require.NoError(t, err)

		assert.Equal(t, []string{
			filepath.Join(root, "Cargo.toml"),
			filepath.Join(root, "crates", "a", "Cargo.toml"),
			filepath.Join(root, "crates", "b", "Cargo.toml"),
		}, got)
	})

	t.Run("explicit files and duplicates", func(t *testing.T) {
		file := filepath.Join(root, "crates", "a", "Cargo.toml")
		got, err := CollectManifests([]string{file, filepath.Join(root, "crates"), file})
		require.NoError(t, err)

		assert.Equal(t, []string{
			filepath.Join(root, "crates", "a", "Cargo.toml"),
			filepath.Join(root, "crates", "b", "Cargo.toml"),
		}, got)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := CollectManifests([]string{filepath.Join(root, "nope")})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestEnsureDir(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		tempDir := t.TempDir()
		testPath := filepath.Join(tempDir, "subdir", "file.txt")

		require.NoError(t, EnsureDir(testPath))

		info, err := os.Stat(filepath.Dir(testPath))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("existing directory", func(t *testing.T) {
		testPath := filepath.Join(t.TempDir(), "file.txt")

		require.NoError(t, EnsureDir(testPath))
		require.NoError(t, EnsureDir(testPath))
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"home directory with slash", "~/test", filepath.Join(home, "test")},
		{"home directory only", "~", home},
		{"regular path", "/tmp/test", "/tmp/test"},
		{"relative path", "./test", "./test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandPath(tt.input))
		})
	}
}
