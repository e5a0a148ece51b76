package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/cargofmt/internal/cache"
	"github.com/quantmind-br/cargofmt/internal/comments"
	"github.com/quantmind-br/cargofmt/internal/config"
	"github.com/quantmind-br/cargofmt/internal/domain"
	"github.com/quantmind-br/cargofmt/internal/manifest"
	"github.com/quantmind-br/cargofmt/internal/mocks"
	"github.com/quantmind-br/cargofmt/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const canonicalFoo = `[package]
name = "foo"
version = "0.1.0"
edition = "2018"

[dependencies]
bar = "1.0.0"
`

const messyFoo = `[package]
edition = "2018"
version = "0.1.0"
name = "foo"

[dependencies]
bar = "1.0"
`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Cache.Enabled = false
	cfg.Concurrency.Workers = 2
	return cfg
}

func newTestFormatter(t *testing.T, opts domain.FormatOptions, deps Dependencies) *Formatter {
	t.Helper()
	if !opts.Verify {
		opts.Verify = true
	}
	f, err := NewFormatter(FormatterOptions{FormatOptions: opts, Config: testConfig(), Deps: deps})
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewFormatter_RequiresConfig(t *testing.T) {
	_, err := NewFormatter(FormatterOptions{})
	assert.Error(t, err)
}

func TestNewFormatter_WorkersFromConfig(t *testing.T) {
	f := newTestFormatter(t, domain.FormatOptions{}, Dependencies{})
	assert.Equal(t, 2, f.opts.Workers)
	assert.Nil(t, f.cache)
}

func TestFormatter_Run_WritesCanonicalForm(t *testing.T) {
	root := t.TempDir()
	messy := writeManifest(t, filepath.Join(root, "messy"), messyFoo)
	clean := writeManifest(t, filepath.Join(root, "clean"), canonicalFoo)

	f := newTestFormatter(t, domain.FormatOptions{}, Dependencies{})
	results, err := f.Run(context.Background(), []string{root})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, clean, results[0].Path)
	assert.Equal(t, domain.StatusUnchanged, results[0].Status)
	assert.Equal(t, messy, results[1].Path)
	assert.Equal(t, domain.StatusFormatted, results[1].Status)
	assert.Equal(t, canonicalFoo, readFile(t, messy))

	// A second pass finds nothing to do
	results, err = f.Run(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Equal(t, 2, domain.Summarize(results).Unchanged)
}

func TestFormatter_Run_CheckLeavesFilesAlone(t *testing.T) {
	path := writeManifest(t, t.TempDir(), messyFoo)

	f := newTestFormatter(t, domain.FormatOptions{Check: true}, Dependencies{})
	results, err := f.Run(context.Background(), []string{path})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusNeedsFormat, results[0].Status)
	assert.Equal(t, messyFoo, readFile(t, path))
	assert.False(t, domain.Summarize(results).OK(true))
}

func TestFormatter_Run_Stdout(t *testing.T) {
	path := writeManifest(t, t.TempDir(), messyFoo)

	f := newTestFormatter(t, domain.FormatOptions{Stdout: true}, Dependencies{})
	results, err := f.Run(context.Background(), []string{path})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusPrinted, results[0].Status)
	assert.Equal(t, canonicalFoo, string(results[0].Output))
	assert.Equal(t, messyFoo, readFile(t, path))
}

func TestFormatter_Run_SkipsUnsupportedManifests(t *testing.T) {
	root := t.TempDir()
	path := writeManifest(t, root, "[package]\nname = \"ws\"\nversion = \"0.1.0\"\n\n[profile.release]\nlto = true\n")
	original := readFile(t, path)

	f := newTestFormatter(t, domain.FormatOptions{}, Dependencies{})
	results, err := f.Run(context.Background(), []string{root})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusSkipped, results[0].Status)
	assert.Contains(t, results[0].Reason, "unsupported manifest content")
	assert.NoError(t, results[0].Err)
	assert.Equal(t, original, readFile(t, path))
}

func TestFormatter_Run_FailureDoesNotStopOthers(t *testing.T) {
	root := t.TempDir()
	broken := writeManifest(t, filepath.Join(root, "a"), "[package\nname = \"x\"\n")
	good := writeManifest(t, filepath.Join(root, "b"), messyFoo)

	f := newTestFormatter(t, domain.FormatOptions{}, Dependencies{})
	results, err := f.Run(context.Background(), []string{root})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, broken, results[0].Path)
	assert.Equal(t, domain.StatusFailed, results[0].Status)
	var me *domain.ManifestError
	require.ErrorAs(t, results[0].Err, &me)
	assert.Equal(t, broken, me.Path)
	assert.Contains(t, results[0].Reason, "valid TOML")
	assert.NotContains(t, results[0].Reason, broken)

	assert.Equal(t, domain.StatusFormatted, results[1].Status)
	assert.Equal(t, canonicalFoo, readFile(t, good))
}

func TestFormatter_Run_CacheHit(t *testing.T) {
	path := writeManifest(t, t.TempDir(), messyFoo)
	key := cache.RenderKey(version.Fingerprint(), path, []byte(messyFoo))

	ctrl := gomock.NewController(t)
	c := mocks.NewMockCache(ctrl)
	c.EXPECT().Get(gomock.Any(), key).Return([]byte(canonicalFoo), nil)
	// The loader must not be consulted on a hit
	loader := mocks.NewMockManifestLoader(ctrl)

	f := newTestFormatter(t, domain.FormatOptions{Check: true}, Dependencies{Cache: c, Loader: loader})
	results, err := f.Run(context.Background(), []string{path})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.True(t, results[0].CacheHit)
	assert.Equal(t, domain.StatusNeedsFormat, results[0].Status)
}

func TestFormatter_Run_CacheMissStoresOutput(t *testing.T) {
	path := writeManifest(t, t.TempDir(), messyFoo)
	key := cache.RenderKey(version.Fingerprint(), path, []byte(messyFoo))

	ctrl := gomock.NewController(t)
	c := mocks.NewMockCache(ctrl)
	gomock.InOrder(
		c.EXPECT().Get(gomock.Any(), key).Return(nil, domain.ErrCacheMiss),
		c.EXPECT().Set(gomock.Any(), key, []byte(canonicalFoo), config.DefaultCacheTTL).Return(nil),
	)

	f := newTestFormatter(t, domain.FormatOptions{Stdout: true}, Dependencies{Cache: c})
	results, err := f.Run(context.Background(), []string{path})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.False(t, results[0].CacheHit)
	assert.Equal(t, canonicalFoo, string(results[0].Output))
}

func TestFormatter_Run_CacheSetFailureIsNotFatal(t *testing.T) {
	path := writeManifest(t, t.TempDir(), canonicalFoo)

	ctrl := gomock.NewController(t)
	c := mocks.NewMockCache(ctrl)
	c.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, domain.ErrCacheMiss)
	c.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("disk full"))

	f := newTestFormatter(t, domain.FormatOptions{}, Dependencies{Cache: c})
	results, err := f.Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnchanged, results[0].Status)
}

func TestFormatter_Run_NoCacheIgnoresInjectedCache(t *testing.T) {
	path := writeManifest(t, t.TempDir(), canonicalFoo)

	ctrl := gomock.NewController(t)
	c := mocks.NewMockCache(ctrl)

	f := newTestFormatter(t, domain.FormatOptions{NoCache: true}, Dependencies{Cache: c})
	results, err := f.Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnchanged, results[0].Status)
}

func TestFormatter_Run_WriteFailure(t *testing.T) {
	path := writeManifest(t, t.TempDir(), messyFoo)

	ctrl := gomock.NewController(t)
	w := mocks.NewMockWriter(ctrl)
	w.EXPECT().Write(gomock.Any(), path, []byte(canonicalFoo)).
		Return(fmt.Errorf("%w: read-only file system", domain.ErrWriteFailed))

	f := newTestFormatter(t, domain.FormatOptions{}, Dependencies{Writer: w})
	results, err := f.Run(context.Background(), []string{path})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusFailed, results[0].Status)
	assert.ErrorIs(t, results[0].Err, domain.ErrWriteFailed)
	assert.Equal(t, messyFoo, readFile(t, path))
}

func TestFormatter_Run_UsesCommentRecoverer(t *testing.T) {
	path := writeManifest(t, t.TempDir(), messyFoo)

	ctrl := gomock.NewController(t)
	rec := mocks.NewMockCommentRecoverer(ctrl)
	rec.EXPECT().Recover([]byte(messyFoo)).Return(comments.Map{"dependencies.bar": "# the bar crate\n"})

	f := newTestFormatter(t, domain.FormatOptions{Stdout: true}, Dependencies{Recoverer: rec})
	results, err := f.Run(context.Background(), []string{path})
	require.NoError(t, err)

	assert.Contains(t, string(results[0].Output), "[dependencies]\n# the bar crate\nbar = \"1.0.0\"\n")
}

func TestFormatter_Run_ChangedOnly(t *testing.T) {
	root := t.TempDir()
	changed := writeManifest(t, filepath.Join(root, "a"), messyFoo)
	untouched := writeManifest(t, filepath.Join(root, "b"), messyFoo)

	ctrl := gomock.NewController(t)
	changes := mocks.NewMockChangeDetector(ctrl)
	changes.EXPECT().Changed(gomock.Any(), root).Return(map[string]bool{changed: true}, nil)

	f := newTestFormatter(t, domain.FormatOptions{ChangedOnly: true}, Dependencies{Changes: changes})
	results, err := f.Run(context.Background(), []string{root})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, changed, results[0].Path)
	assert.Equal(t, messyFoo, readFile(t, untouched))
}

func TestFormatter_Run_NoManifests(t *testing.T) {
	f := newTestFormatter(t, domain.FormatOptions{}, Dependencies{})
	_, err := f.Run(context.Background(), []string{t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrNoManifests)
}

func TestFormatter_Run_Cancelled(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 4; i++ {
		writeManifest(t, filepath.Join(root, fmt.Sprint(i)), messyFoo)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestFormatter(t, domain.FormatOptions{}, Dependencies{})
	_, err := f.Run(ctx, []string{root})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatter_Run_Progress(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "a"), messyFoo)
	writeManifest(t, filepath.Join(root, "b"), messyFoo)

	var progress bytes.Buffer
	f, err := NewFormatter(FormatterOptions{
		FormatOptions: domain.FormatOptions{Check: true, Verify: true},
		Config:        testConfig(),
		Progress:      &progress,
	})
	require.NoError(t, err)

	results, err := f.Run(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Contains(t, progress.String(), "Checking")
}

func TestFormatter_Close_OwnedCache(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Directory = t.TempDir()

	f, err := NewFormatter(FormatterOptions{Config: cfg})
	require.NoError(t, err)
	require.NotNil(t, f.cache)
	assert.NoError(t, f.Close())
}

func TestVerify(t *testing.T) {
	assert.NoError(t, verify([]byte(canonicalFoo)))
	assert.ErrorIs(t, verify([]byte("[package]\nname = \n")), domain.ErrVerifyFailed)
}

func TestFormatter_FormatManifest_RelativePathUsesAbsoluteRoot(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, canonicalFoo)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	root, err := os.Getwd()
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	loader := mocks.NewMockManifestLoader(ctrl)
	loader.EXPECT().LoadFromBytes(root, []byte(canonicalFoo)).DoAndReturn(
		func(root string, data []byte) (*manifest.Manifest, error) {
			return manifest.NewLoader().LoadFromBytes(root, data)
		})

	f := newTestFormatter(t, domain.FormatOptions{Check: true}, Dependencies{Loader: loader})
	res, err := f.formatManifest(context.Background(), "Cargo.toml")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnchanged, res.Status)
}
