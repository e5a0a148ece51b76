package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/quantmind-br/cargofmt/internal/cache"
	"github.com/quantmind-br/cargofmt/internal/comments"
	"github.com/quantmind-br/cargofmt/internal/config"
	"github.com/quantmind-br/cargofmt/internal/domain"
	"github.com/quantmind-br/cargofmt/internal/git"
	"github.com/quantmind-br/cargofmt/internal/manifest"
	"github.com/quantmind-br/cargofmt/internal/output"
	"github.com/quantmind-br/cargofmt/internal/render"
	"github.com/quantmind-br/cargofmt/internal/utils"
	"github.com/quantmind-br/cargofmt/pkg/version"
	"github.com/schollz/progressbar/v3"
)

// Dependencies holds the collaborators of a Formatter. Nil fields get the
// production implementation.
type Dependencies struct {
	Loader    domain.ManifestLoader
	Recoverer domain.CommentRecoverer
	Cache     domain.Cache
	Changes   domain.ChangeDetector
	Writer    domain.Writer
	Logger    *utils.Logger
}

// FormatterOptions contains options for creating a formatter
type FormatterOptions struct {
	domain.FormatOptions
	Config *config.Config
	// Workspace expands inputs to their whole workspace
	Workspace bool
	// Progress receives a progress bar for multi-manifest runs; nil disables it
	Progress io.Writer
	Deps     Dependencies
}

// Formatter rewrites manifests into their canonical form
type Formatter struct {
	config    *config.Config
	opts      domain.FormatOptions
	workspace bool
	progress  io.Writer

	loader    domain.ManifestLoader
	recoverer domain.CommentRecoverer
	cache     domain.Cache
	ownsCache bool
	changes   domain.ChangeDetector
	writer    domain.Writer
	logger    *utils.Logger
}

// NewFormatter creates a formatter with the given configuration
func NewFormatter(opts FormatterOptions) (*Formatter, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	deps := opts.Deps
	f := &Formatter{
		config:    cfg,
		opts:      opts.FormatOptions,
		workspace: opts.Workspace,
		progress:  opts.Progress,
		loader:    deps.Loader,
		recoverer: deps.Recoverer,
		cache:     deps.Cache,
		changes:   deps.Changes,
		writer:    deps.Writer,
		logger:    deps.Logger,
	}

	if f.opts.Workers <= 0 {
		f.opts.Workers = cfg.Concurrency.Workers
	}
	if f.logger == nil {
		f.logger = utils.NewNopLogger()
	}
	f.logger = f.logger.WithComponent("formatter")
	if f.loader == nil {
		f.loader = manifest.NewLoader()
	}
	if f.recoverer == nil {
		f.recoverer = comments.Heuristic{}
	}
	if f.writer == nil {
		f.writer = output.NewAtomicWriter(output.WriterOptions{})
	}
	if f.changes == nil && f.opts.ChangedOnly {
		f.changes = git.NewStatusDetector(nil)
	}

	if f.cache == nil && cfg.Cache.Enabled && !f.opts.NoCache {
		c, err := cache.NewBadgerCache(cache.Options{
			Directory: utils.ExpandPath(cfg.Cache.Directory),
		})
		if err != nil {
			// Formatting works without a cache
			f.logger.Warn().Err(err).Msg("Render cache unavailable")
		} else {
			f.cache = c
			f.ownsCache = true
		}
	}
	if f.opts.NoCache {
		f.cache = nil
	}

	return f, nil
}

// Run formats every manifest selected by paths. Per-manifest failures are
// reported in the results; the error is reserved for failures that stop the
// whole run.
func (f *Formatter) Run(ctx context.Context, paths []string) ([]domain.Result, error) {
	startTime := time.Now()

	exclude, err := f.config.ExcludeMatchers()
	if err != nil {
		return nil, err
	}

	detect := DetectOptions{Workspace: f.workspace, Exclude: exclude}
	if f.opts.ChangedOnly {
		detect.Changes = f.changes
	}
	manifests, err := DetectManifests(ctx, paths, detect)
	if err != nil {
		return nil, err
	}

	f.logger.Debug().
		Int("manifests", len(manifests)).
		Int("workers", f.opts.Workers).
		Bool("check", f.opts.Check).
		Bool("cache", f.cache != nil).
		Msg("Starting format run")

	var bar *progressbar.ProgressBar
	if f.progress != nil && len(manifests) > 1 {
		desc := utils.DescFormatting
		if f.opts.Check {
			desc = utils.DescChecking
		}
		bar = utils.NewProgressBar(len(manifests), desc, f.progress)
	}

	collector := output.NewCollector()
	pool := utils.NewPool(f.opts.Workers, f.formatManifest).
		OnDone(func(task *utils.Task[string, domain.Result]) {
			collector.Add(task.Result)
			if bar != nil {
				_ = bar.Add(1)
			}
		})

	tasks, err := pool.Process(ctx, manifests)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		f.logger.Warn().Msg("Format run cancelled")
		return nil, err
	}

	results := make([]domain.Result, len(tasks))
	for i, task := range tasks {
		results[i] = task.Result
	}

	summary := collector.Summary()
	f.logger.Debug().
		Int("total", summary.Total).
		Int("formatted", summary.Formatted).
		Int("needs_format", summary.NeedsFormat).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Dur("duration", time.Since(startTime)).
		Msg("Format run completed")

	return results, nil
}

// formatManifest is the pool worker. It never returns an error: failures are
// recorded in the result so one manifest cannot abort the others.
func (f *Formatter) formatManifest(ctx context.Context, path string) (res domain.Result, _ error) {
	start := time.Now()
	log := f.logger.WithManifest(path)
	res.Path = path
	defer func() {
		res.Duration = time.Since(start)
		var me *domain.ManifestError
		if errors.As(res.Err, &me) && res.Reason == "" {
			res.Reason = me.Err.Error()
		}
		log.Debug().
			Str("status", string(res.Status)).
			Bool("cache_hit", res.CacheHit).
			Dur("duration", res.Duration).
			Msg("Manifest processed")
	}()

	src, err := os.ReadFile(path)
	if err != nil {
		res.Status, res.Err = domain.StatusFailed, domain.NewManifestError(path, err)
		return res, nil
	}

	out, hit, err := f.canonical(ctx, path, src)
	res.CacheHit = hit
	if err != nil {
		if errors.Is(err, manifest.ErrUnsupported) || errors.Is(err, manifest.ErrNoPackage) {
			log.Debug().Err(err).Msg("Skipping manifest")
			res.Status, res.Reason = domain.StatusSkipped, err.Error()
			return res, nil
		}
		log.Error().Err(err).Msg("Failed to format manifest")
		res.Status, res.Err = domain.StatusFailed, domain.NewManifestError(path, err)
		return res, nil
	}

	switch {
	case f.opts.Stdout:
		res.Status, res.Output = domain.StatusPrinted, out
	case bytes.Equal(src, out):
		res.Status = domain.StatusUnchanged
	case f.opts.Check:
		res.Status = domain.StatusNeedsFormat
	default:
		if err := f.writer.Write(ctx, path, out); err != nil {
			log.Error().Err(err).Msg("Failed to write manifest")
			res.Status, res.Err = domain.StatusFailed, domain.NewManifestError(path, err)
			return res, nil
		}
		res.Status = domain.StatusFormatted
	}
	return res, nil
}

// canonical returns the canonical text of src, from the cache when possible
func (f *Formatter) canonical(ctx context.Context, path string, src []byte) ([]byte, bool, error) {
	var key string
	if f.cache != nil {
		key = cache.RenderKey(version.Fingerprint(), path, src)
		if out, err := f.cache.Get(ctx, key); err == nil {
			return out, true, nil
		}
	}

	// Paths in the model are made relative to this root
	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, false, err
	}
	m, err := f.loader.LoadFromBytes(root, src)
	if err != nil {
		return nil, false, err
	}

	out, err := render.Bytes(m, f.recoverer.Recover(src))
	if err != nil {
		return nil, false, err
	}

	if f.opts.Verify {
		if err := verify(out); err != nil {
			return nil, false, err
		}
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, out, f.config.Cache.TTL); err != nil {
			f.logger.WithManifest(path).Warn().Err(err).Msg("Failed to cache canonical form")
		}
	}
	return out, false, nil
}

// verify checks that the canonical text is still valid TOML
func verify(out []byte) error {
	var doc map[string]any
	if err := gotoml.Unmarshal(out, &doc); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVerifyFailed, err)
	}
	return nil
}

// Close releases resources the formatter created
func (f *Formatter) Close() error {
	if f.ownsCache && f.cache != nil {
		return f.cache.Close()
	}
	return nil
}
