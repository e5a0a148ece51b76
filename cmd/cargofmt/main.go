package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/quantmind-br/cargofmt/internal/app"
	"github.com/quantmind-br/cargofmt/internal/cache"
	"github.com/quantmind-br/cargofmt/internal/config"
	"github.com/quantmind-br/cargofmt/internal/domain"
	"github.com/quantmind-br/cargofmt/internal/git"
	"github.com/quantmind-br/cargofmt/internal/output"
	"github.com/quantmind-br/cargofmt/internal/utils"
	"github.com/quantmind-br/cargofmt/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Dependencies for testing
	osStat     = os.Stat
	isTerminal = func(f *os.File) bool {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli holds the state shared by one command tree
type cli struct {
	cfgFile string
	verbose bool
	quiet   bool
	viper   *viper.Viper
	log     *utils.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{viper: viper.New(), log: utils.NewNopLogger()}

	rootCmd := &cobra.Command{
		Use:   "cargofmt [path...]",
		Short: "Rewrite Cargo.toml manifests into canonical form",
		Long: `cargofmt rewrites Cargo package manifests into a canonical layout:
fixed section order, sorted dependencies, normalised version requirements
and conventional paths left implicit. Comments that precede keys and
sections are carried over.

Paths may be manifests or directories; directories are searched
recursively. Without paths the current directory is used.`,
		Version:           version.Short(),
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.initConfig,
		RunE:              c.run,
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default is ~/.cargofmt/config.yaml)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")
	pf.BoolVarP(&c.quiet, "quiet", "q", false, "Only report errors")
	pf.String("format", "text", "Report format: text, json or yaml")

	// Formatting flags
	f := rootCmd.Flags()
	f.Bool("check", false, "Report manifests that are not canonical instead of rewriting them")
	f.Bool("stdout", false, "Print canonical manifests to stdout instead of rewriting them")
	f.Bool("changed", false, "Only format manifests changed in the git worktree")
	f.BoolP("workspace", "w", false, "Format every member of the enclosing workspace")
	f.Bool("no-cache", false, "Disable the render cache")
	f.Bool("no-verify", false, "Skip parsing the rendered output as TOML")
	f.IntP("concurrency", "j", 0, "Number of concurrent workers (default one per CPU)")
	f.StringSlice("exclude", nil, "Glob patterns of manifest paths to skip")
	rootCmd.MarkFlagsMutuallyExclusive("check", "stdout")

	// Bind flags to viper
	_ = c.viper.BindPFlag("concurrency.workers", f.Lookup("concurrency"))
	_ = c.viper.BindPFlag("format.changed_only", f.Lookup("changed"))
	_ = c.viper.BindPFlag("format.report", pf.Lookup("format"))

	// Add subcommands
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newDoctorCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func (c *cli) initConfig(cmd *cobra.Command, args []string) error {
	if c.cfgFile != "" {
		c.viper.SetConfigFile(utils.ExpandPath(c.cfgFile))
	}
	return nil
}

func (c *cli) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFrom(c.viper)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	c.log = utils.NewLogger(utils.LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cmd.ErrOrStderr(),
		Verbose: c.verbose,
		Quiet:   c.quiet,
	})
	return cfg, nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}

	// --exclude adds to the configured patterns
	if extra, _ := cmd.Flags().GetStringSlice("exclude"); len(extra) > 0 {
		cfg.Exclude = append(cfg.Exclude, extra...)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	format, err := output.ParseFormat(cfg.Format.Report)
	if err != nil {
		return err
	}

	opts := formatOptions(cmd, cfg)
	workspace, _ := cmd.Flags().GetBool("workspace")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			c.log.Info().Msg("Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var progress io.Writer
	if !c.quiet && !opts.Stdout && format == output.FormatText && isTerminal(os.Stderr) {
		progress = os.Stderr
	}

	formatter, err := app.NewFormatter(app.FormatterOptions{
		FormatOptions: opts,
		Config:        cfg,
		Workspace:     workspace,
		Progress:      progress,
		Deps:          app.Dependencies{Logger: c.log},
	})
	if err != nil {
		return fmt.Errorf("failed to create formatter: %w", err)
	}
	defer formatter.Close()

	results, err := formatter.Run(ctx, args)
	if err != nil {
		return err
	}

	return c.report(cmd, results, format, opts)
}

// formatOptions merges the run flags with the configuration
func formatOptions(cmd *cobra.Command, cfg *config.Config) domain.FormatOptions {
	flags := cmd.Flags()
	opts := domain.DefaultFormatOptions()

	opts.Check, _ = flags.GetBool("check")
	opts.Stdout, _ = flags.GetBool("stdout")
	opts.NoCache, _ = flags.GetBool("no-cache")
	noVerify, _ := flags.GetBool("no-verify")

	opts.ChangedOnly = cfg.Format.ChangedOnly
	opts.Verify = cfg.Format.Verify && !noVerify
	opts.Workers = cfg.Concurrency.Workers
	return opts
}

// report prints the results and turns failures into the command's error
func (c *cli) report(cmd *cobra.Command, results []domain.Result, format output.Format, opts domain.FormatOptions) error {
	summary := domain.Summarize(results)
	out := cmd.OutOrStdout()
	show := !c.quiet || format != output.FormatText

	if opts.Stdout {
		for _, r := range results {
			if r.Status == domain.StatusPrinted {
				if _, err := out.Write(r.Output); err != nil {
					return err
				}
			}
		}
		// Canonical text owns stdout
		out = cmd.ErrOrStderr()
		show = show && (c.verbose || summary.Failed > 0 || summary.Skipped > 0)
	}

	if show {
		reportOpts := output.ReportOptions{
			Color:   format == output.FormatText && colorEnabled(out),
			Verbose: c.verbose,
		}
		if err := output.Report(out, results, format, reportOpts); err != nil {
			return err
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d manifest(s) failed", summary.Failed, summary.Total)
	}
	if opts.Check && summary.NeedsFormat > 0 {
		return fmt.Errorf("%w: %d manifest(s)", domain.ErrNotFormatted, summary.NeedsFormat)
	}
	return nil
}

func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && !color.NoColor && isTerminal(f)
}

func (c *cli) openCache(cmd *cobra.Command) (*cache.BadgerCache, *config.Config, error) {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, err := cache.NewBadgerCache(cache.Options{
		Directory: utils.ExpandPath(cfg.Cache.Directory),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return store, cfg, nil
}

func (c *cli) newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached rendering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := c.openCache(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			c.log.Debug().Str("directory", store.Stats().Directory).Msg("Cache cleared")
			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared (%s)\n", store.Stats().Directory)
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show render cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := c.openCache(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			format, err := output.ParseFormat(cfg.Format.Report)
			if err != nil {
				return err
			}

			stats := store.Stats()
			if format != output.FormatText {
				return output.Encode(cmd.OutOrStdout(), stats, format)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Directory: %s\nEntries:   %d\nSize:      %s\n",
				stats.Directory, stats.Entries, humanize.Bytes(uint64(stats.SizeBytes)))
			return nil
		},
	})

	return cacheCmd
}

func (c *cli) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment",
		Long:  "Verifies the configuration, cache directory and working directory cargofmt will use.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Checking environment...")
			allPassed := true

			// Check 1: Config file
			fmt.Fprint(out, "  Config file: ")
			cfg, err := config.LoadFrom(c.viper)
			if err != nil {
				fmt.Fprintf(out, "FAILED (%v)\n", err)
				allPassed = false
				cfg = config.Default()
			} else if used := c.viper.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "OK (%s)\n", used)
			} else {
				fmt.Fprintln(out, "OK (defaults)")
			}

			// Check 2: Cache directory
			fmt.Fprint(out, "  Cache directory: ")
			cacheDir := utils.ExpandPath(cfg.Cache.Directory)
			if !cfg.Cache.Enabled {
				fmt.Fprintln(out, "DISABLED")
			} else if checkCacheDir(cacheDir) {
				fmt.Fprintf(out, "OK (%s)\n", cacheDir)
			} else {
				fmt.Fprintln(out, "WARN (will be created on first use)")
			}

			// Check 3: Manifests in the working directory
			fmt.Fprint(out, "  Manifests: ")
			if manifests, err := utils.CollectManifests([]string{"."}); err != nil || len(manifests) == 0 {
				fmt.Fprintln(out, "NONE (no Cargo.toml below the working directory)")
			} else {
				fmt.Fprintf(out, "OK (%d found)\n", len(manifests))
			}

			// Check 4: Git repository, needed by --changed
			fmt.Fprint(out, "  Git repository: ")
			if changed, err := git.NewStatusDetector(nil).Changed(cmd.Context(), "."); err != nil {
				fmt.Fprintln(out, "NOT FOUND (--changed will be unavailable)")
			} else {
				fmt.Fprintf(out, "OK (%d changed file(s))\n", len(changed))
			}

			// Check 5: Write permissions for rewriting manifests in place
			fmt.Fprint(out, "  Write permissions: ")
			if checkWritePermissions() {
				fmt.Fprintln(out, "OK")
			} else {
				fmt.Fprintln(out, "FAILED")
				allPassed = false
			}

			fmt.Fprintln(out)
			if allPassed {
				fmt.Fprintln(out, "All critical checks passed!")
			} else {
				fmt.Fprintln(out, "Some checks failed. Please resolve the issues above.")
			}
			return nil
		},
	}
}

// checkWritePermissions checks if we can write to the current directory
func checkWritePermissions() bool {
	f, err := os.CreateTemp(".", ".cargofmt_test_write")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// checkCacheDir checks if the cache directory exists
func checkCacheDir(path string) bool {
	info, err := osStat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			if f != output.FormatText {
				return output.Encode(cmd.OutOrStdout(), version.Get(), f)
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return nil
		},
	}
}
