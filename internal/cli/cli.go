// Package cli implements the encore command-line interface.
package cli

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/encore/pkg/anneal"
	"github.com/matzehuels/encore/pkg/buildinfo"
	"github.com/matzehuels/encore/pkg/cache"
	"github.com/matzehuels/encore/pkg/config"
	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/ledger"
	"github.com/matzehuels/encore/pkg/pipeline"
	"github.com/matzehuels/encore/pkg/problem"
	"github.com/matzehuels/encore/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	dataDir    string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Encore places musicians on a stage to please the crowd",
		Long: `Encore solves musician placement problems by simulated annealing.

Problems live in a workspace directory (problem/{id}.json). Solved placements,
drawings and progress statistics are written back into the same workspace,
and every run is offered to the best-score ledger.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/encore/config.toml)")
	root.PersistentFlags().StringVarP(&c.dataDir, "data-dir", "d", "", "workspace directory (overrides data_dir)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.benchCommand())
	root.AddCommand(c.scoreCommand())
	root.AddCommand(c.drawCommand())
	root.AddCommand(c.ledgerCommand())
	root.AddCommand(c.problemCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the configuration file and applies global flag overrides.
// An explicit --config path must exist; the default path may be absent.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return c.applyOverrides(config.Default()), nil
		}
		path = p
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return c.applyOverrides(cfg), nil
}

func (c *CLI) applyOverrides(cfg *config.Config) *config.Config {
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	return cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner connects the configured backends and returns a pipeline runner.
// The caller must Close it.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	var closers []io.Closer
	fail := func(err error) (*pipeline.Runner, error) {
		for _, cl := range closers {
			cl.Close()
		}
		return nil, err
	}

	var led ledger.Ledger
	if cfg.Ledger.Backend == config.BackendRedis {
		r, err := ledger.DialRedis(ctx, cfg.Ledger.RedisURL, cfg.Ledger.RedisKey)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, r)
		led = r
	}

	var st store.Store
	if cfg.Store.Backend == config.BackendMongo {
		m, err := store.DialMongo(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, m)
		if err := m.EnsureIndexes(ctx); err != nil {
			return fail(errors.Wrap(errors.ErrCodeInternal, err, "mongo indexes"))
		}
		st = m
	}

	ch, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return fail(err)
	}

	c.Logger.Debug("runner", "data_dir", cfg.DataDir, "ledger", cfg.Ledger.Backend, "store", cfg.Store.Backend)
	return pipeline.NewRunner(pipeline.NewPaths(cfg.DataDir), st, led, ch, nil, c.Logger), nil
}

// newCache returns the configured score cache. A file cache that cannot
// find a home directory degrades to no caching.
func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisURL != "" {
		return cache.DialRedisCache(ctx, cfg.Cache.RedisURL)
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns cache.dir from the configuration, or the XDG cache
// directory (~/.cache/encore/).
func cacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Cache.Dir != "" {
		return filepath.Clean(cfg.Cache.Dir), nil
	}
	return config.CacheDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// annealOptions converts the solver section into annealing options.
// Iterations take precedence over duration.
func annealOptions(s config.Solver) anneal.Options {
	opts := anneal.DefaultOptions()
	opts.Temp0 = s.Temp0
	switch {
	case s.Iterations > 0:
		opts.End = anneal.MaxIteration(int(s.Iterations))
	case s.Duration.Duration > 0:
		opts.End = anneal.MaxDuration(s.Duration.Duration)
	}
	if s.MaxStep > 0 {
		opts.MaxStep = s.MaxStep
	}
	if s.ScheduleEvery > 0 {
		opts.ScheduleEvery = int(s.ScheduleEvery)
	}
	if s.StatsEvery > 0 {
		opts.StatsEvery = int(s.StatsEvery)
	}
	if s.RebuildEvery > 0 {
		opts.RebuildEvery = int(s.RebuildEvery)
	}
	return opts
}

// parseIDs parses problem ids given as single numbers or inclusive ranges
// ("3", "10-14"). Duplicates are dropped and the order of first mention kept.
func parseIDs(args []string) ([]problem.ID, error) {
	var ids []problem.ID
	seen := make(map[problem.ID]bool)
	add := func(id problem.ID) error {
		if id == 0 || id > problem.LastProblem {
			return errors.New(errors.ErrCodeInvalidInput, "problem id %d out of range 1-%d", id, problem.LastProblem)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
		return nil
	}
	for _, arg := range args {
		lo, hi, isRange := strings.Cut(arg, "-")
		if !isRange {
			id, err := problem.ParseID(arg)
			if err != nil {
				return nil, err
			}
			if err := add(id); err != nil {
				return nil, err
			}
			continue
		}
		from, err := problem.ParseID(lo)
		if err != nil {
			return nil, err
		}
		to, err := problem.ParseID(hi)
		if err != nil {
			return nil, err
		}
		if from > to {
			return nil, errors.New(errors.ErrCodeInvalidInput, "empty id range %q", arg)
		}
		for id := from; id <= to; id++ {
			if err := add(id); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

// parseID parses one problem id argument.
func parseID(arg string) (problem.ID, error) {
	ids, err := parseIDs([]string{arg})
	if err != nil {
		return 0, err
	}
	if len(ids) != 1 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "expected a single problem id, got %q", arg)
	}
	return ids[0], nil
}

// formatScore renders a score with thousands separators and no fraction.
func formatScore(s float64) string {
	neg := s < 0
	digits := strconv.FormatFloat(math.Abs(s), 'f', 0, 64)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
