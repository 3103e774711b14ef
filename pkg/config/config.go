// Package config loads encore's TOML configuration.
//
// A missing file is not an error: every field has a default, and command
// line flags override whatever the file sets. A typical file:
//
//	data_dir = "~/icfp2023"
//
//	[solver]
//	temp0 = 100.0
//	duration = "1m"
//	max_step = 40.0
//
//	[ledger]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//	mongo_database = "encore"
//
//	[server]
//	addr = ":8080"
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/encore/pkg/errors"
)

// AppName names the config and cache directories.
const AppName = "encore"

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the root of the configuration file.
type Config struct {
	DataDir string `toml:"data_dir"`
	Solver  Solver `toml:"solver"`
	Ledger  Ledger `toml:"ledger"`
	Store   Store  `toml:"store"`
	Cache   Cache  `toml:"cache"`
	Server  Server `toml:"server"`
}

// Solver holds annealing defaults.
type Solver struct {
	Temp0         float64  `toml:"temp0"`
	Duration      Duration `toml:"duration"`
	Iterations    int64    `toml:"iterations"`
	MaxStep       float64  `toml:"max_step"`
	ScheduleEvery int64    `toml:"schedule_every"`
	StatsEvery    int64    `toml:"stats_every"`
	RebuildEvery  int64    `toml:"rebuild_every"`
	Parallel      int      `toml:"parallel"`
}

// Ledger selects the best-score backend.
type Ledger struct {
	Backend  string `toml:"backend"`
	RedisURL string `toml:"redis_url"`
	RedisKey string `toml:"redis_key"`
}

// Store selects the solution store.
type Store struct {
	Backend       string `toml:"backend"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Cache configures score caching.
type Cache struct {
	Disabled bool   `toml:"disabled"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
}

// Server configures the HTTP API.
type Server struct {
	Addr           string   `toml:"addr"`
	RequestTimeout Duration `toml:"request_timeout"`
	MaxBodyBytes   int64    `toml:"max_body_bytes"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: ".",
		Solver: Solver{
			Temp0:         100,
			Duration:      Duration{time.Minute},
			MaxStep:       40,
			ScheduleEvery: 1000,
			StatsEvery:    10000,
			RebuildEvery:  100000,
			Parallel:      4,
		},
		Ledger: Ledger{Backend: BackendFile, RedisKey: "encore:best-score"},
		Store:  Store{Backend: BackendFile, MongoDatabase: AppName},
		Server: Server{
			Addr:           ":8080",
			RequestTimeout: Duration{30 * time.Second},
			MaxBodyBytes:   64 << 20,
		},
	}
}

// Load reads path over the defaults. A missing file yields Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Cache.Dir = expandHome(cfg.Cache.Dir)
	return cfg, cfg.Validate()
}

// Validate checks backend names and required connection settings.
func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case BackendFile:
	case BackendRedis:
		if c.Ledger.RedisURL == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "ledger.redis_url is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown ledger backend %q", c.Ledger.Backend)
	}
	switch c.Store.Backend {
	case BackendFile:
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "store.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	if c.Solver.Temp0 < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "solver.temp0 must not be negative")
	}
	if c.Solver.Parallel < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "solver.parallel must be at least 1")
	}
	return nil
}

// Write saves c to path in TOML.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Encode writes c to w in TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// DefaultPath returns $XDG_CONFIG_HOME/encore/config.toml, falling back to
// ~/.config/encore/config.toml.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns the cache directory using XDG standard (~/.cache/encore/).
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && rest[0] != '/') {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
