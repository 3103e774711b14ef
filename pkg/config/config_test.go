package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/encore/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	def := Default()
	if cfg.Solver != def.Solver || cfg.Ledger != def.Ledger || cfg.Server != def.Server {
		t.Errorf("Load() of missing file = %+v, want defaults", cfg)
	}
	if cfg.Solver.Duration.Duration != time.Minute || cfg.Solver.Temp0 != 100 {
		t.Errorf("solver defaults = %+v", cfg.Solver)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
data_dir = "/srv/icfp"

[solver]
temp0 = 5000000.0
duration = "3h"
parallel = 16

[ledger]
backend = "redis"
redis_url = "redis://localhost:6379/2"

[server]
addr = "127.0.0.1:9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"data_dir", cfg.DataDir, "/srv/icfp"},
		{"temp0", cfg.Solver.Temp0, 5000000.0},
		{"duration", cfg.Solver.Duration.Duration, 3 * time.Hour},
		{"parallel", cfg.Solver.Parallel, 16},
		{"max_step kept", cfg.Solver.MaxStep, 40.0},
		{"ledger", cfg.Ledger.Backend, BackendRedis},
		{"redis key kept", cfg.Ledger.RedisKey, "encore:best-score"},
		{"addr", cfg.Server.Addr, "127.0.0.1:9000"},
		{"store kept", cfg.Store.Backend, BackendFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "data_dir = ", "parse"},
		{"unknown key", "[solver]\ntemperature = 3\n", "solver.temperature"},
		{"bad duration", "[solver]\nduration = \"soon\"\n", "parse"},
		{"bad backend", "[ledger]\nbackend = \"etcd\"\n", "etcd"},
		{"redis without url", "[ledger]\nbackend = \"redis\"\n", "redis_url"},
		{"mongo without uri", "[store]\nbackend = \"mongo\"\n", "mongo_uri"},
		{"parallel", "[solver]\nparallel = 0\n", "parallel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("Load() = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Solver.Duration = Duration{90 * time.Second}
	if err := cfg.Write(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Solver.Duration.Duration != 90*time.Second {
		t.Errorf("duration = %v", got.Solver.Duration)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err := DefaultPath()
	if err != nil || got != "/tmp/xdg/encore/config.toml" {
		t.Errorf("DefaultPath() = %q, %v", got, err)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	dir, err := CacheDir()
	if err != nil || dir != filepath.Join("/tmp/custom-cache", AppName) {
		t.Errorf("CacheDir() = %q, %v", dir, err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"~", home},
		{"~/icfp", filepath.Join(home, "icfp")},
		{"~user/icfp", "~user/icfp"},
		{"/abs", "/abs"},
		{"rel", "rel"},
	}
	for _, tt := range tests {
		if got := expandHome(tt.in); got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
