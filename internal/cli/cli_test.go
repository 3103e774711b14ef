package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/encore/pkg/anneal"
	"github.com/matzehuels/encore/pkg/config"
	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/ledger"
	"github.com/matzehuels/encore/pkg/pipeline"
	"github.com/matzehuels/encore/pkg/problem"
	"github.com/matzehuels/encore/pkg/store"
)

// testEnv is a workspace holding the example problem as problem 1, with the
// config and cache directories redirected into temporary directories.
type testEnv struct {
	t     *testing.T
	paths pipeline.Paths
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	paths := pipeline.NewPaths(t.TempDir())
	data, err := os.ReadFile(filepath.Join("..", "..", "pkg", "problem", "example", "example-problem.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := problem.WriteFileAtomic(paths.Problem(1), data); err != nil {
		t.Fatal(err)
	}
	return &testEnv{t: t, paths: paths}
}

// run executes the root command with the workspace as data directory.
func (e *testEnv) run(args ...string) error {
	e.t.Helper()
	return e.runCLI(New(io.Discard, LogInfo), args...)
}

// runCLI is run with a caller-owned CLI, for inspecting its logger.
func (e *testEnv) runCLI(c *CLI, args ...string) error {
	e.t.Helper()
	root := c.RootCommand()
	root.SetArgs(append([]string{"--data-dir", e.paths.Root}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

// exampleSolution returns the path of the example placement.
func exampleSolution() string {
	return filepath.Join("..", "..", "pkg", "problem", "example", "example-solution.json")
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"solve", "bench", "score", "draw", "ledger", "problem", "serve", "cache", "config", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []problem.ID
		wantErr bool
	}{
		{name: "single", args: []string{"7"}, want: []problem.ID{7}},
		{name: "range", args: []string{"3-5"}, want: []problem.ID{3, 4, 5}},
		{name: "mixed dedup", args: []string{"5", "3-6", "1"}, want: []problem.ID{5, 3, 4, 6, 1}},
		{name: "zero", args: []string{"0"}, wantErr: true},
		{name: "past last", args: []string{"91"}, wantErr: true},
		{name: "range past last", args: []string{"89-91"}, wantErr: true},
		{name: "reversed range", args: []string{"9-3"}, wantErr: true},
		{name: "garbage", args: []string{"x"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDs(tt.args)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Fatalf("parseIDs(%v) error = %v, want INVALID_INPUT", tt.args, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIDs(%v): %v", tt.args, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseIDs(%v) = %v, want %v", tt.args, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("parseIDs(%v) = %v, want %v", tt.args, got, tt.want)
				}
			}
		})
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{5343.4, "5,343"},
		{1234567.6, "1,234,568"},
		{-1234567, "-1,234,567"},
	}
	for _, tt := range tests {
		if got := formatScore(tt.in); got != tt.want {
			t.Errorf("formatScore(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAnnealOptions(t *testing.T) {
	s := config.Default().Solver
	opts := annealOptions(s)
	if opts.End != anneal.MaxDuration(s.Duration.Duration) {
		t.Errorf("End = %v, want duration %v", opts.End, s.Duration)
	}
	if opts.Temp0 != s.Temp0 || opts.MaxStep != s.MaxStep {
		t.Errorf("temp0/max_step = %v/%v, want %v/%v", opts.Temp0, opts.MaxStep, s.Temp0, s.MaxStep)
	}

	s.Iterations = 500
	s.StatsEvery = 50
	opts = annealOptions(s)
	if opts.End != anneal.MaxIteration(500) {
		t.Errorf("End = %v, want 500 iterations", opts.End)
	}
	if opts.StatsEvery != 50 {
		t.Errorf("StatsEvery = %d, want 50", opts.StatsEvery)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	t.Run("default path missing", func(t *testing.T) {
		c := &CLI{dataDir: "/work"}
		cfg, err := c.loadConfig()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.DataDir != "/work" {
			t.Errorf("DataDir = %q, want /work", cfg.DataDir)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		c := &CLI{configPath: filepath.Join(t.TempDir(), "nope.toml")}
		if _, err := c.loadConfig(); !errors.Is(err, errors.ErrCodeFileNotFound) {
			t.Errorf("error = %v, want FILE_NOT_FOUND", err)
		}
	})

	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "encore.toml")
		if err := os.WriteFile(path, []byte("data_dir = \"/srv/icfp\"\n[solver]\ntemp0 = 250.0\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		c := &CLI{configPath: path}
		cfg, err := c.loadConfig()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.DataDir != "/srv/icfp" || cfg.Solver.Temp0 != 250 {
			t.Errorf("cfg = %+v", cfg)
		}
	})
}

func TestScoreCommand(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("score", "1", exampleSolution()); err != nil {
		t.Fatalf("score: %v", err)
	}
	// Second run is served from the file cache.
	if err := env.run("score", "1", exampleSolution()); err != nil {
		t.Fatalf("cached score: %v", err)
	}
	if err := env.run("score", "1", exampleSolution(), "--no-cache", "--variant", "v2"); err != nil {
		t.Fatalf("score --no-cache: %v", err)
	}
	if err := env.run("score", "1", exampleSolution(), "--variant", "v9"); err == nil {
		t.Error("expected an error for an unknown variant")
	}
	if err := env.run("score", "2", exampleSolution()); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing problem error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestSolveCommand(t *testing.T) {
	env := newTestEnv(t)
	err := env.run("solve", "1", "--iterations", "2000", "--seed", "7", "--temp", "50", "--no-artifacts")
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	scores, err := ledger.NewFile(env.paths.Ledger()).All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := scores[1]; !ok {
		t.Fatalf("ledger = %v, want an entry for problem 1", scores)
	}
	best := store.NewFile(env.paths.Solutions()).BestPath(1)
	if _, err := os.Stat(best); err != nil {
		t.Errorf("best solution not written: %v", err)
	}

	// Continue from the stored best.
	if err := env.run("solve", "1", "--initial", "best", "--iterations", "500", "--no-artifacts"); err != nil {
		t.Fatalf("solve --initial best: %v", err)
	}
}

func TestSolveCommandRejectsFlags(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		args []string
	}{
		{"duration and iterations", []string{"solve", "1", "--duration", "1s", "--iterations", "10"}},
		{"bad id", []string{"solve", "0"}},
		{"missing initial", []string{"solve", "1", "--initial", "nope.json", "--iterations", "10"}},
		{"best without best", []string{"solve", "1", "--initial", "best", "--iterations", "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := env.run(tt.args...); err == nil {
				t.Errorf("%v: expected an error", tt.args)
			}
		})
	}
}

func TestBenchCommand(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("bench", "1", "--iterations", "1000", "--parallel", "1"); err != nil {
		t.Fatalf("bench: %v", err)
	}
	if err := env.run("bench", "1-2", "--iterations", "1000"); err == nil {
		t.Error("expected an error for a missing problem")
	}
}

func TestDrawCommands(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()

	problemOut := filepath.Join(dir, "problem.svg")
	if err := env.run("draw", "problem", "1", problemOut); err != nil {
		t.Fatalf("draw problem: %v", err)
	}
	solutionOut := filepath.Join(dir, "solution.dot")
	if err := env.run("draw", "solution", "1", exampleSolution(), solutionOut, "--labels"); err != nil {
		t.Fatalf("draw solution: %v", err)
	}

	svg, err := os.ReadFile(problemOut)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("problem drawing is not an SVG")
	}
	dot, err := os.ReadFile(solutionOut)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), "graph") {
		t.Error("solution drawing is not a DOT graph")
	}

	if err := env.run("draw", "problem", "1", filepath.Join(dir, "out.pdf")); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("pdf error = %v, want UNSUPPORTED", err)
	}
}

func TestLedgerCommands(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("ledger", "show"); err != nil {
		t.Fatalf("ledger show (empty): %v", err)
	}

	sol, err := problem.ReadSolutionFile(exampleSolution())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	st := store.NewFile(env.paths.Solutions())
	if err := st.SaveBest(ctx, store.NewRecord(1, "manual", 1, sol)); err != nil {
		t.Fatal(err)
	}

	if err := env.run("ledger", "refresh", "--parallel", "2"); err != nil {
		t.Fatalf("ledger refresh: %v", err)
	}
	scores, err := ledger.NewFile(env.paths.Ledger()).All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if scores[1] < 5000 {
		t.Errorf("refreshed score = %v, want the judged example score", scores[1])
	}
	if err := env.run("ledger", "show", "--json"); err != nil {
		t.Fatalf("ledger show --json: %v", err)
	}

	if err := env.run("ledger", "userboard"); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("userboard error = %v, want FILE_NOT_FOUND", err)
	}
	board := `{"Success": {"problems": [100.0, null, 3.5]}}`
	if err := problem.WriteFileAtomic(env.paths.Userboard(), []byte(board)); err != nil {
		t.Fatal(err)
	}
	if err := env.run("ledger", "userboard"); err != nil {
		t.Fatalf("ledger userboard: %v", err)
	}
}

func TestUserboardRows(t *testing.T) {
	board, err := ledger.ParseUserboard([]byte(`{"Success": {"problems": [100, null, 50, 7]}}`))
	if err != nil {
		t.Fatal(err)
	}
	scores := map[problem.ID]float64{1: 120, 2: 10, 3: 40}

	rows, ahead := userboardRows(board, scores)
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	// Problems 1 (beats 100) and 2 (unsolved on the board) are ahead.
	if ahead != 2 {
		t.Errorf("ahead = %d, want 2", ahead)
	}
	if rows[0][3] != "20" {
		t.Errorf("delta of problem 1 = %q, want 20", rows[0][3])
	}
	if rows[3][1] != "-" || rows[3][2] != "7" {
		t.Errorf("problem 4 row = %v", rows[3])
	}
}

func TestProblemInfoCommand(t *testing.T) {
	env := newTestEnv(t)
	if err := env.run("problem", "info", "1"); err != nil {
		t.Fatalf("problem info: %v", err)
	}
	if err := env.run("problem", "info", "1", "--json"); err != nil {
		t.Fatalf("problem info --json: %v", err)
	}
	if err := env.run("problem", "info", "3"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing problem error = %v, want NOT_FOUND", err)
	}
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "encore.toml")

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"--config", path, "config", "init"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config init: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Solver.Temp0 != config.Default().Solver.Temp0 {
		t.Errorf("written temp0 = %v", cfg.Solver.Temp0)
	}

	if err := env.run("--config", path, "config", "show"); err != nil {
		t.Fatalf("config show: %v", err)
	}
}
