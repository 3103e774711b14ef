package anneal

import (
	"context"
	stderrors "errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/encore/pkg/engine"
	"github.com/matzehuels/encore/pkg/problem"
	"github.com/matzehuels/encore/pkg/stats"
)

func quietOptions(end End) Options {
	opts := DefaultOptions()
	opts.End = end
	opts.Seed = 42
	opts.ScheduleEvery = 100
	opts.StatsEvery = 1_000
	opts.RebuildEvery = 5_000
	opts.Logger = log.New(io.Discard)
	return opts
}

func TestRunMaxIteration(t *testing.T) {
	for _, variant := range []problem.Variant{problem.V1, problem.V2} {
		t.Run(variant.String(), func(t *testing.T) {
			p := problem.Example()
			opts := quietOptions(MaxIteration(20_000))

			var rows []stats.Row
			opts.Progress = func(r stats.Row) { rows = append(rows, r) }

			res, err := Run(context.Background(), p, variant, problem.ExampleSolution(), opts)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.Iterations > 20_000 {
				t.Errorf("Iterations = %d, want <= 20000", res.Iterations)
			}
			if res.Score < res.InitialScore {
				t.Errorf("Score = %v, worse than initial %v", res.Score, res.InitialScore)
			}
			if len(rows) == 0 || len(rows) != len(res.Rows) {
				t.Fatalf("got %d progress rows, result has %d", len(rows), len(res.Rows))
			}
			prevBest := math.Inf(-1)
			for _, r := range res.Rows {
				if r.Score > res.Score || r.Best > res.Score {
					t.Errorf("row %d: score %v best %v exceeds result %v", r.Iteration, r.Score, r.Best, res.Score)
				}
				if r.Best < prevBest {
					t.Errorf("row %d: best fell from %v to %v", r.Iteration, prevBest, r.Best)
				}
				prevBest = r.Best
				if r.AcceptRate < 0 || r.AcceptRate > 1 {
					t.Errorf("row %d: accept rate %v", r.Iteration, r.AcceptRate)
				}
			}

			if err := res.Solution.Validate(p); err != nil {
				t.Fatalf("result solution invalid: %v", err)
			}
			if err := res.Solution.Feasible(p); err != nil {
				t.Errorf("result solution infeasible: %v", err)
			}
			want, err := engine.Score(p, variant, res.Solution)
			if err != nil {
				t.Fatal(err)
			}
			if res.Final != want {
				t.Errorf("Final = %v, engine.Score() = %v", res.Final, want)
			}
			if math.Abs(res.Final-res.Score) > 1e-6*math.Max(1, res.Score) {
				t.Errorf("Final = %v, Score = %v", res.Final, res.Score)
			}
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	p := problem.Example()
	opts := quietOptions(MaxIteration(5_000))
	a, err := Run(context.Background(), p, problem.V2, problem.ExampleSolution(), opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run(context.Background(), p, problem.V2, problem.ExampleSolution(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if a.Score != b.Score || a.Moves != b.Moves || a.Swaps != b.Swaps {
		t.Errorf("same seed, different runs: %+v vs %+v", a, b)
	}
}

func TestRunAutoTemperature(t *testing.T) {
	p := problem.Example()
	opts := quietOptions(MaxIteration(100))
	opts.Temp0 = 0
	res, err := Run(context.Background(), p, problem.V1, problem.ExampleSolution(), opts)
	if err != nil {
		t.Fatal(err)
	}
	want := math.Abs(res.InitialScore) / math.Sqrt(3)
	if math.Abs(res.Temp0-want) > 1e-9 {
		t.Errorf("Temp0 = %v, want %v", res.Temp0, want)
	}
}

func TestRunDuration(t *testing.T) {
	p := problem.Example()
	opts := quietOptions(MaxDuration(50 * time.Millisecond))
	res, err := Run(context.Background(), p, problem.V1, problem.ExampleSolution(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Elapsed > 5*time.Second {
		t.Errorf("Elapsed = %v, run did not stop", res.Elapsed)
	}
	if res.Iterations == 0 {
		t.Error("no iterations ran")
	}
}

func TestRunCheckpoint(t *testing.T) {
	p := problem.Example()
	opts := quietOptions(MaxIteration(20_000))

	calls := 0
	opts.Checkpoint = func(s *problem.Solution) error {
		calls++
		if s.Len() != 3 {
			t.Errorf("checkpoint solution has %d placements", s.Len())
		}
		return nil
	}
	if _, err := Run(context.Background(), p, problem.V1, problem.ExampleSolution(), opts); err != nil {
		t.Fatal(err)
	}
	if calls != 4 {
		t.Errorf("Checkpoint called %d times, want 4", calls)
	}

	boom := stderrors.New("disk full")
	opts.Checkpoint = func(*problem.Solution) error { return boom }
	res, err := Run(context.Background(), p, problem.V1, problem.ExampleSolution(), opts)
	if !stderrors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want %v", err, boom)
	}
	if res == nil || res.Iterations != 5_000 {
		t.Errorf("aborted run result = %+v", res)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, problem.Example(), problem.V1, problem.ExampleSolution(), quietOptions(MaxIteration(10_000)))
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if res == nil || res.Solution == nil {
		t.Error("cancelled run should still return the best solution")
	}
}

func TestRunRejects(t *testing.T) {
	opts := quietOptions(End{})
	if _, err := Run(context.Background(), problem.Example(), problem.V1, problem.ExampleSolution(), opts); err == nil {
		t.Error("Run() accepted an empty budget")
	}
	bad := problem.ExampleSolution()
	bad.Volumes = bad.Volumes[:1]
	if _, err := Run(context.Background(), problem.Example(), problem.V1, bad, quietOptions(MaxIteration(10))); err == nil {
		t.Error("Run() accepted a malformed solution")
	}
}

func TestEnd(t *testing.T) {
	tests := []struct {
		end     End
		want    string
		wantErr bool
	}{
		{MaxIteration(50_000), "iter-50000", false},
		{MaxDuration(60 * time.Second), "duration-60", false},
		{MaxDuration(90 * time.Minute), "duration-5400", false},
		{End{}, "duration-0", true},
		{End{Iterations: 1, Duration: time.Second}, "iter-1", true},
		{MaxIteration(-1), "duration-0", true},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.end.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if err := tt.end.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSolverName(t *testing.T) {
	if got := SolverName(100, MaxDuration(time.Minute)); got != "sa-temp0-100-duration-60" {
		t.Errorf("SolverName() = %q", got)
	}
	if got := SolverName(-1, MaxIteration(50_000)); got != "sa-temp0-0-iter-50000" {
		t.Errorf("SolverName() = %q", got)
	}
}
