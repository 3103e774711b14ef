package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/encore/pkg/anneal"
	"github.com/matzehuels/encore/pkg/ledger"
	"github.com/matzehuels/encore/pkg/observability"
	"github.com/matzehuels/encore/pkg/problem"
	"github.com/matzehuels/encore/pkg/render"
	"github.com/matzehuels/encore/pkg/stats"
	"github.com/matzehuels/encore/pkg/store"
)

// SolveOptions configures Solve.
type SolveOptions struct {
	ID problem.ID
	// Variant overrides the variant implied by ID when non-zero.
	Variant problem.Variant
	// Initial seeds the run; nil places musicians at random.
	Initial *problem.Solution
	Anneal  anneal.Options
	// NoArtifacts skips drawings and statistics files.
	NoArtifacts bool
}

// SolveResult describes a finished run.
type SolveResult struct {
	RunID   uuid.UUID
	ID      problem.ID
	Variant problem.Variant
	Solver  string
	// Score is the judged score of the saved solution.
	Score   float64
	Outcome ledger.Outcome
	Anneal  *anneal.Result
}

// Solve anneals problem opts.ID and records the result.
//
// When ctx is cancelled mid-run the best placement found so far is still
// saved and submitted, and the cancellation error is returned alongside
// the result.
func (r *Runner) Solve(ctx context.Context, opts SolveOptions) (*SolveResult, error) {
	p, err := r.LoadProblem(opts.ID)
	if err != nil {
		return nil, err
	}
	variant := opts.Variant
	if variant == 0 {
		variant = problem.VariantFor(opts.ID)
	}

	initial := opts.Initial
	if initial == nil {
		seed := opts.Anneal.Seed
		if initial, err = problem.InitialSolution(p, rand.New(rand.NewPCG(seed, ^seed))); err != nil {
			return nil, err
		}
	}

	aopts := opts.Anneal
	if aopts.Logger == nil {
		aopts.Logger = r.Logger
	}
	if !opts.NoArtifacts {
		wip := r.Paths.DrawWIP(opts.ID)
		next := aopts.Checkpoint
		aopts.Checkpoint = func(sol *problem.Solution) error {
			if err := render.WriteFile(ctx, wip, p, sol); err != nil {
				return fmt.Errorf("draw checkpoint: %w", err)
			}
			if next != nil {
				return next(sol)
			}
			return nil
		}
	}

	solver := anneal.SolverName(opts.Anneal.Temp0, opts.Anneal.End)
	r.Logger.Info("solving", "problem", opts.ID, "variant", variant, "solver", solver, "musicians", len(p.Musicians), "attendees", len(p.Attendees))

	hooks := observability.Pipeline()
	hooks.OnSolveStart(ctx, uint64(opts.ID), solver)
	res, runErr := anneal.Run(ctx, p, variant, initial, aopts)
	if res == nil {
		hooks.OnSolveComplete(ctx, uint64(opts.ID), solver, 0, 0, 0, runErr)
		return nil, runErr
	}
	hooks.OnSolveComplete(ctx, uint64(opts.ID), solver, res.Final, res.Iterations, res.Elapsed, runErr)
	if runErr != nil && ctx.Err() == nil {
		return nil, runErr
	}
	if runErr != nil {
		r.Logger.Warn("run interrupted, saving best so far", "problem", opts.ID, "iterations", res.Iterations)
		ctx = context.WithoutCancel(ctx)
	}

	rec := store.NewRecord(opts.ID, solver, res.Final, res.Solution)
	out := &SolveResult{
		RunID:   rec.RunID,
		ID:      opts.ID,
		Variant: variant,
		Solver:  solver,
		Score:   res.Final,
		Anneal:  res,
	}
	r.Logger.Info("solved", "problem", opts.ID, "score", res.Final, "trial", res.Score,
		"iterations", res.Iterations, "elapsed", res.Elapsed.Round(time.Millisecond))

	if err := r.Store.Save(ctx, rec); err != nil {
		return out, err
	}
	if out.Outcome, err = r.submit(ctx, rec); err != nil {
		return out, err
	}
	if !opts.NoArtifacts {
		if err := r.writeArtifacts(ctx, p, rec, res); err != nil {
			return out, err
		}
	}
	return out, runErr
}

// submit offers rec to the ledger and promotes it when it is a new best.
func (r *Runner) submit(ctx context.Context, rec *store.Record) (ledger.Outcome, error) {
	out, err := r.Ledger.Submit(ctx, rec.ProblemID, rec.Score)
	if err != nil {
		return out, fmt.Errorf("submit score: %w", err)
	}
	observability.Pipeline().OnSubmit(ctx, uint64(rec.ProblemID), rec.Score, out.Improved)
	if !out.Improved {
		r.Logger.Info("no improvement", "problem", rec.ProblemID, "best", out.Previous, "score", rec.Score)
		return out, nil
	}
	prev := "none"
	if out.Known {
		prev = strconv.FormatFloat(out.Previous, 'f', -1, 64)
	}
	r.Logger.Info("new best", "problem", rec.ProblemID, "previous", prev, "score", rec.Score)
	if err := r.Store.SaveBest(ctx, rec); err != nil {
		return out, fmt.Errorf("save best: %w", err)
	}
	return out, nil
}

func (r *Runner) writeArtifacts(ctx context.Context, p *problem.Problem, rec *store.Record, res *anneal.Result) error {
	drawing := r.Paths.DrawAll(rec.ProblemID, rec.Score)
	title := fmt.Sprintf("problem %d: %s", rec.ProblemID, strconv.FormatFloat(rec.Score, 'f', -1, 64))
	if err := render.WriteFile(ctx, drawing, p, rec.Solution, render.WithTitle(title)); err != nil {
		return fmt.Errorf("draw solution: %w", err)
	}
	if len(res.Rows) == 0 {
		return nil
	}
	if err := stats.WriteDataFile(r.Paths.StatsData(rec.Solver, rec.ProblemID), res.Rows); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	meta := map[string]string{
		"run_id":  rec.RunID.String(),
		"problem": rec.ProblemID.String(),
		"solver":  rec.Solver,
		"temp0":   strconv.FormatFloat(res.Temp0, 'f', -1, 64),
	}
	if err := stats.WriteParquet(r.Paths.StatsParquet(rec.Solver, rec.ProblemID), res.Rows, meta); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}
