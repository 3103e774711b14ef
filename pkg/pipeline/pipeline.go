// Package pipeline runs the solver workflow around the annealer.
//
// A [Runner] ties together the collaborators of a run:
//
//  1. Load the problem from the workspace
//  2. Anneal it, checkpointing a work-in-progress drawing
//  3. Save the result to the store and submit it to the ledger
//  4. Promote it to the best solution when the ledger accepted it
//  5. Plot the solution and write the progress statistics
//
// The same Runner serves the CLI and the HTTP API. It holds no per-run
// state, so concurrent Solve and Score calls are safe as long as the
// configured store, ledger and cache are.
//
//	r := pipeline.NewRunner(pipeline.NewPaths(dataDir), st, led, c, nil, logger)
//	res, err := r.Solve(ctx, pipeline.SolveOptions{ID: 42, Anneal: anneal.DefaultOptions()})
package pipeline

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/encore/pkg/cache"
	"github.com/matzehuels/encore/pkg/ledger"
	"github.com/matzehuels/encore/pkg/problem"
	"github.com/matzehuels/encore/pkg/store"
)

// Bench settings: a short fixed-length run used to compare changes.
const (
	BenchIterations = 50_000
	BenchTemp0      = 100.0
)

// Runner executes pipeline operations.
type Runner struct {
	Paths  Paths
	Store  store.Store
	Ledger ledger.Ledger
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil store or ledger falls back to the file
// backends under paths; a nil cache disables caching.
func NewRunner(paths Paths, st store.Store, l ledger.Ledger, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if st == nil {
		st = store.NewFile(paths.Solutions())
	}
	if l == nil {
		l = ledger.NewFile(paths.Ledger())
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Paths:  paths,
		Store:  st,
		Ledger: l,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// LoadProblem reads problem id from the workspace.
func (r *Runner) LoadProblem(id problem.ID) (*problem.Problem, error) {
	if id == 0 || id > problem.LastProblem {
		return nil, invalidID(id)
	}
	return problem.ReadFile(r.Paths.Problem(id))
}

// Close releases the store, ledger and cache.
func (r *Runner) Close() error {
	var first error
	for _, c := range []interface{ Close() error }{r.Store, r.Ledger, r.Cache} {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
