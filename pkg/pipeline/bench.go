package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/encore/pkg/anneal"
	"github.com/matzehuels/encore/pkg/problem"
)

// Bench runs a fixed-length solve for each id, at most parallel at a time,
// and returns the results in the order of ids. Every result goes through
// the usual save and submit steps.
func (r *Runner) Bench(ctx context.Context, ids []problem.ID, iterations, parallel int, seed uint64) ([]*SolveResult, error) {
	if iterations <= 0 {
		iterations = BenchIterations
	}
	results := make([]*SolveResult, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for i, id := range ids {
		g.Go(func() error {
			opts := anneal.DefaultOptions()
			opts.Temp0 = BenchTemp0
			opts.End = anneal.MaxIteration(iterations)
			opts.Seed = seed + uint64(i)
			res, err := r.Solve(gctx, SolveOptions{ID: id, Anneal: opts})
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
