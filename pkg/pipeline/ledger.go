package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/encore/pkg/engine"
	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/problem"
)

// RefreshLedger rescores every stored best solution and replaces the
// ledger with the results. Problems without a best solution are left out.
// At most parallel problems are scored at once.
func (r *Runner) RefreshLedger(ctx context.Context, parallel int) (map[problem.ID]float64, error) {
	var (
		mu     sync.Mutex
		scores = make(map[problem.ID]float64)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallel, 1))
	for id := problem.ID(1); id <= problem.LastProblem; id++ {
		g.Go(func() error {
			sol, err := r.Store.Best(gctx, id)
			if errors.Is(err, errors.ErrCodeNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			p, err := r.LoadProblem(id)
			if err != nil {
				return err
			}
			s, err := engine.Score(p, problem.VariantFor(id), sol)
			if err != nil {
				return errors.Wrap(errors.GetCode(err), err, "score best solution of problem %d", id)
			}
			r.Logger.Debug("rescored", "problem", id, "score", s)

			mu.Lock()
			scores[id] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := r.Ledger.Replace(ctx, scores); err != nil {
		return nil, err
	}
	r.Logger.Info("ledger refreshed", "problems", len(scores))
	return scores, nil
}
