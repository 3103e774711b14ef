package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/matzehuels/encore/pkg/cache"
	"github.com/matzehuels/encore/pkg/engine"
	"github.com/matzehuels/encore/pkg/observability"
	"github.com/matzehuels/encore/pkg/problem"
)

// scoreKeyType labels score entries in cache hooks.
const scoreKeyType = "score"

// ScoreRequest asks for a judged score.
type ScoreRequest struct {
	ID problem.ID
	// Problem is used instead of the workspace file when set.
	Problem  *problem.Problem
	Variant  problem.Variant
	Solution *problem.Solution
	// Refresh bypasses the cache lookup but still stores the result.
	Refresh bool
}

// ScoreResult is a judged score.
type ScoreResult struct {
	Score   float64         `json:"score"`
	Variant problem.Variant `json:"variant"`
	Cached  bool            `json:"cached"`
}

// Score judges req.Solution. Results are cached by problem, variant and
// solution content.
func (r *Runner) Score(ctx context.Context, req ScoreRequest) (*ScoreResult, error) {
	p := req.Problem
	if p == nil {
		var err error
		if p, err = r.LoadProblem(req.ID); err != nil {
			return nil, err
		}
	}
	variant := req.Variant
	if variant == 0 {
		variant = problem.VariantFor(req.ID)
	}

	key, err := r.scoreKey(req, variant)
	if err != nil {
		return nil, err
	}
	cacheHooks := observability.Cache()
	if !req.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if s, err := strconv.ParseFloat(string(data), 64); err == nil {
				cacheHooks.OnCacheHit(ctx, scoreKeyType)
				r.Logger.Debug("score cache hit", "problem", req.ID, "score", s)
				return &ScoreResult{Score: s, Variant: variant, Cached: true}, nil
			}
		}
		cacheHooks.OnCacheMiss(ctx, scoreKeyType)
	}

	start := time.Now()
	s, err := engine.Score(p, variant, req.Solution)
	observability.Pipeline().OnScore(ctx, uint64(req.ID), variant.String(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	data := []byte(strconv.FormatFloat(s, 'g', -1, 64))
	if err := r.Cache.Set(ctx, key, data, cache.ScoreTTL); err != nil {
		r.Logger.Warn("score cache write failed", "error", err)
	} else {
		cacheHooks.OnCacheSet(ctx, scoreKeyType, len(data))
	}
	return &ScoreResult{Score: s, Variant: variant}, nil
}

func (r *Runner) scoreKey(req ScoreRequest, variant problem.Variant) (string, error) {
	values := []any{req.Solution}
	if req.Problem != nil {
		// Inline problems are not identified by their id alone.
		values = append(values, req.Problem)
	}
	content, err := cache.HashJSON(values...)
	if err != nil {
		return "", err
	}
	return r.Keyer.ScoreKey(uint64(req.ID), variant.String(), engine.Final.String(), content), nil
}
