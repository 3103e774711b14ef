package anneal

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/encore/pkg/engine"
	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/geom"
	"github.com/matzehuels/encore/pkg/problem"
	"github.com/matzehuels/encore/pkg/stats"
)

// Options configures a run. Zero intervals fall back to DefaultOptions.
type Options struct {
	// Temp0 is the initial temperature; zero or less derives it from the
	// initial score.
	Temp0 float64
	End   End
	Seed  uint64

	ScheduleEvery int
	StatsEvery    int
	RebuildEvery  int
	// MaxStep caps the distance of local steps.
	MaxStep float64

	// Progress receives every stats row as it is produced.
	Progress func(stats.Row)
	// Checkpoint receives the current placement before each rebuild. A
	// returned error aborts the run.
	Checkpoint func(*problem.Solution) error

	Logger *log.Logger
}

// DefaultOptions returns the settings of a one-minute run at temperature 100.
func DefaultOptions() Options {
	return Options{
		Temp0:         100,
		End:           MaxDuration(time.Minute),
		ScheduleEvery: 1_000,
		StatsEvery:    10_000,
		RebuildEvery:  100_000,
		MaxStep:       40,
	}
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.ScheduleEvery <= 0 {
		o.ScheduleEvery = d.ScheduleEvery
	}
	if o.StatsEvery <= 0 {
		o.StatsEvery = d.StatsEvery
	}
	if o.RebuildEvery <= 0 {
		o.RebuildEvery = d.RebuildEvery
	}
	if o.MaxStep <= 0 {
		o.MaxStep = d.MaxStep
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Result is the outcome of a run.
type Result struct {
	// Score is the best trial score seen, and Solution the placement that
	// produced it.
	Score    float64
	Solution *problem.Solution
	// Final is Solution's score with its derived volumes, as judged.
	Final float64

	InitialScore float64
	Temp0        float64
	Iterations   int
	Moves        int
	Swaps        int
	Collisions   int
	Elapsed      time.Duration
	Rows         []stats.Row
}

// counters tracks acceptance between two stats rows.
type counters struct {
	total, positive, negative int
}

func (c counters) row(iter int, score, best, temp float64) stats.Row {
	total := math.Max(1, float64(c.total))
	return stats.Row{
		Iteration:          int64(iter),
		Score:              score,
		Best:               best,
		Temperature:        temp,
		AcceptRate:         float64(c.positive+c.negative) / total,
		AcceptRatePositive: float64(c.positive) / total,
		AcceptRateNegative: float64(c.negative) / total,
	}
}

// Run anneals initial under variant's rules. When ctx is cancelled the best
// result so far is returned together with the context's error.
func Run(ctx context.Context, p *problem.Problem, variant problem.Variant, initial *problem.Solution, opts Options) (*Result, error) {
	opts.applyDefaults()
	if err := opts.End.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "anneal")
	}
	logger := opts.Logger

	e, err := engine.New(p, variant, initial, engine.WithMode(engine.Trial))
	if err != nil {
		return nil, err
	}
	n := e.Len()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))

	sc := e.Score()
	temp0 := opts.Temp0
	if temp0 <= 0 {
		temp0 = math.Abs(sc) / math.Sqrt(float64(n))
	}
	temp := temp0

	res := &Result{
		Score:        sc,
		Solution:     e.Solution(),
		InitialScore: sc,
		Temp0:        temp0,
	}
	logger.Debug("anneal start", "musicians", n, "attendees", len(p.Attendees), "variant", variant, "score", sc, "temp0", temp0, "end", opts.End)

	start := time.Now()
	var acc counters
	iter := 0

	accept := func(sc2 float64) bool {
		acc.total++
		if sc2 >= sc {
			acc.positive++
		} else if math.Exp((sc2-sc)/temp) > rng.Float64() {
			acc.negative++
		} else {
			return false
		}
		sc = sc2
		if sc > res.Score {
			res.Score = sc
			res.Solution = e.Solution()
		}
		return true
	}

	finish := func(err error) (*Result, error) {
		res.Iterations = iter
		res.Elapsed = time.Since(start)
		final, ferr := engine.Score(p, variant, res.Solution)
		if ferr != nil && err == nil {
			err = ferr
		}
		res.Final = final
		logger.Debug("anneal done", "iterations", iter, "best", res.Score, "final", final, "elapsed", res.Elapsed)
		return res, err
	}

	for opts.End.Iterations == 0 || iter < opts.End.Iterations {
		iter++

		if iter%opts.ScheduleEvery == 0 {
			if err := ctx.Err(); err != nil {
				return finish(err)
			}
			temp = temp0 * (1 - opts.End.progress(iter, time.Since(start)))
			if temp < 0 {
				break
			}
		}

		if iter%opts.StatsEvery == 0 {
			row := acc.row(iter, sc, res.Score, temp)
			res.Rows = append(res.Rows, row)
			logger.Debug("anneal", "iter", iter, "temp", temp, "score", sc, "best", res.Score,
				"accept", row.AcceptRate, "moves", res.Moves, "collisions", res.Collisions)
			if opts.Progress != nil {
				opts.Progress(row)
			}
			acc = counters{}
		}

		if iter%opts.RebuildEvery == 0 {
			if opts.Checkpoint != nil {
				if err := opts.Checkpoint(e.Solution()); err != nil {
					return finish(errors.Wrap(errors.ErrCodeInternal, err, "checkpoint at iteration %d", iter))
				}
			}
			e.Rebuild()
			sc = e.Score()
			if sc > res.Score {
				res.Score = sc
				res.Solution = e.Solution()
			}
		}

		if rng.IntN(10) == 0 {
			a, b := rng.IntN(n), rng.IntN(n)
			if a == b {
				continue
			}
			res.Swaps++
			e.Swap(a, b)
			if !accept(e.Score()) {
				e.Swap(a, b)
			}
			continue
		}

		i := rng.IntN(n)
		from := e.Place(i)
		to := propose(rng, e, i, opts.MaxStep)
		if e.Collides(i, to) {
			res.Collisions++
			continue
		}
		res.Moves++
		e.Move(i, to)
		if !accept(e.Score()) {
			e.Move(i, from)
		}
	}
	return finish(nil)
}

// propose draws a candidate position for musician i.
func propose(rng *rand.Rand, e *engine.Engine, i int, maxStep float64) geom.Point {
	p0 := e.Place(i)
	switch rng.IntN(10) {
	case 0:
		return e.Problem().RandomPointOnStage(rng)
	case 1:
		dist := maxStep * math.Pow(rng.Float64(), 2)
		angle := rng.Float64() * geom.TwoPi
		dx, dy := math.Cos(angle), math.Sin(angle)
		lo, hi := 0.0, dist
		for hi-lo > 1e-3 {
			mid := (lo + hi) / 2
			if e.Collides(i, p0.Add(mid*dx, mid*dy)) {
				hi = mid
			} else {
				lo = mid
			}
		}
		return p0.Add(lo*dx, lo*dy)
	default:
		dist := maxStep * math.Pow(rng.Float64(), 2)
		angle := rng.Float64() * geom.TwoPi
		return p0.Add(dist*math.Cos(angle), dist*math.Sin(angle))
	}
}
