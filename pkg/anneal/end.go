package anneal

import (
	"fmt"
	"time"
)

// End bounds a run by iterations or by wall-clock time. Exactly one field
// is set.
type End struct {
	Iterations int
	Duration   time.Duration
}

// MaxIteration ends a run after n iterations.
func MaxIteration(n int) End { return End{Iterations: n} }

// MaxDuration ends a run once d has elapsed.
func MaxDuration(d time.Duration) End { return End{Duration: d} }

// String returns "iter-N" or "duration-S", the suffix of solver names.
func (e End) String() string {
	if e.Iterations > 0 {
		return fmt.Sprintf("iter-%d", e.Iterations)
	}
	return fmt.Sprintf("duration-%d", int64(e.Duration/time.Second))
}

// Validate rejects budgets that would never end or never start.
func (e End) Validate() error {
	switch {
	case e.Iterations > 0 && e.Duration > 0:
		return fmt.Errorf("end: both iterations and duration set")
	case e.Iterations < 0 || e.Duration < 0:
		return fmt.Errorf("end: negative budget")
	case e.Iterations == 0 && e.Duration == 0:
		return fmt.Errorf("end: no budget set")
	}
	return nil
}

// progress returns the fraction of the budget used.
func (e End) progress(iter int, elapsed time.Duration) float64 {
	if e.Iterations > 0 {
		return float64(iter) / float64(e.Iterations)
	}
	return float64(elapsed.Milliseconds()) / float64(e.Duration.Milliseconds())
}

// SolverName names a run configuration, e.g. "sa-temp0-100-duration-60".
// An automatic initial temperature shows as 0.
func SolverName(temp0 float64, end End) string {
	return fmt.Sprintf("sa-temp0-%.0f-%s", max(temp0, 0), end)
}
