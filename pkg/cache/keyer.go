package cache

import "fmt"

// Keyer builds cache keys for the values the pipeline caches.
type Keyer interface {
	// ScoreKey identifies a judged score.
	ScoreKey(problemID uint64, variant, mode string, solutionHash string) string
	// ProblemKey identifies a problem summary.
	ProblemKey(problemID uint64, problemHash string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ScoreKey implements Keyer.
func (DefaultKeyer) ScoreKey(problemID uint64, variant, mode, solutionHash string) string {
	return hashKey(fmt.Sprintf("score:%d", problemID), variant, mode, solutionHash)
}

// ProblemKey implements Keyer.
func (DefaultKeyer) ProblemKey(problemID uint64, problemHash string) string {
	return hashKey(fmt.Sprintf("problem:%d", problemID), problemHash)
}
