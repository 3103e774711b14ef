package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis without seeing each other's entries.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "encore:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ScoreKey generates a prefixed score key.
func (k *ScopedKeyer) ScoreKey(problemID uint64, variant, mode, solutionHash string) string {
	return k.prefix + k.inner.ScoreKey(problemID, variant, mode, solutionHash)
}

// ProblemKey generates a prefixed problem key.
func (k *ScopedKeyer) ProblemKey(problemID uint64, problemHash string) string {
	return k.prefix + k.inner.ProblemKey(problemID, problemHash)
}
