// Package ledger tracks the best score ever submitted for each problem.
//
// Several solver processes may finish at the same time, so every backend
// serialises its writers: [File] holds an advisory lock on a sibling lock
// file while it reads, compares and rewrites the JSON map, and [Redis]
// performs the compare-and-set inside a Lua script.
package ledger

import (
	"context"
	"sort"

	"github.com/matzehuels/encore/pkg/problem"
)

// Ledger records best scores per problem.
type Ledger interface {
	// Best returns the recorded best score for id.
	Best(ctx context.Context, id problem.ID) (score float64, ok bool, err error)
	// All returns every recorded score.
	All(ctx context.Context) (map[problem.ID]float64, error)
	// Submit records score for id if it beats the recorded best. The
	// comparison and the write happen atomically.
	Submit(ctx context.Context, id problem.ID, score float64) (Outcome, error)
	// Replace overwrites the whole ledger.
	Replace(ctx context.Context, scores map[problem.ID]float64) error
	// Close releases the backend.
	Close() error
}

// Outcome describes what Submit did.
type Outcome struct {
	Previous float64 // Best score before the submission
	Known    bool    // Whether a previous score existed
	Improved bool    // Whether the submission became the new best
}

// Entry is one ledger line, for listings.
type Entry struct {
	ID    problem.ID `json:"id"`
	Score float64    `json:"score"`
}

// Sorted returns scores ordered by problem id.
func Sorted(scores map[problem.ID]float64) []Entry {
	out := make([]Entry, 0, len(scores))
	for id, s := range scores {
		out = append(out, Entry{ID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Total sums every score.
func Total(scores map[problem.ID]float64) float64 {
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum
}

func decide(prev float64, known bool, score float64) Outcome {
	return Outcome{Previous: prev, Known: known, Improved: !known || score > prev}
}
