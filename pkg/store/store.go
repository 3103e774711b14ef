// Package store persists solver results.
//
// Every finished run produces a [Record]. [Store.Save] keeps it in the run
// archive and as the solver's latest answer for the problem; [Store.SaveBest]
// additionally promotes it to the problem's best solution once the ledger
// has accepted the score.
//
// [File] reproduces the contest workspace layout under solution/, so that
// existing submission tooling keeps working. [Mongo] keeps the same records
// in MongoDB for deployments that share results between machines.
package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/encore/pkg/problem"
)

// Record is one solver result.
type Record struct {
	RunID     uuid.UUID         `json:"run_id"`
	ProblemID problem.ID        `json:"problem_id"`
	Solver    string            `json:"solver"`
	Score     float64           `json:"score"`
	Solution  *problem.Solution `json:"solution"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewRecord stamps a result with a fresh run id and the current time.
func NewRecord(id problem.ID, solver string, score float64, sol *problem.Solution) *Record {
	return &Record{
		RunID:     uuid.New(),
		ProblemID: id,
		Solver:    solver,
		Score:     score,
		Solution:  sol,
		CreatedAt: time.Now().UTC(),
	}
}

// ScoreString formats the score the way archive file names carry it.
func (r *Record) ScoreString() string {
	return strconv.FormatFloat(r.Score, 'f', -1, 64)
}

// Store persists records.
type Store interface {
	// Save archives rec and makes it the solver's latest solution.
	Save(ctx context.Context, rec *Record) error
	// SaveBest makes rec the problem's best solution.
	SaveBest(ctx context.Context, rec *Record) error
	// Best returns the problem's best solution, or a NOT_FOUND error.
	Best(ctx context.Context, id problem.ID) (*problem.Solution, error)
	// Latest returns solver's most recent solution for the problem.
	Latest(ctx context.Context, solver string, id problem.ID) (*problem.Solution, error)
	// Close releases the backend.
	Close() error
}
