package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/problem"
)

// Paths locates files in a workspace:
//
//	problem/{id}.json
//	problem/example/example-{problem,solution}.json
//	solution/...                      (see store.File)
//	stats/best-score.json
//	stats/userboard.json
//	stats/sa/{solver}/{id}.data       gnuplot rows
//	stats/sa/{solver}/{id}.parquet
//	draw/all/{id}-{score}.svg
//	draw/wip/{id}.svg
type Paths struct {
	Root string
}

// NewPaths returns the layout rooted at root.
func NewPaths(root string) Paths { return Paths{Root: root} }

func (p Paths) join(elem ...string) string {
	return filepath.Join(append([]string{p.Root}, elem...)...)
}

// Problem is the input file of problem id.
func (p Paths) Problem(id problem.ID) string { return p.join("problem", id.String()+".json") }

// ExampleProblem is the published example problem.
func (p Paths) ExampleProblem() string { return p.join("problem", "example", "example-problem.json") }

// ExampleSolution is the published example solution.
func (p Paths) ExampleSolution() string {
	return p.join("problem", "example", "example-solution.json")
}

// Solutions is the root of the file store.
func (p Paths) Solutions() string { return p.join("solution") }

// Ledger is the best-score file.
func (p Paths) Ledger() string { return p.join("stats", "best-score.json") }

// Userboard is the contest server's scoreboard snapshot.
func (p Paths) Userboard() string { return p.join("stats", "userboard.json") }

// StatsData is the gnuplot file of a run.
func (p Paths) StatsData(solver string, id problem.ID) string {
	return p.join("stats", "sa", solver, id.String()+".data")
}

// StatsParquet is the parquet file of a run.
func (p Paths) StatsParquet(solver string, id problem.ID) string {
	return p.join("stats", "sa", solver, id.String()+".parquet")
}

// DrawAll is the drawing of a finished run.
func (p Paths) DrawAll(id problem.ID, score float64) string {
	return p.join("draw", "all", fmt.Sprintf("%d-%s.svg", id, strconv.FormatFloat(score, 'f', -1, 64)))
}

// DrawWIP is the drawing refreshed during a run.
func (p Paths) DrawWIP(id problem.ID) string { return p.join("draw", "wip", id.String()+".svg") }

func invalidID(id problem.ID) error {
	return errors.New(errors.ErrCodeInvalidInput, "problem id %d out of range 1..%d", id, problem.LastProblem)
}
