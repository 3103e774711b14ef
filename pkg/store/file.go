package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/problem"
)

// File stores solutions as JSON files below root:
//
//	all/{id}-{solver}-{score}.json   every run
//	{solver}/{id}.json               latest run per solver
//	best/{id}.json                   best known solution
//	submission/{id}.json             last uploaded solution
type File struct {
	root string
}

// NewFile returns a store rooted at dir (usually {data_dir}/solution).
func NewFile(dir string) *File {
	return &File{root: dir}
}

// Root returns the store directory.
func (f *File) Root() string { return f.root }

// ArchivePath is where Save archives rec.
func (f *File) ArchivePath(rec *Record) string {
	return filepath.Join(f.root, "all", fmt.Sprintf("%d-%s-%s.json", rec.ProblemID, rec.Solver, rec.ScoreString()))
}

// SolverPath is where Save keeps solver's latest solution for id.
func (f *File) SolverPath(solver string, id problem.ID) string {
	return filepath.Join(f.root, solver, id.String()+".json")
}

// BestPath is the best solution for id.
func (f *File) BestPath(id problem.ID) string {
	return filepath.Join(f.root, "best", id.String()+".json")
}

// SubmissionPath is the last submitted solution for id.
func (f *File) SubmissionPath(id problem.ID) string {
	return filepath.Join(f.root, "submission", id.String()+".json")
}

// Save implements Store.
func (f *File) Save(ctx context.Context, rec *Record) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	for _, path := range []string{f.ArchivePath(rec), f.SolverPath(rec.Solver, rec.ProblemID)} {
		if err := problem.WriteSolutionFile(path, rec.Solution); err != nil {
			return fmt.Errorf("save solution: %w", err)
		}
	}
	return nil
}

// SaveBest implements Store.
func (f *File) SaveBest(ctx context.Context, rec *Record) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	return problem.WriteSolutionFile(f.BestPath(rec.ProblemID), rec.Solution)
}

// Best implements Store.
func (f *File) Best(ctx context.Context, id problem.ID) (*problem.Solution, error) {
	return readSolution(f.BestPath(id))
}

// Latest implements Store.
func (f *File) Latest(ctx context.Context, solver string, id problem.ID) (*problem.Solution, error) {
	if err := errors.ValidateSolverName(solver); err != nil {
		return nil, err
	}
	return readSolution(f.SolverPath(solver, id))
}

// Submission returns the last submitted solution for id.
func (f *File) Submission(ctx context.Context, id problem.ID) (*problem.Solution, error) {
	return readSolution(f.SubmissionPath(id))
}

// BestIDs lists the problems that have a best solution, in ascending order.
func (f *File) BestIDs() ([]problem.ID, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, "best"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []problem.ID
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() {
			continue
		}
		id, err := problem.ParseID(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Close implements Store.
func (f *File) Close() error { return nil }

func readSolution(path string) (*problem.Solution, error) {
	sol, err := problem.ReadSolutionFile(path)
	if errors.Is(err, errors.ErrCodeFileNotFound) {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "no solution at %s", path)
	}
	return sol, err
}

func checkRecord(rec *Record) error {
	if rec == nil || rec.Solution == nil {
		return errors.New(errors.ErrCodeInvalidInput, "record has no solution")
	}
	return errors.ValidateSolverName(rec.Solver)
}

var _ Store = (*File)(nil)
