package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/geom"
	"github.com/matzehuels/encore/pkg/problem"
)

func testRecord(score float64) *Record {
	return NewRecord(42, "sa-temp0-100-iter-50000", score, &problem.Solution{
		Placements: []geom.Point{{X: 1, Y: 2}, {X: 30, Y: 40}},
		Volumes:    []float64{10, 0},
	})
}

func TestFileLayout(t *testing.T) {
	root := t.TempDir()
	f := NewFile(root)
	rec := testRecord(1234.5)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"archive", f.ArchivePath(rec), "all/42-sa-temp0-100-iter-50000-1234.5.json"},
		{"solver", f.SolverPath(rec.Solver, 42), "sa-temp0-100-iter-50000/42.json"},
		{"best", f.BestPath(42), "best/42.json"},
		{"submission", f.SubmissionPath(42), "submission/42.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if want := filepath.Join(root, tt.want); tt.got != want {
				t.Errorf("path = %s, want %s", tt.got, want)
			}
		})
	}
}

func TestFileSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	f := NewFile(t.TempDir())
	rec := testRecord(-3.25)

	if _, err := f.Best(ctx, 42); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Best() on empty store = %v, want NOT_FOUND", err)
	}
	if err := f.Save(ctx, rec); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	latest, err := f.Latest(ctx, rec.Solver, 42)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Placements[1] != (geom.Point{X: 30, Y: 40}) || latest.Volumes[1] != 0 {
		t.Errorf("Latest() = %+v", latest)
	}
	if ids, _ := f.BestIDs(); len(ids) != 0 {
		t.Errorf("BestIDs() before SaveBest = %v", ids)
	}

	if err := f.SaveBest(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveBest(ctx, NewRecord(7, "manual", 1, rec.Solution)); err != nil {
		t.Fatal(err)
	}
	best, err := f.Best(ctx, 42)
	if err != nil || best.Len() != 2 {
		t.Errorf("Best() = %+v, %v", best, err)
	}
	ids, err := f.BestIDs()
	if err != nil || len(ids) != 2 || ids[0] != 7 || ids[1] != 42 {
		t.Errorf("BestIDs() = %v, %v", ids, err)
	}
}

func TestFileRejects(t *testing.T) {
	ctx := context.Background()
	f := NewFile(t.TempDir())

	bad := testRecord(1)
	bad.Solver = "../escape"
	if err := f.Save(ctx, bad); !errors.Is(err, errors.ErrCodeInvalidSolver) {
		t.Errorf("Save() with bad solver = %v", err)
	}
	if err := f.Save(ctx, &Record{Solver: "sa"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save() without solution = %v", err)
	}
	if _, err := f.Latest(ctx, "a/b", 1); err == nil {
		t.Error("Latest() accepted a path-like solver name")
	}
}

func TestRecord(t *testing.T) {
	a, b := testRecord(1), testRecord(1)
	if a.RunID == uuid.Nil || a.RunID == b.RunID {
		t.Errorf("run ids %s and %s should be distinct and set", a.RunID, b.RunID)
	}
	if a.CreatedAt.IsZero() || a.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v", a.CreatedAt)
	}
	tests := []struct {
		score float64
		want  string
	}{
		{5343, "5343"},
		{5343.5, "5343.5"},
		{-12.125, "-12.125"},
	}
	for _, tt := range tests {
		r := testRecord(tt.score)
		if got := r.ScoreString(); got != tt.want {
			t.Errorf("ScoreString(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save", func(mt *mtest.T) {
		m := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		if err := m.Save(context.Background(), testRecord(10)); err != nil {
			t.Errorf("Save() = %v", err)
		}
	})

	mt.Run("save best", func(mt *mtest.T) {
		m := NewMongo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		if err := m.SaveBest(context.Background(), testRecord(10)); err != nil {
			t.Errorf("SaveBest() = %v", err)
		}
	})

	mt.Run("best", func(mt *mtest.T) {
		m := NewMongo(mt.DB)
		runID := uuid.New()
		doc := bson.D{
			{Key: "run_id", Value: runID.String()},
			{Key: "problem_id", Value: int64(42)},
			{Key: "solver", Value: "sa"},
			{Key: "score", Value: 99.5},
			{Key: "solution", Value: bson.D{
				{Key: "placements", Value: bson.A{bson.D{{Key: "x", Value: 1.0}, {Key: "y", Value: 2.0}}}},
				{Key: "volumes", Value: bson.A{10.0}},
			}},
		}
		ns := mt.DB.Name() + "." + BestCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, doc))

		rec, err := m.BestRecord(context.Background(), 42)
		if err != nil {
			t.Fatalf("BestRecord() = %v", err)
		}
		if rec.RunID != runID || rec.Score != 99.5 || rec.Solution.Placements[0] != (geom.Point{X: 1, Y: 2}) {
			t.Errorf("BestRecord() = %+v", rec)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		m := NewMongo(mt.DB)
		ns := mt.DB.Name() + "." + RunsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		if _, err := m.Latest(context.Background(), "sa", 3); !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("Latest() = %v, want NOT_FOUND", err)
		}
	})
}
