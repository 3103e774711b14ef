package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/problem"
)

// Collection names used by Mongo.
const (
	RunsCollection = "runs"
	BestCollection = "best"
)

// Mongo stores records in two collections: runs holds every result, best
// holds one document per problem.
type Mongo struct {
	client *mongo.Client
	runs   *mongo.Collection
	best   *mongo.Collection
}

// mongoRecord is the stored document. Run ids are kept as strings so that
// they stay readable in the shell.
type mongoRecord struct {
	RunID     string            `bson:"run_id"`
	ProblemID int64             `bson:"problem_id"`
	Solver    string            `bson:"solver"`
	Score     float64           `bson:"score"`
	Solution  *problem.Solution `bson:"solution"`
	CreatedAt time.Time         `bson:"created_at"`
}

// DialMongo connects to uri and uses database db.
func DialMongo(ctx context.Context, uri, db string) (*Mongo, error) {
	if err := errors.ValidateURL(uri, "mongodb", "mongodb+srv"); err != nil {
		return nil, err
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "mongo client")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongo")
	}
	m := NewMongo(client.Database(db))
	m.client = client
	return m, nil
}

// NewMongo uses an existing database handle. Close does not disconnect it.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		runs: db.Collection(RunsCollection),
		best: db.Collection(BestCollection),
	}
}

// EnsureIndexes creates the lookup indexes. It is idempotent.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "solver", Value: 1}, {Key: "problem_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return err
	}
	_, err = m.best.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "problem_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Save implements Store.
func (m *Mongo) Save(ctx context.Context, rec *Record) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	if _, err := m.runs.InsertOne(ctx, toDocument(rec)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "insert run %s", rec.RunID)
	}
	return nil
}

// SaveBest implements Store.
func (m *Mongo) SaveBest(ctx context.Context, rec *Record) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	_, err := m.best.ReplaceOne(ctx,
		bson.D{{Key: "problem_id", Value: int64(rec.ProblemID)}},
		toDocument(rec),
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save best for problem %d", rec.ProblemID)
	}
	return nil
}

// Best implements Store.
func (m *Mongo) Best(ctx context.Context, id problem.ID) (*problem.Solution, error) {
	rec, err := m.BestRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Solution, nil
}

// BestRecord returns the full best record for id.
func (m *Mongo) BestRecord(ctx context.Context, id problem.ID) (*Record, error) {
	return m.findOne(ctx, m.best, bson.D{{Key: "problem_id", Value: int64(id)}})
}

// Latest implements Store.
func (m *Mongo) Latest(ctx context.Context, solver string, id problem.ID) (*problem.Solution, error) {
	if err := errors.ValidateSolverName(solver); err != nil {
		return nil, err
	}
	rec, err := m.findOne(ctx, m.runs,
		bson.D{{Key: "solver", Value: solver}, {Key: "problem_id", Value: int64(id)}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return rec.Solution, nil
}

// Close implements Store.
func (m *Mongo) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Mongo) findOne(ctx context.Context, coll *mongo.Collection, filter bson.D, opts ...*options.FindOneOptions) (*Record, error) {
	var doc mongoRecord
	err := coll.FindOne(ctx, filter, opts...).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "no %s record matches %v", coll.Name(), filter)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "query %s", coll.Name())
	}
	return fromDocument(&doc)
}

func toDocument(rec *Record) *mongoRecord {
	return &mongoRecord{
		RunID:     rec.RunID.String(),
		ProblemID: int64(rec.ProblemID),
		Solver:    rec.Solver,
		Score:     rec.Score,
		Solution:  rec.Solution,
		CreatedAt: rec.CreatedAt,
	}
}

func fromDocument(doc *mongoRecord) (*Record, error) {
	runID, err := uuid.Parse(doc.RunID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "run id %q", doc.RunID)
	}
	if doc.Solution == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "run %s has no solution", doc.RunID)
	}
	return &Record{
		RunID:     runID,
		ProblemID: problem.ID(doc.ProblemID),
		Solver:    doc.Solver,
		Score:     doc.Score,
		Solution:  doc.Solution,
		CreatedAt: doc.CreatedAt,
	}, nil
}

var _ Store = (*Mongo)(nil)
