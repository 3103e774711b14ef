package ledger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/problem"
)

// lockRetry is how often a blocked caller retries the lock.
const lockRetry = 10 * time.Millisecond

// File is a ledger stored as a JSON object mapping problem ids to scores,
// e.g. {"1": 3456.7, "42": 12.5}.
//
// The flock handle only excludes other processes, so calls within one
// process are serialised by mu as well.
type File struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFile returns a ledger backed by path. The file is created on the first
// successful Submit or Replace.
func NewFile(path string) *File {
	return &File{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the ledger file location.
func (f *File) Path() string { return f.path }

// Best implements Ledger.
func (f *File) Best(ctx context.Context, id problem.ID) (float64, bool, error) {
	scores, err := f.All(ctx)
	if err != nil {
		return 0, false, err
	}
	s, ok := scores[id]
	return s, ok, nil
}

// All implements Ledger.
func (f *File) All(ctx context.Context) (map[problem.ID]float64, error) {
	if err := f.acquire(ctx, false); err != nil {
		return nil, err
	}
	defer f.release()
	return f.read()
}

// Submit implements Ledger.
func (f *File) Submit(ctx context.Context, id problem.ID, score float64) (Outcome, error) {
	if err := f.acquire(ctx, true); err != nil {
		return Outcome{}, err
	}
	defer f.release()

	scores, err := f.read()
	if err != nil {
		return Outcome{}, err
	}
	prev, known := scores[id]
	out := decide(prev, known, score)
	if !out.Improved {
		return out, nil
	}
	scores[id] = score
	return out, f.write(scores)
}

// Replace implements Ledger.
func (f *File) Replace(ctx context.Context, scores map[problem.ID]float64) error {
	if err := f.acquire(ctx, true); err != nil {
		return err
	}
	defer f.release()
	return f.write(scores)
}

// Close implements Ledger.
func (f *File) Close() error {
	return f.lock.Close()
}

func (f *File) acquire(ctx context.Context, exclusive bool) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	f.mu.Lock()
	if err := f.lockFile(ctx, exclusive); err != nil {
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *File) release() {
	f.lock.Unlock()
	f.mu.Unlock()
}

func (f *File) lockFile(ctx context.Context, exclusive bool) error {
	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = f.lock.TryLockContext(ctx, lockRetry)
	} else {
		ok, err = f.lock.TryRLockContext(ctx, lockRetry)
	}
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(errors.ErrCodeTimeout, err, "waiting for ledger lock")
		}
		return errors.Wrap(errors.ErrCodeLocked, err, "lock ledger %s", f.path)
	}
	if !ok {
		return errors.New(errors.ErrCodeLocked, "ledger %s is locked", f.path)
	}
	return nil
}

func (f *File) read() (map[problem.ID]float64, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[problem.ID]float64{}, nil
	}
	if err != nil {
		return nil, err
	}
	scores := map[problem.ID]float64{}
	if len(data) == 0 {
		return scores, nil
	}
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode ledger %s", f.path)
	}
	return scores, nil
}

func (f *File) write(scores map[problem.ID]float64) error {
	data, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	return problem.WriteFileAtomic(f.path, data)
}
