package problem

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/encore/pkg/errors"
)

// Read decodes a problem from r and validates it.
func Read(r io.Reader) (*Problem, error) {
	var p Problem
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode problem")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ReadFile reads and validates the problem stored at path.
func ReadFile(path string) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "problem %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// ReadSolution decodes a solution from r. It is not validated; call
// Solution.Validate once the matching problem is known.
func ReadSolution(r io.Reader) (*Solution, error) {
	var s Solution
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode solution")
	}
	return &s, nil
}

// ReadSolutionFile reads the solution stored at path.
func ReadSolutionFile(path string) (*Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "solution %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return ReadSolution(f)
}

// WriteSolutionFile writes s to path as compact JSON, creating parent
// directories. The file is replaced atomically.
func WriteSolutionFile(path string, s *Solution) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// WriteFileAtomic writes data to a temporary sibling of path and renames it
// into place.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
