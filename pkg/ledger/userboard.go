package ledger

import (
	"os"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/problem"
)

// Userboard is the contest server's view of a team's scores, one slot per
// problem starting at id 1. Unsolved problems are null on the wire.
type Userboard struct {
	scores []float64
	solved []bool
}

// ParseUserboard decodes {"Success": {"problems": [score|null, ...]}}.
func ParseUserboard(data []byte) (*Userboard, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "userboard is not valid JSON")
	}
	problems := gjson.GetBytes(data, "Success.problems")
	if !problems.IsArray() {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "userboard has no Success.problems array")
	}
	ub := &Userboard{}
	problems.ForEach(func(_, v gjson.Result) bool {
		ub.scores = append(ub.scores, v.Float())
		ub.solved = append(ub.solved, v.Type == gjson.Number)
		return true
	})
	return ub, nil
}

// ReadUserboard reads a userboard file.
func ReadUserboard(path string) (*Userboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "userboard %s", path)
		}
		return nil, err
	}
	return ParseUserboard(data)
}

// Len returns the number of problem slots.
func (u *Userboard) Len() int { return len(u.scores) }

// Best returns the server's score for id.
func (u *Userboard) Best(id problem.ID) (float64, bool) {
	if id == 0 || int(id) > len(u.scores) {
		return 0, false
	}
	i := int(id) - 1
	return u.scores[i], u.solved[i]
}

// Scores returns every solved problem's score.
func (u *Userboard) Scores() map[problem.ID]float64 {
	out := make(map[problem.ID]float64)
	for i, s := range u.scores {
		if u.solved[i] {
			out[problem.ID(i+1)] = s
		}
	}
	return out
}

// Total sums the solved problems' scores.
func (u *Userboard) Total() float64 {
	return Total(u.Scores())
}
