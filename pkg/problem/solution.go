package problem

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/geom"
)

// Solution assigns a position and a volume to every musician.
type Solution struct {
	Placements []geom.Point `json:"placements" bson:"placements"`
	Volumes    []float64    `json:"volumes" bson:"volumes"`
}

// Clone returns a deep copy of s.
func (s *Solution) Clone() *Solution {
	return &Solution{
		Placements: slices.Clone(s.Placements),
		Volumes:    slices.Clone(s.Volumes),
	}
}

// Len returns the number of placed musicians.
func (s *Solution) Len() int {
	return len(s.Placements)
}

// Validate checks s against p: one placement and one volume per musician,
// all values finite and volumes within [0, 10].
func (s *Solution) Validate(p *Problem) error {
	n := len(p.Musicians)
	if len(s.Placements) != n {
		return errors.New(errors.ErrCodeInvalidSolution, "solution has %d placements, problem has %d musicians", len(s.Placements), n)
	}
	if len(s.Volumes) != n {
		return errors.New(errors.ErrCodeInvalidSolution, "solution has %d volumes, problem has %d musicians", len(s.Volumes), n)
	}
	for i, pt := range s.Placements {
		if !pt.IsFinite() {
			return errors.New(errors.ErrCodeInvalidSolution, "musician %d has a non-finite placement", i)
		}
	}
	for i, v := range s.Volumes {
		if math.IsNaN(v) || v < 0 || v > DefaultVolume {
			return errors.New(errors.ErrCodeInvalidSolution, "musician %d has volume %g outside [0, %g]", i, v, DefaultVolume)
		}
	}
	return nil
}

// Feasible reports the first placement rule s breaks: a musician off the
// usable stage or two musicians closer than MinSpacing. It returns nil for
// a placement the contest judge would accept.
func (s *Solution) Feasible(p *Problem) error {
	for i, pt := range s.Placements {
		if !p.OnStage(pt) {
			return errors.New(errors.ErrCodeInvalidSolution, "musician %d at %v is off the usable stage", i, pt)
		}
		for j := range i {
			if pt.DistanceSquared(s.Placements[j]) < MinSpacingSquared {
				return errors.New(errors.ErrCodeInvalidSolution, "musicians %d and %d are closer than %g", j, i, MinSpacing)
			}
		}
	}
	return nil
}

// maxRejections bounds the consecutive rejected draws for one musician
// before InitialSolution gives up on the stage.
const maxRejections = 100_000

// InitialSolution places every musician on a random point of the usable
// stage, rejecting points within MinSpacing of an earlier placement. All
// volumes start at DefaultVolume. A stage too small to hold every musician
// fails with INVALID_PROBLEM.
func InitialSolution(p *Problem, rng *rand.Rand) (*Solution, error) {
	placements := make([]geom.Point, 0, len(p.Musicians))
	for rejected := 0; len(placements) < len(p.Musicians); {
		if rejected == maxRejections {
			return nil, errors.New(errors.ErrCodeInvalidProblem,
				"stage fits only %d of %d musicians", len(placements), len(p.Musicians))
		}
		pt := p.RandomPointOnStage(rng)
		ok := true
		for _, q := range placements {
			if pt.DistanceSquared(q) <= MinSpacingSquared+Eps {
				ok = false
				break
			}
		}
		if !ok {
			rejected++
			continue
		}
		placements = append(placements, pt)
		rejected = 0
	}
	volumes := make([]float64, len(p.Musicians))
	for i := range volumes {
		volumes[i] = DefaultVolume
	}
	return &Solution{Placements: placements, Volumes: volumes}, nil
}
