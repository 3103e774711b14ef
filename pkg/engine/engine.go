package engine

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/geom"
	"github.com/matzehuels/encore/pkg/problem"
)

// Mode selects how per-musician scores are aggregated.
type Mode int

const (
	// Final weights each musician by its solution volume.
	Final Mode = iota
	// Trial mutes negative musicians and plays the rest at default volume.
	Trial
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == Trial {
		return "trial"
	}
	return "final"
}

// Option configures an Engine.
type Option func(*Engine)

// WithMode sets the scoring mode. The default is Final.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// node is one attendee in a musician's bearing-sorted index.
type node struct {
	angle  float64
	index  int
	nblock int32
	// weight is ImpactScale·taste/dist², fixed until the owner moves.
	weight float64
	dist2  float64
}

// Engine holds the incremental scoring state for one placement.
type Engine struct {
	problem   *problem.Problem
	variant   problem.Variant
	mode      Mode
	attendees []geom.Point
	volumes   []float64

	place  []geom.Point
	q      []float64
	index  [][]node
	scores []float64
	score  float64
}

// New builds an engine for sol and scores it from scratch. The problem and
// solution are validated first; coincident musicians, or a musician standing
// on an attendee, are rejected because their distances would be zero.
func New(p *problem.Problem, variant problem.Variant, sol *problem.Solution, opts ...Option) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := sol.Validate(p); err != nil {
		return nil, err
	}
	if variant != problem.V1 && variant != problem.V2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown variant %d", int(variant))
	}

	n := len(p.Musicians)
	e := &Engine{
		problem:   p,
		variant:   variant,
		attendees: make([]geom.Point, len(p.Attendees)),
		volumes:   slices.Clone(sol.Volumes),
		place:     slices.Clone(sol.Placements),
		q:         make([]float64, n),
		index:     make([][]node, n),
		scores:    make([]float64, n),
	}
	for _, opt := range opts {
		opt(e)
	}
	for k, a := range p.Attendees {
		e.attendees[k] = a.Point()
	}

	for i, pi := range e.place {
		for j := range i {
			if pi.DistanceSquared(e.place[j]) == 0 {
				return nil, errors.New(errors.ErrCodeInvalidSolution, "musicians %d and %d share position %v", j, i, pi)
			}
		}
		for k, a := range e.attendees {
			if pi.DistanceSquared(a) == 0 {
				return nil, errors.New(errors.ErrCodeInvalidSolution, "musician %d stands on attendee %d at %v", i, k, pi)
			}
		}
	}

	for i := range e.index {
		e.index[i] = make([]node, len(e.attendees))
	}
	e.Rebuild()
	return e, nil
}

// Score builds a Final-mode engine for sol and returns its score.
func Score(p *problem.Problem, variant problem.Variant, sol *problem.Solution) (float64, error) {
	e, err := New(p, variant, sol)
	if err != nil {
		return 0, err
	}
	return e.Score(), nil
}

// Rebuild recomputes every index, counter and closeness factor from the
// current placement. Long runs call it periodically to shed the rounding
// error that accumulates across incremental updates.
func (e *Engine) Rebuild() {
	e.computeCloseness()
	for i := range e.place {
		e.rebuild(i)
	}
	e.updateScore()
}

// Move places musician i at to. The caller must have checked Collides.
func (e *Engine) Move(i int, to geom.Point) {
	for j := range e.place {
		if j != i {
			e.musicianBlock(j, i, -1)
		}
	}
	if e.variant.FullRound() {
		e.retractCloseness(i)
	}

	e.place[i] = to

	e.q[i] = 1
	if e.variant.FullRound() {
		e.addCloseness(i)
	}
	e.rebuild(i)

	for j := range e.place {
		if j != i {
			e.musicianBlock(j, i, +1)
		}
	}
	e.updateScore()
}

// Swap exchanges the positions of musicians a and b. Nobody else's index
// changes because the set of occupied positions is the same.
func (e *Engine) Swap(a, b int) {
	if a == b {
		return
	}
	full := e.variant.FullRound()
	if full {
		e.retractCloseness(a)
		e.retractCloseness(b)
	}

	e.place[a], e.place[b] = e.place[b], e.place[a]
	e.rebuild(a)
	e.rebuild(b)

	if full {
		e.q[a] = 1
		e.q[b] = 1
		e.addCloseness(a)
		e.addCloseness(b)
		// Both calls above credited the a-b pair.
		if e.problem.Musicians[a] == e.problem.Musicians[b] {
			d := 1 / e.place[a].Distance(e.place[b])
			e.q[a] -= d
			e.q[b] -= d
		}
	}
	e.updateScore()
}

// Collides reports whether musician i may not stand at p: p is off the
// usable stage or within MinSpacing of another musician.
func (e *Engine) Collides(i int, p geom.Point) bool {
	if !e.problem.OnStage(p) {
		return true
	}
	for j, pj := range e.place {
		if j != i && p.DistanceSquared(pj) < problem.MinSpacingSquared+problem.Eps {
			return true
		}
	}
	return false
}

// Score returns the aggregate score in the engine's mode.
func (e *Engine) Score() float64 { return e.score }

// TrialScore returns the aggregate score as Trial mode computes it,
// regardless of the engine's mode.
func (e *Engine) TrialScore() float64 {
	var total float64
	for i, s := range e.scores {
		total += math.Max(0, e.q[i]*s) * problem.DefaultVolume
	}
	return total
}

// FinalScore returns the aggregate score weighted by the input volumes,
// regardless of the engine's mode.
func (e *Engine) FinalScore() float64 {
	var total float64
	for i, s := range e.scores {
		total += e.q[i] * s * e.volumes[i]
	}
	return total
}

// Mode returns the engine's scoring mode.
func (e *Engine) Mode() Mode { return e.mode }

// Variant returns the scoring rules in effect.
func (e *Engine) Variant() problem.Variant { return e.variant }

// Problem returns the problem the engine scores.
func (e *Engine) Problem() *problem.Problem { return e.problem }

// Len returns the number of musicians.
func (e *Engine) Len() int { return len(e.place) }

// Place returns musician i's current position.
func (e *Engine) Place(i int) geom.Point { return e.place[i] }

// MusicianScore returns musician i's unoccluded impact sum, before closeness
// and volume.
func (e *Engine) MusicianScore(i int) float64 { return e.scores[i] }

// Closeness returns musician i's closeness factor. It is 1 under V1.
func (e *Engine) Closeness(i int) float64 { return e.q[i] }

// Occlusion returns, for every attendee in problem order, how many occluders
// currently hide it from musician i.
func (e *Engine) Occlusion(i int) []int32 {
	out := make([]int32, len(e.attendees))
	for _, n := range e.index[i] {
		out[n.index] = n.nblock
	}
	return out
}

// Solution returns the current placement. Musicians whose score is at or
// below problem.MuteThreshold are muted; everybody else plays at the default
// volume.
func (e *Engine) Solution() *problem.Solution {
	volumes := make([]float64, len(e.scores))
	for i, s := range e.scores {
		if s > problem.MuteThreshold {
			volumes[i] = problem.DefaultVolume
		}
	}
	return &problem.Solution{
		Placements: slices.Clone(e.place),
		Volumes:    volumes,
	}
}

func (e *Engine) updateScore() {
	if e.mode == Trial {
		e.score = e.TrialScore()
	} else {
		e.score = e.FinalScore()
	}
}

// rebuild recomputes musician i's index from its current position and
// re-applies every other musician and, under V2, every pillar.
func (e *Engine) rebuild(i int) {
	p := e.place[i]
	inst := e.problem.Musicians[i]
	idx := e.index[i]

	var sum float64
	for k, a := range e.attendees {
		d2 := p.DistanceSquared(a)
		w := problem.ImpactScale * e.problem.Attendees[k].Tastes[inst] / d2
		idx[k] = node{
			angle:  geom.NormAngle(p.Bearing(a)),
			index:  k,
			weight: w,
			dist2:  d2,
		}
		sum += w
	}
	slices.SortFunc(idx, func(a, b node) int {
		if c := cmp.Compare(a.angle, b.angle); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})
	e.scores[i] = sum

	for j := range e.place {
		if j != i {
			e.musicianBlock(i, j, +1)
		}
	}
	if e.variant.FullRound() {
		for k := range e.problem.Pillars {
			e.pillarBlock(i, k)
		}
	}
}

// musicianBlock adds (delta=+1) or removes (delta=-1) musician j's body from
// musician i's index.
func (e *Engine) musicianBlock(i, j int, delta int32) {
	lo1, hi1, lo2, hi2 := e.blockRange(i, e.place[j], problem.BlockRadius)
	idx := e.index[i]
	if delta > 0 {
		e.hide(i, idx[lo1:hi1])
		e.hide(i, idx[lo2:hi2])
	} else {
		e.reveal(i, idx[lo1:hi1])
		e.reveal(i, idx[lo2:hi2])
	}
}

// pillarBlock adds pillar k to musician i's index. Only attendees behind the
// pillar center are hidden. Pillars never move, so there is no inverse.
func (e *Engine) pillarBlock(i, k int) {
	pl := e.problem.Pillars[k]
	c := pl.CenterPoint()
	depth := e.place[i].DistanceSquared(c)
	lo1, hi1, lo2, hi2 := e.blockRange(i, c, pl.Radius)
	idx := e.index[i]
	for _, r := range [2][2]int{{lo1, hi1}, {lo2, hi2}} {
		for n := r[0]; n < r[1]; n++ {
			if idx[n].dist2 > depth {
				e.hide(i, idx[n:n+1])
			}
		}
	}
}

func (e *Engine) hide(i int, nodes []node) {
	for n := range nodes {
		if nodes[n].nblock == 0 {
			e.scores[i] -= nodes[n].weight
		}
		nodes[n].nblock++
	}
}

func (e *Engine) reveal(i int, nodes []node) {
	for n := range nodes {
		nodes[n].nblock--
		if nodes[n].nblock == 0 {
			e.scores[i] += nodes[n].weight
		}
	}
}

// blockRange returns the index ranges [lo1, hi1) and [lo2, hi2) of musician
// i's attendees whose bearing falls in [θ-α, θ+α), where θ is the bearing of
// center and α = asin(r/d). A wrapping interval is split in two. An occluder
// that contains the musician covers every attendee.
func (e *Engine) blockRange(i int, center geom.Point, r float64) (lo1, hi1, lo2, hi2 int) {
	idx := e.index[i]
	m := len(idx)
	p := e.place[i]

	d := p.Distance(center)
	if d <= r {
		return 0, m, 0, 0
	}
	alpha := math.Asin(r / d)
	theta := p.Bearing(center)
	a0 := geom.NormAngle(theta - alpha)
	a1 := geom.NormAngle(theta + alpha)
	if alpha <= 0 || a0 == a1 {
		return 0, 0, 0, 0
	}

	ix0 := lowerBound(idx, a0)
	ix1 := lowerBound(idx, a1)
	if a0 < a1 {
		return ix0, ix1, 0, 0
	}
	return ix0, m, 0, ix1
}

// lowerBound returns the first position whose angle is >= angle.
func lowerBound(idx []node, angle float64) int {
	lo, hi := 0, len(idx)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if idx[mid].angle < angle {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// computeCloseness sets q from scratch.
func (e *Engine) computeCloseness() {
	for i := range e.q {
		e.q[i] = 1
	}
	if !e.variant.FullRound() {
		return
	}
	for i := range e.place {
		for j := range e.place {
			if i != j && e.problem.Musicians[i] == e.problem.Musicians[j] {
				e.q[i] += 1 / e.place[i].Distance(e.place[j])
			}
		}
	}
}

// retractCloseness removes musician i's contribution from every partner.
func (e *Engine) retractCloseness(i int) {
	inst := e.problem.Musicians[i]
	for j := range e.place {
		if j != i && e.problem.Musicians[j] == inst {
			e.q[j] -= 1 / e.place[i].Distance(e.place[j])
		}
	}
}

// addCloseness credits the pair contribution to both i and every partner.
func (e *Engine) addCloseness(i int) {
	inst := e.problem.Musicians[i]
	for j := range e.place {
		if j != i && e.problem.Musicians[j] == inst {
			d := 1 / e.place[i].Distance(e.place[j])
			e.q[i] += d
			e.q[j] += d
		}
	}
}
