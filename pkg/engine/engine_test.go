package engine

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/geom"
	"github.com/matzehuels/encore/pkg/problem"
)

func near(a, b, rel float64) bool {
	return math.Abs(a-b) <= rel*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func initialSolution(t *testing.T, p *problem.Problem, rng *rand.Rand) *problem.Solution {
	t.Helper()
	s, err := problem.InitialSolution(p, rng)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExampleScore(t *testing.T) {
	p := problem.Example()
	s := problem.ExampleSolution()

	tests := []struct {
		variant problem.Variant
		want    float64
	}{
		{problem.V1, 5343},
		{problem.V2, 3270},
	}
	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			got, err := Score(p, tt.variant, s)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if math.Abs(got-tt.want)/tt.want > 0.01 {
				t.Errorf("Score() = %.2f, want %.0f within 1%%", got, tt.want)
			}
		})
	}
}

func TestExampleDetails(t *testing.T) {
	p := problem.Example()
	e, err := New(p, problem.V1, problem.ExampleSolution())
	if err != nil {
		t.Fatal(err)
	}

	// Musician 2 stands between musician 1 and the third attendee, and
	// musician 1's instrument is disliked by the first attendee.
	if got := e.Occlusion(1); got[2] != 1 {
		t.Errorf("Occlusion(1) = %v, want attendee 2 hidden once", got)
	}
	if got := e.Occlusion(2); got[2] != 0 {
		t.Errorf("Occlusion(2) = %v, want attendee 2 visible", got)
	}
	if e.MusicianScore(1) >= 0 {
		t.Errorf("MusicianScore(1) = %v, want negative", e.MusicianScore(1))
	}

	sol := e.Solution()
	want := []float64{10, 0, 10}
	for i, v := range sol.Volumes {
		if v != want[i] {
			t.Errorf("Solution().Volumes[%d] = %v, want %v", i, v, want[i])
		}
	}

	var trial float64
	for i := range e.Len() {
		trial += math.Max(0, e.MusicianScore(i)) * problem.DefaultVolume
	}
	if !near(e.TrialScore(), trial, 1e-12) {
		t.Errorf("TrialScore() = %v, want %v", e.TrialScore(), trial)
	}

	te, err := New(p, problem.V1, problem.ExampleSolution(), WithMode(Trial))
	if err != nil {
		t.Fatal(err)
	}
	if te.Score() != te.TrialScore() || te.Mode() != Trial {
		t.Errorf("trial engine Score() = %v, TrialScore() = %v", te.Score(), te.TrialScore())
	}
}

func TestExampleCloseness(t *testing.T) {
	p := problem.Example()
	e, err := New(p, problem.V2, problem.ExampleSolution())
	if err != nil {
		t.Fatal(err)
	}
	d := geom.Pt(590, 10).Distance(geom.Pt(1100, 150))
	for _, i := range []int{0, 2} {
		if !near(e.Closeness(i), 1+1/d, 1e-12) {
			t.Errorf("Closeness(%d) = %v, want %v", i, e.Closeness(i), 1+1/d)
		}
	}
	if e.Closeness(1) != 1 {
		t.Errorf("Closeness(1) = %v, want 1", e.Closeness(1))
	}

	v1, _ := New(p, problem.V1, problem.ExampleSolution())
	for i := range v1.Len() {
		if v1.Closeness(i) != 1 {
			t.Errorf("V1 Closeness(%d) = %v, want 1", i, v1.Closeness(i))
		}
	}
}

func TestNewRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*problem.Solution)
	}{
		{"short placements", func(s *problem.Solution) { s.Placements = s.Placements[:2] }},
		{"missing volume", func(s *problem.Solution) { s.Volumes = s.Volumes[:1] }},
		{"coincident musicians", func(s *problem.Solution) { s.Placements[2] = s.Placements[1] }},
		{"musician on attendee", func(s *problem.Solution) { s.Placements[0] = geom.Pt(100, 500) }},
		{"infinite placement", func(s *problem.Solution) { s.Placements[0].Y = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := problem.ExampleSolution()
			tt.mutate(s)
			if _, err := New(problem.Example(), problem.V2, s); !errors.Is(err, errors.ErrCodeInvalidSolution) {
				t.Errorf("New() error = %v, want INVALID_SOLUTION", err)
			}
		})
	}

	p := problem.Example()
	p.Musicians[0] = 7
	if _, err := New(p, problem.V1, problem.ExampleSolution()); !errors.Is(err, errors.ErrCodeInvalidProblem) {
		t.Errorf("New() error = %v, want INVALID_PROBLEM", err)
	}
	if _, err := New(problem.Example(), problem.Variant(9), problem.ExampleSolution()); err == nil {
		t.Error("New() accepted an unknown variant")
	}
}

func TestCollides(t *testing.T) {
	e, err := New(problem.Example(), problem.V1, problem.ExampleSolution())
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		i    int
		p    geom.Point
		want bool
	}{
		{"free spot", 0, geom.Pt(800, 100), false},
		{"own spot", 0, geom.Pt(590, 10), false},
		{"inside spacing", 0, geom.Pt(1100, 109.5), true},
		{"on neighbour", 0, geom.Pt(1100, 100), true},
		{"just outside spacing", 0, geom.Pt(1100, 125), false},
		{"inside margin", 0, geom.Pt(505, 100), true},
		{"off stage", 0, geom.Pt(1000, 300), true},
		{"stage corner", 0, geom.Pt(510, 10), false},
		{"exactly ten away", 1, geom.Pt(1100, 140), true},
		{"just over ten away", 1, geom.Pt(1100, 139.9), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Collides(tt.i, tt.p); got != tt.want {
				t.Errorf("Collides(%d, %v) = %v, want %v", tt.i, tt.p, got, tt.want)
			}
		})
	}
}

func TestDegenerateOccluder(t *testing.T) {
	p := &problem.Problem{
		RoomWidth: 200, RoomHeight: 200,
		StageWidth: 100, StageHeight: 100,
		StageBottomLeft: [2]float64{50, 0},
		Musicians:       []int{0},
		Attendees: []problem.Attendee{
			{X: 100, Y: 110, Tastes: []float64{1}},
			{X: 100, Y: 190, Tastes: []float64{1}},
		},
		Pillars: []problem.Pillar{{Center: [2]float64{100, 60}, Radius: 40}},
	}
	s := &problem.Solution{Placements: []geom.Point{geom.Pt(100, 50)}, Volumes: []float64{10}}

	e, err := New(p, problem.V2, s)
	if err != nil {
		t.Fatal(err)
	}
	// The musician stands inside the pillar: everything behind the pillar
	// center is hidden, the nearer attendee is not.
	occ := e.Occlusion(0)
	if occ[0] != 1 || occ[1] != 1 {
		t.Errorf("Occlusion(0) = %v, want [1 1]", occ)
	}
	if math.IsNaN(e.Score()) || !near(e.Score(), 0, 1e-9) {
		t.Errorf("Score() = %v, want 0", e.Score())
	}

	// Move the pillar behind the first attendee.
	p.Pillars[0] = problem.Pillar{Center: [2]float64{100, 150}, Radius: 5}
	e, err = New(p, problem.V2, s)
	if err != nil {
		t.Fatal(err)
	}
	occ = e.Occlusion(0)
	if occ[0] != 0 || occ[1] != 1 {
		t.Errorf("Occlusion(0) = %v, want [0 1]", occ)
	}
	want := problem.ImpactScale / (60 * 60) * 10
	if !near(e.Score(), want, 1e-12) {
		t.Errorf("Score() = %v, want %v", e.Score(), want)
	}
}

func TestWrappingRange(t *testing.T) {
	// An occluder due east of the musician straddles angle zero.
	p := &problem.Problem{
		RoomWidth: 400, RoomHeight: 400,
		StageWidth: 100, StageHeight: 100,
		StageBottomLeft: [2]float64{100, 100},
		Musicians:       []int{0, 0},
		Attendees: []problem.Attendee{
			{X: 300, Y: 151, Tastes: []float64{1}}, // just above east
			{X: 300, Y: 149, Tastes: []float64{1}}, // just below east
			{X: 20, Y: 150, Tastes: []float64{1}},  // due west
		},
	}
	s := &problem.Solution{
		Placements: []geom.Point{geom.Pt(120, 150), geom.Pt(140, 150)},
		Volumes:    []float64{10, 10},
	}
	e, err := New(p, problem.V1, s)
	if err != nil {
		t.Fatal(err)
	}
	occ := e.Occlusion(0)
	if occ[0] != 1 || occ[1] != 1 || occ[2] != 0 {
		t.Errorf("Occlusion(0) = %v, want [1 1 0]", occ)
	}
	occ = e.Occlusion(1)
	if occ[0] != 0 || occ[1] != 0 || occ[2] != 1 {
		t.Errorf("Occlusion(1) = %v, want [0 0 1]", occ)
	}
}

func TestScoreMatchesBruteForce(t *testing.T) {
	for seed := range uint64(5) {
		rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
		p := randomProblem(rng, 12, 60, 3, 0)
		s := initialSolution(t, p, rng)
		e, err := New(p, problem.V1, s)
		if err != nil {
			t.Fatal(err)
		}
		want := bruteForce(p, s)
		if !near(e.Score(), want, 1e-9) {
			t.Errorf("seed %d: Score() = %v, brute force = %v", seed, e.Score(), want)
		}
	}
}

// bruteForce scores s under V1 by testing every sight line against every
// other musician's body.
func bruteForce(p *problem.Problem, s *problem.Solution) float64 {
	var total float64
	for i, pi := range s.Placements {
		var sum float64
		for _, a := range p.Attendees {
			blocked := false
			for j, pj := range s.Placements {
				if j != i && geom.SegmentIntersectsCircle(pi, a.Point(), pj, problem.BlockRadius) {
					blocked = true
					break
				}
			}
			if !blocked {
				sum += problem.ImpactScale * a.Tastes[p.Musicians[i]] / pi.DistanceSquared(a.Point())
			}
		}
		total += sum * s.Volumes[i]
	}
	return total
}

func TestIncrementalMatchesRebuild(t *testing.T) {
	for _, variant := range []problem.Variant{problem.V1, problem.V2} {
		for _, mode := range []Mode{Final, Trial} {
			t.Run(variant.String()+"/"+mode.String(), func(t *testing.T) {
				rng := rand.New(rand.NewPCG(7, uint64(variant)))
				p := randomProblem(rng, 10, 80, 3, 3)
				start := initialSolution(t, p, rng)
				for i := range start.Volumes {
					start.Volumes[i] = float64(i % 11)
				}
				e, err := New(p, variant, start, WithMode(mode))
				if err != nil {
					t.Fatal(err)
				}

				for step := range 400 {
					randomStep(rng, e)
					assertNonNegative(t, e)
					if step%50 != 49 {
						continue
					}
					sol := &problem.Solution{Placements: e.Solution().Placements, Volumes: start.Volumes}
					fresh, err := New(p, variant, sol, WithMode(mode))
					if err != nil {
						t.Fatal(err)
					}
					if !near(e.Score(), fresh.Score(), 1e-7) {
						t.Fatalf("step %d: incremental %v, rebuilt %v", step, e.Score(), fresh.Score())
					}
					for i := range e.Len() {
						if !near(e.Closeness(i), fresh.Closeness(i), 1e-10) {
							t.Fatalf("step %d: Closeness(%d) = %v, rebuilt %v", step, i, e.Closeness(i), fresh.Closeness(i))
						}
						if !equalCounters(e.Occlusion(i), fresh.Occlusion(i)) {
							t.Fatalf("step %d: Occlusion(%d) = %v, rebuilt %v", step, i, e.Occlusion(i), fresh.Occlusion(i))
						}
					}
				}

				before := e.Score()
				e.Rebuild()
				if !near(before, e.Score(), 1e-9) {
					t.Errorf("Rebuild() moved score from %v to %v", before, e.Score())
				}
			})
		}
	}
}

func TestMoveInverse(t *testing.T) {
	for _, variant := range []problem.Variant{problem.V1, problem.V2} {
		t.Run(variant.String(), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(11, 13))
			p := randomProblem(rng, 10, 60, 2, 2)
			e, err := New(p, variant, initialSolution(t, p, rng), WithMode(Trial))
			if err != nil {
				t.Fatal(err)
			}
			for range 200 {
				i := rng.IntN(e.Len())
				to := p.RandomPointOnStage(rng)
				if e.Collides(i, to) {
					continue
				}
				from := e.Place(i)
				score, counters, q := snapshot(e)

				e.Move(i, to)
				e.Move(i, from)

				assertRestored(t, e, score, counters, q)
			}
		})
	}
}

func TestSwapInverse(t *testing.T) {
	for _, variant := range []problem.Variant{problem.V1, problem.V2} {
		t.Run(variant.String(), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(17, 19))
			p := randomProblem(rng, 10, 60, 2, 2)
			e, err := New(p, variant, initialSolution(t, p, rng), WithMode(Trial))
			if err != nil {
				t.Fatal(err)
			}
			for range 100 {
				a, b := rng.IntN(e.Len()), rng.IntN(e.Len())
				score, counters, q := snapshot(e)

				e.Swap(a, b)
				e.Swap(a, b)

				assertRestored(t, e, score, counters, q)
			}
		})
	}
}

func TestSwapCloseness(t *testing.T) {
	p := problem.Example()
	e, err := New(p, problem.V2, problem.ExampleSolution())
	if err != nil {
		t.Fatal(err)
	}

	// Musician 0 takes (1100, 100), 50 below its partner at (1100, 150).
	e.Swap(0, 1)
	want := []float64{1 + 1.0/50, 1, 1 + 1.0/50}
	for i, q := range want {
		if !near(e.Closeness(i), q, 1e-12) {
			t.Errorf("Closeness(%d) = %v, want %v", i, e.Closeness(i), q)
		}
	}

	// Same-instrument swap: the shared pair is counted once.
	e.Swap(0, 2)
	for i, q := range want {
		if !near(e.Closeness(i), q, 1e-12) {
			t.Errorf("after Swap(0, 2): Closeness(%d) = %v, want %v", i, e.Closeness(i), q)
		}
	}
	e.Swap(1, 1)
	if e.Place(1) != geom.Pt(590, 10) {
		t.Errorf("Swap(1, 1) moved musician 1 to %v", e.Place(1))
	}
}

func snapshot(e *Engine) (float64, [][]int32, []float64) {
	counters := make([][]int32, e.Len())
	q := make([]float64, e.Len())
	for i := range e.Len() {
		counters[i] = e.Occlusion(i)
		q[i] = e.Closeness(i)
	}
	return e.Score(), counters, q
}

func assertRestored(t *testing.T, e *Engine, score float64, counters [][]int32, q []float64) {
	t.Helper()
	if !near(e.Score(), score, 1e-8) {
		t.Fatalf("score = %v, want %v", e.Score(), score)
	}
	for i := range e.Len() {
		if !equalCounters(e.Occlusion(i), counters[i]) {
			t.Fatalf("Occlusion(%d) = %v, want %v", i, e.Occlusion(i), counters[i])
		}
		if !near(e.Closeness(i), q[i], 1e-10) {
			t.Fatalf("Closeness(%d) = %v, want %v", i, e.Closeness(i), q[i])
		}
	}
}

func assertNonNegative(t *testing.T, e *Engine) {
	t.Helper()
	for i := range e.Len() {
		for k, c := range e.Occlusion(i) {
			if c < 0 {
				t.Fatalf("Occlusion(%d)[%d] = %d", i, k, c)
			}
		}
	}
}

func equalCounters(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// randomStep applies one collision-free move or swap.
func randomStep(rng *rand.Rand, e *Engine) {
	if rng.IntN(4) == 0 {
		e.Swap(rng.IntN(e.Len()), rng.IntN(e.Len()))
		return
	}
	i := rng.IntN(e.Len())
	var to geom.Point
	if rng.IntN(2) == 0 {
		to = e.Problem().RandomPointOnStage(rng)
	} else {
		angle := rng.Float64() * geom.TwoPi
		dist := 30 * rng.Float64()
		to = e.Place(i).Add(dist*math.Cos(angle), dist*math.Sin(angle))
	}
	if !e.Collides(i, to) {
		e.Move(i, to)
	}
}

// randomProblem builds a 400x400 room with a 200x200 stage in the middle.
// Attendees and pillars are kept off the stage.
func randomProblem(rng *rand.Rand, musicians, attendees, instruments, pillars int) *problem.Problem {
	p := &problem.Problem{
		RoomWidth: 400, RoomHeight: 400,
		StageWidth: 200, StageHeight: 200,
		StageBottomLeft: [2]float64{100, 100},
	}
	for range musicians {
		p.Musicians = append(p.Musicians, rng.IntN(instruments))
	}
	offStage := func() geom.Point {
		for {
			pt := geom.Pt(rng.Float64()*400, rng.Float64()*400)
			if !p.Stage().Inset(-2).Contains(pt) {
				return pt
			}
		}
	}
	for range attendees {
		pt := offStage()
		tastes := make([]float64, instruments)
		for k := range tastes {
			tastes[k] = rng.Float64()*2000 - 1000
		}
		p.Attendees = append(p.Attendees, problem.Attendee{X: pt.X, Y: pt.Y, Tastes: tastes})
	}
	for range pillars {
		pt := offStage()
		p.Pillars = append(p.Pillars, problem.Pillar{Center: [2]float64{pt.X, pt.Y}, Radius: 2 + rng.Float64()*10})
	}
	return p
}
