package problem

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/geom"
)

// Scoring and placement constants.
const (
	// BlockRadius is the radius of the disk a musician's body occludes.
	BlockRadius = 5.0
	// StageMargin is how far a musician must stay from the stage edges.
	StageMargin = 10.0
	// MinSpacing is the minimum distance between two musicians.
	MinSpacing = 2 * BlockRadius
	// MinSpacingSquared is MinSpacing².
	MinSpacingSquared = MinSpacing * MinSpacing
	// Eps pads spacing comparisons against rounding.
	Eps = 1e-10
	// ImpactScale multiplies taste/distance² into a per-attendee impact.
	ImpactScale = 1e6
	// DefaultVolume is the volume of an audible musician.
	DefaultVolume = 10.0
	// MuteThreshold is the per-musician score at or below which a musician
	// is muted when a solution is derived from an engine.
	MuteThreshold = 1e-6
)

// ID identifies a contest problem.
type ID uint64

// ParseID parses a decimal problem id.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid problem id %q", s)
	}
	return ID(n), nil
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// LastProblem is the highest problem id published in the contest.
const LastProblem ID = 90

// LastV1Problem is the last problem scored under the first-round rules.
const LastV1Problem ID = 55

// Variant selects the scoring rules.
type Variant int

const (
	// V1 scores without pillars or the closeness bonus.
	V1 Variant = iota + 1
	// V2 enables pillar occlusion and the closeness bonus.
	V2
)

// VariantFor returns the variant problem id is scored under.
func VariantFor(id ID) Variant {
	if id <= LastV1Problem {
		return V1
	}
	return V2
}

// ParseVariant parses "v1" or "v2" (case-insensitive).
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v1", "1":
		return V1, nil
	case "v2", "2":
		return V2, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidInput, "unknown variant %q (want v1 or v2)", s)
	}
}

// String implements fmt.Stringer.
func (v Variant) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// FullRound reports whether pillars and the closeness bonus apply.
func (v Variant) FullRound() bool {
	return v == V2
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	if v != V1 && v != V2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown variant %d", int(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(b []byte) error {
	parsed, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Attendee is a fixed listener with one taste per instrument.
type Attendee struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Tastes []float64 `json:"tastes"`
}

// Point returns the attendee's position.
func (a Attendee) Point() geom.Point {
	return geom.Point{X: a.X, Y: a.Y}
}

// TasteAvg returns the mean of the attendee's tastes.
func (a Attendee) TasteAvg() float64 {
	if len(a.Tastes) == 0 {
		return 0
	}
	var sum float64
	for _, t := range a.Tastes {
		sum += t
	}
	return sum / float64(len(a.Tastes))
}

// TasteMax returns the attendee's highest taste.
func (a Attendee) TasteMax() float64 {
	best := math.Inf(-1)
	for _, t := range a.Tastes {
		best = math.Max(best, t)
	}
	return best
}

// Pillar is a static circular occluder.
type Pillar struct {
	Center [2]float64 `json:"center"`
	Radius float64    `json:"radius"`
}

// CenterPoint returns the pillar's center.
func (p Pillar) CenterPoint() geom.Point {
	return geom.Point{X: p.Center[0], Y: p.Center[1]}
}

// Problem is the immutable input of a placement run.
type Problem struct {
	RoomWidth       float64    `json:"room_width"`
	RoomHeight      float64    `json:"room_height"`
	StageWidth      float64    `json:"stage_width"`
	StageHeight     float64    `json:"stage_height"`
	StageBottomLeft [2]float64 `json:"stage_bottom_left"`
	Musicians       []int      `json:"musicians"`
	Attendees       []Attendee `json:"attendees"`
	Pillars         []Pillar   `json:"pillars"`
}

// String implements fmt.Stringer.
func (p *Problem) String() string {
	return fmt.Sprintf("musicians: %d, attendees: %d, pillars: %d, instruments: %d",
		len(p.Musicians), len(p.Attendees), len(p.Pillars), p.Instruments())
}

// Room returns the room rectangle anchored at the origin.
func (p *Problem) Room() geom.Rect {
	return geom.Rect{Width: p.RoomWidth, Height: p.RoomHeight}
}

// Stage returns the full stage rectangle.
func (p *Problem) Stage() geom.Rect {
	return geom.Rect{
		Min:    geom.Point{X: p.StageBottomLeft[0], Y: p.StageBottomLeft[1]},
		Width:  p.StageWidth,
		Height: p.StageHeight,
	}
}

// UsableStage returns the area musicians may stand on.
func (p *Problem) UsableStage() geom.Rect {
	return p.Stage().Inset(StageMargin)
}

// StageCenter returns the midpoint of the stage.
func (p *Problem) StageCenter() geom.Point {
	return p.Stage().Center()
}

// OnStage reports whether pt lies on the usable stage, boundary included.
func (p *Problem) OnStage(pt geom.Point) bool {
	return p.UsableStage().Contains(pt)
}

// RandomPointOnStage draws a uniform point from the usable stage. A side of
// zero length pins that coordinate.
func (p *Problem) RandomPointOnStage(rng *rand.Rand) geom.Point {
	u := p.UsableStage()
	x := u.Min.X
	if u.Width > 0 {
		x += rng.Float64() * u.Width
	}
	y := u.Min.Y
	if u.Height > 0 {
		y += rng.Float64() * u.Height
	}
	return geom.Point{X: x, Y: y}
}

// Instruments returns the number of distinct instrument slots, which is the
// length of every attendee's taste vector.
func (p *Problem) Instruments() int {
	if len(p.Attendees) > 0 {
		return len(p.Attendees[0].Tastes)
	}
	n := 0
	for _, inst := range p.Musicians {
		n = max(n, inst+1)
	}
	return n
}

// InstrumentCounts returns how many musicians play each instrument.
func (p *Problem) InstrumentCounts() map[int]int {
	counts := make(map[int]int)
	for _, inst := range p.Musicians {
		counts[inst]++
	}
	return counts
}

// TasteAvg returns the mean attendee taste.
func (p *Problem) TasteAvg() float64 {
	if len(p.Attendees) == 0 {
		return 0
	}
	var sum float64
	for _, a := range p.Attendees {
		sum += a.TasteAvg()
	}
	return sum / float64(len(p.Attendees))
}

// TasteMaxAvg returns the mean of every attendee's highest taste.
func (p *Problem) TasteMaxAvg() float64 {
	if len(p.Attendees) == 0 {
		return 0
	}
	var sum float64
	for _, a := range p.Attendees {
		sum += a.TasteMax()
	}
	return sum / float64(len(p.Attendees))
}

// TentativeScore estimates an upper bound on the reachable score. Every
// instrument with a positive total impact is credited once per musician
// playing it, with attendees measured against the nearest stage edge and
// no occlusion.
func (p *Problem) TentativeScore() float64 {
	stage := p.Stage()
	var total float64
	for inst, cnt := range p.InstrumentCounts() {
		var impact float64
		for _, a := range p.Attendees {
			d2 := stage.DistanceSquaredToBoundary(a.Point())
			if d2 == 0 || inst >= len(a.Tastes) {
				continue
			}
			impact += a.Tastes[inst] / d2
		}
		if impact > 0 {
			total += impact * float64(cnt)
		}
	}
	return total * ImpactScale * DefaultVolume
}

// Validate checks the problem for the inconsistencies the scoring engine
// cannot recover from.
func (p *Problem) Validate() error {
	if !positiveFinite(p.RoomWidth) || !positiveFinite(p.RoomHeight) {
		return errors.New(errors.ErrCodeInvalidProblem, "room must have a positive finite size, got %gx%g", p.RoomWidth, p.RoomHeight)
	}
	if !positiveFinite(p.StageWidth) || !positiveFinite(p.StageHeight) {
		return errors.New(errors.ErrCodeInvalidProblem, "stage must have a positive finite size, got %gx%g", p.StageWidth, p.StageHeight)
	}
	if !p.Stage().Min.IsFinite() {
		return errors.New(errors.ErrCodeInvalidProblem, "stage has a non-finite corner")
	}
	if !p.Room().ContainsRect(p.Stage()) {
		return errors.New(errors.ErrCodeInvalidProblem, "stage %v+%gx%g does not fit in the room", p.Stage().Min, p.StageWidth, p.StageHeight)
	}
	if u := p.UsableStage(); u.Width < 0 || u.Height < 0 {
		return errors.New(errors.ErrCodeInvalidProblem, "stage is too small to hold a musician")
	}
	if len(p.Musicians) == 0 {
		return errors.New(errors.ErrCodeInvalidProblem, "problem has no musicians")
	}

	ninst := p.Instruments()
	for i, a := range p.Attendees {
		if len(a.Tastes) != ninst {
			return errors.New(errors.ErrCodeInvalidProblem, "attendee %d has %d tastes, want %d", i, len(a.Tastes), ninst)
		}
		if !a.Point().IsFinite() {
			return errors.New(errors.ErrCodeInvalidProblem, "attendee %d has a non-finite position", i)
		}
		for k, t := range a.Tastes {
			if math.IsNaN(t) || math.IsInf(t, 0) {
				return errors.New(errors.ErrCodeInvalidProblem, "attendee %d has a non-finite taste for instrument %d", i, k)
			}
		}
		if p.OnStage(a.Point()) {
			return errors.New(errors.ErrCodeInvalidProblem, "attendee %d stands on the usable stage", i)
		}
	}
	for i, inst := range p.Musicians {
		if inst < 0 || inst >= ninst {
			return errors.New(errors.ErrCodeInvalidProblem, "musician %d plays instrument %d, want 0..%d", i, inst, ninst-1)
		}
	}
	for i, pl := range p.Pillars {
		if !positiveFinite(pl.Radius) {
			return errors.New(errors.ErrCodeInvalidProblem, "pillar %d has radius %g, want positive and finite", i, pl.Radius)
		}
		if !pl.CenterPoint().IsFinite() {
			return errors.New(errors.ErrCodeInvalidProblem, "pillar %d has a non-finite center", i)
		}
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
