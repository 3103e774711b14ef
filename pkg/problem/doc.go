// Package problem defines the immutable input of a placement run and the
// solution it produces.
//
// # Problems
//
// A [Problem] describes a rectangular room, a rectangular stage inside it,
// the instrument played by every musician, the attendees with their
// per-instrument tastes and, for the second contest round, circular pillars.
// Problems are read from the contest JSON format with [Read] or [ReadFile]
// and checked with [Problem.Validate] before an engine is built from them.
//
// Musicians may only stand on the usable part of the stage, which is the
// stage rectangle shrunk by [StageMargin] on every side. [Problem.OnStage]
// and [Problem.RandomPointOnStage] work on that usable area.
//
// # Variants
//
// The scoring rules differ between the two contest rounds. [V1] ignores
// pillars and the closeness bonus; [V2] enables both. [VariantFor] maps a
// problem id onto its round: ids up to [LastV1Problem] belong to [V1].
//
// # Solutions
//
// A [Solution] holds one placement and one volume per musician, in the order
// of [Problem.Musicians]. [Solution.Validate] checks it against a problem.
package problem
