// Package engine maintains the exact visibility-weighted score of a musician
// placement under single-musician moves and pairwise swaps.
//
// # Overview
//
// A musician i hears attendee k unless the straight line between them passes
// through another musician's body (a disk of radius [problem.BlockRadius])
// or, under [problem.V2], through a pillar. Recomputing every
// musician×attendee×occluder triple after each move is far too slow for an
// annealing run, so the engine keeps, per musician, the attendees sorted by
// bearing together with an occlusion counter. An occluder at distance d with
// radius r hides the angular interval of half-width asin(r/d) around its
// bearing; locating that interval is a pair of binary searches and applying
// it touches only the attendees inside.
//
// An attendee is visible from musician i exactly when its counter is zero.
// Adding an occluder increments the counters inside its interval and
// subtracts the contribution of every attendee that just became hidden;
// removing it is the exact inverse. Both use half-open intervals
// [bearing-α, bearing+α) located by the same lower-bound search, so a remove
// always undoes precisely what the matching add did.
//
// # Transactions
//
// [Engine.Move] and [Engine.Swap] are the only mutating operations besides
// [Engine.Rebuild]. Each retracts the moved musicians' influence on everyone
// else, mutates the placement, rebuilds the moved musicians' own indexes and
// then re-applies their influence. Callers never see a half-applied state.
//
// Move does not check for collisions. Call [Engine.Collides] first; moving a
// musician onto another one or onto an attendee breaks the score.
//
// # Scoring modes
//
// The engine scores in one of two modes, chosen at construction:
//
//   - [Final] multiplies every musician's closeness-weighted score by its
//     volume from the input solution. This is the score the contest judge
//     reports.
//   - [Trial] clamps every musician at zero and applies the default volume,
//     assuming negative musicians will be muted. Annealing runs use this
//     mode so a move is never penalised for a musician that would be
//     silenced anyway.
//
// # Concurrency
//
// An Engine is not safe for concurrent use. Runs that optimise several
// problems in parallel build one engine per goroutine.
package engine
