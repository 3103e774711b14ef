// Package anneal optimises musician placements by simulated annealing over
// an incremental scoring [engine.Engine].
//
// # Proposals
//
// Every iteration proposes one of:
//
//   - a swap of two random musicians (one in ten iterations),
//   - a teleport of one musician to a random stage point,
//   - a directed step: the farthest non-colliding point along a random
//     direction, found by bisection within a squared-uniform radius,
//   - a jitter: a random direction and squared-uniform distance.
//
// Moves that would leave the usable stage or touch another musician are
// dropped before the engine is touched and count as idle iterations.
//
// # Schedule
//
// The temperature falls linearly from its initial value to zero over the
// run's [End] budget and is re-evaluated every [Options.ScheduleEvery]
// iterations. The run stops when the temperature drops below zero, when the
// iteration budget is spent, or when the context is cancelled. An initial
// temperature of zero or less is derived as |score|/√N.
//
// Every [Options.RebuildEvery] iterations the engine is rebuilt from scratch
// to discard accumulated rounding error, after the [Options.Checkpoint] hook
// has seen the current placement.
package anneal
