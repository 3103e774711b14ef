// Package pkg provides the libraries behind encore, a solver for the ICFP
// Programming Contest 2023 musician placement problem.
//
// # Overview
//
// A problem is a room with a stage, a crowd of attendees with a taste for
// every instrument, and optionally pillars that block sound. A solution
// places every musician on the stage. Each attendee enjoys each musician it
// can hear, in proportion to its taste and inversely to the squared
// distance. Encore searches for good placements by simulated annealing over
// an incrementally maintained score. The pkg directory is organized into
// four areas:
//
//  1. Domain: [problem], [geom], [engine], [anneal]
//  2. Records: [ledger], [store], [stats]
//  3. Infrastructure: [cache], [config], [errors], [observability], [buildinfo]
//  4. Surfaces: [pipeline], [render], [api]
//
// # Architecture
//
// The data flow of a run:
//
//	problem/{id}.json
//	         ↓
//	    [problem] package (decode + validate)
//	         ↓
//	    [anneal] package (moves and swaps scored by [engine])
//	         ↓
//	    [store] + [ledger] (save the run, submit the score)
//	         ↓
//	    [render] + [stats] (SVG/PNG drawing, progress data)
//
// # Quick Start
//
// Anneal the example problem for ten thousand iterations:
//
//	p := problem.Example()
//	initial, _ := problem.InitialSolution(p, rand.New(rand.NewPCG(1, 2)))
//	opts := anneal.DefaultOptions()
//	opts.End = anneal.MaxIteration(10_000)
//	res, _ := anneal.Run(ctx, p, problem.V1, initial, opts)
//	fmt.Println(res.Final)
//
// Judge an existing placement:
//
//	score, _ := engine.Score(p, problem.V2, sol)
//
// # Main Packages
//
// ## Domain
//
// [engine] - The visibility index and scorer. For every attendee it keeps
// the musicians sorted by angle, with a counter of how many obstacles block
// each of them, so that moving one musician touches only the attendees whose
// lines of sight it crosses. Final mode returns the judged score; Trial mode
// lets muted musicians count zero.
//
// [anneal] - Simulated annealing driver: teleport, bisection and jitter
// moves, swaps of musicians playing different instruments, a linear
// temperature schedule and best-state tracking.
//
// ## Records
//
// [ledger] - The best score of every problem. A file backend serializes
// writers with an advisory lock; the Redis backend submits with an atomic
// script so several machines can share one ledger.
//
// [store] - Every run's placement, the latest placement per solver and the
// best placement per problem, in the workspace or in MongoDB.
//
// ## Surfaces
//
// [pipeline] - The solve, score, bench and refresh workflows shared by the
// CLI, the HTTP API and the Lambda handler.
//
// # Testing
//
// Run tests:
//
//	go test ./...                 # All tests
//	go test ./pkg/engine/...      # Specific package
//	go test -run Example ./pkg/... # Examples only
//	go test -tags lambda ./cmd/lambda
//
// [problem]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/problem
// [geom]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/geom
// [engine]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/engine
// [anneal]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/anneal
// [ledger]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/ledger
// [store]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/store
// [stats]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/stats
// [cache]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/buildinfo
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/render
// [api]: https://pkg.go.dev/github.com/matzehuels/encore/pkg/api
package pkg
