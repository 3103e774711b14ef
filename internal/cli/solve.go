package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/encore/pkg/anneal"
	"github.com/matzehuels/encore/pkg/pipeline"
	"github.com/matzehuels/encore/pkg/problem"
	"github.com/matzehuels/encore/pkg/stats"
)

// initialBest seeds a run from the best stored solution.
const initialBest = "best"

// solveOpts holds the command-line flags for the solve command.
type solveOpts struct {
	initial     string        // solution file, or "best"
	temp        float64       // initial temperature, 0 derives it from the start score
	duration    time.Duration // wall-clock budget
	iterations  int           // iteration budget, wins over duration
	seed        uint64        // random seed
	variant     string        // v1 or v2, empty follows the problem id
	tui         bool          // live progress view
	noArtifacts bool          // skip drawings and statistics
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOpts

	cmd := &cobra.Command{
		Use:   "solve ID",
		Short: "Anneal a problem and record the result",
		Long: `Anneal a problem and record the result.

The run starts from --initial (a solution file, or "best" for the best stored
solution) or from a random placement. It ends after --iterations or
--duration, whichever is set; flags override the [solver] config section.
Interrupting the run saves the best placement found so far.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: c.completeIDs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.runSolve(cmd, id, opts)
		},
	}

	cmd.Flags().StringVar(&opts.initial, "initial", "", `initial solution file, or "best"`)
	cmd.Flags().Float64Var(&opts.temp, "temp", 0, "initial temperature (0 derives it from the initial score)")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "stop after this wall-clock time")
	cmd.Flags().IntVar(&opts.iterations, "iterations", 0, "stop after this many iterations")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed (default: time based)")
	cmd.Flags().StringVar(&opts.variant, "variant", "", "scoring rules: v1 or v2 (default: by problem id)")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show a live progress view")
	cmd.Flags().BoolVar(&opts.noArtifacts, "no-artifacts", false, "skip drawings and statistics files")
	cmd.MarkFlagsMutuallyExclusive("duration", "iterations")

	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, id problem.ID, opts solveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer runner.Close()

	so := pipeline.SolveOptions{ID: id, Anneal: annealOptions(cfg.Solver), NoArtifacts: opts.noArtifacts}
	if cmd.Flags().Changed("temp") {
		so.Anneal.Temp0 = opts.temp
	}
	switch {
	case opts.iterations > 0:
		so.Anneal.End = anneal.MaxIteration(opts.iterations)
	case opts.duration > 0:
		so.Anneal.End = anneal.MaxDuration(opts.duration)
	}
	so.Anneal.Seed = opts.seed
	if !cmd.Flags().Changed("seed") {
		so.Anneal.Seed = uint64(time.Now().UnixNano())
	}
	if opts.variant != "" {
		if so.Variant, err = problem.ParseVariant(opts.variant); err != nil {
			return err
		}
	}
	if so.Initial, err = loadInitial(ctx, runner, id, opts.initial); err != nil {
		return err
	}

	var res *pipeline.SolveResult
	if opts.tui {
		runner.Logger = log.New(io.Discard)
		res, err = runSolveTUI(ctx, runner, so)
	} else {
		prefix := fmt.Sprintf("problem %d (%s)", id, so.Anneal.End)
		spinner := newSpinner(ctx, "Annealing "+prefix+"...")
		so.Anneal.Progress = func(r stats.Row) {
			logger.Debug("progress", "iteration", r.Iteration, "score", r.Score, "best", r.Best,
				"temperature", r.Temperature, "accept", r.AcceptRate)
			spinner.Progress(prefix, r)
		}
		spinner.Start()
		res, err = runner.Solve(ctx, so)
		spinner.Stop()
	}

	interrupted := stderrors.Is(err, context.Canceled) && res != nil
	if err != nil && !interrupted {
		return err
	}
	if interrupted {
		printWarning("Stopped early after %s iterations", formatScore(float64(res.Anneal.Iterations)))
	}
	printSolveResult(runner.Paths, res, opts.noArtifacts)

	// A user stop from the progress view is not an error; a signal is.
	if interrupted && ctx.Err() != nil {
		return err
	}
	return nil
}

// loadInitial resolves the --initial flag.
func loadInitial(ctx context.Context, runner *pipeline.Runner, id problem.ID, initial string) (*problem.Solution, error) {
	switch initial {
	case "":
		return nil, nil
	case initialBest:
		sol, err := runner.Store.Best(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("best solution of problem %d: %w", id, err)
		}
		return sol, nil
	}
	return problem.ReadSolutionFile(initial)
}

func printSolveResult(paths pipeline.Paths, res *pipeline.SolveResult, noArtifacts bool) {
	a := res.Anneal
	printSuccess("Problem %d scored %s", res.ID, StyleNumber.Render(formatScore(res.Score)))
	printKeyValue("Solver", res.Solver)
	printKeyValue("Variant", res.Variant.String())
	printKeyValue("Initial", formatScore(a.InitialScore))
	printKeyValue("Temp0", strconv.FormatFloat(a.Temp0, 'f', 1, 64))
	if res.Outcome.Known {
		printKeyValue("Previous", formatScore(res.Outcome.Previous))
	}
	printKeyValue("Run", res.RunID.String())

	status, good := iconKept, false
	if res.Outcome.Improved {
		status, good = iconBest, true
	}
	printStats(status, good,
		fmt.Sprintf("%s iterations", formatScore(float64(a.Iterations))),
		fmt.Sprintf("%s moves", formatScore(float64(a.Moves))),
		fmt.Sprintf("%s swaps", formatScore(float64(a.Swaps))),
		a.Elapsed.Round(time.Millisecond).String(),
	)

	if noArtifacts {
		return
	}
	printFile(paths.DrawAll(res.ID, res.Score))
	if len(a.Rows) > 0 {
		printFile(paths.StatsData(res.Solver, res.ID))
		printFile(paths.StatsParquet(res.Solver, res.ID))
	}
}

// =============================================================================
// Bench
// =============================================================================

// benchCommand creates the bench command.
func (c *CLI) benchCommand() *cobra.Command {
	var (
		iterations int
		parallel   int
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "bench ID...",
		Short: "Run a short fixed-length solve on several problems",
		Long: `Run a short fixed-length solve on several problems.

IDs are single numbers or inclusive ranges such as 1-10. Every problem runs
for the same number of iterations at temperature 100 with a fixed seed, so
results are comparable across code changes. Results are saved and submitted
like any other run.`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: c.completeIDs(-1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("parallel") {
				parallel = cfg.Solver.Parallel
			}
			runner, err := c.newRunner(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(loggerFromContext(ctx))
			results, err := runner.Bench(ctx, ids, iterations, parallel, seed)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Benchmarked %d problems", len(results)))

			printBenchResults(results)
			return nil
		},
	}

	cmd.Flags().IntVar(&iterations, "iterations", pipeline.BenchIterations, "iterations per problem")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "problems solved at once (default: solver.parallel)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "base random seed")

	return cmd
}

func printBenchResults(results []*pipeline.SolveResult) {
	rows := make([][]string, 0, len(results))
	var total float64
	for _, r := range results {
		best := ""
		if r.Outcome.Improved {
			best = iconSuccess
		}
		rows = append(rows, []string{
			r.ID.String(),
			r.Variant.String(),
			formatScore(r.Anneal.InitialScore),
			formatScore(r.Score),
			r.Anneal.Elapsed.Round(time.Millisecond).String(),
			best,
		})
		total += r.Score
	}
	printTable([]string{"ID", "Variant", "Initial", "Score", "Elapsed", "Best"}, rows, 2, 3, 4)
	printKeyValue("Total", formatScore(total))
}
