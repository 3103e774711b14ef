package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/encore/pkg/pipeline"
	"github.com/matzehuels/encore/pkg/problem"
)

// scoreCommand creates the score command.
func (c *CLI) scoreCommand() *cobra.Command {
	var (
		variant string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "score ID SOLUTION",
		Short: "Judge a solution file against a problem",
		Long: `Judge a solution file against a problem.

The score is computed from scratch under the rules of the problem's round,
or --variant when given. Results are cached by problem, variant and solution
content; --no-cache skips the cache.`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: c.completeIDs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			req := pipeline.ScoreRequest{ID: id}
			if variant != "" {
				if req.Variant, err = problem.ParseVariant(variant); err != nil {
					return err
				}
			}
			if req.Solution, err = problem.ReadSolutionFile(args[1]); err != nil {
				return err
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := runner.Score(ctx, req)
			if err != nil {
				return err
			}

			printSuccess("Problem %d scored %s", id, StyleNumber.Render(formatScore(res.Score)))
			status := iconFresh
			if res.Cached {
				status = iconCached
			}
			printStats(status, res.Cached, res.Variant.String(), args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "scoring rules: v1 or v2 (default: by problem id)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "compute the score without the cache")

	return cmd
}
