package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/encore/pkg/ledger"
	"github.com/matzehuels/encore/pkg/problem"
)

// ledgerCommand creates the ledger command.
func (c *CLI) ledgerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show and maintain the best-score ledger",
	}

	cmd.AddCommand(c.ledgerShowCommand())
	cmd.AddCommand(c.ledgerRefreshCommand())
	cmd.AddCommand(c.ledgerUserboardCommand())

	return cmd
}

// ledgerShowCommand creates the "ledger show" subcommand.
func (c *CLI) ledgerShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the best score of every problem",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			scores, err := runner.Ledger.All(ctx)
			if err != nil {
				return err
			}
			entries := ledger.Sorted(scores)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				printInfo("Ledger is empty")
				printNextStep("Record scores with", "encore solve ID")
				return nil
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{e.ID.String(), problem.VariantFor(e.ID).String(), formatScore(e.Score)}
			}
			printTable([]string{"ID", "Variant", "Score"}, rows, 2)
			printKeyValue("Problems", fmt.Sprintf("%d of %d", len(entries), problem.LastProblem))
			printKeyValue("Total", formatScore(ledger.Total(scores)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")

	return cmd
}

// ledgerRefreshCommand creates the "ledger refresh" subcommand.
func (c *CLI) ledgerRefreshCommand() *cobra.Command {
	var parallel int

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Rescore every best solution and rewrite the ledger",
		Long: `Rescore every best solution and rewrite the ledger.

Each stored best solution is judged from scratch and the ledger is replaced
with the results. Use this after changing the scoring code or after copying
solutions between workspaces.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
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

			spinner := newSpinner(ctx, "Rescoring best solutions...")
			spinner.Start()
			scores, err := runner.RefreshLedger(ctx, parallel)
			if err != nil {
				spinner.StopWithError("Refresh failed")
				return err
			}
			spinner.StopWithSuccess(fmt.Sprintf("Refreshed %d scores", len(scores)))
			printKeyValue("Total", formatScore(ledger.Total(scores)))
			return nil
		},
	}

	cmd.Flags().IntVar(&parallel, "parallel", 0, "solutions scored at once (default: solver.parallel)")

	return cmd
}

// ledgerUserboardCommand creates the "ledger userboard" subcommand.
func (c *CLI) ledgerUserboardCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "userboard",
		Short: "Compare the ledger with the contest userboard",
		Long: `Compare the ledger with the contest userboard.

The userboard is the JSON document served by the contest site, saved to
stats/userboard.json in the workspace (or --file). Problems where the local
best beats the submitted score are flagged for resubmission.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			if file == "" {
				file = runner.Paths.Userboard()
			}
			board, err := ledger.ReadUserboard(file)
			if err != nil {
				return err
			}
			scores, err := runner.Ledger.All(ctx)
			if err != nil {
				return err
			}

			rows, ahead := userboardRows(board, scores)
			printTable([]string{"ID", "Local", "Userboard", "Delta", ""}, rows, 1, 2, 3)
			printKeyValue("Local", formatScore(ledger.Total(scores)))
			printKeyValue("Userboard", formatScore(board.Total()))
			if ahead > 0 {
				printWarning("%d problems have better local solutions", ahead)
				printDetail("Best solutions: %s", runner.Paths.Solutions())
			} else {
				printSuccess("Userboard is up to date")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "userboard JSON (default: stats/userboard.json)")

	return cmd
}

// userboardRows lines up local and submitted scores for every problem on
// the board. ahead counts problems whose local score is higher.
func userboardRows(board *ledger.Userboard, scores map[problem.ID]float64) (rows [][]string, ahead int) {
	for i := 1; i <= board.Len(); i++ {
		id := problem.ID(i)
		local, hasLocal := scores[id]
		remote, hasRemote := board.Best(id)
		if !hasLocal && !hasRemote {
			continue
		}
		row := []string{id.String(), "-", "-", "", ""}
		if hasLocal {
			row[1] = formatScore(local)
		}
		if hasRemote {
			row[2] = formatScore(remote)
		}
		if hasLocal && hasRemote {
			row[3] = formatScore(local - remote)
		}
		if hasLocal && (!hasRemote || local > remote) {
			row[4] = iconArrow
			ahead++
		}
		rows = append(rows, row)
	}
	return rows, ahead
}
