package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// problemCommand creates the problem command.
func (c *CLI) problemCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problem",
		Short: "Inspect problems in the workspace",
	}

	cmd.AddCommand(c.problemInfoCommand())

	return cmd
}

// problemInfoCommand creates the "problem info" subcommand.
func (c *CLI) problemInfoCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info ID",
		Short: "Summarise a problem",
		Long: `Summarise a problem: entity counts, room and stage size, average
tastes, and the tentative score, an optimistic bound that ignores blocking
and places every attendee at the nearest stage edge.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: c.completeIDs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			info, err := runner.Info(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Println(StyleTitle.Render(fmt.Sprintf("Problem %d", id)))
			printKeyValue("Variant", info.Variant.String())
			printKeyValue("Musicians", fmt.Sprint(info.Musicians))
			printKeyValue("Instruments", fmt.Sprint(info.Instruments))
			printKeyValue("Attendees", fmt.Sprint(info.Attendees))
			printKeyValue("Pillars", fmt.Sprint(info.Pillars))
			printKeyValue("Room", fmt.Sprintf("%g × %g", info.RoomWidth, info.RoomHeight))
			printKeyValue("Stage", fmt.Sprintf("%g × %g", info.StageWidth, info.StageHeight))
			printKeyValue("Taste avg", fmt.Sprintf("%.1f", info.TasteAvg))
			printKeyValue("Taste max", fmt.Sprintf("%.1f", info.TasteMaxAvg))
			printKeyValue("Tentative", formatScore(info.TentativeScore))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}
