package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/encore/pkg/errors"
	"github.com/matzehuels/encore/pkg/render"
)

// drawOpts holds the command-line flags shared by the draw subcommands.
type drawOpts struct {
	title  string // caption above the room
	labels bool   // print musician indices
}

func (o drawOpts) svgOptions(fallback string) []render.SVGOption {
	title := o.title
	if title == "" {
		title = fallback
	}
	opts := []render.SVGOption{render.WithTitle(title)}
	if o.labels {
		opts = append(opts, render.WithLabels())
	}
	return opts
}

// drawCommand creates the draw command.
func (c *CLI) drawCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw a problem or a placement",
		Long: `Draw a problem or a placement.

The output format follows the file extension: .svg, .png, or .dot/.gv for
the Graphviz source of the PNG.`,
	}

	cmd.AddCommand(c.drawProblemCommand())
	cmd.AddCommand(c.drawSolutionCommand())

	return cmd
}

// drawProblemCommand creates the "draw problem" subcommand.
func (c *CLI) drawProblemCommand() *cobra.Command {
	var opts drawOpts

	cmd := &cobra.Command{
		Use:   "problem ID OUT",
		Short: "Draw the room, stage, attendees and pillars",
		Args:  cobra.ExactArgs(2),
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
			runner, err := c.newRunner(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			p, err := runner.LoadProblem(id)
			if err != nil {
				return err
			}
			if err := render.WriteFile(ctx, args[1], p, nil, opts.svgOptions(fmt.Sprintf("problem %d", id))...); err != nil {
				return err
			}
			printSuccess("Drew problem %d", id)
			printFile(args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "caption (default: problem id)")

	return cmd
}

// drawSolutionCommand creates the "draw solution" subcommand.
func (c *CLI) drawSolutionCommand() *cobra.Command {
	var opts drawOpts

	cmd := &cobra.Command{
		Use:   "solution ID SOLUTION OUT",
		Short: `Draw a placement (SOLUTION is a file, or "best")`,
		Args:  cobra.ExactArgs(3),
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
			runner, err := c.newRunner(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			p, err := runner.LoadProblem(id)
			if err != nil {
				return err
			}
			sol, err := loadInitial(ctx, runner, id, args[1])
			if err != nil {
				return err
			}
			if sol == nil {
				return errors.New(errors.ErrCodeInvalidInput, "missing solution")
			}
			if err := sol.Validate(p); err != nil {
				return err
			}
			if err := render.WriteFile(ctx, args[2], p, sol, opts.svgOptions(fmt.Sprintf("problem %d: %s", id, args[1]))...); err != nil {
				return err
			}
			printSuccess("Drew %d musicians on problem %d", sol.Len(), id)
			printFile(args[2])
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "caption (default: problem id and solution)")
	cmd.Flags().BoolVar(&opts.labels, "labels", false, "print musician indices")

	return cmd
}
