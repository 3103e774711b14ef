package cli

import (
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand prints shell completion scripts. Problem ids complete
// from the workspace's problem directory.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for encore.

Load completions into the current shell:

  $ source <(encore completion bash)
  $ source <(encore completion zsh)
  $ encore completion fish | source
  PS> encore completion powershell | Out-String | Invoke-Expression

Problem ids complete from problem/*.json in the workspace, so commands such
as "encore solve <TAB>" offer only problems that exist.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeIDs completes problem ids for the first n positional arguments,
// or for every argument when n < 0. Later arguments complete as files.
func (c *CLI) completeIDs(n int) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if n >= 0 && len(args) >= n {
			return nil, cobra.ShellCompDirectiveDefault
		}
		cfg, err := c.loadConfig()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return workspaceIDs(cfg.DataDir, toComplete, args), cobra.ShellCompDirectiveNoFileComp
	}
}

// workspaceIDs lists the problem ids under root starting with prefix,
// numerically sorted and without those already given.
func workspaceIDs(root, prefix string, given []string) []string {
	matches, _ := filepath.Glob(filepath.Join(root, "problem", "*.json"))
	var ids []int
	for _, m := range matches {
		name := strings.TrimSuffix(filepath.Base(m), ".json")
		id, err := parseID(name)
		if err != nil || !strings.HasPrefix(name, prefix) || slices.Contains(given, name) {
			continue
		}
		ids = append(ids, int(id))
	}
	slices.Sort(ids)

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.Itoa(id)
	}
	return out
}
