package cli

import "github.com/spf13/cobra"

// completionCommand creates the completion command for generating shell
// completions. It runs without loading the configuration.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for flowmodel.

Bash:        source <(flowmodel completion bash)
Zsh:         flowmodel completion zsh > "${fpath[1]}/_flowmodel"
Fish:        flowmodel completion fish | source
PowerShell:  flowmodel completion powershell | Out-String | Invoke-Expression
`,
		Annotations:           map[string]string{"config": "skip"},
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
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
}
