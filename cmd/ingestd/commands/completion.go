package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for ingestd.

To load completions:

Bash:
  # Linux:
  $ ingestd completion bash > /etc/bash_completion.d/ingestd
  # macOS:
  $ ingestd completion bash > $(brew --prefix)/etc/bash_completion.d/ingestd

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  # Linux:
  $ ingestd completion zsh > "${fpath[1]}/_ingestd"
  # macOS:
  $ ingestd completion zsh > $(brew --prefix)/share/zsh/site-functions/_ingestd

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ ingestd completion fish > ~/.config/fish/completions/ingestd.fish

PowerShell:
  PS> ingestd completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> ingestd completion powershell > ingestd.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			return cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			return cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		return nil
	},
}
