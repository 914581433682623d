package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/leaderline/pkg/render"
)

// sceneExtensions are the file types a scene can be decoded from.
var sceneExtensions = []string{"toml", "yaml", "yml", "json"}

var outputFormats = []render.Format{render.FormatSVG, render.FormatPNG, render.FormatJSON, render.FormatMsgpack}

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Print a shell completion script",
		Long: `Print a shell completion script for leaderline.

Scene arguments complete to .toml, .yaml and .json files and --format
completes the output formats, including comma-separated lists.

  bash        source <(leaderline completion bash)
  zsh         leaderline completion zsh > "${fpath[1]}/_leaderline"
  fish        leaderline completion fish > ~/.config/fish/completions/leaderline.fish
  powershell  leaderline completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}
}

// completeScene offers scene files for the single positional argument.
func completeScene(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return sceneExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// completeFormats completes the last entry of a comma-separated format
// list, skipping formats already named.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	current := toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, current = toComplete[:i+1], toComplete[i+1:]
	}
	used := make(map[string]bool)
	for _, name := range strings.Split(prefix, ",") {
		used[strings.TrimSpace(name)] = true
	}

	var out []string
	for _, f := range outputFormats {
		name := string(f)
		if used[name] || !strings.HasPrefix(name, current) {
			continue
		}
		out = append(out, prefix+name)
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}
