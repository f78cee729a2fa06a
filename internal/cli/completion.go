package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

// shellCompletion describes how one shell loads obsforge completions.
type shellCompletion struct {
	gen func(w io.Writer) error
	// dir is the per-user completion directory relative to $HOME; empty
	// means --install is not supported.
	dir  []string
	file string
	load string
}

var shellCompletions = map[string]shellCompletion{
	"bash": {
		gen:  func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		dir:  []string{".local", "share", "bash-completion", "completions"},
		file: "obsforge",
		load: `eval "$(obsforge completion bash)"`,
	},
	"zsh": {
		gen:  func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
		dir:  []string{".local", "share", "zsh", "site-functions"},
		file: "_obsforge",
		load: `eval "$(obsforge completion zsh)"`,
	},
	"fish": {
		gen:  func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		dir:  []string{".config", "fish", "completions"},
		file: "obsforge.fish",
		load: "obsforge completion fish | source",
	},
	"powershell": {
		gen:  func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
		load: "obsforge completion powershell | Out-String | Invoke-Expression",
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for obsforge",
	Long: `Set up shell tab-completions for obsforge commands, flags, resource
types, roles and manifest identifiers.

Supported shells: bash, zsh, fish, powershell

Quick install (writes the script to your per-user completion directory):

  obsforge completion bash --install
  obsforge completion zsh --install
  obsforge completion fish --install

Or print the completion script to stdout:

  obsforge completion bash`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		sc, ok := shellCompletions[args[0]]
		if !ok {
			return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", args[0])
		}
		if completionInstall {
			return installCompletion(cmd, args[0], sc)
		}

		// Hints go to stderr so eval "$(obsforge completion bash)" still works.
		fmt.Fprintf(cmd.ErrOrStderr(), "# To load completions in your current session:\n#   %s\n", sc.load)
		return sc.gen(cmd.OutOrStdout())
	},
}

func installCompletion(cmd *cobra.Command, shell string, sc shellCompletion) error {
	if len(sc.dir) == 0 {
		return fmt.Errorf("automatic install is not supported for %s; run 'obsforge completion %s' and add the output to your profile", shell, shell)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("detecting home directory: %w", err)
	}

	dir := filepath.Join(append([]string{home}, sc.dir...)...)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	target := filepath.Join(dir, sc.file)
	if err := writeCompletionFile(target, sc.gen); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s completions installed to %s\n", shell, target)
	if shell == "zsh" {
		fmt.Fprintf(cmd.OutOrStdout(), "Ensure %s is in your fpath, then run: autoload -Uz compinit && compinit\n", dir)
	}
	return nil
}

// writeCompletionFile creates target, writes the script into it and reports
// close errors.
func writeCompletionFile(target string, gen func(io.Writer) error) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}

	writeErr := gen(f)
	closeErr := f.Close()

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your per-user completion directory")

	// Replace Cobra's default completion command.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}
