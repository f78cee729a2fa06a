package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/obsforge/internal/core"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

// ProjectInit is the ProjectInitializer used by the init command.
// Set during application wiring.
var ProjectInit core.ProjectInitializer

var (
	initEnv     string
	initPrefix  string
	initExample bool
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize an obsforge workspace",
	Long: `Write a starter .obsforge.yaml, an empty resources.yaml manifest and a
.gitignore for run artifacts into path (default: current directory).

Safe to run on existing workspaces: files that already exist are skipped
and not overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectInit == nil {
			return fmt.Errorf("project initializer not initialized")
		}

		basePath := "."
		if len(args) > 0 {
			basePath = args[0]
		}
		absPath, err := filepath.Abs(basePath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		result, err := ProjectInit.Init(core.InitConfig{
			BasePath:    absPath,
			Environment: models.Environment(initEnv),
			NamePrefix:  initPrefix,
			Example:     initExample,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(result.Created) > 0 {
			fmt.Fprintln(out, "Created:")
			for _, p := range result.Created {
				rel, _ := filepath.Rel(absPath, p)
				fmt.Fprintf(out, "  %s\n", rel)
			}
		}
		if len(result.Skipped) > 0 {
			fmt.Fprintln(out, "Skipped (already exist):")
			for _, p := range result.Skipped {
				rel, _ := filepath.Rel(absPath, p)
				fmt.Fprintf(out, "  %s\n", rel)
			}
		}

		fmt.Fprintf(out, "\nWorkspace initialized at %s\n", absPath)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initEnv, "env", "dev", "Default environment (prod, staging, dev)")
	initCmd.Flags().StringVar(&initPrefix, "prefix", "", "Prefix for generated alarm and dashboard names")
	initCmd.Flags().BoolVar(&initExample, "example", false, "Seed the manifest with sample resources")
	_ = initCmd.RegisterFlagCompletionFunc("env", completeEnvironments)
	rootCmd.AddCommand(initCmd)
}
