package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	obsmcp "github.com/valter-silva-au/obsforge/internal/mcp"
)

var mcpNoManifest bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the obsforge MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the obsforge MCP server on stdio",
	Long: `Start the obsforge MCP server on stdio transport.

The server keeps one coordinator for its lifetime, preloaded with the
resource manifest unless --no-manifest is given. It exposes the tools
register_resource, list_alarms, get_dashboard, list_catalog, get_summary
and get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, _, err := newCoordinator(Events)
		if err != nil {
			return err
		}

		if !mcpNoManifest && Manifest != nil {
			if err := Manifest.Load(); err != nil {
				return err
			}
			res := synthesize(coord, Manifest.Resources())
			Logger.Info().
				Int("alarms", len(res.output.Alarms)).
				Int("rejected", res.rejected).
				Msg("manifest preloaded")
		}

		srv := obsmcp.NewServer(coord, Catalog, SummaryCalc, AlertEngine, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpServeCmd.Flags().BoolVar(&mcpNoManifest, "no-manifest", false, "Start with an empty coordinator")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
