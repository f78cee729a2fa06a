package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print registration metrics in Prometheus text format",
	Long: `Resolve the resource manifest in memory and print the resulting
registration counters in the Prometheus text exposition format:

  obsforge_resources_registered_total{resource_type,outcome}
  obsforge_alarms_created_total{severity}
  obsforge_widgets_appended_total{role}

Nothing is written to the output file or the event log. Use
"obsforge synth --metrics-file" to keep the counters of a real run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manifest == nil {
			return fmt.Errorf("manifest not initialized")
		}
		if err := Manifest.Load(); err != nil {
			return err
		}

		coord, metrics, err := newCoordinator(nil)
		if err != nil {
			return err
		}
		synthesize(coord, Manifest.Resources())

		if err := metrics.WriteText(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
