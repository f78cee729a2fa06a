package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/obsforge/internal/observability"
)

var alertsRun string

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show synthesis alerts for a run",
	Long: `Evaluate alert conditions against one synthesis run recorded in the event
log and display any triggered alerts. Defaults to the most recent run.

Alerts flag rejected resources, resource types with no catalog rows, and
monitored resources that ended up without alarms.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized (event log may be disabled)")
		}

		runID := alertsRun
		if runID == "" && EventLog != nil {
			last, err := observability.LastRunID(EventLog)
			if err != nil {
				return fmt.Errorf("finding last run: %w", err)
			}
			runID = last
		}

		alerts, err := AlertEngine.Evaluate(runID)
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(alerts) == 0 {
			fmt.Fprintln(out, "No active alerts.")
			return nil
		}

		fmt.Fprintf(out, "%d active alert(s):\n\n", len(alerts))
		for _, alert := range alerts {
			sev := styleForAlert(string(alert.Severity)).Render(fmt.Sprintf("[%s]", alert.Severity))
			fmt.Fprintf(out, "  %s %s\n", sev, alert.Message)
			fmt.Fprintf(out, "         triggered at %s\n\n", alert.TriggeredAt.Format("2006-01-02 15:04 UTC"))
		}

		return nil
	},
}

func init() {
	alertsCmd.Flags().StringVar(&alertsRun, "run", "", "Run id to evaluate (defaults to the most recent run)")
	rootCmd.AddCommand(alertsCmd)
}
