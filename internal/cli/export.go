package cli

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/obsforge/internal/export"
)

var (
	exportRegion string
	exportKind   string
)

// exportDocument is the JSON printed by obsforge export.
type exportDocument struct {
	RunID      string                            `json:"run_id"`
	Alarms     []*cloudwatch.PutMetricAlarmInput `json:"alarms,omitempty"`
	Dashboards []*cloudwatch.PutDashboardInput   `json:"dashboards,omitempty"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the last synthesis run as CloudWatch API inputs",
	Long: `Render the alarms and dashboards of the last "obsforge synth" run as
CloudWatch PutMetricAlarm and PutDashboard request inputs, printed as JSON.

Nothing is sent to AWS; feed the output to your deployment tooling.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch exportKind {
		case "all", "alarms", "dashboards":
		default:
			return fmt.Errorf("invalid --kind %q: must be one of all, alarms, dashboards", exportKind)
		}

		synth, err := loadOutput()
		if err != nil {
			return err
		}

		doc := exportDocument{RunID: synth.RunID}
		if exportKind != "dashboards" {
			doc.Alarms, err = export.MetricAlarmInputs(synth.Alarms)
			if err != nil {
				return fmt.Errorf("exporting alarms: %w", err)
			}
		}
		if exportKind != "alarms" {
			for _, d := range synth.Dashboards {
				in, err := export.DashboardInput(d, exportRegion)
				if err != nil {
					return fmt.Errorf("exporting dashboard %s: %w", d.Name, err)
				}
				doc.Dashboards = append(doc.Dashboards, in)
			}
		}

		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting export as JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRegion, "region", export.DefaultRegion, "AWS region written into dashboard widgets")
	exportCmd.Flags().StringVar(&exportKind, "kind", "all", "What to export: all, alarms or dashboards")
	_ = exportCmd.RegisterFlagCompletionFunc("kind", cobra.FixedCompletions(
		[]string{"all", "alarms", "dashboards"}, cobra.ShellCompDirectiveNoFileComp))
	rootCmd.AddCommand(exportCmd)
}
