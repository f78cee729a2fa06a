package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/obsforge/internal/storage"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

var (
	alarmsSeverity string
	alarmsResource string
	alarmsJSON     bool
)

// loadOutput reads the last synthesis output.
func loadOutput() (*storage.SynthesisOutput, error) {
	out, err := storage.ReadOutput(OutputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no synthesis output at %s (run obsforge synth first)", OutputPath)
		}
		return nil, err
	}
	return out, nil
}

var alarmsCmd = &cobra.Command{
	Use:   "alarms",
	Short: "List the alarms of the last synthesis run",
	Long: `List the resolved alarms written by the last "obsforge synth" run,
most urgent first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if alarmsSeverity != "" && !models.Severity(alarmsSeverity).Valid() {
			return fmt.Errorf("invalid --severity %q: must be one of critical, warning, info", alarmsSeverity)
		}

		synth, err := loadOutput()
		if err != nil {
			return err
		}

		var alarms []models.ResolvedAlarm
		for _, a := range synth.Alarms {
			if alarmsSeverity != "" && string(a.Severity) != alarmsSeverity {
				continue
			}
			if alarmsResource != "" && a.ResourceID != alarmsResource {
				continue
			}
			alarms = append(alarms, a)
		}
		sort.SliceStable(alarms, func(i, j int) bool {
			return alarms[i].Severity.Rank() < alarms[j].Severity.Rank()
		})

		out := cmd.OutOrStdout()
		if alarmsJSON {
			data, err := json.MarshalIndent(alarms, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting alarms as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(alarms) == 0 {
			fmt.Fprintln(out, "No alarms.")
			return nil
		}

		fmt.Fprintf(out, "%d alarm(s) from run %s\n\n", len(alarms), synth.RunID)
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("  %-9s %-40s %-14s %-8s %s", "SEVERITY", "NAME", "THRESHOLD", "WINDOW", "MISSING")))
		for _, a := range alarms {
			sev := styleForSeverity(a.Severity).Render(fmt.Sprintf("%-9s", a.Severity))
			fmt.Fprintf(out, "  %s %-40s %-14s %-8s %s\n",
				sev,
				a.Name,
				comparisonSymbol(a.Comparison)+" "+strconv.FormatFloat(a.Threshold, 'g', -1, 64),
				fmt.Sprintf("%d/%d", a.DatapointsToAlarm, a.EvaluationPeriods),
				a.MissingData,
			)
		}
		return nil
	},
}

func comparisonSymbol(c models.ComparisonDirection) string {
	switch c {
	case models.GreaterThanThreshold:
		return ">"
	case models.GreaterThanOrEqualToThreshold:
		return ">="
	case models.LessThanThreshold:
		return "<"
	case models.LessThanOrEqualToThreshold:
		return "<="
	default:
		return "?"
	}
}

func init() {
	alarmsCmd.Flags().StringVar(&alarmsSeverity, "severity", "", "Only alarms of this severity (critical, warning, info)")
	alarmsCmd.Flags().StringVar(&alarmsResource, "resource", "", "Only alarms of this resource identifier")
	alarmsCmd.Flags().BoolVar(&alarmsJSON, "json", false, "Output alarms as JSON")
	_ = alarmsCmd.RegisterFlagCompletionFunc("severity", completeSeverities)
	_ = alarmsCmd.RegisterFlagCompletionFunc("resource", completeIdentifiers)
	rootCmd.AddCommand(alarmsCmd)
}
