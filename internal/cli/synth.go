package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/obsforge/internal/core"
	"github.com/valter-silva-au/obsforge/internal/observability"
	"github.com/valter-silva-au/obsforge/internal/policy"
	"github.com/valter-silva-au/obsforge/internal/storage"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

var (
	synthOutput      string
	synthDryRun      bool
	synthNoNotify    bool
	synthStrict      bool
	synthMetricsFile string
)

// synthResult is one pass of the manifest through a coordinator.
type synthResult struct {
	output   *storage.SynthesisOutput
	rejected int
}

// synthesize registers every resource in order. A rejected resource is
// recorded and skipped; it never stops the run.
func synthesize(coord *core.Coordinator, resources []models.ResourceDescriptor) synthResult {
	cfg := coord.Config()
	res := synthResult{output: &storage.SynthesisOutput{
		RunID:         RunID,
		GeneratedAt:   time.Now().UTC(),
		Environment:   cfg.Environment,
		PolicyVersion: policy.Version,
	}}

	for _, desc := range resources {
		reg, err := coord.RegisterResource(desc)
		if err != nil {
			res.rejected++
			res.output.Skipped = append(res.output.Skipped, storage.SkippedResource{
				Type:       desc.Type,
				Identifier: desc.Identifier,
				Reason:     err.Error(),
			})
			continue
		}
		if !reg.Monitored {
			res.output.Skipped = append(res.output.Skipped, storage.SkippedResource{
				Type:       desc.Type,
				Identifier: desc.Identifier,
				Reason:     "resource type has no catalog rows",
			})
		}
	}

	res.output.Alarms = coord.Alarms()
	if cfg.DashboardsOn() {
		for _, role := range coord.Roles() {
			if d, ok := coord.Dashboard(role); ok {
				res.output.Dashboards = append(res.output.Dashboards, d)
			}
		}
	}
	return res
}

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Resolve the resource manifest into alarms and dashboards",
	Long: `Load the resource manifest, register every resource and write the resulting
alarms and role dashboards to the output file.

Resources that fail validation are reported and skipped; the rest of the
manifest is still synthesized. Use --strict to exit non-zero when any
resource was rejected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Manifest == nil {
			return fmt.Errorf("manifest not initialized")
		}
		if err := Manifest.Load(); err != nil {
			return err
		}
		resources := Manifest.Resources()
		out := cmd.OutOrStdout()
		if len(resources) == 0 {
			fmt.Fprintf(out, "No resources in %s.\n", Manifest.Path())
			return nil
		}

		events := Events
		if synthDryRun {
			events = nil
		}
		coord, metrics, err := newCoordinator(events)
		if err != nil {
			return err
		}

		res := synthesize(coord, resources)

		path := synthOutput
		if path == "" {
			path = OutputPath
		}
		if !synthDryRun {
			if err := storage.WriteOutput(path, res.output); err != nil {
				return err
			}
		}
		if synthMetricsFile != "" {
			if err := writeMetricsFile(synthMetricsFile, metrics); err != nil {
				return err
			}
		}

		if events != nil {
			logEvent(events, observability.EventSynthCompleted, map[string]any{
				"resources":  len(resources),
				"alarms":     len(res.output.Alarms),
				"dashboards": len(res.output.Dashboards),
				"rejected":   res.rejected,
				"skipped":    len(res.output.Skipped),
				"output":     path,
			})
		}

		printSynthSummary(out, res, path, len(resources))

		var alerts []observability.Alert
		if AlertEngine != nil && !synthDryRun {
			alerts, err = AlertEngine.Evaluate(RunID)
			if err != nil {
				Logger.Warn().Err(err).Msg("evaluating synthesis alerts")
			}
			printAlerts(out, alerts)
		}

		if Notifier != nil && !synthNoNotify && !synthDryRun {
			notifyRun(cmd.Context(), alerts)
		}

		if synthStrict && res.rejected > 0 {
			return fmt.Errorf("%d resource(s) rejected", res.rejected)
		}
		return nil
	},
}

func printSynthSummary(w io.Writer, res synthResult, path string, total int) {
	o := res.output
	fmt.Fprintln(w, titleStyle.Render(" obsforge synth "))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-14s %s\n", "Run:", o.RunID)
	fmt.Fprintf(w, "  %-14s %s\n", "Environment:", o.Environment)
	fmt.Fprintf(w, "  %-14s %d\n", "Resources:", total)
	fmt.Fprintf(w, "  %-14s %d\n", "Alarms:", len(o.Alarms))

	widgets := 0
	for _, d := range o.Dashboards {
		widgets += len(d.Widgets)
	}
	fmt.Fprintf(w, "  %-14s %d (%d widgets)\n", "Dashboards:", len(o.Dashboards), widgets)

	if synthDryRun {
		fmt.Fprintf(w, "  %-14s %s\n", "Output:", mutedStyle.Render("dry run, nothing written"))
	} else {
		fmt.Fprintf(w, "  %-14s %s\n", "Output:", path)
	}

	if len(o.Skipped) > 0 {
		fmt.Fprintf(w, "\n  Skipped %d resource(s):\n", len(o.Skipped))
		for _, s := range o.Skipped {
			fmt.Fprintf(w, "    %s/%s: %s\n", s.Type, s.Identifier, s.Reason)
		}
	}
}

func printAlerts(w io.Writer, alerts []observability.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintf(w, "\n  %s\n", okStyle.Render("No synthesis alerts."))
		return
	}
	fmt.Fprintf(w, "\n  %d alert(s):\n", len(alerts))
	for _, a := range alerts {
		sev := styleForAlert(string(a.Severity)).Render(fmt.Sprintf("[%s]", strings.ToUpper(string(a.Severity))))
		fmt.Fprintf(w, "    %s %s\n", sev, a.Message)
	}
}

// notifyRun posts the run report. Failures are logged, not returned: the
// synthesis output is already written.
func notifyRun(ctx context.Context, alerts []observability.Alert) {
	if ctx == nil {
		ctx = context.Background()
	}
	report := observability.Report{RunID: RunID, Alerts: alerts}
	if SummaryCalc != nil {
		sum, err := SummaryCalc.Summarize(observability.EventFilter{RunID: RunID})
		if err != nil {
			Logger.Warn().Err(err).Msg("summarising run for notification")
		} else {
			report.Summary = sum
		}
	}
	if err := Notifier.Notify(ctx, report); err != nil {
		Logger.Warn().Err(err).Msg("sending synthesis notification")
	}
}

func writeMetricsFile(path string, metrics *observability.Metrics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating metrics file: %w", err)
	}
	if err := metrics.WriteText(f); err != nil {
		f.Close()
		return fmt.Errorf("writing metrics file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing metrics file: %w", err)
	}
	return nil
}

func logEvent(events core.EventLogger, eventType string, data map[string]any) {
	if err := events.LogEvent(eventType, data); err != nil {
		Logger.Warn().Err(err).Str("event", eventType).Msg("writing event log")
	}
}

func init() {
	synthCmd.Flags().StringVarP(&synthOutput, "output", "o", "", "Output file (defaults to the configured output)")
	synthCmd.Flags().BoolVar(&synthDryRun, "dry-run", false, "Resolve everything but write no output, events or notifications")
	synthCmd.Flags().BoolVar(&synthNoNotify, "no-notify", false, "Do not post the run summary to Slack")
	synthCmd.Flags().BoolVar(&synthStrict, "strict", false, "Exit non-zero when any resource is rejected")
	synthCmd.Flags().StringVar(&synthMetricsFile, "metrics-file", "", "Write Prometheus text metrics for the run to this file")
	rootCmd.AddCommand(synthCmd)
}
