package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/obsforge/internal/observability"
)

var (
	historyJSON  bool
	historySince string
	historyRun   string
	historyLast  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Summarise past synthesis runs from the event log",
	Long: `Display counts derived from the event log: resources registered, rejected
and unmonitored, alarms created per severity and widgets appended per role.

Use --last for the most recent run or --run for a specific run id.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if SummaryCalc == nil {
			return fmt.Errorf("summary calculator not initialized (event log may be disabled)")
		}

		filter := observability.EventFilter{RunID: historyRun}
		label := "run " + historyRun
		switch {
		case historyLast:
			if EventLog == nil {
				return fmt.Errorf("event log not initialized")
			}
			runID, err := observability.LastRunID(EventLog)
			if err != nil {
				return fmt.Errorf("finding last run: %w", err)
			}
			if runID == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			filter.RunID = runID
			label = "run " + runID
		case historyRun == "":
			since, err := parseSinceDuration(historySince)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
			label = "since " + since.Format("2006-01-02")
		}

		sum, err := SummaryCalc.Summarize(filter)
		if err != nil {
			return fmt.Errorf("summarising events: %w", err)
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			data, err := json.MarshalIndent(sum, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting summary as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		printSummary(out, label, sum)
		return nil
	},
}

func printSummary(w io.Writer, label string, sum *observability.Summary) {
	fmt.Fprintf(w, "History (%s)\n\n", label)
	fmt.Fprintf(w, "  %-24s %d\n", "Runs:", sum.Runs)
	fmt.Fprintf(w, "  %-24s %d\n", "Events recorded:", sum.EventCount)
	fmt.Fprintf(w, "  %-24s %d\n", "Resources registered:", sum.ResourcesRegistered)
	fmt.Fprintf(w, "  %-24s %d\n", "Resources rejected:", sum.ResourcesRejected)
	fmt.Fprintf(w, "  %-24s %d\n", "Resources unmonitored:", sum.ResourcesUnmonitored)
	fmt.Fprintf(w, "  %-24s %d\n", "Alarms created:", sum.AlarmsCreated)

	if len(sum.AlarmsBySeverity) > 0 {
		fmt.Fprintln(w, "\n  Alarms by severity:")
		for _, k := range sortedKeys(sum.AlarmsBySeverity) {
			fmt.Fprintf(w, "    %-20s %d\n", k+":", sum.AlarmsBySeverity[k])
		}
	}
	if len(sum.WidgetsByRole) > 0 {
		fmt.Fprintln(w, "\n  Widgets by role:")
		for _, k := range sortedKeys(sum.WidgetsByRole) {
			fmt.Fprintf(w, "    %-20s %d\n", k+":", sum.WidgetsByRole[k])
		}
	}

	if sum.OldestEvent != nil {
		fmt.Fprintf(w, "\n  %-24s %s\n", "Oldest event:", sum.OldestEvent.Format(time.RFC3339))
	}
	if sum.NewestEvent != nil {
		fmt.Fprintf(w, "  %-24s %s\n", "Newest event:", sum.NewestEvent.Format(time.RFC3339))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output the summary as JSON")
	historyCmd.Flags().StringVar(&historySince, "since", "7d", "Time window (e.g. 7d, 30d, 24h)")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Summarise a single run id")
	historyCmd.Flags().BoolVar(&historyLast, "last", false, "Summarise the most recent run")
	rootCmd.AddCommand(historyCmd)
}
