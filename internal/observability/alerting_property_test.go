package observability

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// =============================================================================
// Generators
// =============================================================================

// genRunEvents generates a random mix of rejected, unmonitored and
// registered events for one run.
func genRunEvents(t *rapid.T) []Event {
	n := rapid.IntRange(0, 25).Draw(t, "numEvents")
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("res-%d", rapid.IntRange(0, 9).Draw(t, fmt.Sprintf("res_%d", i)))
		switch rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("kind_%d", i)) {
		case 0:
			events = append(events, Event{Level: "WARN", Type: EventResourceRejected,
				Data: map[string]any{"resource_id": id, "error": "invalid"}})
		case 1:
			rt := rapid.SampledFrom([]string{"mainframe", "queue", "cache"}).Draw(t, fmt.Sprintf("type_%d", i))
			events = append(events, Event{Level: "INFO", Type: EventResourceUnmonitored,
				Data: map[string]any{"resource_type": rt, "resource_id": id}})
		default:
			events = append(events, Event{Level: "INFO", Type: EventResourceRegistered,
				Data: map[string]any{"resource_id": id, "environment": "dev", "alarms": rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("alarms_%d", i))}})
		}
	}
	return events
}

func countAlertsByCondition(alerts []Alert, condition string) int {
	n := 0
	for _, a := range alerts {
		if a.Condition == condition {
			n++
		}
	}
	return n
}

// =============================================================================
// Property 9: Alert Threshold Monotonicity
// =============================================================================

// Feature: obsforge, Property 9: Alert Threshold Monotonicity
// *For any* run, raising an alert threshold SHALL produce fewer or equal
// alerts for that condition.
func TestProperty9_AlertThresholdMonotonicity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		log, _ := newTestEventLog(t, "run")
		for _, e := range genRunEvents(rt) {
			if err := log.Write(e); err != nil {
				rt.Fatalf("writing event: %v", err)
			}
		}

		low := rapid.IntRange(0, 5).Draw(rt, "low")
		high := rapid.IntRange(low, 20).Draw(rt, "high")

		lowAlerts, err := NewAlertEngine(log, models.AlertThresholds{MaxRejected: low, MaxUnmonitored: low, MaxSilent: low}).Evaluate("run")
		if err != nil {
			rt.Fatalf("evaluating low thresholds: %v", err)
		}
		highAlerts, err := NewAlertEngine(log, models.AlertThresholds{MaxRejected: high, MaxUnmonitored: high, MaxSilent: high}).Evaluate("run")
		if err != nil {
			rt.Fatalf("evaluating high thresholds: %v", err)
		}

		for _, cond := range []string{"resource_rejected", "resource_type_unmonitored", "resource_without_alarms"} {
			if h, l := countAlertsByCondition(highAlerts, cond), countAlertsByCondition(lowAlerts, cond); h > l {
				rt.Errorf("%s: threshold %d produced %d alerts, threshold %d produced %d", cond, high, h, low, l)
			}
		}
	})
}

// =============================================================================
// Property 10: Alert Ids Are Unique
// =============================================================================

// Feature: obsforge, Property 10: Alert Ids Are Unique
// *For any* run, the AlertEngine SHALL never return two alerts with the same id.
func TestProperty10_AlertIDsAreUnique(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		log, _ := newTestEventLog(t, "run")
		for _, e := range genRunEvents(rt) {
			if err := log.Write(e); err != nil {
				rt.Fatalf("writing event: %v", err)
			}
		}

		alerts, err := NewAlertEngine(log, DefaultAlertThresholds()).Evaluate("run")
		if err != nil {
			rt.Fatalf("evaluating alerts: %v", err)
		}
		seen := make(map[string]bool, len(alerts))
		for _, a := range alerts {
			if seen[a.ID] {
				rt.Errorf("duplicate alert id %q", a.ID)
			}
			seen[a.ID] = true
		}
	})
}
