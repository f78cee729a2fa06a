package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// AlertSeverity represents the urgency of a synthesis alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert is a problem found in one synthesis run.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// DefaultAlertThresholds returns thresholds that flag every occurrence.
func DefaultAlertThresholds() models.AlertThresholds {
	return models.AlertThresholds{}
}

// AlertEngine evaluates a synthesis run recorded in the event log.
type AlertEngine interface {
	Evaluate(runID string) ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds models.AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine reading from eventLog.
func NewAlertEngine(eventLog EventLog, thresholds models.AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate checks every condition against the events of runID. An empty
// runID evaluates the whole log. Alerts come back ordered by severity, then id.
func (ae *alertEngine) Evaluate(runID string) ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{RunID: runID})
	if err != nil {
		return nil, fmt.Errorf("reading events for alerts: %w", err)
	}
	now := ae.now()

	var alerts []Alert
	alerts = append(alerts, ae.checkRejected(events, now)...)
	alerts = append(alerts, ae.checkUnmonitored(events, now)...)
	alerts = append(alerts, ae.checkSilent(events, now)...)

	sort.SliceStable(alerts, func(i, j int) bool {
		if ri, rj := severityRank(alerts[i].Severity), severityRank(alerts[j].Severity); ri != rj {
			return ri < rj
		}
		return alerts[i].ID < alerts[j].ID
	})
	return alerts, nil
}

// checkRejected raises one alert per rejected resource once the run has
// more rejections than allowed.
func (ae *alertEngine) checkRejected(events []Event, now time.Time) []Alert {
	rejected := make(map[string]string)
	for _, e := range events {
		if e.Type != EventResourceRejected {
			continue
		}
		id, _ := e.Data["resource_id"].(string)
		msg, _ := e.Data["error"].(string)
		rejected[id] = msg
	}
	if len(rejected) <= ae.thresholds.MaxRejected {
		return nil
	}

	var alerts []Alert
	for id, msg := range rejected {
		alerts = append(alerts, Alert{
			ID:          "rejected-" + id,
			Condition:   "resource_rejected",
			Severity:    SeverityHigh,
			Message:     fmt.Sprintf("resource %q was rejected: %s", id, msg),
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkUnmonitored raises one alert per resource type with no catalog rows.
func (ae *alertEngine) checkUnmonitored(events []Event, now time.Time) []Alert {
	byType := make(map[string]int)
	total := 0
	for _, e := range events {
		if e.Type != EventResourceUnmonitored {
			continue
		}
		rt, _ := e.Data["resource_type"].(string)
		byType[rt]++
		total++
	}
	if total <= ae.thresholds.MaxUnmonitored {
		return nil
	}

	var alerts []Alert
	for rt, n := range byType {
		alerts = append(alerts, Alert{
			ID:          "unmonitored-" + rt,
			Condition:   "resource_type_unmonitored",
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("%d resource(s) of type %q have no catalog rows and are not monitored", n, rt),
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkSilent looks for monitored resources that ended up with no alarms,
// typically non-critical catalogs in an environment that disables alarms.
func (ae *alertEngine) checkSilent(events []Event, now time.Time) []Alert {
	silent := make(map[string]string)
	for _, e := range events {
		if e.Type != EventResourceRegistered {
			continue
		}
		id, _ := e.Data["resource_id"].(string)
		if alarmCount(e.Data["alarms"]) > 0 {
			delete(silent, id)
			continue
		}
		env, _ := e.Data["environment"].(string)
		silent[id] = env
	}
	if len(silent) <= ae.thresholds.MaxSilent {
		return nil
	}

	var alerts []Alert
	for id, env := range silent {
		alerts = append(alerts, Alert{
			ID:          "silent-" + id,
			Condition:   "resource_without_alarms",
			Severity:    SeverityLow,
			Message:     fmt.Sprintf("resource %q in %s produced no alarms", id, env),
			TriggeredAt: now,
		})
	}
	return alerts
}

// alarmCount reads a count that may have round-tripped through JSON.
func alarmCount(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func severityRank(s AlertSeverity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}
