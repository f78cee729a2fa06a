package observability

import (
	"fmt"
	"time"
)

// Summary holds counts derived from the event log.
type Summary struct {
	ResourcesRegistered  int            `json:"resources_registered"`
	ResourcesRejected    int            `json:"resources_rejected"`
	ResourcesUnmonitored int            `json:"resources_unmonitored"`
	AlarmsCreated        int            `json:"alarms_created"`
	AlarmsBySeverity     map[string]int `json:"alarms_by_severity"`
	WidgetsByRole        map[string]int `json:"widgets_by_role"`
	Runs                 int            `json:"runs"`
	EventCount           int            `json:"event_count"`
	OldestEvent          *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent          *time.Time     `json:"newest_event,omitempty"`
}

// SummaryCalculator derives a Summary from the event log.
type SummaryCalculator interface {
	Summarize(filter EventFilter) (*Summary, error)
}

type summaryCalculator struct {
	eventLog EventLog
}

// NewSummaryCalculator creates a SummaryCalculator that reads from eventLog.
func NewSummaryCalculator(eventLog EventLog) SummaryCalculator {
	return &summaryCalculator{eventLog: eventLog}
}

// Summarize reads the events matching filter and aggregates them.
func (sc *summaryCalculator) Summarize(filter EventFilter) (*Summary, error) {
	events, err := sc.eventLog.Read(filter)
	if err != nil {
		return nil, fmt.Errorf("reading events for summary: %w", err)
	}

	s := &Summary{
		AlarmsBySeverity: make(map[string]int),
		WidgetsByRole:    make(map[string]int),
		EventCount:       len(events),
	}

	runs := make(map[string]bool)
	for i, event := range events {
		if i == 0 {
			t := event.Time
			s.OldestEvent = &t
		}
		t := event.Time
		s.NewestEvent = &t

		if event.RunID != "" {
			runs[event.RunID] = true
		}

		switch event.Type {
		case EventResourceRegistered:
			s.ResourcesRegistered++
		case EventResourceRejected:
			s.ResourcesRejected++
		case EventResourceUnmonitored:
			s.ResourcesUnmonitored++
		case EventAlarmCreated:
			s.AlarmsCreated++
			if sev, ok := event.Data["severity"].(string); ok {
				s.AlarmsBySeverity[sev]++
			}
		case EventWidgetAppended:
			if role, ok := event.Data["role"].(string); ok {
				s.WidgetsByRole[role]++
			}
		}
	}
	s.Runs = len(runs)

	return s, nil
}
