package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Report is what a notifier sends at the end of a synthesis run.
type Report struct {
	RunID   string
	Summary *Summary
	Alerts  []Alert
}

// Notifier sends synthesis reports to external channels.
type Notifier interface {
	Notify(ctx context.Context, report Report) error
}

// slackNotifier sends synthesis reports to a Slack webhook.
type slackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier that posts to the given Slack webhook URL.
func NewSlackNotifier(webhookURL string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts report to the configured webhook. It returns nil without
// making a request when the report has neither a summary nor alerts.
func (s *slackNotifier) Notify(ctx context.Context, report Report) error {
	if report.Summary == nil && len(report.Alerts) == 0 {
		return nil
	}

	body, err := json.Marshal(s.buildMessage(report))
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func (s *slackNotifier) buildMessage(report Report) slackMessage {
	header := "obsforge synthesis"
	if report.RunID != "" {
		header += " " + shortRunID(report.RunID)
	}
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: header},
		},
	}

	if report.Summary != nil {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: summaryText(report.Summary)},
		})
	}

	for _, alert := range report.Alerts {
		blocks = append(blocks, slackBlock{Type: "divider"})
		emoji := severityEmoji(alert.Severity)
		text := fmt.Sprintf("%s *[%s]* %s\n_%s_",
			emoji,
			strings.ToUpper(string(alert.Severity)),
			alert.Message,
			alert.TriggeredAt.Format("2006-01-02 15:04 UTC"),
		)
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
		})
	}

	return slackMessage{Blocks: blocks}
}

func summaryText(s *Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d* registered, *%d* rejected, *%d* unmonitored\n",
		s.ResourcesRegistered, s.ResourcesRejected, s.ResourcesUnmonitored)
	fmt.Fprintf(&b, "*%d* alarms created", s.AlarmsCreated)
	if len(s.AlarmsBySeverity) > 0 {
		b.WriteString(" (")
		b.WriteString(joinCounts(s.AlarmsBySeverity))
		b.WriteString(")")
	}
	if len(s.WidgetsByRole) > 0 {
		b.WriteString("\nwidgets: ")
		b.WriteString(joinCounts(s.WidgetsByRole))
	}
	return b.String()
}

func joinCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func severityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	case SeverityLow:
		return "\U0001f535"
	default:
		return "❓"
	}
}
