package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSlackNotifier_EmptyReport(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	if err := n.Notify(context.Background(), Report{RunID: "run-1"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no HTTP request for an empty report")
	}
}

func TestSlackNotifier_SendsReport(t *testing.T) {
	var receivedBody []byte
	var receivedContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		var err error
		receivedBody, err = io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	report := Report{
		RunID: "0b6f7c1e-5d7a-4f8e-9a7e-2f1d3c4b5a69",
		Summary: &Summary{
			ResourcesRegistered: 3,
			ResourcesRejected:   1,
			AlarmsCreated:       5,
			AlarmsBySeverity:    map[string]int{"warning": 3, "critical": 2},
			WidgetsByRole:       map[string]int{"operator": 4},
		},
		Alerts: []Alert{
			{
				ID:          "rejected-users-db",
				Condition:   "resource_rejected",
				Severity:    SeverityHigh,
				Message:     `resource "users-db" was rejected: invalid override`,
				TriggeredAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
			},
			{
				ID:          "unmonitored-mainframe",
				Condition:   "resource_type_unmonitored",
				Severity:    SeverityMedium,
				Message:     `1 resource(s) of type "mainframe" have no catalog rows and are not monitored`,
				TriggeredAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
			},
		},
	}

	if err := NewSlackNotifier(srv.URL).Notify(context.Background(), report); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}

	var msg slackMessage
	if err := json.Unmarshal(receivedBody, &msg); err != nil {
		t.Fatalf("unmarshaling request body: %v", err)
	}

	// header + summary + (divider + section) per alert
	if len(msg.Blocks) != 6 {
		t.Fatalf("expected 6 blocks, got %d", len(msg.Blocks))
	}
	if msg.Blocks[0].Type != "header" || msg.Blocks[0].Text == nil || msg.Blocks[0].Text.Text != "obsforge synthesis 0b6f7c1e" {
		t.Errorf("unexpected header %+v", msg.Blocks[0])
	}
	if msg.Blocks[2].Type != "divider" {
		t.Errorf("expected third block type divider, got %s", msg.Blocks[2].Type)
	}

	body := string(receivedBody)
	for _, want := range []string{"users-db", "mainframe", "critical 2, warning 3", "operator 4", "2025-01-15 10:30 UTC"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL).Notify(context.Background(), Report{Summary: &Summary{}})
	if err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected error to contain status code 500, got: %s", err.Error())
	}
}

func TestSlackNotifier_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewSlackNotifier(srv.URL).Notify(ctx, Report{Summary: &Summary{}}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestSlackNotifier_SeverityEmojis(t *testing.T) {
	tests := []struct {
		severity AlertSeverity
		emoji    string
	}{
		{SeverityHigh, "\U0001f534"},
		{SeverityMedium, "\U0001f7e1"},
		{SeverityLow, "\U0001f535"},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			var receivedBody []byte
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				receivedBody, _ = io.ReadAll(r.Body)
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			report := Report{Alerts: []Alert{{
				ID:          "emoji-test",
				Severity:    tt.severity,
				Message:     "test message",
				TriggeredAt: time.Now().UTC(),
			}}}
			if err := NewSlackNotifier(srv.URL).Notify(context.Background(), report); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(string(receivedBody), tt.emoji) {
				t.Errorf("expected body to contain emoji %s for severity %s", tt.emoji, tt.severity)
			}
		})
	}
}
