// Package mcp provides an MCP (Model Context Protocol) server that exposes
// resource registration, alarms, dashboards and the catalog as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/obsforge/internal/catalog"
	"github.com/valter-silva-au/obsforge/internal/core"
	"github.com/valter-silva-au/obsforge/internal/observability"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

// Coordinator is the subset of core.Coordinator the server drives.
type Coordinator interface {
	RegisterResource(desc models.ResourceDescriptor) (*core.Registration, error)
	ReplaceResource(desc models.ResourceDescriptor) (*core.Registration, error)
	Alarms() []models.ResolvedAlarm
	Dashboard(role models.Role) (models.RoleDashboard, bool)
	Roles() []models.Role
}

// Server wraps a coordinator and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	coord       Coordinator
	catalog     *catalog.Catalog
	summaryCalc observability.SummaryCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server around coord. cat defaults to the
// built-in catalog. summaryCalc and alertEngine may be nil when no event log
// is configured.
func NewServer(coord Coordinator, cat *catalog.Catalog, summaryCalc observability.SummaryCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}
	if cat == nil {
		cat = catalog.Default()
	}

	s := &Server{
		coord:       coord,
		catalog:     cat,
		summaryCalc: summaryCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "obsforge", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type registerResourceInput struct {
	Type        string                 `json:"type" jsonschema:"required,the resource type (compute-vm, compute-container, compute-function, database, object-store, network-gateway)"`
	Identifier  string                 `json:"identifier" jsonschema:"required,the resource identifier, e.g. orders-db"`
	Environment string                 `json:"environment,omitempty" jsonschema:"prod, staging or dev. Defaults to the configured environment."`
	Tags        map[string]string      `json:"tags,omitempty" jsonschema:"tags copied onto every alarm of the resource"`
	Overrides   *models.AlarmOverrides `json:"overrides,omitempty" jsonschema:"alarm overrides scoped global, by_severity or by_metric"`
	Replace     bool                   `json:"replace,omitempty" jsonschema:"recompute and overwrite alarms already registered for the resource"`
}

type registerResourceOutput struct {
	ResourceType  string   `json:"resource_type"`
	ResourceID    string   `json:"resource_id"`
	Monitored     bool     `json:"monitored"`
	AlarmIDs      []string `json:"alarm_ids"`
	AlarmsCreated int      `json:"alarms_created"`
	WidgetsAdded  int      `json:"widgets_added"`
}

type listAlarmsInput struct {
	ResourceID string `json:"resource_id,omitempty" jsonschema:"only alarms of this resource identifier"`
	Severity   string `json:"severity,omitempty" jsonschema:"only alarms of this severity (critical, warning, info)"`
}

type alarmOutput struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	ResourceType      string            `json:"resource_type"`
	ResourceID        string            `json:"resource_id"`
	Environment       string            `json:"environment"`
	Metric            string            `json:"metric"`
	Severity          string            `json:"severity"`
	Threshold         float64           `json:"threshold"`
	Comparison        string            `json:"comparison"`
	EvaluationPeriods int               `json:"evaluation_periods"`
	DatapointsToAlarm int               `json:"datapoints_to_alarm"`
	MissingData       string            `json:"missing_data"`
	Dimensions        map[string]string `json:"dimensions,omitempty"`
}

type listAlarmsOutput struct {
	Alarms []alarmOutput `json:"alarms"`
	Count  int           `json:"count"`
}

type getDashboardInput struct {
	Role string `json:"role" jsonschema:"required,the dashboard role (developer, operator, executive, security)"`
}

type widgetOutput struct {
	Title      string `json:"title"`
	Kind       string `json:"kind"`
	View       string `json:"view"`
	ResourceID string `json:"resource_id"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

type dashboardOutput struct {
	Role     string         `json:"role"`
	Name     string         `json:"name"`
	Revision int            `json:"revision"`
	Widgets  []widgetOutput `json:"widgets"`
}

type listCatalogInput struct {
	ResourceType string `json:"resource_type,omitempty" jsonschema:"only this resource type"`
}

type catalogAlarmOutput struct {
	Metric     string  `json:"metric"`
	Severity   string  `json:"severity"`
	Threshold  float64 `json:"default_threshold"`
	Comparison string  `json:"comparison"`
}

type catalogWidgetOutput struct {
	Kind  string   `json:"kind"`
	View  string   `json:"view"`
	Roles []string `json:"roles"`
}

type catalogTypeOutput struct {
	ResourceType string                `json:"resource_type"`
	Alarms       []catalogAlarmOutput  `json:"alarms"`
	Widgets      []catalogWidgetOutput `json:"widgets"`
}

type listCatalogOutput struct {
	ResourceTypes []catalogTypeOutput `json:"resource_types"`
}

type getSummaryInput struct {
	RunID string `json:"run_id,omitempty" jsonschema:"summarise only this synthesis run. Defaults to the whole event log."`
}

type summaryOutput struct {
	ResourcesRegistered  int            `json:"resources_registered"`
	ResourcesRejected    int            `json:"resources_rejected"`
	ResourcesUnmonitored int            `json:"resources_unmonitored"`
	AlarmsCreated        int            `json:"alarms_created"`
	AlarmsBySeverity     map[string]int `json:"alarms_by_severity"`
	WidgetsByRole        map[string]int `json:"widgets_by_role"`
	Runs                 int            `json:"runs"`
	EventCount           int            `json:"event_count"`
	OldestEvent          string         `json:"oldest_event,omitempty"`
	NewestEvent          string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct {
	RunID string `json:"run_id,omitempty" jsonschema:"evaluate only this synthesis run. Defaults to the whole event log."`
}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "register_resource",
		Description: "Register a deployed resource. Resolves its alarms and appends its widgets to every role dashboard. Registering the same resource again changes nothing.",
	}, s.handleRegisterResource)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_alarms",
		Description: "List registered alarms, optionally filtered by resource identifier or severity.",
	}, s.handleListAlarms)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_dashboard",
		Description: "Get the dashboard of one role with its widgets in grid order.",
	}, s.handleGetDashboard)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_catalog",
		Description: "List the supported resource types with their default alarms and widgets.",
	}, s.handleListCatalog)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_summary",
		Description: "Summarise registrations, alarms and widgets recorded in the event log.",
	}, s.handleGetSummary)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate synthesis alerts (rejected resources, unmonitored types, resources without alarms).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleRegisterResource(_ context.Context, _ *gomcp.CallToolRequest, input registerResourceInput) (*gomcp.CallToolResult, registerResourceOutput, error) {
	if input.Type == "" || input.Identifier == "" {
		return errorResult("type and identifier are required"), registerResourceOutput{}, nil
	}

	desc := models.ResourceDescriptor{
		Type:        models.ResourceType(input.Type),
		Identifier:  input.Identifier,
		Environment: models.Environment(input.Environment),
		Tags:        input.Tags,
		Overrides:   input.Overrides,
	}

	register := s.coord.RegisterResource
	if input.Replace {
		register = s.coord.ReplaceResource
	}
	reg, err := register(desc)
	if err != nil {
		return errorResult(fmt.Sprintf("registering %s/%s: %s", input.Type, input.Identifier, err)), registerResourceOutput{}, nil
	}

	out := registerResourceOutput{
		ResourceType:  string(reg.ResourceType),
		ResourceID:    reg.ResourceID,
		Monitored:     reg.Monitored,
		AlarmIDs:      reg.AlarmIDs(),
		AlarmsCreated: reg.CreatedAlarms,
		WidgetsAdded:  len(reg.AddedWidgets),
	}
	return nil, out, nil
}

func (s *Server) handleListAlarms(_ context.Context, _ *gomcp.CallToolRequest, input listAlarmsInput) (*gomcp.CallToolResult, listAlarmsOutput, error) {
	if input.Severity != "" && !models.Severity(input.Severity).Valid() {
		return errorResult(fmt.Sprintf("invalid severity %q: must be one of critical, warning, info", input.Severity)), listAlarmsOutput{}, nil
	}

	out := listAlarmsOutput{Alarms: []alarmOutput{}}
	for _, a := range s.coord.Alarms() {
		if input.ResourceID != "" && a.ResourceID != input.ResourceID {
			continue
		}
		if input.Severity != "" && string(a.Severity) != input.Severity {
			continue
		}
		out.Alarms = append(out.Alarms, alarmToOutput(a))
	}
	out.Count = len(out.Alarms)

	return nil, out, nil
}

func (s *Server) handleGetDashboard(_ context.Context, _ *gomcp.CallToolRequest, input getDashboardInput) (*gomcp.CallToolResult, dashboardOutput, error) {
	if input.Role == "" {
		return errorResult("role is required"), dashboardOutput{}, nil
	}
	role := models.Role(input.Role)
	if !role.Valid() {
		return errorResult(fmt.Sprintf("invalid role %q: must be one of developer, operator, executive, security", input.Role)), dashboardOutput{}, nil
	}

	d, ok := s.coord.Dashboard(role)
	if !ok {
		return errorResult(fmt.Sprintf("no dashboard for role %s (configured roles: %v)", role, s.coord.Roles())), dashboardOutput{}, nil
	}

	out := dashboardOutput{
		Role:     string(d.Role),
		Name:     d.Name,
		Revision: d.Revision,
		Widgets:  make([]widgetOutput, len(d.Widgets)),
	}
	for i, w := range d.Widgets {
		out.Widgets[i] = widgetOutput{
			Title:      w.Title,
			Kind:       w.Kind,
			View:       string(w.View),
			ResourceID: w.ResourceID,
			X:          w.Position.X,
			Y:          w.Position.Y,
			Width:      w.Layout.Width,
			Height:     w.Layout.Height,
		}
	}
	return nil, out, nil
}

func (s *Server) handleListCatalog(_ context.Context, _ *gomcp.CallToolRequest, input listCatalogInput) (*gomcp.CallToolResult, listCatalogOutput, error) {
	types := s.catalog.ResourceTypes()
	if input.ResourceType != "" {
		rt := models.ResourceType(input.ResourceType)
		if !s.catalog.Known(rt) {
			return errorResult(fmt.Sprintf("resource type %q is not in the catalog", input.ResourceType)), listCatalogOutput{}, nil
		}
		types = []models.ResourceType{rt}
	}

	out := listCatalogOutput{ResourceTypes: make([]catalogTypeOutput, 0, len(types))}
	for _, rt := range types {
		entry := catalogTypeOutput{
			ResourceType: string(rt),
			Alarms:       []catalogAlarmOutput{},
			Widgets:      []catalogWidgetOutput{},
		}
		for _, a := range s.catalog.Alarms(rt) {
			entry.Alarms = append(entry.Alarms, catalogAlarmOutput{
				Metric:     a.MetricName,
				Severity:   string(a.Severity),
				Threshold:  a.DefaultThreshold,
				Comparison: string(a.Comparison),
			})
		}
		for _, w := range s.catalog.Widgets(rt) {
			roles := make([]string, len(w.Roles))
			for i, r := range w.Roles {
				roles[i] = string(r)
			}
			entry.Widgets = append(entry.Widgets, catalogWidgetOutput{Kind: w.Kind, View: string(w.View), Roles: roles})
		}
		out.ResourceTypes = append(out.ResourceTypes, entry)
	}
	return nil, out, nil
}

func (s *Server) handleGetSummary(_ context.Context, _ *gomcp.CallToolRequest, input getSummaryInput) (*gomcp.CallToolResult, summaryOutput, error) {
	if s.summaryCalc == nil {
		return errorResult("summary not available (no event log configured)"), emptySummaryOutput(), nil
	}

	sum, err := s.summaryCalc.Summarize(observability.EventFilter{RunID: input.RunID})
	if err != nil {
		return errorResult(fmt.Sprintf("summarising events: %s", err)), emptySummaryOutput(), nil
	}

	out := summaryOutput{
		ResourcesRegistered:  sum.ResourcesRegistered,
		ResourcesRejected:    sum.ResourcesRejected,
		ResourcesUnmonitored: sum.ResourcesUnmonitored,
		AlarmsCreated:        sum.AlarmsCreated,
		AlarmsBySeverity:     sum.AlarmsBySeverity,
		WidgetsByRole:        sum.WidgetsByRole,
		Runs:                 sum.Runs,
		EventCount:           sum.EventCount,
	}
	if sum.OldestEvent != nil {
		out.OldestEvent = sum.OldestEvent.Format(time.RFC3339)
	}
	if sum.NewestEvent != nil {
		out.NewestEvent = sum.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, input getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (no event log configured)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate(input.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func alarmToOutput(a models.ResolvedAlarm) alarmOutput {
	return alarmOutput{
		ID:                a.ID,
		Name:              a.Name,
		ResourceType:      string(a.ResourceType),
		ResourceID:        a.ResourceID,
		Environment:       string(a.Environment),
		Metric:            a.MetricName,
		Severity:          string(a.Severity),
		Threshold:         a.Threshold,
		Comparison:        string(a.Comparison),
		EvaluationPeriods: a.EvaluationPeriods,
		DatapointsToAlarm: a.DatapointsToAlarm,
		MissingData:       string(a.MissingData),
		Dimensions:        a.Dimensions,
	}
}

func emptySummaryOutput() summaryOutput {
	return summaryOutput{
		AlarmsBySeverity: make(map[string]int),
		WidgetsByRole:    make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
