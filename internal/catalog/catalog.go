// Package catalog holds the per-resource-type alarm and widget tables.
//
// Every resource type is described by rows: a metric table that maps logical
// metric names to backend metrics, an alarm table, and a widget table.
// Supporting a new resource type means adding rows here; nothing in the
// resolver or composer branches on resource type.
package catalog

import (
	"sort"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// MetricDef maps a logical metric name to the backend metric behind it.
type MetricDef struct {
	Backend   string
	Statistic string
	Label     string
}

// ResourceMetrics is the metric table of one resource type.
type ResourceMetrics struct {
	Namespace    string
	DimensionKey string
	Metrics      map[string]MetricDef
}

// WidgetTemplate is a widget definition fanned out to every role it lists.
type WidgetTemplate struct {
	Kind    string
	Title   string
	View    models.WidgetView
	Roles   []models.Role
	Metrics []string

	// Query is a log query; "{identifier}" is replaced with the resource identifier.
	Query  string
	Layout models.Layout
}

// Catalog is an immutable set of alarm and widget tables.
type Catalog struct {
	metrics map[models.ResourceType]ResourceMetrics
	alarms  map[models.ResourceType][]models.AlarmCatalogEntry
	widgets map[models.ResourceType][]WidgetTemplate
}

// New builds a Catalog from explicit tables. The tables are copied.
func New(
	metrics map[models.ResourceType]ResourceMetrics,
	alarms map[models.ResourceType][]models.AlarmCatalogEntry,
	widgets map[models.ResourceType][]WidgetTemplate,
) *Catalog {
	c := &Catalog{
		metrics: make(map[models.ResourceType]ResourceMetrics, len(metrics)),
		alarms:  make(map[models.ResourceType][]models.AlarmCatalogEntry, len(alarms)),
		widgets: make(map[models.ResourceType][]WidgetTemplate, len(widgets)),
	}
	for rt, m := range metrics {
		defs := make(map[string]MetricDef, len(m.Metrics))
		for name, def := range m.Metrics {
			defs[name] = def
		}
		c.metrics[rt] = ResourceMetrics{Namespace: m.Namespace, DimensionKey: m.DimensionKey, Metrics: defs}
	}
	for rt, entries := range alarms {
		c.alarms[rt] = append([]models.AlarmCatalogEntry(nil), entries...)
	}
	for rt, tmpls := range widgets {
		c.widgets[rt] = cloneTemplates(tmpls)
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(defaultMetrics, buildAlarms(defaultMetrics, defaultAlarmRows), defaultWidgets)
}

// Alarms returns the alarm entries for rt, or nil for an unknown type.
func (c *Catalog) Alarms(rt models.ResourceType) []models.AlarmCatalogEntry {
	entries, ok := c.alarms[rt]
	if !ok {
		return nil
	}
	return append([]models.AlarmCatalogEntry(nil), entries...)
}

// Widgets returns the widget templates for rt, or nil for an unknown type.
func (c *Catalog) Widgets(rt models.ResourceType) []WidgetTemplate {
	tmpls, ok := c.widgets[rt]
	if !ok {
		return nil
	}
	return cloneTemplates(tmpls)
}

// Metric looks up a logical metric of rt.
func (c *Catalog) Metric(rt models.ResourceType, name string) (ResourceMetrics, MetricDef, bool) {
	rm, ok := c.metrics[rt]
	if !ok {
		return ResourceMetrics{}, MetricDef{}, false
	}
	def, ok := rm.Metrics[name]
	return rm, def, ok
}

// Known reports whether rt has any alarm or widget rows.
func (c *Catalog) Known(rt models.ResourceType) bool {
	_, a := c.alarms[rt]
	_, w := c.widgets[rt]
	return a || w
}

// ResourceTypes lists the types with catalog rows, sorted.
func (c *Catalog) ResourceTypes() []models.ResourceType {
	seen := make(map[models.ResourceType]bool)
	for rt := range c.alarms {
		seen[rt] = true
	}
	for rt := range c.widgets {
		seen[rt] = true
	}
	out := make([]models.ResourceType, 0, len(seen))
	for rt := range seen {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func cloneTemplates(tmpls []WidgetTemplate) []WidgetTemplate {
	out := make([]WidgetTemplate, len(tmpls))
	for i, t := range tmpls {
		t.Roles = append([]models.Role(nil), t.Roles...)
		t.Metrics = append([]string(nil), t.Metrics...)
		out[i] = t
	}
	return out
}

// alarmRow is the compact form of an alarm table row; namespace, backend
// metric and statistic come from the metric table.
type alarmRow struct {
	metric    string
	period    int
	cmp       models.ComparisonDirection
	threshold float64
	severity  models.Severity
	desc      string
}

func buildAlarms(metrics map[models.ResourceType]ResourceMetrics, rows map[models.ResourceType][]alarmRow) map[models.ResourceType][]models.AlarmCatalogEntry {
	out := make(map[models.ResourceType][]models.AlarmCatalogEntry, len(rows))
	for rt, rs := range rows {
		rm := metrics[rt]
		entries := make([]models.AlarmCatalogEntry, 0, len(rs))
		for _, r := range rs {
			def := rm.Metrics[r.metric]
			entries = append(entries, models.AlarmCatalogEntry{
				MetricName:       r.metric,
				Namespace:        rm.Namespace,
				BackendMetric:    def.Backend,
				Statistic:        def.Statistic,
				PeriodSeconds:    r.period,
				Comparison:       r.cmp,
				DefaultThreshold: r.threshold,
				Severity:         r.severity,
				Description:      r.desc,
				DimensionKey:     rm.DimensionKey,
			})
		}
		out[rt] = entries
	}
	return out
}
