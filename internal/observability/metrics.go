package observability

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// Metrics holds the Prometheus counters for one coordinator. Each instance
// owns its registry, so two coordinators in one process never share counts.
type Metrics struct {
	registry *prometheus.Registry

	resourcesRegistered *prometheus.CounterVec
	alarmsCreated       *prometheus.CounterVec
	widgetsAppended     *prometheus.CounterVec
}

// NewMetrics creates a Metrics with a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		resourcesRegistered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obsforge_resources_registered_total",
				Help: "Resources handed to the coordinator, by type and outcome",
			},
			[]string{"resource_type", "outcome"},
		),
		alarmsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obsforge_alarms_created_total",
				Help: "Alarms inserted into the alarm registry, by severity",
			},
			[]string{"severity"},
		),
		widgetsAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obsforge_widgets_appended_total",
				Help: "Widgets appended to role dashboards, by role",
			},
			[]string{"role"},
		),
	}
}

// RecordRegistration counts one registration attempt.
func (m *Metrics) RecordRegistration(rt models.ResourceType, outcome string) {
	m.resourcesRegistered.WithLabelValues(string(rt), outcome).Inc()
}

// RecordAlarmCreated counts one alarm inserted into the registry.
func (m *Metrics) RecordAlarmCreated(sev models.Severity) {
	m.alarmsCreated.WithLabelValues(string(sev)).Inc()
}

// RecordWidgetAppended counts one widget appended to a dashboard.
func (m *Metrics) RecordWidgetAppended(role models.Role) {
	m.widgetsAppended.WithLabelValues(string(role)).Inc()
}

// Registry exposes the underlying registry, e.g. for promhttp or testutil.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteText gathers every metric and writes it in the Prometheus text
// exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
