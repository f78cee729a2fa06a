package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/obsforge/internal/catalog"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

// WidgetCatalog supplies widget templates and the metric table they refer to.
type WidgetCatalog interface {
	Widgets(rt models.ResourceType) []catalog.WidgetTemplate
	Metric(rt models.ResourceType, name string) (catalog.ResourceMetrics, catalog.MetricDef, bool)
}

// DashboardComposer turns a descriptor into role-tagged widget specs.
type DashboardComposer interface {
	Compose(desc models.ResourceDescriptor, widgets WidgetCatalog) ([]models.WidgetSpec, error)
}

type dashboardComposer struct{}

// NewDashboardComposer creates a DashboardComposer.
func NewDashboardComposer() DashboardComposer {
	return &dashboardComposer{}
}

// Compose emits one spec per (template, role) pair for desc's resource type.
// An unknown resource type yields no specs.
func (c *dashboardComposer) Compose(desc models.ResourceDescriptor, widgets WidgetCatalog) ([]models.WidgetSpec, error) {
	tmpls := widgets.Widgets(desc.Type)
	if len(tmpls) == 0 {
		return nil, nil
	}

	var specs []models.WidgetSpec
	for _, tmpl := range tmpls {
		refs, err := metricRefs(desc, tmpl, widgets)
		if err != nil {
			return nil, err
		}

		seen := make(map[models.Role]bool, len(tmpl.Roles))
		for _, role := range tmpl.Roles {
			if seen[role] {
				continue
			}
			seen[role] = true

			spec := models.WidgetSpec{
				Title:        expand(tmpl.Title, desc.Identifier),
				Role:         role,
				Kind:         tmpl.Kind,
				View:         tmpl.View,
				ResourceType: desc.Type,
				ResourceID:   desc.Identifier,
				MetricRefs:   refs,
				Query:        expand(tmpl.Query, desc.Identifier),
				Layout:       tmpl.Layout,
			}
			// Each role gets its own copy of the metric refs.
			specs = append(specs, spec.Clone())
		}
	}
	return specs, nil
}

func metricRefs(desc models.ResourceDescriptor, tmpl catalog.WidgetTemplate, widgets WidgetCatalog) ([]models.MetricRef, error) {
	if len(tmpl.Metrics) == 0 {
		return nil, nil
	}
	refs := make([]models.MetricRef, 0, len(tmpl.Metrics))
	for _, name := range tmpl.Metrics {
		rm, def, ok := widgets.Metric(desc.Type, name)
		if !ok {
			return nil, fmt.Errorf("composing %s widget %q: unknown metric %q", desc.Type, tmpl.Kind, name)
		}
		dims := desc.Binding(name).Clone()
		if len(dims) == 0 {
			dims = models.Dimensions{rm.DimensionKey: desc.Identifier}
		}
		refs = append(refs, models.MetricRef{
			Namespace:  rm.Namespace,
			Metric:     def.Backend,
			Dimensions: dims,
			Statistic:  def.Statistic,
			Label:      def.Label,
		})
	}
	return refs, nil
}

func expand(s, identifier string) string {
	return strings.ReplaceAll(s, "{identifier}", identifier)
}
