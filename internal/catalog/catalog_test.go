package catalog

import (
	"testing"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

func TestDefault_EveryResourceTypeHasRows(t *testing.T) {
	c := Default()
	for _, rt := range models.AllResourceTypes() {
		if len(c.Alarms(rt)) == 0 {
			t.Errorf("expected alarm rows for %s", rt)
		}
		if len(c.Widgets(rt)) == 0 {
			t.Errorf("expected widget rows for %s", rt)
		}
	}
}

func TestDefault_RowsReferenceKnownMetrics(t *testing.T) {
	c := Default()
	for _, rt := range c.ResourceTypes() {
		for _, e := range c.Alarms(rt) {
			if _, def, ok := c.Metric(rt, e.MetricName); !ok || def.Backend == "" {
				t.Errorf("%s alarm %q has no metric definition", rt, e.MetricName)
			}
			if !e.Severity.Valid() {
				t.Errorf("%s alarm %q has invalid severity %q", rt, e.MetricName, e.Severity)
			}
			if e.Namespace == "" || e.DimensionKey == "" {
				t.Errorf("%s alarm %q missing namespace or dimension key", rt, e.MetricName)
			}
		}
		for _, w := range c.Widgets(rt) {
			if len(w.Roles) == 0 {
				t.Errorf("%s widget %q has no roles", rt, w.Kind)
			}
			for _, r := range w.Roles {
				if !r.Valid() {
					t.Errorf("%s widget %q has invalid role %q", rt, w.Kind, r)
				}
			}
			for _, m := range w.Metrics {
				if _, _, ok := c.Metric(rt, m); !ok {
					t.Errorf("%s widget %q references unknown metric %q", rt, w.Kind, m)
				}
			}
			if w.View == models.ViewLogQuery && w.Query == "" {
				t.Errorf("%s log widget %q has no query", rt, w.Kind)
			}
		}
	}
}

func TestDefault_UniqueMetricAndKindPerType(t *testing.T) {
	c := Default()
	for _, rt := range c.ResourceTypes() {
		metrics := make(map[string]bool)
		for _, e := range c.Alarms(rt) {
			if metrics[e.MetricName] {
				t.Errorf("%s has duplicate alarm metric %q", rt, e.MetricName)
			}
			metrics[e.MetricName] = true
		}
		kinds := make(map[string]bool)
		for _, w := range c.Widgets(rt) {
			if kinds[w.Kind] {
				t.Errorf("%s has duplicate widget kind %q", rt, w.Kind)
			}
			kinds[w.Kind] = true
		}
	}
}

func TestDefault_NetworkGatewayOperatorOnly(t *testing.T) {
	for _, w := range Default().Widgets(models.ResourceNetworkGateway) {
		for _, r := range w.Roles {
			if r != models.RoleOperator {
				t.Errorf("network gateway widget %q routed to %s", w.Kind, r)
			}
		}
	}
}

func TestCatalog_UnknownType(t *testing.T) {
	c := Default()
	if c.Alarms("mainframe") != nil || c.Widgets("mainframe") != nil {
		t.Error("expected nil rows for unknown type")
	}
	if c.Known("mainframe") {
		t.Error("expected unknown type to be reported as unknown")
	}
}

func TestCatalog_AccessorsReturnCopies(t *testing.T) {
	c := Default()
	w := c.Widgets(models.ResourceDatabase)
	w[0].Roles[0] = models.RoleSecurity
	w[0].Kind = "mutated"

	again := c.Widgets(models.ResourceDatabase)
	if again[0].Kind == "mutated" || again[0].Roles[0] == models.RoleSecurity {
		t.Error("catalog rows mutated through accessor")
	}
}
