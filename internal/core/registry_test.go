package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

func testAlarm(id string, threshold float64) models.ResolvedAlarm {
	return models.ResolvedAlarm{
		ID:         id,
		MetricName: "connections",
		Threshold:  threshold,
		Dimensions: models.Dimensions{"DBInstanceIdentifier": id},
	}
}

// --- AlarmRegistry tests ---

func TestAlarmRegistry_AddIsIdempotent(t *testing.T) {
	reg := NewAlarmRegistry()

	first := reg.Add([]models.ResolvedAlarm{testAlarm("a", 1), testAlarm("b", 2)})
	if len(first) != 2 {
		t.Fatalf("expected 2 inserted, got %d", len(first))
	}

	second := reg.Add([]models.ResolvedAlarm{testAlarm("a", 99), testAlarm("c", 3)})
	if len(second) != 1 || second[0].ID != "c" {
		t.Fatalf("expected only c inserted, got %v", second)
	}

	if reg.Len() != 3 {
		t.Errorf("Len = %d, want 3", reg.Len())
	}
	got, ok := reg.Get("a")
	if !ok || got.Threshold != 1 {
		t.Errorf("re-adding a known id must not overwrite, got %+v", got)
	}
}

func resourceAlarm(resourceID, metric string, threshold float64) models.ResolvedAlarm {
	return models.ResolvedAlarm{
		ID:           AlarmID(models.ResourceDatabase, resourceID, metric),
		ResourceType: models.ResourceDatabase,
		ResourceID:   resourceID,
		MetricName:   metric,
		Threshold:    threshold,
	}
}

func TestAlarmRegistry_ReplaceOverwrites(t *testing.T) {
	reg := NewAlarmRegistry()
	reg.Add([]models.ResolvedAlarm{
		resourceAlarm("orders-db", "cpu", 1),
		resourceAlarm("orders-db", "connections", 2),
	})

	written, removed := reg.Replace(models.ResourceDatabase, "orders-db", []models.ResolvedAlarm{
		resourceAlarm("orders-db", "cpu", 50),
		resourceAlarm("orders-db", "connections", 2),
	})
	if len(written) != 2 || len(removed) != 0 {
		t.Fatalf("written %d removed %v, want 2 and none", len(written), removed)
	}

	got, _ := reg.Get(AlarmID(models.ResourceDatabase, "orders-db", "cpu"))
	if got.Threshold != 50 {
		t.Errorf("Threshold = %v, want 50", got.Threshold)
	}
	all := reg.All()
	if len(all) != 2 || all[0].MetricName != "cpu" || all[1].MetricName != "connections" {
		t.Errorf("replace should keep insertion order, got %v", all)
	}
}

func TestAlarmRegistry_ReplacePrunesDroppedAlarms(t *testing.T) {
	reg := NewAlarmRegistry()
	reg.Add([]models.ResolvedAlarm{
		resourceAlarm("orders-db", "cpu", 1),
		resourceAlarm("orders-db", "connections", 2),
		resourceAlarm("users-db", "connections", 3),
	})

	_, removed := reg.Replace(models.ResourceDatabase, "orders-db", []models.ResolvedAlarm{
		resourceAlarm("orders-db", "cpu", 1),
	})

	dropped := AlarmID(models.ResourceDatabase, "orders-db", "connections")
	if len(removed) != 1 || removed[0] != dropped {
		t.Fatalf("removed = %v, want [%s]", removed, dropped)
	}
	if _, ok := reg.Get(dropped); ok {
		t.Error("dropped alarm still registered")
	}
	if _, ok := reg.Get(AlarmID(models.ResourceDatabase, "users-db", "connections")); !ok {
		t.Error("replace must not touch other resources")
	}
	if reg.Len() != 2 {
		t.Errorf("Len = %d, want 2", reg.Len())
	}
}

func TestAlarmRegistry_ReplaceWithNothingClearsResource(t *testing.T) {
	reg := NewAlarmRegistry()
	reg.Add([]models.ResolvedAlarm{resourceAlarm("orders-db", "cpu", 1)})

	written, removed := reg.Replace(models.ResourceDatabase, "orders-db", nil)
	if len(written) != 0 || len(removed) != 1 {
		t.Fatalf("written %d removed %v, want 0 and 1", len(written), removed)
	}
	if reg.Len() != 0 || len(reg.All()) != 0 {
		t.Errorf("registry should be empty, holds %d", reg.Len())
	}
}

func TestAlarmRegistry_ReturnsCopies(t *testing.T) {
	reg := NewAlarmRegistry()
	in := testAlarm("a", 1)
	reg.Add([]models.ResolvedAlarm{in})
	in.Dimensions["DBInstanceIdentifier"] = "mutated"

	got, _ := reg.Get("a")
	if got.Dimensions["DBInstanceIdentifier"] != "a" {
		t.Error("registry aliased the caller's dimensions")
	}
	got.Dimensions["DBInstanceIdentifier"] = "mutated"
	again, _ := reg.Get("a")
	if again.Dimensions["DBInstanceIdentifier"] != "a" {
		t.Error("Get handed out internal state")
	}
}

func TestAlarmRegistry_ConcurrentAdd(t *testing.T) {
	reg := NewAlarmRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg.Add([]models.ResolvedAlarm{testAlarm(fmt.Sprintf("id-%d", i%4), float64(i))})
		}(i)
	}
	wg.Wait()
	if reg.Len() != 4 {
		t.Errorf("Len = %d, want 4", reg.Len())
	}
}

// --- DashboardRegistry tests ---

func widget(resourceID, kind string, width int) models.WidgetSpec {
	return models.WidgetSpec{
		Title:      resourceID + " " + kind,
		Kind:       kind,
		ResourceID: resourceID,
		Layout:     models.Layout{Width: width, Height: 6},
	}
}

func TestDashboardRegistry_SameIdentifierDifferentTypes(t *testing.T) {
	reg := NewDashboardRegistry([]models.Role{models.RoleExecutive}, "")

	fn := widget("orders", "health", 6)
	fn.ResourceType = models.ResourceComputeFunction
	ctr := widget("orders", "health", 6)
	ctr.ResourceType = models.ResourceComputeContainer

	reg.Append(models.RoleExecutive, []models.WidgetSpec{fn})
	added := reg.Append(models.RoleExecutive, []models.WidgetSpec{ctr})
	if len(added) != 1 || added[0].ResourceType != models.ResourceComputeContainer {
		t.Fatalf("expected the container widget added, got %v", added)
	}

	dash, _ := reg.Get(models.RoleExecutive)
	if len(dash.Widgets) != 2 {
		t.Errorf("widgets = %d, want 2", len(dash.Widgets))
	}
}

func TestDashboardRegistry_DedupByResourceAndKind(t *testing.T) {
	reg := NewDashboardRegistry([]models.Role{models.RoleDeveloper}, "")

	added := reg.Append(models.RoleDeveloper, []models.WidgetSpec{
		widget("orders-db", "cpu", 6),
		widget("orders-db", "capacity", 6),
	})
	if len(added) != 2 {
		t.Fatalf("expected 2 added, got %d", len(added))
	}

	again := reg.Append(models.RoleDeveloper, []models.WidgetSpec{
		widget("orders-db", "cpu", 12),
		widget("users-db", "cpu", 6),
	})
	if len(again) != 1 || again[0].ResourceID != "users-db" {
		t.Fatalf("expected only users-db cpu added, got %v", again)
	}

	dash, _ := reg.Get(models.RoleDeveloper)
	if len(dash.Widgets) != 3 {
		t.Errorf("widgets = %d, want 3", len(dash.Widgets))
	}
	if dash.Widgets[0].Layout.Width != 6 {
		t.Error("duplicate append must not replace the existing widget")
	}
}

func TestDashboardRegistry_RevisionOnlyMovesOnChange(t *testing.T) {
	reg := NewDashboardRegistry([]models.Role{models.RoleOperator}, "")
	reg.Append(models.RoleOperator, []models.WidgetSpec{widget("gw", "errors", 12)})
	before, _ := reg.Get(models.RoleOperator)

	if added := reg.Append(models.RoleOperator, []models.WidgetSpec{widget("gw", "errors", 12)}); added != nil {
		t.Errorf("expected nothing added, got %v", added)
	}
	after, _ := reg.Get(models.RoleOperator)
	if after.Revision != before.Revision {
		t.Errorf("Revision moved from %d to %d without changes", before.Revision, after.Revision)
	}
}

func TestDashboardRegistry_GridPacking(t *testing.T) {
	reg := NewDashboardRegistry([]models.Role{models.RoleOperator}, "shop")
	reg.Append(models.RoleOperator, []models.WidgetSpec{
		widget("a", "k", 12),
		widget("b", "k", 12),
		widget("c", "k", 24),
		widget("d", "k", 0),
	})

	dash, _ := reg.Get(models.RoleOperator)
	if dash.Name != "shop-operator" {
		t.Errorf("Name = %q, want %q", dash.Name, "shop-operator")
	}
	want := []models.Position{{X: 0, Y: 0}, {X: 12, Y: 0}, {X: 0, Y: 6}, {X: 0, Y: 12}}
	for i, w := range dash.Widgets {
		if w.Position != want[i] {
			t.Errorf("widget %d at %+v, want %+v", i, w.Position, want[i])
		}
	}
	if dash.Widgets[3].Layout.Width != defaultWidgetWidth {
		t.Errorf("zero width should default to %d, got %d", defaultWidgetWidth, dash.Widgets[3].Layout.Width)
	}
}

func TestDashboardRegistry_UnknownRole(t *testing.T) {
	reg := NewDashboardRegistry([]models.Role{models.RoleDeveloper}, "")
	if added := reg.Append(models.RoleSecurity, []models.WidgetSpec{widget("b", "k", 6)}); added != nil {
		t.Errorf("expected nothing added to unconfigured role, got %v", added)
	}
	if _, ok := reg.Get(models.RoleSecurity); ok {
		t.Error("unconfigured role should have no dashboard")
	}
	if len(reg.AllRoles()) != 1 {
		t.Errorf("AllRoles = %d, want 1", len(reg.AllRoles()))
	}
}

func TestDashboardRegistry_AppendSetsRole(t *testing.T) {
	reg := NewDashboardRegistry([]models.Role{models.RoleExecutive}, "")
	w := widget("fn", "health", 24)
	w.Role = models.RoleDeveloper
	added := reg.Append(models.RoleExecutive, []models.WidgetSpec{w})
	if len(added) != 1 || added[0].Role != models.RoleExecutive {
		t.Errorf("expected role rewritten to executive, got %v", added)
	}
}
