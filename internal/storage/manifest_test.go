package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

const sampleManifest = `version: "1.0"
defaults:
  environment: staging
  tags:
    team: payments
    cost-center: "42"
resources:
  - type: database
    identifier: orders-db
    environment: prod
    tags:
      team: orders
    overrides:
      by_metric:
        connections:
          threshold: 500
  - type: compute-function
    identifier: checkout-fn
  - type: network-gateway
    identifier: public-api
    metric_bindings:
      latency:
        ApiName: public-api
        Stage: v1
`

func newTestManifestManager(t *testing.T, content string) ManifestManager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resources.yaml")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing manifest: %v", err)
		}
	}
	mgr := NewManifestManager(path)
	if err := mgr.Load(); err != nil {
		t.Fatalf("loading manifest: %v", err)
	}
	return mgr
}

func TestManifest_Load(t *testing.T) {
	mgr := newTestManifestManager(t, sampleManifest)

	res := mgr.Resources()
	if len(res) != 3 {
		t.Fatalf("expected 3 resources, got %d", len(res))
	}
	if res[0].Identifier != "orders-db" || res[2].Identifier != "public-api" {
		t.Errorf("resources out of file order: %v, %v", res[0].Identifier, res[2].Identifier)
	}

	db := res[0]
	if db.Environment != models.EnvProd {
		t.Errorf("explicit environment lost, got %q", db.Environment)
	}
	if db.Tags["team"] != "orders" || db.Tags["cost-center"] != "42" {
		t.Errorf("tags not merged with defaults: %v", db.Tags)
	}
	if db.Overrides == nil || db.Overrides.ByMetric["connections"].Threshold == nil ||
		*db.Overrides.ByMetric["connections"].Threshold != 500 {
		t.Errorf("overrides not decoded: %+v", db.Overrides)
	}

	fn := res[1]
	if fn.Environment != models.EnvStaging {
		t.Errorf("default environment not applied, got %q", fn.Environment)
	}

	gw := res[2]
	if gw.Binding("latency")["Stage"] != "v1" {
		t.Errorf("metric bindings not decoded: %v", gw.MetricBindings)
	}
}

func TestManifest_MissingFileIsEmpty(t *testing.T) {
	mgr := newTestManifestManager(t, "")
	if got := mgr.Resources(); len(got) != 0 {
		t.Errorf("expected empty manifest, got %d resources", len(got))
	}
}

func TestManifest_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.yaml")
	if err := os.WriteFile(path, []byte("resources: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewManifestManager(path).Load()
	if err == nil || !strings.Contains(err.Error(), "parsing YAML") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestManifest_DuplicateResource(t *testing.T) {
	content := `resources:
  - type: database
    identifier: orders-db
  - type: database
    identifier: orders-db
`
	path := filepath.Join(t.TempDir(), "resources.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewManifestManager(path).Load()
	if err == nil || !strings.Contains(err.Error(), "duplicate resource database/orders-db") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestManifest_SameIdentifierDifferentTypes(t *testing.T) {
	content := `resources:
  - type: database
    identifier: orders
  - type: object-store
    identifier: orders
`
	mgr := newTestManifestManager(t, content)
	if got := len(mgr.Resources()); got != 2 {
		t.Errorf("expected 2 resources, got %d", got)
	}
}

func TestManifest_AddRemoveSave(t *testing.T) {
	mgr := newTestManifestManager(t, sampleManifest)

	err := mgr.Add(models.ResourceDescriptor{Type: models.ResourceObjectStore, Identifier: "assets"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mgr.Add(models.ResourceDescriptor{Type: models.ResourceObjectStore, Identifier: "assets"}); err == nil {
		t.Fatal("expected error for duplicate resource")
	}
	if err := mgr.Add(models.ResourceDescriptor{Type: models.ResourceObjectStore}); err == nil {
		t.Fatal("expected error for empty identifier")
	}
	if err := mgr.Remove(models.ResourceComputeFunction, "checkout-fn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mgr.Remove(models.ResourceComputeFunction, "checkout-fn"); err == nil {
		t.Fatal("expected error removing a missing resource")
	}
	if err := mgr.Save(); err != nil {
		t.Fatalf("saving: %v", err)
	}

	reloaded := NewManifestManager(mgr.Path())
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reloading: %v", err)
	}
	res := reloaded.Resources()
	if len(res) != 3 {
		t.Fatalf("expected 3 resources after reload, got %d", len(res))
	}
	if res[2].Identifier != "assets" || res[2].Environment != models.EnvStaging {
		t.Errorf("added resource = %+v", res[2])
	}
	if _, err := reloaded.Get(models.ResourceComputeFunction, "checkout-fn"); err == nil {
		t.Error("removed resource still present")
	}
}

func TestManifest_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "resources.yaml")
	mgr := NewManifestManager(path)
	if err := mgr.Add(models.ResourceDescriptor{Type: models.ResourceComputeVM, Identifier: "i-123"}); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Save(); err != nil {
		t.Fatalf("saving: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
}

func TestManifest_GetReturnsCopy(t *testing.T) {
	mgr := newTestManifestManager(t, sampleManifest)
	got, err := mgr.Get(models.ResourceDatabase, "orders-db")
	if err != nil {
		t.Fatal(err)
	}
	got.Tags["team"] = "mutated"

	again, _ := mgr.Get(models.ResourceDatabase, "orders-db")
	if again.Tags["team"] != "orders" {
		t.Error("Get handed out manifest state")
	}
}

func TestManifest_Filter(t *testing.T) {
	mgr := newTestManifestManager(t, sampleManifest)

	tests := []struct {
		name   string
		filter ManifestFilter
		want   []string
	}{
		{"no filter", ManifestFilter{}, []string{"orders-db", "checkout-fn", "public-api"}},
		{"by type", ManifestFilter{Types: []models.ResourceType{models.ResourceDatabase}}, []string{"orders-db"}},
		{"by environment", ManifestFilter{Environment: models.EnvStaging}, []string{"checkout-fn", "public-api"}},
		{"by tag", ManifestFilter{Tags: map[string]string{"team": "payments"}}, []string{"checkout-fn", "public-api"}},
		{"no match", ManifestFilter{Environment: models.EnvDev}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mgr.Filter(tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d resources, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.Identifier != tt.want[i] {
					t.Errorf("resource %d = %q, want %q", i, r.Identifier, tt.want[i])
				}
			}
		})
	}
}

func TestLockFile_Serialises(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.yaml.lock")

	unlock, err := lockFile(path)
	if err != nil {
		t.Fatalf("lockFile: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		second, err := lockFile(path)
		if err == nil {
			_ = second()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first was held")
	case <-time.After(50 * time.Millisecond):
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second lock not acquired after unlock")
	}
}
