package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/obsforge/internal/cli"
	"github.com/valter-silva-au/obsforge/internal/observability"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

func TestResolveBasePath_HomeSet(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("OBSFORGE_HOME", tmpDir)

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q", got, tmpDir)
	}
}

func TestResolveBasePath_FindsConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "sub", "nested")
	if err := os.MkdirAll(subDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".obsforge.yaml"), []byte("log_level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	origDir, _ := os.Getwd()
	defer func() { _ = os.Chdir(origDir) }()
	if err := os.Chdir(subDir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OBSFORGE_HOME", "")

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q (should find .obsforge.yaml in parent)", got, tmpDir)
	}
}

func TestResolveBasePath_FallbackToCwd(t *testing.T) {
	tmpDir := t.TempDir()
	origDir, _ := os.Getwd()
	defer func() { _ = os.Chdir(origDir) }()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OBSFORGE_HOME", "")

	got := ResolveBasePath()
	if got != tmpDir {
		t.Errorf("ResolveBasePath() = %q, want %q (should fall back to cwd)", got, tmpDir)
	}
}

func TestNewApp_MissingConfig(t *testing.T) {
	tmpDir := t.TempDir()
	app, err := NewApp(tmpDir)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer app.Close()

	if app.BasePath != tmpDir {
		t.Errorf("app.BasePath = %q, want %q", app.BasePath, tmpDir)
	}
	if app.RunID == "" {
		t.Error("app.RunID is empty")
	}
	if app.Config.Observability.Environment != models.EnvDev {
		t.Errorf("default environment = %q, want dev", app.Config.Observability.Environment)
	}
	if app.Manifest == nil || app.Catalog == nil || app.EventLog == nil {
		t.Fatal("core services not wired")
	}
	if app.Manifest.Path() != filepath.Join(tmpDir, "resources.yaml") {
		t.Errorf("manifest path = %q", app.Manifest.Path())
	}
	if app.Notifier != nil {
		t.Error("notifier should be nil when notifications are off")
	}

	// CLI package vars point at the same services.
	if cli.Manifest != app.Manifest || cli.RunID != app.RunID || cli.OutputPath != app.OutputPath {
		t.Error("cli vars not wired from app")
	}
	if cli.Events == nil || cli.SummaryCalc == nil || cli.AlertEngine == nil {
		t.Error("observability services not wired into cli")
	}
}

func TestNewApp_LoadsConfig(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := `observability:
  environment: prod
  name_prefix: shop
  roles: [operator]
manifest: manifests/prod.yaml
output: out/run.yaml
alerts:
  max_rejected: 3
notifications:
  enabled: true
  slack:
    webhook_url: https://hooks.slack.test/T000
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".obsforge.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := NewApp(tmpDir)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer app.Close()

	if cli.ObsConfig.Environment != models.EnvProd || cli.ObsConfig.NamePrefix != "shop" {
		t.Errorf("unexpected observability config %+v", cli.ObsConfig)
	}
	if app.Manifest.Path() != filepath.Join(tmpDir, "manifests", "prod.yaml") {
		t.Errorf("manifest path = %q", app.Manifest.Path())
	}
	if app.OutputPath != filepath.Join(tmpDir, "out", "run.yaml") {
		t.Errorf("output path = %q", app.OutputPath)
	}
	if app.Notifier == nil {
		t.Error("notifier should be wired when a webhook is configured")
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, ".obsforge.yaml"), []byte("observability:\n  environment: qa\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewApp(tmpDir)
	if err == nil || !strings.Contains(err.Error(), "observability.environment") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEventLogAdapter_Levels(t *testing.T) {
	log, err := observability.NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"), "run-1")
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()

	adapter := &eventLogAdapter{log: log}
	if err := adapter.LogEvent("resource.registered", map[string]any{"resource_id": "orders-db"}); err != nil {
		t.Fatal(err)
	}
	if err := adapter.LogEvent("resource.rejected", map[string]any{"resource_id": "broken-db"}); err != nil {
		t.Fatal(err)
	}

	events, err := log.Read(observability.EventFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Level != "INFO" || events[1].Level != "WARN" {
		t.Errorf("levels = %s, %s; want INFO, WARN", events[0].Level, events[1].Level)
	}
	if events[1].RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", events[1].RunID)
	}
}
