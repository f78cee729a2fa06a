package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// --- Helper ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// --- LoadGlobalConfig tests ---

func TestLoadGlobalConfig_Defaults_WhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigurationManager(dir)

	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Observability.Environment != models.EnvDev {
		t.Errorf("Environment = %q, want %q", cfg.Observability.Environment, models.EnvDev)
	}
	if cfg.Observability.AlarmsEnabled != nil {
		t.Errorf("AlarmsEnabled = %v, want nil", *cfg.Observability.AlarmsEnabled)
	}
	if !cfg.Observability.DashboardsOn() {
		t.Error("dashboards should default to on")
	}
	if got := len(cfg.Observability.EffectiveRoles()); got != len(models.AllRoles()) {
		t.Errorf("EffectiveRoles = %d roles, want all %d", got, len(models.AllRoles()))
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.Manifest != "resources.yaml" {
		t.Errorf("Manifest = %q, want %q", cfg.Manifest, "resources.yaml")
	}
}

func TestLoadGlobalConfig_ReadsObsforgeYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".obsforge.yaml", `
observability:
  environment: prod
  alarms_enabled: false
  dashboards_enabled: true
  roles: [developer, operator]
  notification_channel: "arn:aws:sns:eu-west-1:123456789012:ops"
  name_prefix: shop
log_level: debug
manifest: infra/resources.yaml
notifications:
  enabled: true
  slack:
    webhook_url: "https://hooks.slack.com/services/T/B/X"
`)

	cm := NewConfigurationManager(dir)
	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs := cfg.Observability
	if obs.Environment != models.EnvProd {
		t.Errorf("Environment = %q, want %q", obs.Environment, models.EnvProd)
	}
	if obs.AlarmsEnabled == nil || *obs.AlarmsEnabled {
		t.Errorf("AlarmsEnabled = %v, want explicit false", obs.AlarmsEnabled)
	}
	if obs.DashboardsEnabled == nil || !*obs.DashboardsEnabled {
		t.Errorf("DashboardsEnabled = %v, want explicit true", obs.DashboardsEnabled)
	}
	if len(obs.Roles) != 2 || obs.Roles[0] != models.RoleDeveloper || obs.Roles[1] != models.RoleOperator {
		t.Errorf("Roles = %v, want [developer operator]", obs.Roles)
	}
	if obs.NamePrefix != "shop" {
		t.Errorf("NamePrefix = %q, want %q", obs.NamePrefix, "shop")
	}
	if obs.NotificationChannel != "arn:aws:sns:eu-west-1:123456789012:ops" {
		t.Errorf("NotificationChannel = %q", obs.NotificationChannel)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Manifest != "infra/resources.yaml" {
		t.Errorf("Manifest = %q, want %q", cfg.Manifest, "infra/resources.yaml")
	}
	if !cfg.Notifications.Enabled || cfg.Notifications.Slack.WebhookURL == "" {
		t.Errorf("Notifications = %+v, want enabled with webhook", cfg.Notifications)
	}
}

func TestLoadGlobalConfig_PartialConfig_FillsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".obsforge.yaml", `
observability:
  environment: staging
`)

	cm := NewConfigurationManager(dir)
	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Observability.Environment != models.EnvStaging {
		t.Errorf("Environment = %q, want %q", cfg.Observability.Environment, models.EnvStaging)
	}
	// Remaining fields should have defaults.
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, "info")
	}
	if cfg.Output != "obsforge.out.yaml" {
		t.Errorf("Output = %q, want default %q", cfg.Output, "obsforge.out.yaml")
	}
	if cfg.Observability.DashboardsEnabled != nil {
		t.Error("DashboardsEnabled should stay unset")
	}
}

func TestLoadGlobalConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".obsforge.yaml", `
observability:
  environment: staging
`)
	t.Setenv("OBSFORGE_OBSERVABILITY_ENVIRONMENT", "prod")

	cfg, err := NewConfigurationManager(dir).LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Observability.Environment != models.EnvProd {
		t.Errorf("Environment = %q, want env override %q", cfg.Observability.Environment, models.EnvProd)
	}
}

func TestLoadGlobalConfig_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".obsforge.yaml", `
observability:
  environment: [invalid yaml
  broken: {
`)

	cm := NewConfigurationManager(dir)
	_, err := cm.LoadGlobalConfig()
	if err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

// --- ValidateConfig tests ---

func TestValidateConfig_ValidDefaults(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	if err := cm.ValidateConfig(DefaultGlobalConfig()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateConfig_NilConfig_ReturnsError(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	if err := cm.ValidateConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestValidateConfig_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultGlobalConfig()
	cfg.Observability.Environment = "qa"
	cfg.Observability.Roles = []models.Role{models.RoleDeveloper, "auditor"}
	cfg.Observability.NamePrefix = "my shop"
	cfg.LogLevel = "loud"
	cfg.Notifications.Enabled = true

	err := NewConfigurationManager(t.TempDir()).ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"observability.environment",
		"auditor",
		"name_prefix",
		"log_level",
		"webhook_url",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got: %v", want, err)
		}
	}
}
