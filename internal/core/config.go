// Package core contains the alarm-policy resolution engine and the
// role-based dashboard composition engine: resolver, composer, the two
// registries, the coordinator that drives them, and configuration loading.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// ConfigFileName is the base name of the configuration file (without extension).
const ConfigFileName = ".obsforge"

// ConfigurationManager loads and validates the global configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the directory where .obsforge.yaml resides.
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Observability: models.ObservabilityConfig{
			Environment: models.EnvDev,
		},
		LogLevel: "info",
		EventLog: ".obsforge_events.jsonl",
		Manifest: "resources.yaml",
		Output:   "obsforge.out.yaml",
	}
}

// LoadGlobalConfig reads .obsforge.yaml from the base path using Viper.
// Environment variables prefixed OBSFORGE_ override file values.
// If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("OBSFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("observability.environment", string(cfg.Observability.Environment))
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("event_log", cfg.EventLog)
	v.SetDefault("manifest", cfg.Manifest)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("notifications.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
		}
	}

	obs := &cfg.Observability
	obs.Environment = models.Environment(v.GetString("observability.environment"))
	obs.NotificationChannel = v.GetString("observability.notification_channel")
	obs.NamePrefix = v.GetString("observability.name_prefix")

	// IsSet distinguishes "not set" (policy decides) from an explicit false.
	if v.IsSet("observability.alarms_enabled") {
		b := v.GetBool("observability.alarms_enabled")
		obs.AlarmsEnabled = &b
	}
	if v.IsSet("observability.dashboards_enabled") {
		b := v.GetBool("observability.dashboards_enabled")
		obs.DashboardsEnabled = &b
	}
	for _, r := range v.GetStringSlice("observability.roles") {
		obs.Roles = append(obs.Roles, models.Role(strings.TrimSpace(r)))
	}

	cfg.LogLevel = v.GetString("log_level")
	cfg.EventLog = v.GetString("event_log")
	cfg.Manifest = v.GetString("manifest")
	cfg.Output = v.GetString("output")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")
	cfg.Alerts.MaxRejected = v.GetInt("alerts.max_rejected")
	cfg.Alerts.MaxUnmonitored = v.GetInt("alerts.max_unmonitored")
	cfg.Alerts.MaxSilent = v.GetInt("alerts.max_silent")

	return cfg, nil
}

// ValidateConfig checks cfg for invalid values and returns every problem at once.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !cfg.Observability.Environment.Valid() {
		errs = append(errs, fmt.Sprintf(
			"observability.environment %q is invalid, must be one of: prod, staging, dev",
			cfg.Observability.Environment,
		))
	}

	for _, r := range cfg.Observability.Roles {
		if !r.Valid() {
			errs = append(errs, fmt.Sprintf(
				"observability.roles entry %q is invalid, must be one of: developer, operator, executive, security",
				r,
			))
		}
	}

	if strings.ContainsAny(cfg.Observability.NamePrefix, " \t/") {
		errs = append(errs, fmt.Sprintf(
			"observability.name_prefix %q must not contain whitespace or '/'",
			cfg.Observability.NamePrefix,
		))
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level %q is invalid", cfg.LogLevel))
	}

	if cfg.Alerts.MaxRejected < 0 || cfg.Alerts.MaxUnmonitored < 0 || cfg.Alerts.MaxSilent < 0 {
		errs = append(errs, "alerts thresholds must not be negative")
	}

	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.slack.webhook_url is required when notifications are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
