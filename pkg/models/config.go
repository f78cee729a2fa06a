package models

// ObservabilityConfig is the construction-time configuration of a coordinator.
type ObservabilityConfig struct {
	Environment Environment `yaml:"environment" mapstructure:"environment" validate:"required,oneof=prod staging dev"`

	// AlarmsEnabled is tri-state: nil defers to policy, true forces every
	// alarm on, false only replaces the environment default.
	AlarmsEnabled *bool `yaml:"alarms_enabled,omitempty" mapstructure:"alarms_enabled"`

	// DashboardsEnabled defaults to true when nil.
	DashboardsEnabled *bool `yaml:"dashboards_enabled,omitempty" mapstructure:"dashboards_enabled"`

	Roles               []Role `yaml:"roles,omitempty" mapstructure:"roles" validate:"omitempty,dive,oneof=developer operator executive security"`
	NotificationChannel string `yaml:"notification_channel,omitempty" mapstructure:"notification_channel"`
	NamePrefix          string `yaml:"name_prefix,omitempty" mapstructure:"name_prefix" validate:"omitempty,max=64,printascii"`
}

// DashboardsOn reports whether dashboards should be composed.
func (c ObservabilityConfig) DashboardsOn() bool {
	return c.DashboardsEnabled == nil || *c.DashboardsEnabled
}

// EffectiveRoles returns the configured roles, or every role when none are set.
func (c ObservabilityConfig) EffectiveRoles() []Role {
	if len(c.Roles) == 0 {
		return AllRoles()
	}
	seen := make(map[Role]bool, len(c.Roles))
	roles := make([]Role, 0, len(c.Roles))
	for _, r := range c.Roles {
		if seen[r] {
			continue
		}
		seen[r] = true
		roles = append(roles, r)
	}
	return roles
}

// SlackConfig holds the webhook used for synthesis summaries.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotificationConfig controls whether synthesis summaries are posted.
type NotificationConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// AlertThresholds sets how many occurrences of each synthesis problem are
// tolerated before an alert is raised. Zero flags every occurrence.
type AlertThresholds struct {
	MaxRejected    int `yaml:"max_rejected" mapstructure:"max_rejected"`
	MaxUnmonitored int `yaml:"max_unmonitored" mapstructure:"max_unmonitored"`
	MaxSilent      int `yaml:"max_silent" mapstructure:"max_silent"`
}

// GlobalConfig holds tool-wide settings read from .obsforge.yaml via Viper.
type GlobalConfig struct {
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	LogLevel      string              `yaml:"log_level" mapstructure:"log_level"`
	EventLog      string              `yaml:"event_log" mapstructure:"event_log"`
	Manifest      string              `yaml:"manifest" mapstructure:"manifest"`
	Output        string              `yaml:"output" mapstructure:"output"`
	Notifications NotificationConfig  `yaml:"notifications" mapstructure:"notifications"`
	Alerts        AlertThresholds     `yaml:"alerts" mapstructure:"alerts"`
}
