// Package internal provides the App struct that wires all components of
// obsforge together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/valter-silva-au/obsforge/internal/catalog"
	"github.com/valter-silva-au/obsforge/internal/cli"
	"github.com/valter-silva-au/obsforge/internal/core"
	"github.com/valter-silva-au/obsforge/internal/logger"
	"github.com/valter-silva-au/obsforge/internal/observability"
	"github.com/valter-silva-au/obsforge/internal/storage"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

// App holds all service dependencies for obsforge.
type App struct {
	BasePath string
	RunID    string
	Logger   zerolog.Logger

	// Configuration
	ConfigMgr   core.ConfigurationManager
	Config      *models.GlobalConfig
	ProjectInit core.ProjectInitializer

	// Storage layer
	Manifest   storage.ManifestManager
	OutputPath string

	// Policy data
	Catalog *catalog.Catalog

	// Observability
	EventLog    observability.EventLog
	SummaryCalc observability.SummaryCalculator
	AlertEngine observability.AlertEngine
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of obsforge. basePath is the
// directory holding .obsforge.yaml, the resource manifest and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{
		BasePath: basePath,
		RunID:    uuid.NewString(),
	}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		// Use defaults if the config file is unreadable.
		cfg = core.DefaultGlobalConfig()
	}
	app.Logger = logger.WithRunID(logger.New(cfg.LogLevel, os.Stderr, false), app.RunID)
	if err != nil {
		app.Logger.Warn().Err(err).Msg("loading configuration, using defaults")
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg
	app.ProjectInit = core.NewProjectInitializer()

	// --- Storage layer ---
	app.Manifest = storage.NewManifestManager(resolvePath(basePath, cfg.Manifest))
	app.OutputPath = resolvePath(basePath, cfg.Output)
	app.Catalog = catalog.Default()

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(resolvePath(basePath, cfg.EventLog), app.RunID)
	if err != nil {
		// Non-fatal: synthesis still works without a history.
		app.Logger.Warn().Err(err).Msg("event log disabled")
		app.EventLog = nil
	}
	if app.EventLog != nil {
		thresholds := observability.DefaultAlertThresholds()
		if cfg.Alerts.MaxRejected > 0 {
			thresholds.MaxRejected = cfg.Alerts.MaxRejected
		}
		if cfg.Alerts.MaxUnmonitored > 0 {
			thresholds.MaxUnmonitored = cfg.Alerts.MaxUnmonitored
		}
		if cfg.Alerts.MaxSilent > 0 {
			thresholds.MaxSilent = cfg.Alerts.MaxSilent
		}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, thresholds)
		app.SummaryCalc = observability.NewSummaryCalculator(app.EventLog)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL)
	}

	// --- Wire CLI ---
	cli.BasePath = basePath
	cli.ObsConfig = cfg.Observability
	cli.OutputPath = app.OutputPath
	cli.RunID = app.RunID
	cli.Logger = app.Logger
	cli.Manifest = app.Manifest
	cli.Catalog = app.Catalog
	cli.ProjectInit = app.ProjectInit
	cli.EventLog = app.EventLog
	cli.SummaryCalc = app.SummaryCalc
	cli.AlertEngine = app.AlertEngine
	cli.Notifier = app.Notifier
	cli.Events = nil
	if app.EventLog != nil {
		cli.Events = &eventLogAdapter{log: app.EventLog}
	}

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the obsforge base directory. It checks the
// OBSFORGE_HOME env var, then walks up from the current directory looking
// for .obsforge.yaml, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("OBSFORGE_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

func resolvePath(basePath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	level := "INFO"
	if eventType == observability.EventResourceRejected {
		level = "WARN"
	}
	return a.log.Write(observability.Event{
		Level:   level,
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
