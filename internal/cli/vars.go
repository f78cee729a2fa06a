package cli

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/valter-silva-au/obsforge/internal/catalog"
	"github.com/valter-silva-au/obsforge/internal/core"
	"github.com/valter-silva-au/obsforge/internal/observability"
	"github.com/valter-silva-au/obsforge/internal/storage"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

// Service instances and settings, set during app initialization in app.go.
var (
	BasePath   string
	ObsConfig  models.ObservabilityConfig
	OutputPath string
	RunID      string
	Logger     = zerolog.Nop()

	Manifest storage.ManifestManager
	Catalog  *catalog.Catalog

	// Events receives registration events; nil disables the event log.
	Events core.EventLogger
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	SummaryCalc observability.SummaryCalculator
	AlertEngine observability.AlertEngine
	Notifier    observability.Notifier
)

// newCoordinator builds a coordinator from the loaded configuration with a
// fresh metrics registry. events may be nil.
func newCoordinator(events core.EventLogger) (*core.Coordinator, *observability.Metrics, error) {
	metrics := observability.NewMetrics()
	opts := core.CoordinatorOpts{
		Logger:   &Logger,
		Events:   events,
		Recorder: metrics,
	}
	if Catalog != nil {
		opts.Catalog = Catalog
	}
	coord, err := core.NewCoordinator(ObsConfig, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("creating coordinator: %w", err)
	}
	return coord, metrics, nil
}
