package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/obsforge/internal/catalog"
	"github.com/valter-silva-au/obsforge/internal/observability"
	"github.com/valter-silva-au/obsforge/internal/storage"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

const testManifest = `defaults:
  environment: prod
resources:
  - type: database
    identifier: orders-db
  - type: compute-function
    identifier: checkout-fn
  - type: mainframe
    identifier: big-iron
  - type: database
    identifier: broken-db
    overrides:
      by_metric:
        connections:
          threshold: -5
`

// eventLogWriter adapts an observability.EventLog to core.EventLogger.
type eventLogWriter struct {
	log observability.EventLog
}

func (w *eventLogWriter) LogEvent(eventType string, data map[string]any) error {
	return w.log.Write(observability.Event{Level: "INFO", Type: eventType, Message: eventType, Data: data})
}

// setupCLI points every package-level service at a fresh temp directory
// and restores the previous values when the test ends.
func setupCLI(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()

	origBase, origCfg, origOut, origRun := BasePath, ObsConfig, OutputPath, RunID
	origManifest, origCatalog, origEvents := Manifest, Catalog, Events
	origLog, origSum, origAlerts, origNotifier := EventLog, SummaryCalc, AlertEngine, Notifier
	t.Cleanup(func() {
		BasePath, ObsConfig, OutputPath, RunID = origBase, origCfg, origOut, origRun
		Manifest, Catalog, Events = origManifest, origCatalog, origEvents
		EventLog, SummaryCalc, AlertEngine, Notifier = origLog, origSum, origAlerts, origNotifier
	})

	manifestPath := filepath.Join(dir, "resources.yaml")
	if manifest != "" {
		if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	log, err := observability.NewJSONLEventLog(filepath.Join(dir, "events.jsonl"), "run-test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = log.Close() })

	BasePath = dir
	ObsConfig = models.ObservabilityConfig{Environment: models.EnvProd, NamePrefix: "shop"}
	OutputPath = filepath.Join(dir, "obsforge.out.yaml")
	RunID = "run-test"
	Manifest = storage.NewManifestManager(manifestPath)
	Catalog = catalog.Default()
	Events = &eventLogWriter{log: log}
	EventLog = log
	SummaryCalc = observability.NewSummaryCalculator(log)
	AlertEngine = observability.NewAlertEngine(log, observability.DefaultAlertThresholds())
	Notifier = nil
	return dir
}

// runCmd runs cmd's RunE with output captured.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	defer cmd.SetOut(nil)
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}
