package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// SkippedResource is a manifest entry that produced no alarms or widgets.
type SkippedResource struct {
	Type       models.ResourceType `yaml:"type"`
	Identifier string              `yaml:"identifier"`
	Reason     string              `yaml:"reason"`
}

// SynthesisOutput is everything one synthesis run produced.
type SynthesisOutput struct {
	RunID         string                 `yaml:"run_id"`
	GeneratedAt   time.Time              `yaml:"generated_at"`
	Environment   models.Environment     `yaml:"environment"`
	PolicyVersion string                 `yaml:"policy_version"`
	Alarms        []models.ResolvedAlarm `yaml:"alarms"`
	Dashboards    []models.RoleDashboard `yaml:"dashboards"`
	Skipped       []SkippedResource      `yaml:"skipped,omitempty"`
}

// WriteOutput writes out to path as YAML, replacing any previous run.
func WriteOutput(path string, out *SynthesisOutput) error {
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("writing synthesis output: marshalling YAML: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("writing synthesis output: creating directory: %w", err)
		}
	}

	// Write to a sibling temp file first so a crash never leaves half a file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing synthesis output: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing synthesis output: %w", err)
	}
	return nil
}

// ReadOutput loads a synthesis output written by WriteOutput.
func ReadOutput(path string) (*SynthesisOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading synthesis output: %w", err)
	}
	var out SynthesisOutput
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("reading synthesis output: parsing YAML: %w", err)
	}
	return &out, nil
}
