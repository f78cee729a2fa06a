package core

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

//go:embed templates
var templateFS embed.FS

// InitConfig holds the parameters for initializing an obsforge workspace.
type InitConfig struct {
	BasePath    string
	Environment models.Environment
	NamePrefix  string
	// Example seeds the manifest with sample resources.
	Example bool
}

// InitResult holds a summary of what was created vs. skipped.
type InitResult struct {
	Created []string
	Skipped []string
}

// ProjectInitializer writes the configuration and manifest a new workspace
// starts from.
type ProjectInitializer interface {
	Init(config InitConfig) (*InitResult, error)
}

type projectInitializer struct{}

// NewProjectInitializer creates a new ProjectInitializer.
func NewProjectInitializer() ProjectInitializer {
	return &projectInitializer{}
}

// Init writes .obsforge.yaml, resources.yaml and .gitignore under the base
// path. Files that already exist are skipped and not overwritten.
func (pi *projectInitializer) Init(config InitConfig) (*InitResult, error) {
	if config.Environment == "" {
		config.Environment = models.EnvDev
	}
	if !config.Environment.Valid() {
		return nil, fmt.Errorf("initializing workspace: environment %q is invalid, must be one of: prod, staging, dev", config.Environment)
	}

	if err := os.MkdirAll(config.BasePath, 0o750); err != nil {
		return nil, fmt.Errorf("initializing workspace: creating %s: %w", config.BasePath, err)
	}

	result := &InitResult{}
	files := []struct {
		name     string
		template string
	}{
		{ConfigFileName + ".yaml", "obsforge.yaml.tmpl"},
		{"resources.yaml", "resources.yaml.tmpl"},
		{".gitignore", "gitignore.tmpl"},
	}
	for _, f := range files {
		target := filepath.Join(config.BasePath, f.name)
		tmpl := f.template
		if err := writeFileIfNotExists(target, func() ([]byte, error) {
			return renderTemplate(tmpl, config)
		}, result); err != nil {
			return nil, err
		}
	}

	// Catch a template that no longer matches the config schema.
	cm := NewConfigurationManager(config.BasePath)
	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("initializing workspace: %w", err)
	}
	if err := cm.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("initializing workspace: %w", err)
	}

	return result, nil
}

// writeFileIfNotExists writes content from contentFn if the file does not exist.
// It records created/skipped in the result.
func writeFileIfNotExists(path string, contentFn func() ([]byte, error), result *InitResult) error {
	if _, err := os.Stat(path); err == nil {
		result.Skipped = append(result.Skipped, path)
		return nil
	}
	content, err := contentFn()
	if err != nil {
		return fmt.Errorf("initializing workspace: generating content for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("initializing workspace: writing %s: %w", path, err)
	}
	result.Created = append(result.Created, path)
	return nil
}

// renderTemplate renders an embedded template with data.
func renderTemplate(name string, data any) ([]byte, error) {
	content, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("loading template %s: %w", name, err)
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
