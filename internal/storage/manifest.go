package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/obsforge/pkg/models"
)

// ManifestVersion is written to new manifests.
const ManifestVersion = "1.0"

// ManifestDefaults apply to every resource in the manifest that does not set
// the field itself.
type ManifestDefaults struct {
	Environment models.Environment `yaml:"environment,omitempty"`
	Tags        map[string]string  `yaml:"tags,omitempty"`
}

// ManifestFile is the top-level structure of the resource manifest.
type ManifestFile struct {
	Version   string                      `yaml:"version"`
	Defaults  ManifestDefaults            `yaml:"defaults,omitempty"`
	Resources []models.ResourceDescriptor `yaml:"resources"`
}

// ManifestFilter specifies criteria for listing resources. All set fields
// must match.
type ManifestFilter struct {
	Types       []models.ResourceType
	Environment models.Environment
	Tags        map[string]string
}

// ManifestManager reads and edits the YAML resource manifest.
type ManifestManager interface {
	Load() error
	Save() error
	Add(desc models.ResourceDescriptor) error
	Remove(rt models.ResourceType, identifier string) error
	Get(rt models.ResourceType, identifier string) (*models.ResourceDescriptor, error)

	// Resources returns every resource in file order with manifest defaults
	// applied.
	Resources() []models.ResourceDescriptor
	Filter(filter ManifestFilter) []models.ResourceDescriptor
	Path() string
}

type fileManifestManager struct {
	path string
	data ManifestFile
}

// NewManifestManager creates a ManifestManager for the manifest at path.
func NewManifestManager(path string) ManifestManager {
	return &fileManifestManager{
		path: path,
		data: ManifestFile{Version: ManifestVersion},
	}
}

func (m *fileManifestManager) Path() string {
	return m.path
}

func (m *fileManifestManager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			m.data = ManifestFile{Version: ManifestVersion}
			return nil
		}
		return fmt.Errorf("loading manifest: %w", err)
	}

	var mf ManifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return fmt.Errorf("loading manifest: parsing YAML: %w", err)
	}
	if mf.Version == "" {
		mf.Version = ManifestVersion
	}

	seen := make(map[string]bool, len(mf.Resources))
	for _, r := range mf.Resources {
		key := resourceKey(r.Type, r.Identifier)
		if seen[key] {
			return fmt.Errorf("loading manifest: duplicate resource %s/%s", r.Type, r.Identifier)
		}
		seen[key] = true
	}

	m.data = mf
	return nil
}

func (m *fileManifestManager) Save() error {
	data, err := yaml.Marshal(&m.data)
	if err != nil {
		return fmt.Errorf("saving manifest: marshalling YAML: %w", err)
	}
	if dir := filepath.Dir(m.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("saving manifest: creating directory: %w", err)
		}
	}
	// Serialise concurrent "resources add/remove" runs.
	unlock, err := lockFile(m.path + ".lock")
	if err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	defer func() { _ = unlock() }()

	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	return nil
}

func (m *fileManifestManager) Add(desc models.ResourceDescriptor) error {
	if desc.Type == "" || desc.Identifier == "" {
		return fmt.Errorf("adding resource: type and identifier must not be empty")
	}
	if m.index(desc.Type, desc.Identifier) >= 0 {
		return fmt.Errorf("adding resource: %s/%s already exists", desc.Type, desc.Identifier)
	}
	m.data.Resources = append(m.data.Resources, desc)
	return nil
}

func (m *fileManifestManager) Remove(rt models.ResourceType, identifier string) error {
	i := m.index(rt, identifier)
	if i < 0 {
		return fmt.Errorf("removing resource: %s/%s not found", rt, identifier)
	}
	m.data.Resources = append(m.data.Resources[:i], m.data.Resources[i+1:]...)
	return nil
}

func (m *fileManifestManager) Get(rt models.ResourceType, identifier string) (*models.ResourceDescriptor, error) {
	i := m.index(rt, identifier)
	if i < 0 {
		return nil, fmt.Errorf("resource %s/%s not found", rt, identifier)
	}
	desc := m.withDefaults(m.data.Resources[i])
	return &desc, nil
}

func (m *fileManifestManager) Resources() []models.ResourceDescriptor {
	out := make([]models.ResourceDescriptor, 0, len(m.data.Resources))
	for _, r := range m.data.Resources {
		out = append(out, m.withDefaults(r))
	}
	return out
}

func (m *fileManifestManager) Filter(filter ManifestFilter) []models.ResourceDescriptor {
	var out []models.ResourceDescriptor
	for _, r := range m.Resources() {
		if matchesManifestFilter(r, filter) {
			out = append(out, r)
		}
	}
	return out
}

func (m *fileManifestManager) index(rt models.ResourceType, identifier string) int {
	for i, r := range m.data.Resources {
		if r.Type == rt && r.Identifier == identifier {
			return i
		}
	}
	return -1
}

// withDefaults returns a copy of desc with the manifest defaults filled in.
// Resource tags win over default tags.
func (m *fileManifestManager) withDefaults(desc models.ResourceDescriptor) models.ResourceDescriptor {
	if desc.Environment == "" {
		desc.Environment = m.data.Defaults.Environment
	}
	if len(m.data.Defaults.Tags) > 0 || len(desc.Tags) > 0 {
		tags := make(map[string]string, len(m.data.Defaults.Tags)+len(desc.Tags))
		for k, v := range m.data.Defaults.Tags {
			tags[k] = v
		}
		for k, v := range desc.Tags {
			tags[k] = v
		}
		desc.Tags = tags
	}
	return desc
}

func matchesManifestFilter(desc models.ResourceDescriptor, filter ManifestFilter) bool {
	if len(filter.Types) > 0 && !containsType(filter.Types, desc.Type) {
		return false
	}
	if filter.Environment != "" && desc.Environment != filter.Environment {
		return false
	}
	for k, v := range filter.Tags {
		if desc.Tags[k] != v {
			return false
		}
	}
	return true
}

func containsType(haystack []models.ResourceType, needle models.ResourceType) bool {
	for _, t := range haystack {
		if t == needle {
			return true
		}
	}
	return false
}

func resourceKey(rt models.ResourceType, identifier string) string {
	return string(rt) + "\x00" + identifier
}
