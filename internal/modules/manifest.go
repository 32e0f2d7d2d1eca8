// Manifest loading: `manifest.json`/`manifest.yaml` describe a module's
// name, version, entry point, and source layout (spec.md §6). json
// wins when both are present in a directory, since it needs no extra
// dependency to decode at a system boundary (config file on disk);
// yaml.v3 backs the alternate, more hand-editable format.
package modules

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ModuleType mirrors the manifest's `type` field: "app" (has a `main`
// entry point, runnable directly) or "library" (exports only).
type ModuleType string

const (
	ModuleTypeApp     ModuleType = "app"
	ModuleTypeLibrary ModuleType = "library"
)

// Manifest is the decoded shape of manifest.json/manifest.yaml.
type Manifest struct {
	Name        string     `json:"name" yaml:"name"`
	Version     string     `json:"version" yaml:"version"`
	Description string     `json:"description" yaml:"description"`
	Main        string     `json:"main" yaml:"main"`
	Type        ModuleType `json:"type" yaml:"type"`
	Sources     []string   `json:"sources" yaml:"sources"`
}

// LoadManifest reads manifest.json or manifest.yaml from dir, preferring
// json when both exist (spec.md §6, SPEC_FULL.md §6 "json wins").
func LoadManifest(dir string) (*Manifest, error) {
	jsonPath := filepath.Join(dir, "manifest.json")
	if data, err := os.ReadFile(jsonPath); err == nil {
		var man Manifest
		if err := json.Unmarshal(data, &man); err != nil {
			return nil, err
		}
		return &man, nil
	}

	yamlPath := filepath.Join(dir, "manifest.yaml")
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, err
	}
	var man Manifest
	if err := yaml.Unmarshal(data, &man); err != nil {
		return nil, err
	}
	return &man, nil
}

// MainPath resolves the manifest's declared entry point relative to
// dir, defaulting to "main.lum" when Main is unset.
func (m *Manifest) MainPath(dir string) string {
	main := m.Main
	if main == "" {
		main = "main.lum"
	}
	return filepath.Join(dir, main)
}
