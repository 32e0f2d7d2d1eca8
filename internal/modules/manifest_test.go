package modules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/internal/modules"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadManifestJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.json", `{
		"name": "demo",
		"version": "1.0.0",
		"description": "a demo module",
		"main": "main.lum",
		"type": "app",
		"sources": ["main.lum"]
	}`)

	man, err := modules.LoadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, "demo", man.Name)
	require.Equal(t, modules.ModuleTypeApp, man.Type)
	require.Equal(t, []string{"main.lum"}, man.Sources)
}

func TestLoadManifestYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.yaml", "name: demo\nversion: \"1.0.0\"\ndescription: a demo module\nmain: main.lum\ntype: app\nsources:\n  - main.lum\n")

	man, err := modules.LoadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, "demo", man.Name)
	require.Equal(t, modules.ModuleTypeApp, man.Type)
}

// TestManifestParity is SPEC_FULL.md §8's P8 property: equivalent
// manifest.json and manifest.yaml describing the same module resolve
// to the same field values.
func TestManifestParity(t *testing.T) {
	jsonDir := t.TempDir()
	writeFile(t, jsonDir, "manifest.json", `{"name":"parity","version":"2.0.0","description":"d","main":"entry.lum","type":"library","sources":["entry.lum","util.lum"]}`)

	yamlDir := t.TempDir()
	writeFile(t, yamlDir, "manifest.yaml", "name: parity\nversion: \"2.0.0\"\ndescription: d\nmain: entry.lum\ntype: library\nsources:\n  - entry.lum\n  - util.lum\n")

	jsonMan, err := modules.LoadManifest(jsonDir)
	require.NoError(t, err)
	yamlMan, err := modules.LoadManifest(yamlDir)
	require.NoError(t, err)

	require.Equal(t, jsonMan, yamlMan)
}

func TestLoadManifestPrefersJSONWhenBothPresent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.json", `{"name":"from-json"}`)
	writeFile(t, dir, "manifest.yaml", "name: from-yaml\n")

	man, err := modules.LoadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, "from-json", man.Name)
}

func TestMainPathDefaultsToMainLum(t *testing.T) {
	man := &modules.Manifest{}
	require.Equal(t, filepath.Join("proj", "main.lum"), man.MainPath("proj"))
}
