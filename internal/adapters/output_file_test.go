package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"modforge/internal/types"
)

func TestWriteManifestCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	adapter := NewOutputFileAdapter(dir)

	manifest := types.Manifest{
		FormatVersion: 1,
		Name:          "sample-pack",
		Loader:        "fabric",
		GameVersion:   "1.20.1",
		GeneratedAt:   "2024-03-15T12:00:00Z",
	}
	require.NoError(t, adapter.WriteManifest(manifest))

	data, err := os.ReadFile(filepath.Join(dir, "modforge.manifest.json"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"name": "sample-pack"`)
}

func TestWriteLockFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	adapter := NewOutputFileAdapter(dir)

	lock := types.LockFile{
		Name:        "sample-pack",
		Loader:      "fabric",
		GameVersion: "1.20.1",
		Mods:        []types.LockEntry{{ID: "sodium", Version: "0.5.3", VersionID: "sodium-053"}},
	}
	require.NoError(t, adapter.WriteLockFile(lock))

	data, err := os.ReadFile(filepath.Join(dir, "modforge.lock.yaml"))
	require.NoError(t, err)
	var loaded types.LockFile
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	require.Equal(t, lock, loaded)
}

func TestWriteDiagnosticsSkippedWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	adapter := NewOutputFileAdapter(dir)

	require.NoError(t, adapter.WriteDiagnostics(nil))
	_, err := os.Stat(filepath.Join(dir, "diagnostics.yaml"))
	require.True(t, os.IsNotExist(err))

	diags := []types.Diagnostic{{
		Kind:   types.DiagOptionalSkipped,
		ModID:  "indium",
		Detail: "optional dependency could not be resolved against the chosen versions",
	}}
	require.NoError(t, adapter.WriteDiagnostics(diags))

	data, err := os.ReadFile(filepath.Join(dir, "diagnostics.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "optional-skipped")
	require.Contains(t, string(data), "indium")
}
