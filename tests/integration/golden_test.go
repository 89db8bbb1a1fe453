package integration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"modforge/internal/app"
	"modforge/internal/types"
	"modforge/tests/testutil"
)

func fixtureService() app.Service {
	service := app.NewService("test")
	service.Clock = func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	return service
}

// TestGoldenResolve performs a full resolve using the sample fixtures
// and compares the outputs against committed golden files. If the
// golden files do not exist yet (first run), they are written so they
// can be committed.
//
// To update golden files after an intentional change, delete the
// testdata/golden/ directory and re-run the test.
func TestGoldenResolve(t *testing.T) {
	root := testutil.RepoRoot(t)
	goldenDir := filepath.Join(root, "tests", "integration", "testdata", "golden")
	outDir := t.TempDir()

	service := fixtureService()
	result, err := service.Resolve(t.Context(), app.ResolveRequest{
		PackPath:        filepath.Join(root, "fixtures/pack-sample.yaml"),
		IndexPath:       filepath.Join(root, "fixtures/catalog.yaml"),
		OutputDir:       outDir,
		AllowPrerelease: true,
		WriteLock:       true,
	})
	require.NoError(t, err)
	require.Equal(t, "sample-pack", result.PackName)

	goldenFiles := map[string]string{
		"modforge.manifest.json": filepath.Join(outDir, "modforge.manifest.json"),
		"modforge.lock.yaml":     filepath.Join(outDir, "modforge.lock.yaml"),
	}

	for name, actualPath := range goldenFiles {
		t.Run(name, func(t *testing.T) {
			actual, err := os.ReadFile(actualPath)
			require.NoError(t, err)

			goldenPath := filepath.Join(goldenDir, name)
			if _, statErr := os.Stat(goldenPath); os.IsNotExist(statErr) {
				// Golden file doesn't exist yet -- write it.
				require.NoError(t, os.MkdirAll(goldenDir, 0o755))
				require.NoError(t, os.WriteFile(goldenPath, actual, 0o644))
				t.Logf("golden file written: %s (commit it)", goldenPath)
				return
			}

			expected, err := os.ReadFile(goldenPath)
			require.NoError(t, err)
			assert.Equal(t, string(expected), string(actual),
				"golden mismatch for %s -- delete testdata/golden/ and re-run to regenerate", name)
		})
	}
}

// TestGoldenResolveStructure verifies the structural properties of the
// resolve output independent of exact bytes.
func TestGoldenResolveStructure(t *testing.T) {
	root := testutil.RepoRoot(t)
	outDir := t.TempDir()

	service := fixtureService()
	result, err := service.Resolve(t.Context(), app.ResolveRequest{
		PackPath:        filepath.Join(root, "fixtures/pack-sample.yaml"),
		IndexPath:       filepath.Join(root, "fixtures/catalog.yaml"),
		OutputDir:       outDir,
		AllowPrerelease: true,
		WriteLock:       true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "modforge.lock.yaml"))
	require.NoError(t, err)
	var lock types.LockFile
	require.NoError(t, yaml.Unmarshal(data, &lock))

	t.Run("lock entries are sorted", func(t *testing.T) {
		for i := 1; i < len(lock.Mods); i++ {
			assert.Less(t, lock.Mods[i-1].ID, lock.Mods[i].ID,
				"lock entries must be sorted by mod id")
		}
	})

	t.Run("expected mods resolved", func(t *testing.T) {
		resolved := map[string]string{}
		for _, entry := range lock.Mods {
			resolved[entry.ID] = entry.Version
		}
		// The exclude rule forces cloth-config to 11.1.0, the prefer
		// hint keeps sodium on 0.5.3, and indium rides in as sodium's
		// optional dependency.
		assert.Equal(t, "11.1.0", resolved["cloth-config"])
		assert.Equal(t, "0.91.0", resolved["fabric-api"])
		assert.Equal(t, "0.5.3", resolved["sodium"])
		assert.Equal(t, "1.0.34", resolved["indium"])
		assert.Equal(t, 4, result.ModCount)
	})

	t.Run("no diagnostics for the sample pack", func(t *testing.T) {
		assert.Empty(t, result.Diagnostics)
		_, statErr := os.Stat(filepath.Join(outDir, "diagnostics.yaml"))
		assert.True(t, os.IsNotExist(statErr))
	})
}

// TestResolveIsReproducible runs the same resolve twice and requires
// byte-identical outputs.
func TestResolveIsReproducible(t *testing.T) {
	root := testutil.RepoRoot(t)

	read := func(t *testing.T) string {
		outDir := t.TempDir()
		_, err := fixtureService().Resolve(t.Context(), app.ResolveRequest{
			PackPath:        filepath.Join(root, "fixtures/pack-sample.yaml"),
			IndexPath:       filepath.Join(root, "fixtures/catalog.yaml"),
			OutputDir:       outDir,
			AllowPrerelease: true,
		})
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(outDir, "modforge.manifest.json"))
		require.NoError(t, err)
		return string(data)
	}

	require.Equal(t, read(t), read(t))
}
