package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"modforge/tests/testutil"
)

func TestResolveCommandE2E(t *testing.T) {
	root := testutil.RepoRoot(t)
	outDir := t.TempDir()

	cmd := exec.Command("go", "run", "./cmd/modforge", "resolve",
		"--pack", "fixtures/pack-sample.yaml",
		"--index", "fixtures/catalog.yaml",
		"--output", outDir,
		"--lock",
	)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "GO111MODULE=on")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	require.Contains(t, string(out), "resolved: sample-pack")

	require.FileExists(t, filepath.Join(outDir, "modforge.manifest.json"))
	require.FileExists(t, filepath.Join(outDir, "modforge.lock.yaml"))
}

func TestValidateCommandE2E(t *testing.T) {
	root := testutil.RepoRoot(t)

	cmd := exec.Command("go", "run", "./cmd/modforge", "validate",
		"--pack", "fixtures/pack-sample.yaml",
	)
	cmd.Dir = root
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	require.Contains(t, string(out), "validated: sample-pack")
}
