package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/require"

	"modforge/internal/types"
)

func TestLoadPack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	content := `
name: sample-pack
loader: fabric
game_version: "1.20.1"
mods:
  - id: fabric-api
    version: ">=0.90.0, <1.0.0"
  - id: jei
    optional: true
policy: policy.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	spec, err := NewPackFileAdapter().LoadPack(path)
	require.NoError(t, err)
	require.Equal(t, "sample-pack", spec.Name)
	require.Equal(t, "fabric", spec.Loader)
	require.Equal(t, "1.20.1", spec.GameVersion)
	require.Equal(t, "policy.yaml", spec.Policy)
	require.Len(t, spec.Mods, 2)
	require.Equal(t, types.PackMod{ID: "fabric-api", Version: ">=0.90.0, <1.0.0"}, spec.Mods[0])
	require.True(t, spec.Mods[1].Optional)
}

func TestLoadPackMissingFile(t *testing.T) {
	_, err := NewPackFileAdapter().LoadPack(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestLoadPackInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mods: {broken"), 0644))

	_, err := NewPackFileAdapter().LoadPack(path)
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}
