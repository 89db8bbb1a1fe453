package core

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"modforge/internal/types"
)

const manifestFormatVersion = 1

// BuildManifest projects a frozen ResolutionGraph into the exported
// manifest. Entries are ordered by mod id lexical ascending; with a
// fixed graph and clock the output is byte-identical across runs.
func BuildManifest(graph types.ResolutionGraph, name string, clock func() time.Time) types.Manifest {
	manifest := types.Manifest{
		FormatVersion: manifestFormatVersion,
		Name:          name,
		Loader:        graph.Loader,
		GameVersion:   graph.GameVersion,
		GeneratedAt:   clock().UTC().Format(time.RFC3339),
	}
	for _, modID := range sortedChosen(graph.Chosen) {
		record := graph.Chosen[modID]
		entry := types.ManifestEntry{
			ModID:     modID,
			VersionID: record.VersionID,
			Version:   record.Version,
		}
		if file, ok := record.PrimaryFile(); ok {
			entry.DownloadURL = file.URL
			entry.SHA1 = file.SHA1
			entry.SHA512 = file.SHA512
			entry.FileSize = file.Size
			entry.Filename = file.Filename
		}
		manifest.Files = append(manifest.Files, entry)
	}
	return manifest
}

// BuildLockFile projects the graph into the reproducibility lock file,
// following the same ordering rules as the manifest.
func BuildLockFile(graph types.ResolutionGraph, name string) types.LockFile {
	lock := types.LockFile{
		Name:        name,
		Loader:      graph.Loader,
		GameVersion: graph.GameVersion,
	}
	for _, modID := range sortedChosen(graph.Chosen) {
		record := graph.Chosen[modID]
		lock.Mods = append(lock.Mods, types.LockEntry{
			ID:        modID,
			Version:   record.Version,
			VersionID: record.VersionID,
		})
	}
	return lock
}

// MarshalManifest renders a manifest as indented JSON with a trailing
// newline. Key order is fixed by the struct definition.
func MarshalManifest(manifest types.Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal manifest").
			WithCause(err)
	}
	return append(data, '\n'), nil
}

func sortedChosen(chosen map[string]types.VersionRecord) []string {
	out := make([]string, 0, len(chosen))
	for modID := range chosen {
		out = append(out, modID)
	}
	sort.Strings(out)
	return out
}
