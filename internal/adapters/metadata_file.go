package adapters

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"modforge/internal/ports"
	"modforge/internal/shared"
	"modforge/internal/types"
)

// FileMetadataAdapter serves version metadata from a local YAML catalog
// for hermetic tests and air-gapped runs. The catalog is loaded once,
// lazily, and cached for the adapter's lifetime.
type FileMetadataAdapter struct {
	Path   string
	cached catalogFile
	loaded bool
}

func NewFileMetadataAdapter(path string) *FileMetadataAdapter {
	return &FileMetadataAdapter{Path: path}
}

type catalogFile struct {
	Projects map[string]catalogProject `yaml:"projects"`
}

type catalogProject struct {
	Versions []catalogVersion `yaml:"versions"`
}

type catalogVersion struct {
	ID           string              `yaml:"id"`
	Version      string              `yaml:"version"`
	Channel      string              `yaml:"channel,omitempty"`
	GameVersions []string            `yaml:"game_versions"`
	Loaders      []string            `yaml:"loaders"`
	PublishedAt  time.Time           `yaml:"published_at"`
	Dependencies []catalogDependency `yaml:"dependencies,omitempty"`
	Files        []catalogVFile      `yaml:"files,omitempty"`
}

type catalogDependency struct {
	Mod        string `yaml:"mod"`
	Constraint string `yaml:"constraint,omitempty"`
	Kind       string `yaml:"kind"`
}

type catalogVFile struct {
	Filename string `yaml:"filename"`
	URL      string `yaml:"url"`
	SHA1     string `yaml:"sha1,omitempty"`
	SHA512   string `yaml:"sha512,omitempty"`
	Size     int64  `yaml:"size,omitempty"`
	Primary  bool   `yaml:"primary,omitempty"`
}

func (a *FileMetadataAdapter) ListVersions(_ context.Context, modID string, loader string, gameVersion string) ([]types.VersionRecord, error) {
	catalog, err := a.load()
	if err != nil {
		return nil, err
	}
	project, ok := catalog.Projects[shared.NormalizeSlug(modID)]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("project not found: %s", modID))
	}
	var records []types.VersionRecord
	for _, version := range project.Versions {
		if !containsString(version.Loaders, loader) || !containsString(version.GameVersions, gameVersion) {
			continue
		}
		records = append(records, catalogToRecord(modID, version))
	}
	return records, nil
}

func (a *FileMetadataAdapter) ProjectExists(_ context.Context, modID string) (bool, error) {
	catalog, err := a.load()
	if err != nil {
		return false, err
	}
	_, ok := catalog.Projects[shared.NormalizeSlug(modID)]
	return ok, nil
}

func (a *FileMetadataAdapter) load() (catalogFile, error) {
	if a.loaded {
		return a.cached, nil
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return catalogFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("metadata catalog file not found").
			WithCause(err)
	}
	var catalog catalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return catalogFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid metadata catalog format").
			WithCause(err)
	}
	if catalog.Projects == nil {
		catalog.Projects = map[string]catalogProject{}
	}
	a.cached = catalog
	a.loaded = true
	return catalog, nil
}

func catalogToRecord(modID string, version catalogVersion) types.VersionRecord {
	record := types.VersionRecord{
		ModID:        shared.NormalizeSlug(modID),
		VersionID:    version.ID,
		Version:      version.Version,
		Channel:      toChannel(version.Channel),
		GameVersions: version.GameVersions,
		Loaders:      version.Loaders,
		PublishedAt:  version.PublishedAt,
	}
	if record.VersionID == "" {
		record.VersionID = fmt.Sprintf("%s-%s", record.ModID, version.Version)
	}
	for _, dep := range version.Dependencies {
		record.Dependencies = append(record.Dependencies, types.Dependency{
			TargetModID: dep.Mod,
			Constraint:  dep.Constraint,
			Kind:        types.DependencyKind(dep.Kind),
		})
	}
	for _, file := range version.Files {
		record.Files = append(record.Files, types.VersionFile{
			Filename: file.Filename,
			URL:      file.URL,
			SHA1:     file.SHA1,
			SHA512:   file.SHA512,
			Size:     file.Size,
			Primary:  file.Primary,
		})
	}
	return record
}

func containsString(values []string, value string) bool {
	for _, existing := range values {
		if existing == value {
			return true
		}
	}
	return false
}

var _ ports.MetadataSourcePort = (*FileMetadataAdapter)(nil)
