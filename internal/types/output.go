package types

// ResolutionGraph maps every resolved mod id to exactly one chosen
// VersionRecord, together with the requirers that justified each
// inclusion. Frozen once the resolver succeeds; the manifest and lock
// file are pure projections of it.
type ResolutionGraph struct {
	Loader      string
	GameVersion string
	Chosen      map[string]VersionRecord
	RequiredBy  map[string][]string
}

// ManifestEntry is one row of the exported manifest, consumed by the
// external download/verification stage.
type ManifestEntry struct {
	ModID       string `json:"modId"`
	VersionID   string `json:"versionId"`
	Version     string `json:"version"`
	DownloadURL string `json:"downloadUrl"`
	SHA1        string `json:"sha1,omitempty"`
	SHA512      string `json:"sha512,omitempty"`
	FileSize    int64  `json:"fileSize,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// Manifest is the exported form of a resolution. Entries are ordered by
// mod id lexical ascending so a fixed graph and clock always produce
// byte-identical output.
type Manifest struct {
	FormatVersion int             `json:"formatVersion"`
	Name          string          `json:"name"`
	Loader        string          `json:"loader"`
	GameVersion   string          `json:"gameVersion"`
	GeneratedAt   string          `json:"generatedAt"`
	Files         []ManifestEntry `json:"files"`
}

type LockEntry struct {
	ID        string `yaml:"id"`
	Version   string `yaml:"version"`
	VersionID string `yaml:"version_id"`
}

// LockFile is the reproducibility projection written next to the
// manifest.
type LockFile struct {
	Name        string      `yaml:"name"`
	Loader      string      `yaml:"loader"`
	GameVersion string      `yaml:"game_version"`
	Mods        []LockEntry `yaml:"mods"`
}

// Diagnostic is one structured problem or note accumulated during a
// run. All failure paths surface as diagnostics, never as silent
// defaults.
type Diagnostic struct {
	Kind   DiagnosticKind `yaml:"kind"`
	ModID  string         `yaml:"mod"`
	Detail string         `yaml:"detail"`
}
