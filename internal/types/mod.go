package types

import "time"

// VersionRecord is one published version of a mod as reported by the
// metadata source. Records are immutable once fetched; policy and
// resolution only ever narrow which records are eligible.
type VersionRecord struct {
	ModID        string
	VersionID    string
	Version      string
	Channel      ReleaseChannel
	GameVersions []string
	Loaders      []string
	Dependencies []Dependency
	PublishedAt  time.Time
	Files        []VersionFile
}

// VersionFile is a downloadable artifact attached to a VersionRecord.
// The primary file is the one projected into the manifest.
type VersionFile struct {
	Filename string
	URL      string
	SHA1     string
	SHA512   string
	Size     int64
	Primary  bool
}

// Dependency is an edge from a VersionRecord to another mod. An
// incompatible edge declares a conflict, not a requirement. An empty
// constraint means any version.
type Dependency struct {
	TargetModID string
	Constraint  string
	Kind        DependencyKind
}

// Requirement is a constraint placed on a mod id by the user, by a
// chosen version's dependency edge, or by policy expansion. RequiredBy
// names the mod that introduced the requirement; it is empty for user
// requirements.
type Requirement struct {
	ModID      string
	Constraint string
	Origin     RequirementOrigin
	Optional   bool
	RequiredBy string
}

// PrimaryFile returns the record's primary VersionFile, falling back to
// the first file when none is flagged primary.
func (r VersionRecord) PrimaryFile() (VersionFile, bool) {
	for _, file := range r.Files {
		if file.Primary {
			return file, true
		}
	}
	if len(r.Files) > 0 {
		return r.Files[0], true
	}
	return VersionFile{}, false
}
