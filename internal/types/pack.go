package types

// PackMod is one requested mod in a pack spec. Version is a constraint
// expression; empty means any version.
type PackMod struct {
	ID       string `yaml:"id"`
	Version  string `yaml:"version,omitempty"`
	Optional bool   `yaml:"optional,omitempty"`
}

// PackSpec is the user input document describing the modpack to
// resolve. Policy optionally points at a policy document path relative
// to the pack file.
type PackSpec struct {
	Name        string    `yaml:"name"`
	Loader      string    `yaml:"loader"`
	GameVersion string    `yaml:"game_version"`
	Mods        []PackMod `yaml:"mods"`
	Policy      string    `yaml:"policy,omitempty"`
}
