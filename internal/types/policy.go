package types

// RuleCondition limits a policy rule to a specific run target. An empty
// field matches any value.
type RuleCondition struct {
	Loader      string `yaml:"loader,omitempty"`
	GameVersion string `yaml:"game_version,omitempty"`
}

// PolicyRule is one declarative directive from a policy document.
// Scope is an exact mod id, a trailing-* prefix pattern, or "*".
// Version carries the constraint argument for exclude and
// prefer-version; Target carries the argument for substitute and
// allow-conflict.
type PolicyRule struct {
	Scope   string         `yaml:"scope"`
	Action  PolicyAction   `yaml:"action"`
	Version string         `yaml:"version,omitempty"`
	Target  string         `yaml:"target,omitempty"`
	When    *RuleCondition `yaml:"when,omitempty"`
}

// PolicyDocument is an ordered list of rules. Documents are assumed
// schema-validated upstream; semantic misconfiguration is still
// rejected at compile time.
type PolicyDocument struct {
	Rules []PolicyRule `yaml:"rules"`
}
