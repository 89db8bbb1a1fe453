package types

type DependencyKind string

const (
	DependencyKindRequired     DependencyKind = "required"
	DependencyKindOptional     DependencyKind = "optional"
	DependencyKindIncompatible DependencyKind = "incompatible"
	DependencyKindEmbedded     DependencyKind = "embedded"
)

type RequirementOrigin string

const (
	OriginUser       RequirementOrigin = "user"
	OriginTransitive RequirementOrigin = "transitive"
	OriginPolicy     RequirementOrigin = "policy"
)

type ReleaseChannel string

const (
	ChannelRelease ReleaseChannel = "release"
	ChannelBeta    ReleaseChannel = "beta"
	ChannelAlpha   ReleaseChannel = "alpha"
)

type PolicyAction string

const (
	ActionExclude       PolicyAction = "exclude"
	ActionPreferVersion PolicyAction = "prefer-version"
	ActionSubstitute    PolicyAction = "substitute"
	ActionAllowConflict PolicyAction = "allow-conflict"
)

type DiagnosticKind string

const (
	DiagUnresolvedReference     DiagnosticKind = "unresolved-reference"
	DiagUnsatisfiableConstraint DiagnosticKind = "unsatisfiable-constraint"
	DiagConflictDetected        DiagnosticKind = "conflict-detected"
	DiagOptionalSkipped         DiagnosticKind = "optional-skipped"
	DiagPolicyNote              DiagnosticKind = "policy-note"
)
