package policies

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/require"

	"modforge/internal/types"
)

func compileRules(t *testing.T, rules ...types.PolicyRule) *CompiledPolicy {
	t.Helper()
	policy, err := Compile(types.PolicyDocument{Rules: rules}, "fabric", "1.20.1")
	require.NoError(t, err)
	return policy
}

func pool(versions ...string) []types.VersionRecord {
	out := make([]types.VersionRecord, 0, len(versions))
	for _, version := range versions {
		out = append(out, types.VersionRecord{ModID: "m", Version: version})
	}
	return out
}

func versionsOf(records []types.VersionRecord) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.Version)
	}
	return out
}

func TestCompileRejectsUnknownAction(t *testing.T) {
	_, err := Compile(types.PolicyDocument{Rules: []types.PolicyRule{
		{Scope: "sodium", Action: "ban"},
	}}, "fabric", "1.20.1")
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	require.Contains(t, err.Error(), "policy configuration")
}

func TestCompileRejectsBadConstraint(t *testing.T) {
	_, err := Compile(types.PolicyDocument{Rules: []types.PolicyRule{
		{Scope: "sodium", Action: types.ActionExclude, Version: ">>nope"},
	}}, "fabric", "1.20.1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid version constraint")
}

func TestCompileRejectsSelfSubstitution(t *testing.T) {
	_, err := Compile(types.PolicyDocument{Rules: []types.PolicyRule{
		{Scope: "sodium", Action: types.ActionSubstitute, Target: "sodium"},
	}}, "fabric", "1.20.1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "itself")
}

func TestCompileRejectsSubstitutionCycle(t *testing.T) {
	_, err := Compile(types.PolicyDocument{Rules: []types.PolicyRule{
		{Scope: "mod-a", Action: types.ActionSubstitute, Target: "mod-b"},
		{Scope: "mod-b", Action: types.ActionSubstitute, Target: "mod-a"},
	}}, "fabric", "1.20.1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "substitution cycle")
}

func TestCompileRejectsPreferWithoutVersion(t *testing.T) {
	_, err := Compile(types.PolicyDocument{Rules: []types.PolicyRule{
		{Scope: "sodium", Action: types.ActionPreferVersion},
	}}, "fabric", "1.20.1")
	require.Error(t, err)
}

func TestCompileRejectsAllowConflictWildcard(t *testing.T) {
	_, err := Compile(types.PolicyDocument{Rules: []types.PolicyRule{
		{Scope: "lib-*", Action: types.ActionAllowConflict, Target: "sodium"},
	}}, "fabric", "1.20.1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "exact scope")
}

func TestConditionFiltersInactiveRules(t *testing.T) {
	policy := compileRules(t,
		types.PolicyRule{Scope: "sodium", Action: types.ActionExclude, When: &types.RuleCondition{Loader: "forge"}},
		types.PolicyRule{Scope: "lithium", Action: types.ActionExclude, When: &types.RuleCondition{GameVersion: "1.20.1"}},
	)

	require.Len(t, policy.FilterCandidates("sodium", pool("1.0.0")), 1)
	require.Empty(t, policy.FilterCandidates("lithium", pool("1.0.0")))
}

func TestExcludesAreAdditive(t *testing.T) {
	policy := compileRules(t,
		types.PolicyRule{Scope: "m", Action: types.ActionExclude, Version: "<1.0.0"},
		types.PolicyRule{Scope: "m", Action: types.ActionExclude, Version: ">=2.0.0"},
	)

	surviving := policy.FilterCandidates("m", pool("0.9.0", "1.5.0", "2.1.0"))
	require.Equal(t, []string{"1.5.0"}, versionsOf(surviving))
}

func TestExcludeWithoutVersionDropsScope(t *testing.T) {
	policy := compileRules(t,
		types.PolicyRule{Scope: "lib-*", Action: types.ActionExclude},
	)

	require.Empty(t, policy.FilterCandidates("lib-core", pool("1.0.0")))
	require.Len(t, policy.FilterCandidates("sodium", pool("1.0.0")), 1)
}

func TestSubstituteExactBeatsPattern(t *testing.T) {
	policy := compileRules(t,
		types.PolicyRule{Scope: "lib-*", Action: types.ActionSubstitute, Target: "lib-core"},
		types.PolicyRule{Scope: "lib-old", Action: types.ActionSubstitute, Target: "lib-new"},
	)

	target, ok := policy.SubstituteTarget("lib-old")
	require.True(t, ok)
	require.Equal(t, "lib-new", target)

	target, ok = policy.SubstituteTarget("lib-misc")
	require.True(t, ok)
	require.Equal(t, "lib-core", target)

	// The pattern never redirects its own target onto itself.
	_, ok = policy.SubstituteTarget("lib-core")
	require.False(t, ok)
}

func TestSubstituteIsIdempotent(t *testing.T) {
	policy := compileRules(t,
		types.PolicyRule{Scope: "legacy-mod", Action: types.ActionSubstitute, Target: "replacement"},
	)

	target, ok := policy.SubstituteTarget("legacy-mod")
	require.True(t, ok)
	require.Equal(t, "replacement", target)

	// Applying the substitution to its own result is a no-op.
	_, ok = policy.SubstituteTarget(target)
	require.False(t, ok)
}

func TestPreferHintFirstMatch(t *testing.T) {
	policy := compileRules(t,
		types.PolicyRule{Scope: "sodium", Action: types.ActionPreferVersion, Version: "0.5.3"},
		types.PolicyRule{Scope: "sodium", Action: types.ActionPreferVersion, Version: "0.5.4"},
	)

	hint, ok := policy.PreferHint("sodium")
	require.True(t, ok)
	require.Equal(t, "0.5.3", hint)

	_, ok = policy.PreferHint("lithium")
	require.False(t, ok)
}

func TestAllowConflictUnorderedPair(t *testing.T) {
	policy := compileRules(t,
		types.PolicyRule{Scope: "mod-a", Action: types.ActionAllowConflict, Target: "mod-c"},
	)

	require.True(t, policy.AllowConflict("mod-a", "mod-c"))
	require.True(t, policy.AllowConflict("mod-c", "mod-a"))
	require.False(t, policy.AllowConflict("mod-a", "mod-b"))
}

func TestNilPolicyIsInert(t *testing.T) {
	var policy *CompiledPolicy

	require.Len(t, policy.FilterCandidates("m", pool("1.0.0")), 1)
	_, ok := policy.SubstituteTarget("m")
	require.False(t, ok)
	_, ok = policy.PreferHint("m")
	require.False(t, ok)
	require.False(t, policy.AllowConflict("a", "b"))
}

func TestBuildPlanReport(t *testing.T) {
	policy := compileRules(t,
		types.PolicyRule{Scope: "legacy-mod", Action: types.ActionSubstitute, Target: "replacement"},
		types.PolicyRule{Scope: "cloth-config", Action: types.ActionExclude, Version: "<11.0.0"},
		types.PolicyRule{Scope: "sodium", Action: types.ActionPreferVersion, Version: "0.5.3"},
		types.PolicyRule{Scope: "mod-a", Action: types.ActionAllowConflict, Target: "mod-c"},
	)

	plan := policy.BuildPlan(
		[]string{"sodium", "legacy-mod"},
		map[string][]types.VersionRecord{
			"cloth-config": {{ModID: "cloth-config", Version: "10.9.0"}, {ModID: "cloth-config", Version: "11.1.0"}},
			"sodium":       {{ModID: "sodium", Version: "0.5.3"}},
		},
	)

	require.Equal(t, []PlanSubstitution{{ModID: "legacy-mod", Target: "replacement"}}, plan.Substitutions)
	require.Equal(t, []PlanExclusion{{ModID: "cloth-config", Versions: []string{"10.9.0"}}}, plan.Exclusions)
	require.Equal(t, []PlanPreference{{ModID: "sodium", Constraint: "0.5.3"}}, plan.Preferences)
	require.Equal(t, []string{"mod-a / mod-c"}, plan.Exemptions)
}
