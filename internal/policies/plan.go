package policies

import (
	"sort"
	"strings"

	"modforge/internal/types"
)

// PlanSubstitution records one mod id the policy would redirect.
type PlanSubstitution struct {
	ModID  string
	Target string
}

// PlanExclusion records the versions an exclude rule would drop from
// one candidate pool.
type PlanExclusion struct {
	ModID    string
	Versions []string
}

// PlanPreference records the soft ranking hint active for one mod id.
type PlanPreference struct {
	ModID      string
	Constraint string
}

// Plan is a pure report of what a compiled policy would do to a set of
// candidate pools, without running the resolver.
type Plan struct {
	Substitutions []PlanSubstitution
	Exclusions    []PlanExclusion
	Exemptions    []string
	Preferences   []PlanPreference
}

// BuildPlan previews policy effects over the given mod ids and
// candidate pools. Output ordering is lexical by mod id so the report
// is stable.
func (p *CompiledPolicy) BuildPlan(requested []string, pools map[string][]types.VersionRecord) Plan {
	plan := Plan{}
	for _, modID := range sortedStrings(requested) {
		if target, ok := p.SubstituteTarget(modID); ok {
			plan.Substitutions = append(plan.Substitutions, PlanSubstitution{ModID: modID, Target: target})
		}
	}
	for _, modID := range sortedKeys(pools) {
		var dropped []string
		for _, record := range pools[modID] {
			if p != nil && p.excluded(modID, record.Version) {
				dropped = append(dropped, record.Version)
			}
		}
		if len(dropped) > 0 {
			plan.Exclusions = append(plan.Exclusions, PlanExclusion{ModID: modID, Versions: dropped})
		}
		if hint, ok := p.PreferHint(modID); ok {
			plan.Preferences = append(plan.Preferences, PlanPreference{ModID: modID, Constraint: hint})
		}
	}
	if p != nil {
		for key := range p.exemptions {
			plan.Exemptions = append(plan.Exemptions, strings.ReplaceAll(key, "|", " / "))
		}
		sort.Strings(plan.Exemptions)
	}
	return plan
}

func sortedStrings(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

func sortedKeys(pools map[string][]types.VersionRecord) []string {
	out := make([]string, 0, len(pools))
	for key := range pools {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
