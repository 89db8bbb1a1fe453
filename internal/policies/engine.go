package policies

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"modforge/internal/shared"
	"modforge/internal/types"
)

// CompiledPolicy is the indexed, validated form of a policy document
// for one run target. Compilation rejects semantic misconfiguration
// before any resolution work; evaluation is pure and deterministic.
type CompiledPolicy struct {
	loader      string
	gameVersion string
	excludes    []compiledRule
	prefers     []compiledRule
	substitutes []compiledRule
	exemptions  map[string]struct{}
}

type compiledRule struct {
	scope      scopePattern
	constraint *semver.Constraints
	rawVersion string
	target     string
}

type scopePattern struct {
	exact    string
	prefix   string
	wildcard bool
}

func (p scopePattern) matches(modID string) bool {
	if p.wildcard {
		return true
	}
	if p.prefix != "" {
		return strings.HasPrefix(modID, p.prefix)
	}
	return p.exact == modID
}

func parseScope(raw string) (scopePattern, error) {
	scope := shared.NormalizeSlug(raw)
	if scope == "" {
		return scopePattern{}, policyError("rule scope must not be empty", nil)
	}
	if scope == "*" {
		return scopePattern{wildcard: true}, nil
	}
	if strings.HasSuffix(scope, "*") {
		prefix := strings.TrimSuffix(scope, "*")
		if strings.Contains(prefix, "*") {
			return scopePattern{}, policyError(fmt.Sprintf("invalid rule scope: %s", raw), nil)
		}
		return scopePattern{prefix: prefix}, nil
	}
	if strings.Contains(scope, "*") {
		return scopePattern{}, policyError(fmt.Sprintf("invalid rule scope: %s", raw), nil)
	}
	return scopePattern{exact: scope}, nil
}

func policyError(detail string, cause error) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("policy configuration: %s", detail))
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return builder
}

// Compile validates a policy document against the run target and
// resolves it into an indexed form. Rules whose condition does not
// match the target are inactive and dropped here.
func Compile(doc types.PolicyDocument, loader string, gameVersion string) (*CompiledPolicy, error) {
	policy := &CompiledPolicy{
		loader:      loader,
		gameVersion: gameVersion,
		exemptions:  map[string]struct{}{},
	}
	for _, rule := range doc.Rules {
		if !conditionMatches(rule.When, loader, gameVersion) {
			continue
		}
		scope, err := parseScope(rule.Scope)
		if err != nil {
			return nil, err
		}
		compiled := compiledRule{scope: scope, rawVersion: rule.Version}
		if rule.Version != "" {
			constraint, err := semver.NewConstraint(rule.Version)
			if err != nil {
				return nil, policyError(fmt.Sprintf("invalid version constraint %q in rule for %s", rule.Version, rule.Scope), err)
			}
			compiled.constraint = constraint
		}
		switch rule.Action {
		case types.ActionExclude:
			policy.excludes = append(policy.excludes, compiled)
		case types.ActionPreferVersion:
			if compiled.constraint == nil {
				return nil, policyError(fmt.Sprintf("prefer-version rule for %s needs a version", rule.Scope), nil)
			}
			policy.prefers = append(policy.prefers, compiled)
		case types.ActionSubstitute:
			compiled.target = shared.NormalizeSlug(rule.Target)
			if compiled.target == "" {
				return nil, policyError(fmt.Sprintf("substitute rule for %s needs a target", rule.Scope), nil)
			}
			if scope.exact != "" && scope.exact == compiled.target {
				return nil, policyError(fmt.Sprintf("substitution of %s with itself", rule.Scope), nil)
			}
			policy.substitutes = append(policy.substitutes, compiled)
		case types.ActionAllowConflict:
			compiled.target = shared.NormalizeSlug(rule.Target)
			if compiled.target == "" {
				return nil, policyError(fmt.Sprintf("allow-conflict rule for %s needs a target", rule.Scope), nil)
			}
			if scope.exact == "" {
				return nil, policyError(fmt.Sprintf("allow-conflict rule for %s must use an exact scope", rule.Scope), nil)
			}
			policy.exemptions[shared.PairKey(scope.exact, compiled.target)] = struct{}{}
		default:
			return nil, policyError(fmt.Sprintf("unknown action %q in rule for %s", rule.Action, rule.Scope), nil)
		}
	}
	if err := policy.checkSubstitutionCycles(); err != nil {
		return nil, err
	}
	return policy, nil
}

func conditionMatches(when *types.RuleCondition, loader string, gameVersion string) bool {
	if when == nil {
		return true
	}
	if when.Loader != "" && when.Loader != loader {
		return false
	}
	if when.GameVersion != "" && when.GameVersion != gameVersion {
		return false
	}
	return true
}

// checkSubstitutionCycles walks every substitution chain reachable from
// a rule scope or target and rejects loops. Substitution is applied at
// most once per mod id at lookup time, but a cyclic document is a
// configuration error regardless.
func (p *CompiledPolicy) checkSubstitutionCycles() error {
	starts := map[string]struct{}{}
	for _, rule := range p.substitutes {
		if rule.scope.exact != "" {
			starts[rule.scope.exact] = struct{}{}
		}
		starts[rule.target] = struct{}{}
	}
	for start := range starts {
		visited := map[string]struct{}{start: {}}
		current := start
		for {
			next, ok := p.SubstituteTarget(current)
			if !ok {
				break
			}
			if _, seen := visited[next]; seen {
				return policyError(fmt.Sprintf("substitution cycle involving %s", next), nil)
			}
			visited[next] = struct{}{}
			current = next
		}
	}
	return nil
}

// SubstituteTarget returns the substitution target for a mod id, if any
// active rule covers it. Exact-scope rules win over pattern rules;
// declaration order breaks ties among patterns.
func (p *CompiledPolicy) SubstituteTarget(modID string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, rule := range p.substitutes {
		if rule.scope.exact != "" && rule.scope.exact == modID {
			return rule.target, true
		}
	}
	for _, rule := range p.substitutes {
		// A pattern rule never redirects its own target to itself.
		if rule.scope.exact == "" && rule.scope.matches(modID) && rule.target != modID {
			return rule.target, true
		}
	}
	return "", false
}

// FilterCandidates applies every matching exclude rule to a candidate
// pool. A rule without a version constraint drops all versions in its
// scope; unparseable candidate versions are kept unless such a blanket
// rule matches.
func (p *CompiledPolicy) FilterCandidates(modID string, pool []types.VersionRecord) []types.VersionRecord {
	if p == nil || len(p.excludes) == 0 {
		return pool
	}
	var surviving []types.VersionRecord
	for _, record := range pool {
		if p.excluded(modID, record.Version) {
			continue
		}
		surviving = append(surviving, record)
	}
	return surviving
}

func (p *CompiledPolicy) excluded(modID string, version string) bool {
	for _, rule := range p.excludes {
		if !rule.scope.matches(modID) {
			continue
		}
		if rule.constraint == nil {
			return true
		}
		parsed, err := semver.NewVersion(version)
		if err != nil {
			continue
		}
		if rule.constraint.Check(parsed) {
			return true
		}
	}
	return false
}

// PreferHint returns the first matching prefer-version constraint for a
// mod id. Hints reorder candidates, never eliminate them.
func (p *CompiledPolicy) PreferHint(modID string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, rule := range p.prefers {
		if rule.scope.exact != "" && rule.scope.exact == modID {
			return rule.rawVersion, true
		}
	}
	for _, rule := range p.prefers {
		if rule.scope.exact == "" && rule.scope.matches(modID) {
			return rule.rawVersion, true
		}
	}
	return "", false
}

// AllowConflict reports whether an incompatible pair is exempted. The
// pair is unordered.
func (p *CompiledPolicy) AllowConflict(a string, b string) bool {
	if p == nil {
		return false
	}
	_, ok := p.exemptions[shared.PairKey(a, b)]
	return ok
}
