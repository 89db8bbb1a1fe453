package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"modforge/internal/policies"
	"modforge/internal/shared"
	"modforge/internal/types"
)

// Resolver selects exactly one VersionRecord per required mod id from
// the policy-filtered candidate pools, or proves no assignment exists.
// The search is a deterministic depth-first constraint-satisfaction
// procedure with chronological backtracking; it operates purely over
// the already-fetched closure and never blocks.
type Resolver struct {
	Policy          *policies.CompiledPolicy
	AllowPrerelease bool
}

func NewResolver(policy *policies.CompiledPolicy) Resolver {
	return Resolver{Policy: policy, AllowPrerelease: true}
}

// Resolve runs the search. On success the returned graph is frozen and
// covers every mod id reachable via required edges; optional mods that
// could not be included are reported as warnings, never as failures.
func (r Resolver) Resolve(closure Closure) (types.ResolutionGraph, []types.Diagnostic, error) {
	state := &search{
		policy:   r.Policy,
		cache:    newVersionCache(),
		pools:    map[string][]types.VersionRecord{},
		reqs:     map[string][]types.Requirement{},
		missing:  closure.Missing,
		assigned: map[string]types.VersionRecord{},
	}

	for modID, pool := range closure.Candidates {
		filtered := r.Policy.FilterCandidates(modID, pool)
		if !r.AllowPrerelease {
			filtered = releaseOnly(filtered)
		}
		hint, _ := r.Policy.PreferHint(modID)
		state.pools[modID] = sortCandidates(filtered, hint, state.cache)
	}
	for _, req := range closure.Requirements {
		state.reqs[req.ModID] = append(state.reqs[req.ModID], req)
	}

	var diags []types.Diagnostic
	if !state.solve(0) {
		return types.ResolutionGraph{}, state.failureDiagnostics(), state.failureError()
	}
	diags = append(diags, state.includeOptionals()...)

	graph := types.ResolutionGraph{
		Loader:      closure.Loader,
		GameVersion: closure.GameVersion,
		Chosen:      map[string]types.VersionRecord{},
		RequiredBy:  map[string][]string{},
	}
	for modID, record := range state.assigned {
		graph.Chosen[modID] = record
		var requirers []string
		for _, req := range state.reqs[modID] {
			if req.RequiredBy != "" {
				requirers = appendUnique(requirers, req.RequiredBy)
			}
		}
		sort.Strings(requirers)
		graph.RequiredBy[modID] = requirers
	}
	log.Debug().Int("resolved", len(graph.Chosen)).Msg("resolver completed")
	return graph, diags, nil
}

func releaseOnly(pool []types.VersionRecord) []types.VersionRecord {
	var out []types.VersionRecord
	for _, record := range pool {
		if record.Channel == types.ChannelRelease || record.Channel == "" {
			out = append(out, record)
		}
	}
	return out
}

type search struct {
	policy   *policies.CompiledPolicy
	cache    *versionCache
	pools    map[string][]types.VersionRecord
	reqs     map[string][]types.Requirement
	missing  map[string][]string
	assigned map[string]types.VersionRecord
	order    []string
	failure  *exhaustRecord
}

// exhaustRecord captures the deepest point at which a mod id ran out of
// candidates, so failures report the chain of requirements that forced
// the impossibility instead of a bare "no candidate found".
type exhaustRecord struct {
	modID        string
	depth        int
	requirements []types.Requirement
	assigned     map[string]string
	conflicts    []conflictNote
}

type conflictNote struct {
	other  string
	detail string
}

// solve assigns one mod per recursion level, most-constrained-first,
// and backtracks chronologically on violation.
func (s *search) solve(depth int) bool {
	modID, ok := s.nextUnassigned()
	if !ok {
		return true
	}
	candidates := s.eligible(modID)
	var conflicts []conflictNote
	for _, candidate := range candidates {
		if note, clash := s.conflictWith(candidate); clash {
			conflicts = append(conflicts, note)
			continue
		}
		added, note, usable := s.requirementsFrom(candidate)
		if !usable {
			conflicts = append(conflicts, note)
			continue
		}
		s.assign(modID, candidate, added)
		if s.solve(depth + 1) {
			return true
		}
		s.unassign(modID, added)
	}
	s.recordExhaustion(modID, depth, conflicts)
	return false
}

// nextUnassigned picks the unassigned required mod id with the fewest
// eligible candidates, breaking ties by lexical order so the search is
// reproducible.
func (s *search) nextUnassigned() (string, bool) {
	best := ""
	bestCount := -1
	for _, modID := range s.requiredIDs() {
		if _, done := s.assigned[modID]; done {
			continue
		}
		count := len(s.eligible(modID))
		if bestCount < 0 || count < bestCount || (count == bestCount && modID < best) {
			best = modID
			bestCount = count
		}
	}
	if bestCount < 0 {
		return "", false
	}
	return best, true
}

func (s *search) requiredIDs() []string {
	var out []string
	for modID, reqs := range s.reqs {
		for _, req := range reqs {
			if !req.Optional {
				out = append(out, modID)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// eligible returns the candidates for a mod id that satisfy every
// active constraint targeting it, in resolver preference order.
func (s *search) eligible(modID string) []types.VersionRecord {
	constraints := s.constraintsFor(modID)
	var out []types.VersionRecord
	for _, record := range s.pools[modID] {
		ok, err := s.cache.satisfiesAll(record.Version, constraints)
		if err != nil || !ok {
			continue
		}
		out = append(out, record)
	}
	return out
}

func (s *search) constraintsFor(modID string) []string {
	var out []string
	for _, req := range s.reqs[modID] {
		if req.Constraint != "" {
			out = append(out, req.Constraint)
		}
	}
	return out
}

// conflictWith checks a candidate against every current assignment for
// incompatible edges, in both directions, honoring allow-conflict
// exemptions. Embedded mods provided by either side participate in the
// check when the incompatible edge carries no version constraint.
func (s *search) conflictWith(candidate types.VersionRecord) (conflictNote, bool) {
	for _, otherID := range s.order {
		other := s.assigned[otherID]
		if s.policy.AllowConflict(candidate.ModID, otherID) {
			continue
		}
		if s.incompatible(candidate, other) || s.incompatible(other, candidate) {
			return conflictNote{
				other: otherID,
				detail: fmt.Sprintf("%s %s and %s %s are mutually incompatible",
					candidate.ModID, candidate.Version, otherID, other.Version),
			}, true
		}
	}
	return conflictNote{}, false
}

// incompatible reports whether from declares to's mod (or a mod it
// embeds) incompatible in a way matching to's version.
func (s *search) incompatible(from types.VersionRecord, to types.VersionRecord) bool {
	provided := map[string]string{to.ModID: to.Version}
	for _, dep := range to.Dependencies {
		if dep.Kind == types.DependencyKindEmbedded {
			provided[shared.NormalizeSlug(dep.TargetModID)] = ""
		}
	}
	for _, dep := range from.Dependencies {
		if dep.Kind != types.DependencyKindIncompatible {
			continue
		}
		target := shared.NormalizeSlug(dep.TargetModID)
		version, ok := provided[target]
		if !ok {
			continue
		}
		if dep.Constraint == "" {
			return true
		}
		if version == "" {
			continue
		}
		matched, err := s.cache.satisfies(version, dep.Constraint)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// requirementsFrom derives the requirements a candidate's required
// dependency edges would add. The candidate is unusable when a required
// target is a known-missing project or when an already assigned target
// violates the edge's constraint.
func (s *search) requirementsFrom(candidate types.VersionRecord) ([]types.Requirement, conflictNote, bool) {
	var added []types.Requirement
	for _, dep := range candidate.Dependencies {
		if dep.Kind != types.DependencyKindRequired {
			continue
		}
		target := shared.NormalizeSlug(dep.TargetModID)
		if substituted, ok := s.policy.SubstituteTarget(target); ok {
			target = substituted
		}
		if target == "" || target == candidate.ModID {
			continue
		}
		if _, missing := s.missing[target]; missing {
			return nil, conflictNote{
				other:  target,
				detail: fmt.Sprintf("%s %s requires %s which does not exist", candidate.ModID, candidate.Version, target),
			}, false
		}
		if assigned, ok := s.assigned[target]; ok && dep.Constraint != "" {
			matched, err := s.cache.satisfies(assigned.Version, dep.Constraint)
			if err != nil || !matched {
				return nil, conflictNote{
					other: target,
					detail: fmt.Sprintf("%s %s requires %s %s but %s is assigned",
						candidate.ModID, candidate.Version, target, dep.Constraint, assigned.Version),
				}, false
			}
		}
		added = append(added, types.Requirement{
			ModID:      target,
			Constraint: dep.Constraint,
			Origin:     types.OriginTransitive,
			RequiredBy: candidate.ModID,
		})
	}
	return added, conflictNote{}, true
}

func (s *search) assign(modID string, record types.VersionRecord, added []types.Requirement) {
	s.assigned[modID] = record
	s.order = append(s.order, modID)
	for _, req := range added {
		s.reqs[req.ModID] = append(s.reqs[req.ModID], req)
	}
}

func (s *search) unassign(modID string, added []types.Requirement) {
	delete(s.assigned, modID)
	s.order = s.order[:len(s.order)-1]
	for i := len(added) - 1; i >= 0; i-- {
		req := added[i]
		list := s.reqs[req.ModID]
		s.reqs[req.ModID] = list[:len(list)-1]
	}
}

// recordExhaustion keeps the deepest exhaustion seen so the final
// report names the assignment chain active when the search gave up.
func (s *search) recordExhaustion(modID string, depth int, conflicts []conflictNote) {
	if s.failure != nil && depth < s.failure.depth {
		return
	}
	assigned := map[string]string{}
	for _, req := range s.reqs[modID] {
		if req.RequiredBy == "" {
			continue
		}
		if record, ok := s.assigned[req.RequiredBy]; ok {
			assigned[req.RequiredBy] = record.Version
		}
	}
	s.failure = &exhaustRecord{
		modID:        modID,
		depth:        depth,
		requirements: append([]types.Requirement(nil), s.reqs[modID]...),
		assigned:     assigned,
		conflicts:    conflicts,
	}
}

func (s *search) failureChain() string {
	record := s.failure
	var parts []string
	for _, req := range record.requirements {
		switch {
		case req.RequiredBy != "":
			version, ok := record.assigned[req.RequiredBy]
			if ok {
				parts = append(parts, fmt.Sprintf("%s %s requires %s", req.RequiredBy, version, describeConstraint(req.Constraint)))
			} else {
				parts = append(parts, fmt.Sprintf("%s requires %s", req.RequiredBy, describeConstraint(req.Constraint)))
			}
		case req.Origin == types.OriginPolicy:
			parts = append(parts, fmt.Sprintf("policy requires %s", describeConstraint(req.Constraint)))
		default:
			parts = append(parts, fmt.Sprintf("requested %s", describeConstraint(req.Constraint)))
		}
	}
	for _, conflict := range record.conflicts {
		parts = append(parts, conflict.detail)
	}
	return strings.Join(parts, "; ")
}

func describeConstraint(constraint string) string {
	if constraint == "" {
		return "any version"
	}
	return fmt.Sprintf("version %s", constraint)
}

func (s *search) failureError() error {
	record := s.failure
	if _, missing := s.missing[record.modID]; missing {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("unresolved mod reference: %s (%s)", record.modID, s.failureChain()))
	}
	for _, conflict := range record.conflicts {
		if _, missing := s.missing[conflict.other]; missing {
			return errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("unresolved mod reference: %s (%s)", conflict.other, s.failureChain()))
		}
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("unsatisfiable constraint: %s (%s)", record.modID, s.failureChain()))
}

func (s *search) failureDiagnostics() []types.Diagnostic {
	record := s.failure
	diags := []types.Diagnostic{{
		Kind:   types.DiagUnsatisfiableConstraint,
		ModID:  record.modID,
		Detail: s.failureChain(),
	}}
	for _, conflict := range record.conflicts {
		diags = append(diags, types.Diagnostic{
			Kind:   types.DiagConflictDetected,
			ModID:  record.modID,
			Detail: conflict.detail,
		})
	}
	return diags
}

// includeOptionals extends a successful required assignment with every
// reachable optional dependency that can be satisfied without breaking
// the frozen choices. A target optionally required by several chosen
// mods is promoted with all of their constraints at once; failures
// downgrade to warnings.
func (s *search) includeOptionals() []types.Diagnostic {
	var diags []types.Diagnostic
	attempted := map[string]struct{}{}
	for {
		queue := s.pendingOptionals(attempted)
		if len(queue) == 0 {
			return diags
		}
		for _, pending := range queue {
			attempted[pending.modID] = struct{}{}
			if _, done := s.assigned[pending.modID]; done {
				continue
			}
			if _, missing := s.missing[pending.modID]; missing {
				diags = append(diags, types.Diagnostic{
					Kind:   types.DiagOptionalSkipped,
					ModID:  pending.modID,
					Detail: "optional dependency does not exist in the metadata source",
				})
				continue
			}
			for _, req := range pending.reqs {
				req.Optional = false
				s.reqs[pending.modID] = append(s.reqs[pending.modID], req)
			}
			if !s.solve(len(s.order)) {
				list := s.reqs[pending.modID]
				s.reqs[pending.modID] = list[:len(list)-len(pending.reqs)]
				diags = append(diags, types.Diagnostic{
					Kind:   types.DiagOptionalSkipped,
					ModID:  pending.modID,
					Detail: "optional dependency could not be resolved against the chosen versions",
				})
			}
		}
	}
}

type pendingOptional struct {
	modID string
	reqs  []types.Requirement
}

// pendingOptionals collects optional targets not yet assigned: optional
// user requirements plus optional edges of chosen versions. Every
// optional requirement on a target is kept, so promotion honors all
// requirers' constraints together. Sources are walked in sorted mod id
// order so the queue and each requirement list are stable.
func (s *search) pendingOptionals(attempted map[string]struct{}) []pendingOptional {
	byID := map[string][]types.Requirement{}
	consider := func(req types.Requirement) {
		if _, done := s.assigned[req.ModID]; done {
			return
		}
		if _, tried := attempted[req.ModID]; tried {
			return
		}
		byID[req.ModID] = append(byID[req.ModID], req)
	}
	reqIDs := make([]string, 0, len(s.reqs))
	for modID := range s.reqs {
		reqIDs = append(reqIDs, modID)
	}
	sort.Strings(reqIDs)
	for _, modID := range reqIDs {
		for _, req := range s.reqs[modID] {
			if req.Optional {
				consider(req)
			}
		}
	}
	for _, modID := range sortedChosen(s.assigned) {
		for _, dep := range s.assigned[modID].Dependencies {
			if dep.Kind != types.DependencyKindOptional {
				continue
			}
			target := shared.NormalizeSlug(dep.TargetModID)
			if substituted, ok := s.policy.SubstituteTarget(target); ok {
				target = substituted
			}
			consider(types.Requirement{
				ModID:      target,
				Constraint: dep.Constraint,
				Origin:     types.OriginTransitive,
				Optional:   true,
				RequiredBy: modID,
			})
		}
	}
	ids := make([]string, 0, len(byID))
	for modID := range byID {
		ids = append(ids, modID)
	}
	sort.Strings(ids)
	out := make([]pendingOptional, 0, len(ids))
	for _, modID := range ids {
		out = append(out, pendingOptional{modID: modID, reqs: byID[modID]})
	}
	return out
}
