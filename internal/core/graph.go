package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"modforge/internal/policies"
	"modforge/internal/ports"
	"modforge/internal/shared"
	"modforge/internal/types"
)

const defaultFetchWorkers = 4

// Closure is the immutable graph snapshot the policy engine and
// resolver operate on. It is fully fetched before either runs;
// resolution never observes a partially-fetched graph.
type Closure struct {
	Loader       string
	GameVersion  string
	Requirements []types.Requirement
	Candidates   map[string][]types.VersionRecord
	Missing      map[string][]string
	Diagnostics  []types.Diagnostic
}

// GraphBuilder expands an initial requirement set into the full
// candidate closure by breadth-first fetching from the metadata source.
// Substitution rules redirect a mod id before its fetch is issued, so
// substituted-away projects are never fetched.
type GraphBuilder struct {
	Metadata ports.MetadataSourcePort
	Policy   *policies.CompiledPolicy
	Workers  int
}

func NewGraphBuilder(metadata ports.MetadataSourcePort, policy *policies.CompiledPolicy) GraphBuilder {
	return GraphBuilder{Metadata: metadata, Policy: policy}
}

type fetchResult struct {
	modID    string
	records  []types.VersionRecord
	notFound bool
}

// Build fetches the transitive closure reachable from the given
// requirements for one (loader, gameVersion) target. Missing projects
// are accumulated fail-slow so every unresolved reference surfaces
// together; the first transient fetch error aborts the build.
func (b GraphBuilder) Build(ctx context.Context, requirements []types.Requirement, loader string, gameVersion string) (Closure, error) {
	if b.Metadata == nil {
		return Closure{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("graph builder requires a metadata source")
	}

	closure := Closure{
		Loader:      loader,
		GameVersion: gameVersion,
		Candidates:  map[string][]types.VersionRecord{},
		Missing:     map[string][]string{},
	}
	requirers := map[string][]string{}
	visited := map[string]struct{}{}
	var frontier []string

	for _, req := range requirements {
		modID := shared.NormalizeSlug(req.ModID)
		if target, ok := b.Policy.SubstituteTarget(modID); ok {
			closure.Diagnostics = append(closure.Diagnostics, types.Diagnostic{
				Kind:   types.DiagPolicyNote,
				ModID:  modID,
				Detail: fmt.Sprintf("substituted with %s by policy", target),
			})
			modID = target
		}
		req.ModID = modID
		closure.Requirements = append(closure.Requirements, req)
		if _, seen := visited[modID]; !seen {
			visited[modID] = struct{}{}
			frontier = append(frontier, modID)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := b.Workers
	if workers <= 0 {
		workers = defaultFetchWorkers
	}

	for len(frontier) > 0 {
		sort.Strings(frontier)
		results, err := b.fetchWave(ctx, frontier, loader, gameVersion, workers, cancel)
		if err != nil {
			return Closure{}, err
		}

		var next []string
		for _, modID := range frontier {
			result, ok := results[modID]
			if !ok {
				continue
			}
			if result.notFound {
				closure.Missing[modID] = requirers[modID]
				continue
			}
			closure.Candidates[modID] = result.records
			for _, record := range result.records {
				for _, dep := range record.Dependencies {
					target := shared.NormalizeSlug(dep.TargetModID)
					if target == "" || target == modID {
						continue
					}
					if substituted, ok := b.Policy.SubstituteTarget(target); ok {
						target = substituted
					}
					if dep.Kind != types.DependencyKindRequired && dep.Kind != types.DependencyKindOptional {
						continue
					}
					requirers[target] = appendUnique(requirers[target], modID)
					if _, seen := visited[target]; !seen {
						visited[target] = struct{}{}
						next = append(next, target)
					}
				}
			}
		}
		frontier = next
	}

	for _, modID := range sortedMissing(closure.Missing) {
		closure.Diagnostics = append(closure.Diagnostics, types.Diagnostic{
			Kind:   types.DiagUnresolvedReference,
			ModID:  modID,
			Detail: missingDetail(closure.Missing[modID]),
		})
	}
	log.Ctx(ctx).Debug().
		Int("mods", len(closure.Candidates)).
		Int("missing", len(closure.Missing)).
		Msg("graph closure built")
	return closure, nil
}

// fetchWave issues one logical ListVersions call per frontier mod id
// through a bounded worker pool. Results merge into a write-once map;
// the first transient error cancels the context and wins.
func (b GraphBuilder) fetchWave(ctx context.Context, frontier []string, loader string, gameVersion string, workers int, cancel context.CancelFunc) (map[string]fetchResult, error) {
	results := map[string]fetchResult{}
	var mu sync.Mutex
	var errMu sync.Mutex
	var firstErr error

	if len(frontier) < workers {
		workers = len(frontier)
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, modID := range frontier {
		modID := modID
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			result, err := b.fetchOne(ctx, modID, loader, gameVersion)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				errMu.Unlock()
				return
			}
			mu.Lock()
			if _, exists := results[modID]; !exists {
				results[modID] = result
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// fetchOne lists compatible versions for one mod id. An empty list from
// an existing project is kept as an empty candidate pool; the existence
// probe distinguishes that case from a missing project.
func (b GraphBuilder) fetchOne(ctx context.Context, modID string, loader string, gameVersion string) (fetchResult, error) {
	records, err := b.Metadata.ListVersions(ctx, modID, loader, gameVersion)
	if err != nil {
		if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
			return fetchResult{modID: modID, notFound: true}, nil
		}
		return fetchResult{}, err
	}
	if len(records) == 0 {
		exists, err := b.Metadata.ProjectExists(ctx, modID)
		if err != nil {
			if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
				return fetchResult{modID: modID, notFound: true}, nil
			}
			return fetchResult{}, err
		}
		if !exists {
			return fetchResult{modID: modID, notFound: true}, nil
		}
	}
	return fetchResult{modID: modID, records: records}, nil
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}

func sortedMissing(missing map[string][]string) []string {
	out := make([]string, 0, len(missing))
	for modID := range missing {
		out = append(out, modID)
	}
	sort.Strings(out)
	return out
}

func missingDetail(requirers []string) string {
	if len(requirers) == 0 {
		return "mod does not exist in the metadata source (requested directly)"
	}
	ordered := append([]string(nil), requirers...)
	sort.Strings(ordered)
	return fmt.Sprintf("mod does not exist in the metadata source (required by %s)", strings.Join(ordered, ", "))
}
