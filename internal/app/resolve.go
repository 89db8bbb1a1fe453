package app

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"modforge/internal/adapters"
	"modforge/internal/core"
	"modforge/internal/policies"
	"modforge/internal/types"
)

// Resolve runs the full pipeline: load pack and policy, build the
// graph closure, filter by policy, search for an assignment, and write
// the manifest, lock file, and diagnostics.
func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}

	run, err := s.prepareRun(ctx, req.PackPath, req.PolicyPath)
	if err != nil {
		return ResolveResult{}, err
	}

	builder := core.NewGraphBuilder(
		s.metadataSource(req.IndexPath, req.APIURL, req.TimeoutSec, req.Retries),
		run.policy,
	)
	builder.Workers = req.Workers
	closure, err := builder.Build(ctx, run.requirements, run.pack.Loader, run.pack.GameVersion)
	if err != nil {
		return ResolveResult{}, err
	}

	resolver := core.NewResolver(run.policy)
	resolver.AllowPrerelease = req.AllowPrerelease
	output := adapters.NewOutputFileAdapter(outputDir)

	graph, resolveDiags, err := resolver.Resolve(closure)
	diags := append(closure.Diagnostics, resolveDiags...)
	if err != nil {
		if writeErr := output.WriteDiagnostics(diags); writeErr != nil {
			log.Ctx(ctx).Warn().Err(writeErr).Msg("failed to write diagnostics")
		}
		return ResolveResult{Diagnostics: diags}, err
	}

	if !req.LockOnly {
		manifest := core.BuildManifest(graph, run.pack.Name, s.Clock)
		if err := output.WriteManifest(manifest); err != nil {
			return ResolveResult{}, err
		}
	}
	if req.WriteLock || req.LockOnly {
		lock := core.BuildLockFile(graph, run.pack.Name)
		if err := output.WriteLockFile(lock); err != nil {
			return ResolveResult{}, err
		}
	}
	if err := output.WriteDiagnostics(diags); err != nil {
		return ResolveResult{}, err
	}

	return ResolveResult{
		PackName:    run.pack.Name,
		ModCount:    len(graph.Chosen),
		OutputDir:   outputDir,
		Diagnostics: diags,
	}, nil
}

type preparedRun struct {
	pack         types.PackSpec
	policy       *policies.CompiledPolicy
	doc          types.PolicyDocument
	requirements []types.Requirement
}

// prepareRun loads and validates the pack spec, loads the policy
// document (explicit path first, then the pack's own reference,
// resolved relative to the pack file), and compiles it for the run
// target. Policy misconfiguration is fatal here, before any fetching.
func (s Service) prepareRun(ctx context.Context, packPath string, policyPath string) (preparedRun, error) {
	packPath = strings.TrimSpace(packPath)
	if packPath == "" {
		return preparedRun{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("pack spec path is required")
	}
	pack, err := s.Packs.LoadPack(packPath)
	if err != nil {
		return preparedRun{}, err
	}
	compiler := core.NewPackCompiler()
	if err := compiler.ValidatePack(ctx, pack); err != nil {
		return preparedRun{}, err
	}

	doc := types.PolicyDocument{}
	policyPath = strings.TrimSpace(policyPath)
	if policyPath == "" && pack.Policy != "" {
		policyPath = pack.Policy
		if !filepath.IsAbs(policyPath) {
			policyPath = filepath.Join(filepath.Dir(packPath), policyPath)
		}
	}
	if policyPath != "" {
		doc, err = s.PolicySource.LoadPolicy(policyPath)
		if err != nil {
			return preparedRun{}, err
		}
	}
	policy, err := policies.Compile(doc, pack.Loader, pack.GameVersion)
	if err != nil {
		return preparedRun{}, err
	}

	return preparedRun{
		pack:         pack,
		policy:       policy,
		doc:          doc,
		requirements: compiler.Requirements(pack),
	}, nil
}
