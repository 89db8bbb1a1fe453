package app

import (
	"context"

	"modforge/internal/core"
	"modforge/internal/shared"
)

// Preview builds the graph closure and reports what the compiled
// policy would do to it, without running the resolver.
func (s Service) Preview(ctx context.Context, req PreviewRequest) (PreviewResult, error) {
	run, err := s.prepareRun(ctx, req.PackPath, req.PolicyPath)
	if err != nil {
		return PreviewResult{}, err
	}

	builder := core.NewGraphBuilder(
		s.metadataSource(req.IndexPath, req.APIURL, req.TimeoutSec, req.Retries),
		run.policy,
	)
	builder.Workers = req.Workers
	closure, err := builder.Build(ctx, run.requirements, run.pack.Loader, run.pack.GameVersion)
	if err != nil {
		return PreviewResult{}, err
	}

	var requested []string
	for _, mod := range run.pack.Mods {
		requested = append(requested, shared.NormalizeSlug(mod.ID))
	}
	return PreviewResult{
		PackName:    run.pack.Name,
		Plan:        run.policy.BuildPlan(requested, closure.Candidates),
		Diagnostics: closure.Diagnostics,
	}, nil
}
