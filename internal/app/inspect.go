package app

import (
	"context"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"modforge/internal/core"
	"modforge/internal/shared"
)

// Inspect lists the candidate versions the metadata source returns for
// one mod, in resolver candidate order (no policy applied).
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	modID := shared.NormalizeSlug(req.ModID)
	if modID == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("mod id is required")
	}
	if strings.TrimSpace(req.Loader) == "" || strings.TrimSpace(req.GameVersion) == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("loader and game version are required")
	}

	source := s.metadataSource(req.IndexPath, req.APIURL, req.TimeoutSec, req.Retries)
	records, err := source.ListVersions(ctx, modID, req.Loader, req.GameVersion)
	if err != nil {
		return InspectResult{}, err
	}

	result := InspectResult{ModID: modID}
	for _, record := range core.OrderCandidates(records) {
		result.Candidates = append(result.Candidates, InspectCandidate{
			VersionID:   record.VersionID,
			Version:     record.Version,
			Channel:     record.Channel,
			PublishedAt: record.PublishedAt.UTC().Format(time.RFC3339),
		})
	}
	return result, nil
}
