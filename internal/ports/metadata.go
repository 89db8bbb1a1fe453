package ports

import (
	"context"

	"modforge/internal/types"
)

// MetadataSourcePort supplies project and version records on request.
// Implementations must be idempotent and side-effect-free. A missing
// project is reported with errbuilder.CodeNotFound; any other error is
// treated as transient and aborts the fetch phase.
type MetadataSourcePort interface {
	ListVersions(ctx context.Context, modID string, loader string, gameVersion string) ([]types.VersionRecord, error)
	ProjectExists(ctx context.Context, modID string) (bool, error)
}
