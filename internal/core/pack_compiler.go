package core

import (
	"context"
	"fmt"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"modforge/internal/shared"
	"modforge/internal/types"
)

// PackCompiler validates a pack spec and turns its mod list into the
// initial requirement set for a resolution run.
type PackCompiler struct{}

var validLoaders = map[string]struct{}{
	"fabric":   {},
	"forge":    {},
	"quilt":    {},
	"neoforge": {},
}

func NewPackCompiler() PackCompiler {
	return PackCompiler{}
}

func (c PackCompiler) ValidatePack(ctx context.Context, spec types.PackSpec) error {
	assert.NotEmpty(ctx, spec.Name, "pack name must be set")
	assert.NotEmpty(ctx, spec.Loader, "pack loader must be set")
	assert.NotEmpty(ctx, spec.GameVersion, "pack game_version must be set")
	if _, ok := validLoaders[spec.Loader]; !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown loader: %s", spec.Loader))
	}
	if len(spec.Mods) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("pack must request at least one mod")
	}
	cache := newVersionCache()
	seen := map[string]struct{}{}
	for _, mod := range spec.Mods {
		slug := shared.NormalizeSlug(mod.ID)
		if slug == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("pack mod entry without an id")
		}
		if _, dup := seen[slug]; dup {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("duplicate mod entry: %s", slug))
		}
		seen[slug] = struct{}{}
		if mod.Version != "" {
			if _, err := cache.constraint(mod.Version); err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("invalid version constraint for %s: %s", slug, mod.Version)).
					WithCause(err)
			}
		}
	}
	return nil
}

// Requirements builds the user-originated requirement set. Slugs are
// case-normalized here; everything downstream assumes normalized ids.
func (c PackCompiler) Requirements(spec types.PackSpec) []types.Requirement {
	out := make([]types.Requirement, 0, len(spec.Mods))
	for _, mod := range spec.Mods {
		out = append(out, types.Requirement{
			ModID:      shared.NormalizeSlug(mod.ID),
			Constraint: mod.Version,
			Origin:     types.OriginUser,
			Optional:   mod.Optional,
		})
	}
	return out
}
