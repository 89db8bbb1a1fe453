package core

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"modforge/internal/types"
)

// channelRank orders release channels for candidate ranking; lower is
// preferred.
var channelRank = map[types.ReleaseChannel]int{
	types.ChannelRelease: 0,
	types.ChannelBeta:    1,
	types.ChannelAlpha:   2,
}

// versionCache memoizes parsed versions and constraints to avoid
// repeated parsing during candidate filtering and sorting. One cache is
// created per resolution run; nothing persists across runs.
type versionCache struct {
	versions    map[string]*semver.Version
	constraints map[string]*semver.Constraints
}

func newVersionCache() *versionCache {
	return &versionCache{
		versions:    map[string]*semver.Version{},
		constraints: map[string]*semver.Constraints{},
	}
}

// version returns a parsed semantic version, caching the result.
// Parsing is lenient: a leading "v" and missing minor/patch segments
// are tolerated.
func (c *versionCache) version(value string) (*semver.Version, error) {
	if parsed, ok := c.versions[value]; ok {
		return parsed, nil
	}
	parsed, err := semver.NewVersion(value)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version: %s", value)).
			WithCause(err)
	}
	c.versions[value] = parsed
	return parsed, nil
}

// constraint returns a parsed constraint, caching the result. An empty
// expression means any version.
func (c *versionCache) constraint(value string) (*semver.Constraints, error) {
	if value == "" {
		value = "*"
	}
	if parsed, ok := c.constraints[value]; ok {
		return parsed, nil
	}
	parsed, err := semver.NewConstraint(value)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version constraint: %s", value)).
			WithCause(err)
	}
	c.constraints[value] = parsed
	return parsed, nil
}

// compare returns -1, 0, or 1 comparing two version strings. Returns 0
// when either side fails to parse so ordering falls through to the next
// tie-break key.
func (c *versionCache) compare(a string, b string) int {
	v1, err := c.version(a)
	if err != nil {
		return 0
	}
	v2, err := c.version(b)
	if err != nil {
		return 0
	}
	return v1.Compare(v2)
}

// satisfies reports whether a version string meets one constraint
// expression. An unparseable candidate version never satisfies a
// non-empty constraint.
func (c *versionCache) satisfies(version string, constraint string) (bool, error) {
	parsed, err := c.constraint(constraint)
	if err != nil {
		return false, err
	}
	v, vErr := c.version(version)
	if vErr != nil {
		return constraint == "", nil
	}
	return parsed.Check(v), nil
}

// satisfiesAll reports whether a version meets every constraint in the
// list (set-intersection semantics; no symbolic range merge).
func (c *versionCache) satisfiesAll(version string, constraints []string) (bool, error) {
	for _, constraint := range constraints {
		ok, err := c.satisfies(version, constraint)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// OrderCandidates sorts records into resolver candidate order without
// any policy hint. Used by surfaces that show a pool as the resolver
// would try it.
func OrderCandidates(records []types.VersionRecord) []types.VersionRecord {
	return sortCandidates(records, "", newVersionCache())
}

// sortCandidates orders a candidate pool into deterministic resolver
// preference order: prefer-version hint matches first, then release
// channel, then semantic version descending, then publish time
// descending, then version id lexical as an absolute final tie-break.
func sortCandidates(pool []types.VersionRecord, hint string, cache *versionCache) []types.VersionRecord {
	ordered := append([]types.VersionRecord(nil), pool...)
	hinted := func(record types.VersionRecord) bool {
		if hint == "" {
			return false
		}
		ok, err := cache.satisfies(record.Version, hint)
		return err == nil && ok
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if ha, hb := hinted(a), hinted(b); ha != hb {
			return ha
		}
		if ra, rb := channelRank[a.Channel], channelRank[b.Channel]; ra != rb {
			return ra < rb
		}
		if cmp := cache.compare(a.Version, b.Version); cmp != 0 {
			return cmp > 0
		}
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.VersionID < b.VersionID
	})
	return ordered
}
