package app

import (
	"modforge/internal/policies"
	"modforge/internal/types"
)

type ResolveRequest struct {
	PackPath        string
	PolicyPath      string
	IndexPath       string
	APIURL          string
	OutputDir       string
	Workers         int
	TimeoutSec      int
	Retries         int
	AllowPrerelease bool
	WriteLock       bool
	LockOnly        bool
}

type ResolveResult struct {
	PackName    string
	ModCount    int
	OutputDir   string
	Diagnostics []types.Diagnostic
}

type ValidateRequest struct {
	PackPath   string
	PolicyPath string
}

type ValidateResult struct {
	PackName  string
	RuleCount int
}

type InspectRequest struct {
	ModID       string
	Loader      string
	GameVersion string
	IndexPath   string
	APIURL      string
	TimeoutSec  int
	Retries     int
}

type InspectCandidate struct {
	VersionID   string
	Version     string
	Channel     types.ReleaseChannel
	PublishedAt string
}

type InspectResult struct {
	ModID      string
	Candidates []InspectCandidate
}

type PreviewRequest struct {
	PackPath   string
	PolicyPath string
	IndexPath  string
	APIURL     string
	Workers    int
	TimeoutSec int
	Retries    int
}

type PreviewResult struct {
	PackName    string
	Plan        policies.Plan
	Diagnostics []types.Diagnostic
}
