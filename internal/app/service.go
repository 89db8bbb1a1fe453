package app

import (
	"time"

	"modforge/internal/adapters"
	"modforge/internal/ports"
)

const defaultAPIURL = "https://api.modrinth.com/v2"

type Service struct {
	Packs        ports.PackSpecPort
	PolicySource ports.PolicySourcePort
	Clock        func() time.Time
	Version      string
}

func NewService(version string) Service {
	return Service{
		Packs:        adapters.NewPackFileAdapter(),
		PolicySource: adapters.NewPolicyFileAdapter(),
		Clock:        time.Now,
		Version:      version,
	}
}

// metadataSource picks the metadata adapter for a run: the local YAML
// catalog when an index path is given, the HTTP API otherwise.
func (s Service) metadataSource(indexPath string, apiURL string, timeoutSec int, retries int) ports.MetadataSourcePort {
	if indexPath != "" {
		return adapters.NewFileMetadataAdapter(indexPath)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return adapters.NewHTTPMetadataAdapter(apiURL, s.Version, timeoutSec, retries)
}
