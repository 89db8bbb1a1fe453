package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"modforge/internal/ports"
	"modforge/internal/shared"
	"modforge/internal/types"
)

const defaultHTTPTimeout = 30 * time.Second
const defaultHTTPRetries = 3
const defaultHTTPRetryDelay = 200 * time.Millisecond
const maxHTTPRetryDelay = 2 * time.Second

type httpRetryConfig struct {
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
}

func normalizeHTTPConfig(timeoutSec int, retries int, delayMs int) httpRetryConfig {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retryCount := retries
	if retryCount <= 0 {
		retryCount = defaultHTTPRetries
	}
	baseDelay := time.Duration(delayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = defaultHTTPRetryDelay
	}
	return httpRetryConfig{
		timeout:   timeout,
		retries:   retryCount,
		baseDelay: baseDelay,
	}
}

// HTTPMetadataAdapter serves version metadata from a Modrinth-flavored
// REST API. 404 maps to CodeNotFound; 5xx and transport failures are
// retried with backoff and then surfaced as transient errors.
type HTTPMetadataAdapter struct {
	BaseURL   string
	UserAgent string
	cfg       httpRetryConfig
	client    *http.Client
}

func NewHTTPMetadataAdapter(baseURL string, version string, timeoutSec int, retries int) *HTTPMetadataAdapter {
	cfg := normalizeHTTPConfig(timeoutSec, retries, 0)
	return &HTTPMetadataAdapter{
		BaseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		UserAgent: fmt.Sprintf("modforge/%s", version),
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.timeout},
	}
}

type wireVersion struct {
	ID            string           `json:"id"`
	ProjectID     string           `json:"project_id"`
	VersionNumber string           `json:"version_number"`
	VersionType   string           `json:"version_type"`
	GameVersions  []string         `json:"game_versions"`
	Loaders       []string         `json:"loaders"`
	DatePublished time.Time        `json:"date_published"`
	Dependencies  []wireDependency `json:"dependencies"`
	Files         []wireFile       `json:"files"`
}

type wireDependency struct {
	ProjectID      string `json:"project_id"`
	VersionRange   string `json:"version_range,omitempty"`
	DependencyType string `json:"dependency_type"`
}

type wireFile struct {
	Hashes   wireHashes `json:"hashes"`
	URL      string     `json:"url"`
	Filename string     `json:"filename"`
	Primary  bool       `json:"primary"`
	Size     int64      `json:"size"`
}

type wireHashes struct {
	SHA1   string `json:"sha1"`
	SHA512 string `json:"sha512"`
}

type wireProject struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

func (a *HTTPMetadataAdapter) ListVersions(ctx context.Context, modID string, loader string, gameVersion string) ([]types.VersionRecord, error) {
	query := url.Values{}
	query.Set("loaders", fmt.Sprintf("[%q]", loader))
	query.Set("game_versions", fmt.Sprintf("[%q]", gameVersion))
	endpoint := fmt.Sprintf("%s/project/%s/version?%s", a.BaseURL, url.PathEscape(modID), query.Encode())

	var wire []wireVersion
	if err := a.getJSON(ctx, endpoint, modID, &wire); err != nil {
		return nil, err
	}
	records := make([]types.VersionRecord, 0, len(wire))
	for _, version := range wire {
		records = append(records, toVersionRecord(modID, version))
	}
	return records, nil
}

func (a *HTTPMetadataAdapter) ProjectExists(ctx context.Context, modID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/project/%s", a.BaseURL, url.PathEscape(modID))
	var wire wireProject
	err := a.getJSON(ctx, endpoint, modID, &wire)
	if err != nil {
		if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *HTTPMetadataAdapter) getJSON(ctx context.Context, endpoint string, modID string, target any) error {
	resp, err := a.doRequest(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("project not found: %s", modID))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("metadata request failed").
			WithCause(shared.HTTPStatusError(resp.StatusCode, endpoint))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to decode metadata response").
			WithCause(err)
	}
	return nil
}

func (a *HTTPMetadataAdapter) doRequest(ctx context.Context, endpoint string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < a.cfg.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request canceled").
				WithCause(ctx.Err())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create request").
				WithCause(err)
		}
		req.Header.Set("User-Agent", a.UserAgent)
		req.Header.Set("Accept", "application/json")
		resp, err := a.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("request canceled").
					WithCause(ctx.Err())
			}
			lastErr = err
			if attempt < a.cfg.retries-1 {
				time.Sleep(httpRetryDelay(attempt, a.cfg))
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("metadata request failed").
				WithCause(err)
		}
		if (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) && attempt < a.cfg.retries-1 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			time.Sleep(httpRetryDelay(attempt, a.cfg))
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("request failed")
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("metadata request failed").
		WithCause(lastErr)
}

func httpRetryDelay(attempt int, cfg httpRetryConfig) time.Duration {
	delay := cfg.baseDelay * time.Duration(1<<attempt)
	if delay > maxHTTPRetryDelay {
		delay = maxHTTPRetryDelay
	}
	return delay
}

func toVersionRecord(modID string, wire wireVersion) types.VersionRecord {
	record := types.VersionRecord{
		ModID:        modID,
		VersionID:    wire.ID,
		Version:      wire.VersionNumber,
		Channel:      toChannel(wire.VersionType),
		GameVersions: wire.GameVersions,
		Loaders:      wire.Loaders,
		PublishedAt:  wire.DatePublished,
	}
	for _, dep := range wire.Dependencies {
		if dep.ProjectID == "" {
			continue
		}
		record.Dependencies = append(record.Dependencies, types.Dependency{
			TargetModID: dep.ProjectID,
			Constraint:  dep.VersionRange,
			Kind:        types.DependencyKind(dep.DependencyType),
		})
	}
	for _, file := range wire.Files {
		record.Files = append(record.Files, types.VersionFile{
			Filename: file.Filename,
			URL:      file.URL,
			SHA1:     file.Hashes.SHA1,
			SHA512:   file.Hashes.SHA512,
			Size:     file.Size,
			Primary:  file.Primary,
		})
	}
	return record
}

func toChannel(versionType string) types.ReleaseChannel {
	switch strings.ToLower(strings.TrimSpace(versionType)) {
	case "beta":
		return types.ChannelBeta
	case "alpha":
		return types.ChannelAlpha
	default:
		return types.ChannelRelease
	}
}

var _ ports.MetadataSourcePort = (*HTTPMetadataAdapter)(nil)
