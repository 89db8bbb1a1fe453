package adapters

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/require"

	"modforge/internal/types"
)

const versionListBody = `[
  {
    "id": "fapi-0910",
    "project_id": "P7dR8mSH",
    "version_number": "0.91.0",
    "version_type": "release",
    "game_versions": ["1.20.1"],
    "loaders": ["fabric"],
    "date_published": "2023-09-20T10:00:00Z",
    "dependencies": [
      {"project_id": "cloth-config", "version_range": ">=10.0.0", "dependency_type": "required"}
    ],
    "files": [
      {
        "hashes": {"sha1": "aa11", "sha512": "bb22"},
        "url": "https://cdn.example.net/fabric-api-0.91.0.jar",
        "filename": "fabric-api-0.91.0.jar",
        "primary": true,
        "size": 2097152
      }
    ]
  }
]`

func TestHTTPMetadataListVersions(t *testing.T) {
	var gotPath, gotUA, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, versionListBody)
	}))
	defer server.Close()

	adapter := NewHTTPMetadataAdapter(server.URL, "1.2.3", 5, 1)
	records, err := adapter.ListVersions(t.Context(), "fabric-api", "fabric", "1.20.1")
	require.NoError(t, err)

	require.Equal(t, "/project/fabric-api/version", gotPath)
	require.Equal(t, "modforge/1.2.3", gotUA)
	require.Contains(t, gotQuery, "loaders=")
	require.Contains(t, gotQuery, "game_versions=")

	require.Len(t, records, 1)
	record := records[0]
	require.Equal(t, "fabric-api", record.ModID)
	require.Equal(t, "0.91.0", record.Version)
	require.Equal(t, types.ChannelRelease, record.Channel)
	require.Len(t, record.Dependencies, 1)
	require.Equal(t, types.DependencyKindRequired, record.Dependencies[0].Kind)
	require.Equal(t, ">=10.0.0", record.Dependencies[0].Constraint)

	file, ok := record.PrimaryFile()
	require.True(t, ok)
	require.Equal(t, int64(2097152), file.Size)
}

func TestHTTPMetadataNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := NewHTTPMetadataAdapter(server.URL, "dev", 5, 1)
	_, err := adapter.ListVersions(t.Context(), "ghost", "fabric", "1.20.1")
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
	require.Contains(t, err.Error(), "ghost")

	exists, err := adapter.ProjectExists(t.Context(), "ghost")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestHTTPMetadataRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "P7dR8mSH", "slug": "fabric-api"}`)
	}))
	defer server.Close()

	adapter := NewHTTPMetadataAdapter(server.URL, "dev", 5, 3)
	exists, err := adapter.ProjectExists(t.Context(), "fabric-api")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, int32(3), calls.Load())
}

func TestHTTPMetadataExhaustedRetriesAreTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := NewHTTPMetadataAdapter(server.URL, "dev", 5, 2)
	_, err := adapter.ListVersions(t.Context(), "fabric-api", "fabric", "1.20.1")
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))
}

func TestHTTPMetadataTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	adapter := NewHTTPMetadataAdapter(server.URL, "dev", 1, 1)
	_, err := adapter.ListVersions(t.Context(), "fabric-api", "fabric", "1.20.1")
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeInternal, errbuilder.CodeOf(err))
}
