package gcs_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"automlflow/internal/gcs"
)

func TestBucketExists(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/storage/v1/b/existing":
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, `{"name":"existing"}`)
		case "/storage/v1/b/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	client := gcs.NewClient(server.URL, "test-token")
	t.Cleanup(func() { client.Close() })

	exists, err := client.BucketExists(context.Background(), "existing")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = client.BucketExists(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = client.BucketExists(context.Background(), "broken")
	require.Error(t, err)
}

func TestEnsureBucket_CreatesMissingBucket(t *testing.T) {
	t.Parallel()

	var created map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/storage/v1/b/artifacts":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/storage/v1/b":
			require.Equal(t, "my-project", r.URL.Query().Get("project"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, `{"name":"artifacts"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)

	client := gcs.NewClient(server.URL, "test-token")
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.EnsureBucket(context.Background(), "my-project", "artifacts", "us-central1"))
	require.Equal(t, map[string]string{"name": "artifacts", "location": "us-central1"}, created)
}

func TestEnsureBucket_ExistingBucketIsNotRecreated(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Error("bucket creation should not be attempted")
		}
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"name":"artifacts"}`)
	}))
	t.Cleanup(server.Close)

	client := gcs.NewClient(server.URL, "test-token")
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.EnsureBucket(context.Background(), "my-project", "artifacts", "us-central1"))
}

func TestCreateBucket_SurfacesAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"code":403,"message":"insufficient permissions"}}`)
	}))
	t.Cleanup(server.Close)

	client := gcs.NewClient(server.URL, "test-token")
	t.Cleanup(func() { client.Close() })

	err := client.CreateBucket(context.Background(), "my-project", "artifacts", "us-central1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient permissions")
}

func TestUploadObject(t *testing.T) {
	t.Parallel()

	var uploaded []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/upload/storage/v1/b/artifacts/o", r.URL.Path)
		require.Equal(t, "media", r.URL.Query().Get("uploadType"))
		require.Equal(t, "compiled/run-1.json", r.URL.Query().Get("name"))

		var err error
		uploaded, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"name":"compiled/run-1.json"}`)
	}))
	t.Cleanup(server.Close)

	source := filepath.Join(t.TempDir(), "workflow.json")
	require.NoError(t, os.WriteFile(source, []byte(`{"tasks":[]}`), 0o644))

	client := gcs.NewClient(server.URL, "test-token")
	t.Cleanup(func() { client.Close() })

	uri, err := client.UploadObject(context.Background(), "artifacts", "compiled/run-1.json", source)
	require.NoError(t, err)
	require.Equal(t, "gs://artifacts/compiled/run-1.json", uri)
	require.JSONEq(t, `{"tasks":[]}`, string(uploaded))
}

func TestParseURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantPrefix string
		wantErr    bool
	}{
		{"bucket only", "gs://artifacts", "artifacts", "", false},
		{"bucket with prefix", "gs://artifacts/pipelines/automl", "artifacts", "pipelines/automl", false},
		{"trailing slash", "gs://artifacts/pipelines/", "artifacts", "pipelines", false},
		{"not a gs uri", "s3://artifacts", "", "", true},
		{"missing bucket", "gs:///pipelines", "", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bucket, prefix, err := gcs.ParseURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantBucket, bucket)
			require.Equal(t, tt.wantPrefix, prefix)
		})
	}
}
