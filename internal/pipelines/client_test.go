package pipelines_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"automlflow/internal/pipelines"
)

func TestCreateJob(t *testing.T) {
	t.Parallel()

	var received pipelines.CreateJobRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/projects/my-project/locations/us-central1/pipelineJobs", r.URL.Path)
		require.Equal(t, "abalone-automl-1700000000", r.URL.Query().Get("pipelineJobId"))
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{
			"name": "projects/my-project/locations/us-central1/pipelineJobs/abalone-automl-1700000000",
			"displayName": "abalone-automl",
			"state": "PIPELINE_STATE_PENDING"
		}`)
	}))
	t.Cleanup(server.Close)

	client := pipelines.NewClient(server.URL, "my-project", "us-central1", "test-token")
	t.Cleanup(func() { client.Close() })

	job, err := client.CreateJob(context.Background(), "abalone-automl-1700000000", &pipelines.CreateJobRequest{
		DisplayName: "abalone-automl",
		TemplateURI: "gs://artifacts/compiled/run-1.json",
		RuntimeConfig: pipelines.RuntimeConfig{
			GCSOutputDirectory: "gs://artifacts/pipelines",
		},
		EnableCaching: true,
	})
	require.NoError(t, err)
	require.Equal(t, pipelines.StatePending, job.State)
	require.Equal(t, "projects/my-project/locations/us-central1/pipelineJobs/abalone-automl-1700000000", job.Name)

	require.Equal(t, "gs://artifacts/compiled/run-1.json", received.TemplateURI)
	require.True(t, received.EnableCaching)
	require.Equal(t, "gs://artifacts/pipelines", received.RuntimeConfig.GCSOutputDirectory)
}

func TestCreateJob_SurfacesServiceRejection(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"templateUri is not readable","status":"INVALID_ARGUMENT"}}`)
	}))
	t.Cleanup(server.Close)

	client := pipelines.NewClient(server.URL, "my-project", "us-central1", "test-token")
	t.Cleanup(func() { client.Close() })

	_, err := client.CreateJob(context.Background(), "job-1", &pipelines.CreateJobRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "templateUri is not readable")
}

func TestGetJob(t *testing.T) {
	t.Parallel()

	const name = "projects/my-project/locations/us-central1/pipelineJobs/job-1"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/"+name, r.URL.Path)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"name":"`+name+`","state":"PIPELINE_STATE_RUNNING"}`)
	}))
	t.Cleanup(server.Close)

	client := pipelines.NewClient(server.URL, "my-project", "us-central1", "test-token")
	t.Cleanup(func() { client.Close() })

	job, err := client.GetJob(context.Background(), name)
	require.NoError(t, err)
	require.Equal(t, pipelines.StateRunning, job.State)
}

func TestWaitForCompletion_Succeeds(t *testing.T) {
	t.Parallel()

	const name = "projects/my-project/locations/us-central1/pipelineJobs/job-1"
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		state := pipelines.StateRunning
		if polls.Add(1) >= 3 {
			state = pipelines.StateSucceeded
		}
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"name":"`+name+`","state":"`+state+`"}`)
	}))
	t.Cleanup(server.Close)

	client := pipelines.NewClient(server.URL, "my-project", "us-central1", "test-token")
	t.Cleanup(func() { client.Close() })

	job, err := client.WaitForCompletion(context.Background(), name, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, pipelines.StateSucceeded, job.State)
	require.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestWaitForCompletion_FailedRun(t *testing.T) {
	t.Parallel()

	const name = "projects/my-project/locations/us-central1/pipelineJobs/job-1"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"name":"`+name+`","state":"PIPELINE_STATE_FAILED","error":{"code":3,"message":"training budget exhausted"}}`)
	}))
	t.Cleanup(server.Close)

	client := pipelines.NewClient(server.URL, "my-project", "us-central1", "test-token")
	t.Cleanup(func() { client.Close() })

	job, err := client.WaitForCompletion(context.Background(), name, 10*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "training budget exhausted")
	require.NotNil(t, job)
	require.Equal(t, pipelines.StateFailed, job.State)
}

func TestWaitForCompletion_ContextCancelled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"name":"job","state":"PIPELINE_STATE_RUNNING"}`)
	}))
	t.Cleanup(server.Close)

	client := pipelines.NewClient(server.URL, "my-project", "us-central1", "test-token")
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.WaitForCompletion(ctx, "job", time.Second)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	require.True(t, pipelines.IsTerminal(pipelines.StateSucceeded))
	require.True(t, pipelines.IsTerminal(pipelines.StateFailed))
	require.True(t, pipelines.IsTerminal(pipelines.StateCancelled))
	require.False(t, pipelines.IsTerminal(pipelines.StateRunning))
	require.False(t, pipelines.IsTerminal(pipelines.StatePending))
}
