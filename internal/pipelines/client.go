// Package pipelines is the client for the managed pipeline-execution
// service: it starts a run from an uploaded workflow document and can poll
// the run until it reaches a terminal state. All scheduling, retry, and
// resource management happen inside the service.
package pipelines

import (
	"context"
	"fmt"
	"time"

	resty "resty.dev/v3"

	"automlflow/internal/ctxlog"
)

// Job states reported by the execution service.
const (
	StatePending   = "PIPELINE_STATE_PENDING"
	StateRunning   = "PIPELINE_STATE_RUNNING"
	StateSucceeded = "PIPELINE_STATE_SUCCEEDED"
	StateFailed    = "PIPELINE_STATE_FAILED"
	StateCancelled = "PIPELINE_STATE_CANCELLED"
)

// Client talks to the pipeline-execution REST API of one project/region.
type Client struct {
	http    *resty.Client
	project string
	region  string
}

// NewClient creates a client for the given project and region. An empty
// endpoint selects the service's regional endpoint. The token may be empty
// when the endpoint does not require authentication (local test servers).
func NewClient(endpoint, project, region, token string) *Client {
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s-aiplatform.googleapis.com", region)
	}
	c := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(2 * time.Minute)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c, project: project, region: region}
}

// Close releases the underlying HTTP client.
func (c *Client) Close() {
	c.http.Close()
}

// RuntimeConfig carries the run-scoped settings of a submitted job.
type RuntimeConfig struct {
	GCSOutputDirectory string         `json:"gcsOutputDirectory"`
	ParameterValues    map[string]any `json:"parameterValues,omitempty"`
}

// CreateJobRequest is the submission payload for one pipeline run.
type CreateJobRequest struct {
	DisplayName   string            `json:"displayName"`
	TemplateURI   string            `json:"templateUri"`
	Labels        map[string]string `json:"labels,omitempty"`
	RuntimeConfig RuntimeConfig     `json:"runtimeConfig"`
	EnableCaching bool              `json:"enableCaching"`
}

// JobError is the terminal error reported for a failed job.
type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Job is the service's representation of one pipeline run.
type Job struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	State       string    `json:"state"`
	CreateTime  string    `json:"createTime"`
	Error       *JobError `json:"error,omitempty"`
}

// apiError is the error envelope of the execution service.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) jobsPath() string {
	return fmt.Sprintf("/v1/projects/%s/locations/%s/pipelineJobs", c.project, c.region)
}

// CreateJob submits a run with the given job ID and returns the created
// job. Service rejections propagate as errors without local retry.
func (c *Client) CreateJob(ctx context.Context, jobID string, req *CreateJobRequest) (*Job, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Submitting pipeline run.", "jobId", jobID, "displayName", req.DisplayName, "templateUri", req.TemplateURI, "caching", req.EnableCaching)

	var job Job
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("pipelineJobId", jobID).
		SetBody(req).
		SetResult(&job).
		SetError(&apiErr).
		Post(c.jobsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to submit pipeline job %s: %w", jobID, err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return nil, fmt.Errorf("pipeline job submission rejected with status %s: %s", resp.Status(), apiErr.Error.Message)
		}
		return nil, fmt.Errorf("pipeline job submission rejected with status %s", resp.Status())
	}

	logger.Info("Pipeline run submitted.", "name", job.Name, "state", job.State)
	return &job, nil
}

// GetJob fetches the current state of a job by its fully qualified resource
// name.
func (c *Client) GetJob(ctx context.Context, name string) (*Job, error) {
	var job Job
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&job).
		SetError(&apiErr).
		Get("/v1/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pipeline job %s: %w", name, err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return nil, fmt.Errorf("pipeline job lookup failed with status %s: %s", resp.Status(), apiErr.Error.Message)
		}
		return nil, fmt.Errorf("pipeline job lookup failed with status %s", resp.Status())
	}
	return &job, nil
}

// IsTerminal reports whether the state is one the service will not leave.
func IsTerminal(state string) bool {
	switch state {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	}
	return false
}

// WaitForCompletion polls the job until it reaches a terminal state or the
// context is cancelled. A failed or cancelled run is returned alongside an
// error describing the outcome.
func (c *Client) WaitForCompletion(ctx context.Context, name string, interval time.Duration) (*Job, error) {
	logger := ctxlog.FromContext(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := c.GetJob(ctx, name)
		if err != nil {
			return nil, err
		}
		if IsTerminal(job.State) {
			if job.State != StateSucceeded {
				if job.Error != nil {
					return job, fmt.Errorf("pipeline run %s finished in state %s: %s", name, job.State, job.Error.Message)
				}
				return job, fmt.Errorf("pipeline run %s finished in state %s", name, job.State)
			}
			logger.Info("Pipeline run succeeded.", "name", name)
			return job, nil
		}

		logger.Debug("Pipeline run still in progress.", "name", name, "state", job.State)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
