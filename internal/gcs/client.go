// Package gcs is a minimal client for the object-storage JSON API: just
// enough surface to ensure the artifact bucket exists and to upload the
// compiled workflow document before submission.
package gcs

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	resty "resty.dev/v3"

	"automlflow/internal/ctxlog"
)

// DefaultEndpoint is the public storage API endpoint.
const DefaultEndpoint = "https://storage.googleapis.com"

// Client talks to the storage JSON API.
type Client struct {
	http *resty.Client
}

// NewClient creates a storage client against the given endpoint. An empty
// endpoint selects the public API. The token may be empty when the endpoint
// does not require authentication (local test servers).
func NewClient(endpoint, token string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(2 * time.Minute)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

// Close releases the underlying HTTP client.
func (c *Client) Close() {
	c.http.Close()
}

// apiError is the error envelope of the storage JSON API.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// BucketExists reports whether the bucket exists and is visible to the
// caller.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/storage/v1/b/" + bucket)
	if err != nil {
		return false, fmt.Errorf("failed to look up bucket %s: %w", bucket, err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("bucket lookup for %s failed with status %s", bucket, resp.Status())
	}
}

// CreateBucket creates the bucket in the given project and location.
func (c *Client) CreateBucket(ctx context.Context, project, bucket, location string) error {
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("project", project).
		SetBody(map[string]string{
			"name":     bucket,
			"location": location,
		}).
		SetError(&apiErr).
		Post("/storage/v1/b")
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return fmt.Errorf("bucket creation for %s failed with status %s: %s", bucket, resp.Status(), apiErr.Error.Message)
		}
		return fmt.Errorf("bucket creation for %s failed with status %s", bucket, resp.Status())
	}
	return nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (c *Client) EnsureBucket(ctx context.Context, project, bucket, location string) error {
	logger := ctxlog.FromContext(ctx)

	exists, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("Artifact bucket already exists.", "bucket", bucket)
		return nil
	}

	logger.Info("Creating artifact bucket.", "bucket", bucket, "project", project, "location", location)
	return c.CreateBucket(ctx, project, bucket, location)
}

// UploadObject uploads a local file as the named object and returns its
// gs:// URI.
func (c *Client) UploadObject(ctx context.Context, bucket, object, sourcePath string) (string, error) {
	logger := ctxlog.FromContext(ctx)

	file, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file %s: %w", sourcePath, err)
	}
	defer file.Close()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("uploadType", "media").
		SetQueryParam("name", object).
		SetHeader("Content-Type", "application/json").
		SetBody(file).
		Post("/upload/storage/v1/b/" + bucket + "/o")
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to bucket %s: %w", sourcePath, bucket, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("upload of %s to bucket %s failed with status %s", sourcePath, bucket, resp.Status())
	}

	uri := fmt.Sprintf("gs://%s/%s", bucket, object)
	logger.Info("Uploaded compiled workflow document.", "uri", uri)
	return uri, nil
}
