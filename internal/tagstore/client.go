// Package tagstore is the client for the external tag/counter service. The
// service owns atomic increment semantics per (project, tag) and
// (group, tag) pair; this client just delivers the increments.
package tagstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable indicates the tag store could not be reached or rejected
// the request. Counter increments are advisory; callers typically log and
// move on.
var ErrUnavailable = errors.New("tag store unavailable")

// Client is the interface for tag counter increments.
type Client interface {
	IncrTagValueTimesSeen(ctx context.Context, projectID, environmentID int64, key, value string, extra map[string]any) error
	IncrGroupTagValueTimesSeen(ctx context.Context, projectID, groupID, environmentID int64, key, value string, extra map[string]any) error
}

// HTTPClient implements Client against the tag store's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new tag store HTTP client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type incrRequest struct {
	ProjectID     int64          `json:"project_id"`
	GroupID       *int64         `json:"group_id,omitempty"`
	EnvironmentID int64          `json:"environment_id"`
	Key           string         `json:"key"`
	Value         string         `json:"value"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// IncrTagValueTimesSeen bumps the per-project counter for a tag value.
func (c *HTTPClient) IncrTagValueTimesSeen(ctx context.Context, projectID, environmentID int64, key, value string, extra map[string]any) error {
	return c.post(ctx, "/tagvalues/incr", incrRequest{
		ProjectID:     projectID,
		EnvironmentID: environmentID,
		Key:           key,
		Value:         value,
		Extra:         extra,
	})
}

// IncrGroupTagValueTimesSeen bumps the per-group counter for a tag value.
func (c *HTTPClient) IncrGroupTagValueTimesSeen(ctx context.Context, projectID, groupID, environmentID int64, key, value string, extra map[string]any) error {
	return c.post(ctx, "/grouptagvalues/incr", incrRequest{
		ProjectID:     projectID,
		GroupID:       &groupID,
		EnvironmentID: environmentID,
		Key:           key,
		Value:         value,
		Extra:         extra,
	})
}

func (c *HTTPClient) post(ctx context.Context, path string, req incrRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding increment: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// Response body is not consumed; drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
