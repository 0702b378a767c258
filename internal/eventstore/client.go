// Package eventstore is the client for the wide-column event store holding
// raw error events. Groups hold aggregates only; time-ordered event lookups
// ("latest event for issue X", "which group owns event Y") go through here.
package eventstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/alexpeters0n/sentry/pkg/models"
)

// Sentinel errors for event store client failures. The client never retries;
// retry policy belongs to callers.
var (
	ErrUnreachable = errors.New("event store unreachable")
	ErrQueryError  = errors.New("event store query error")
	ErrTimeout     = errors.New("event store query timeout")
)

// Orderings for time-ordered event queries. Event ID breaks timestamp ties.
var (
	OrderLatest = []string{"-timestamp", "-event_id"}
	OrderOldest = []string{"timestamp", "event_id"}
)

// Client is the interface for querying the event store.
type Client interface {
	Query(ctx context.Context, req QueryRequest) ([]models.Event, error)
	LatestEvent(ctx context.Context, projectID, groupID int64, environments []string) (*models.Event, error)
	OldestEvent(ctx context.Context, projectID, groupID int64, environments []string) (*models.Event, error)
	GroupIDsForEventID(ctx context.Context, projectIDs []int64, eventID string) ([]int64, error)
	Ready(ctx context.Context) error
}

// QueryRequest defines parameters for an event store query.
type QueryRequest struct {
	Start      time.Time           `json:"start"`
	End        time.Time           `json:"end"`
	Conditions [][3]any            `json:"conditions,omitempty"`
	FilterKeys map[string][]any    `json:"filter_keys,omitempty"`
	OrderBy    []string            `json:"orderby,omitempty"`
	Limit      int                 `json:"limit,omitempty"`
	Referrer   string              `json:"referrer,omitempty"`
}

// HTTPClient implements Client against the event store's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new event store HTTP client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Query(ctx context.Context, req QueryRequest) ([]models.Event, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	u := fmt.Sprintf("%s/query", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrQueryError, resp.StatusCode)
	}

	var queryResp queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	if queryResp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrQueryError, queryResp.Error)
	}

	return queryResp.Data, nil
}

// LatestEvent returns the most recent event for a group, or nil when the
// store has none.
func (c *HTTPClient) LatestEvent(ctx context.Context, projectID, groupID int64, environments []string) (*models.Event, error) {
	return c.boundaryEvent(ctx, projectID, groupID, environments, OrderLatest, "Group.get_latest")
}

// OldestEvent returns the first recorded event for a group, or nil when the
// store has none.
func (c *HTTPClient) OldestEvent(ctx context.Context, projectID, groupID int64, environments []string) (*models.Event, error) {
	return c.boundaryEvent(ctx, projectID, groupID, environments, OrderOldest, "Group.get_oldest")
}

func (c *HTTPClient) boundaryEvent(ctx context.Context, projectID, groupID int64, environments []string, orderBy []string, referrer string) (*models.Event, error) {
	req := QueryRequest{
		Start: time.Unix(0, 0).UTC(),
		End:   time.Now().UTC(),
		FilterKeys: map[string][]any{
			"issue":      {groupID},
			"project_id": {projectID},
		},
		OrderBy:  orderBy,
		Limit:    1,
		Referrer: referrer,
	}
	if len(environments) > 0 {
		envs := make([]any, len(environments))
		for i, e := range environments {
			envs[i] = e
		}
		req.Conditions = append(req.Conditions, [3]any{"environment", "IN", envs})
	}

	events, err := c.Query(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(events) != 1 {
		return nil, nil
	}
	return &events[0], nil
}

// GroupIDsForEventID returns the distinct group IDs owning events with the
// given event ID across the candidate projects. Zero, one or many results
// are all valid.
func (c *HTTPClient) GroupIDsForEventID(ctx context.Context, projectIDs []int64, eventID string) ([]int64, error) {
	projects := make([]any, len(projectIDs))
	for i, id := range projectIDs {
		projects[i] = id
	}

	events, err := c.Query(ctx, QueryRequest{
		Start: time.Unix(0, 0).UTC(),
		End:   time.Now().UTC(),
		Conditions: [][3]any{
			{"issue", "IS NOT NULL", nil},
		},
		FilterKeys: map[string][]any{
			"event_id":   {eventID},
			"project_id": projects,
		},
		Limit:    len(projectIDs),
		Referrer: "Group.filter_by_event_id",
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(events))
	var ids []int64
	for _, evt := range events {
		if _, ok := seen[evt.GroupID]; ok {
			continue
		}
		seen[evt.GroupID] = struct{}{}
		ids = append(ids, evt.GroupID)
	}
	return ids, nil
}

func (c *HTTPClient) Ready(ctx context.Context) error {
	u := fmt.Sprintf("%s/health", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: event store not ready (status %d)", ErrUnreachable, resp.StatusCode)
	}

	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

type queryResponse struct {
	Data  []models.Event `json:"data"`
	Error string         `json:"error,omitempty"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
