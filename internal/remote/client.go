// Package remote is a thin HTTP client for the mission persistence
// service. It handles Bearer token authentication, JSON marshaling,
// wire field remapping, and automatic retry with exponential backoff
// on HTTP 429. It never caches; durability decisions live in the sync
// gateway above it.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/orbit-planner/internal/model"
)

// AuthError indicates that authentication has failed or expired.
// Returned when the service answers 401.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "auth error: " + e.Message
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Client talks to the mission service REST surface.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new mission service client. The baseURL should be
// the root URL of the service; token is optional and sent as a Bearer
// credential when present.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
	}
}

// FetchMissions retrieves the full remote task list for a user identity.
func (c *Client) FetchMissions(ctx context.Context, userID string) ([]model.Task, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingIdentity
	}

	var resp missionListResponse
	path := "/missions?userId=" + url.QueryEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching missions for %s: %w", userID, err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("fetching missions for %s: service reported failure", userID)
	}

	tasks := make([]model.Task, 0, len(resp.Missions))
	for _, rec := range resp.Missions {
		tasks = append(tasks, rec.toTask())
	}
	return tasks, nil
}

// UpsertMission creates or updates a single remote record keyed by the
// task id. Upserts are idempotent on the remote side, so re-sending the
// same task state is harmless.
func (c *Client) UpsertMission(ctx context.Context, task model.Task, identity model.Identity) error {
	if strings.TrimSpace(identity.Email) == "" {
		return ErrMissingIdentity
	}

	body := syncRequest{
		Task: fromTask(task),
		User: wireUser{Email: identity.Email, Name: identity.Name},
	}
	if err := c.do(ctx, http.MethodPost, "/sync", body, nil); err != nil {
		return fmt.Errorf("upserting mission %s: %w", task.ID, err)
	}
	return nil
}

// DeleteMission removes one remote record. Deleting an absent id is not
// an error from the caller's perspective.
func (c *Client) DeleteMission(ctx context.Context, taskID string) error {
	path := "/missions/" + url.PathEscape(taskID)
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil && !errors.Is(err, errNotFoundStatus) {
		return fmt.Errorf("deleting mission %s: %w", taskID, err)
	}
	return nil
}

// errNotFoundStatus marks a 404 so idempotent deletes can swallow it.
var errNotFoundStatus = errors.New("not found")

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and JSON (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{
				Message: fmt.Sprintf("check your API token for %s", c.baseURL),
			}
		}

		if resp.StatusCode == http.StatusNotFound {
			return errNotFoundStatus
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf(
				"unexpected status %d on %s %s: %s",
				resp.StatusCode, method, path, string(respBody),
			)
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
