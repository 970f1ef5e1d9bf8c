// Package client talks to the routinely HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/stats"
	"github.com/julianstephens/routinely/internal/todos"
)

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// NotActionable reports whether the server refused a toggle because the
// task is outside its window.
func (e *APIError) NotActionable() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}

type Client struct {
	baseURL  string
	token    string
	timezone string
	http     *http.Client

	mu       sync.Mutex
	location *time.Location
}

type Option func(*Client)

// resolveZone maps "Local" to the process zone's IANA name.
var resolveZone = daykey.ResolveName

// WithTimezone sends name in the X-Timezone header so the server computes
// day keys in the caller's zone. "Local" is sent as the process zone's
// IANA name; when that cannot be found nothing is sent and Location
// reports the zone the server picked.
func WithTimezone(name string) Option {
	return func(c *Client) {
		if name = resolveZone(name); name != constants.LocalTimezone {
			c.timezone = name
		}
	}
}

// Location returns the zone the server used for the last response, or nil
// before any response has named one.
func (c *Client) Location() *time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.location
}

func (c *Client) recordLocation(name string) {
	if name == "" || name == constants.LocalTimezone {
		return
	}
	loc, err := daykey.LoadLocation(name)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.location = loc
	c.mu.Unlock()
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: constants.RequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.timezone != "" {
		req.Header.Set(constants.TimezoneHeader, c.timezone)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	c.recordLocation(res.Header.Get(constants.TimezoneHeader))

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) ListRoutines(ctx context.Context) ([]models.Routine, error) {
	var out []models.Routine
	err := c.do(ctx, http.MethodGet, "/routines", nil, &out)
	return out, err
}

func (c *Client) GetRoutine(ctx context.Context, id string) (models.Routine, error) {
	var out models.Routine
	err := c.do(ctx, http.MethodGet, "/routines/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CreateRoutine(ctx context.Context, in routines.CreateInput) (models.Routine, error) {
	var out models.Routine
	err := c.do(ctx, http.MethodPost, "/routines", in, &out)
	return out, err
}

func (c *Client) UpdateRoutine(ctx context.Context, id string, in routines.UpdateInput) (models.Routine, error) {
	var out models.Routine
	err := c.do(ctx, http.MethodPut, "/routines/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *Client) DeleteRoutine(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/routines/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Complete(ctx context.Context, routineID, taskID string, in routines.ToggleInput) (models.Routine, error) {
	return c.toggle(ctx, routineID, taskID, "complete", in)
}

func (c *Client) Uncomplete(ctx context.Context, routineID, taskID string, in routines.ToggleInput) (models.Routine, error) {
	return c.toggle(ctx, routineID, taskID, "uncomplete", in)
}

func (c *Client) toggle(ctx context.Context, routineID, taskID, action string, in routines.ToggleInput) (models.Routine, error) {
	var out models.Routine
	path := fmt.Sprintf("/routines/%s/tasks/%s/%s", url.PathEscape(routineID), url.PathEscape(taskID), action)
	err := c.do(ctx, http.MethodPatch, path, in, &out)
	return out, err
}

// Week fetches the week grid containing date. Empty date and mode use the
// server defaults.
func (c *Client) Week(ctx context.Context, routineID, date, mode string) (stats.Week, error) {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	if mode != "" {
		q.Set("mode", mode)
	}
	path := "/routines/" + url.PathEscape(routineID) + "/week"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out stats.Week
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Summary(ctx context.Context) (stats.Summary, error) {
	var out stats.Summary
	err := c.do(ctx, http.MethodGet, "/stats/summary", nil, &out)
	return out, err
}

func (c *Client) ListTodos(ctx context.Context) ([]models.Todo, error) {
	var out []models.Todo
	err := c.do(ctx, http.MethodGet, "/todos", nil, &out)
	return out, err
}

func (c *Client) CreateTodo(ctx context.Context, in todos.Input) (models.Todo, error) {
	var out models.Todo
	err := c.do(ctx, http.MethodPost, "/todos", in, &out)
	return out, err
}

func (c *Client) UpdateTodo(ctx context.Context, id string, in todos.Input) (models.Todo, error) {
	var out models.Todo
	err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil)
}
