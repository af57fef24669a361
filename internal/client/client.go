// Package client is the HTTP store adapter: it implements the store
// contract against a remote taskboard server, sending the shared secret
// with every request.
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

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// Client calls the task API. Transport failures surface as
// store.UnreachableError, 401 as store.ErrUnauthorized, and any other
// non-2xx response as store.RejectedError, so callers can tell "server
// down" from "request refused".
type Client struct {
	baseURL string
	key     string
	client  *http.Client
}

// New creates a client for the given address or URL.
func New(addr, key string) *Client {
	baseURL := strings.TrimRight(addr, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &Client{baseURL: baseURL, key: key, client: &http.Client{}}
}

func (c *Client) ListTasks(ctx context.Context, filter store.Filter) ([]model.Task, error) {
	path := "/api/tasks"
	if filter.GroupID != "" {
		path += "?groupId=" + url.QueryEscape(filter.GroupID)
	}
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// CreateTask persists the draft. The REST surface does not echo the
// created row, so the returned task carries the draft fields with an
// empty id; the next snapshot delivers the backend-assigned one.
func (c *Client) CreateTask(ctx context.Context, draft store.Draft) (model.Task, error) {
	if err := c.do(ctx, http.MethodPost, "/api/tasks", draft, nil); err != nil {
		return model.Task{}, err
	}
	task := model.Task{
		Title:    draft.Title,
		IsDone:   draft.IsDone,
		GroupID:  draft.GroupID,
		Subtasks: draft.Subtasks,
		DueDate:  draft.DueDate,
	}
	if task.GroupID == "" {
		task.GroupID = model.FallbackGroupID
	}
	if task.Subtasks == nil {
		task.Subtasks = []model.Subtask{}
	}
	return task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch store.Patch) error {
	return c.do(ctx, http.MethodPut, "/api/tasks?id="+url.QueryEscape(id), patch, nil)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks?id="+url.QueryEscape(id), nil, nil)
}

// GetLists decodes the server's JSON: null stays a nil slice, so "never
// saved" survives the round trip.
func (c *Client) GetLists(ctx context.Context) ([]model.List, error) {
	var lists []model.List
	if err := c.do(ctx, http.MethodGet, "/api/lists", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (c *Client) PutLists(ctx context.Context, lists []model.List) error {
	return c.do(ctx, http.MethodPost, "/api/lists", lists, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("x-auth-key", c.key)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &store.UnreachableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return store.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readErrorResponse(resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readErrorResponse(resp *http.Response) error {
	rejected := &store.RejectedError{Status: resp.StatusCode}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		rejected.Message = payload["error"]
	}
	return rejected
}
