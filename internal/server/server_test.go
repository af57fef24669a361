package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/model"
	"taskboard/internal/store"
)

// countingStore records every call so tests can assert that denied
// requests produce zero backend side effects.
type countingStore struct {
	listCalls, createCalls, updateCalls, deleteCalls int
	getListsCalls, putListsCalls                     int

	tasks []model.Task
	lists []model.List

	err error

	lastPatch store.Patch
	lastID    string
}

func (c *countingStore) ListTasks(ctx context.Context, filter store.Filter) ([]model.Task, error) {
	c.listCalls++
	if c.err != nil {
		return nil, c.err
	}
	var out []model.Task
	for _, task := range c.tasks {
		if filter.Matches(task) {
			out = append(out, task)
		}
	}
	return out, nil
}

func (c *countingStore) CreateTask(ctx context.Context, draft store.Draft) (model.Task, error) {
	c.createCalls++
	if c.err != nil {
		return model.Task{}, c.err
	}
	task := model.Task{ID: "t1", Title: draft.Title, GroupID: draft.GroupID, CreatedAt: time.Now()}
	c.tasks = append(c.tasks, task)
	return task, nil
}

func (c *countingStore) UpdateTask(ctx context.Context, id string, patch store.Patch) error {
	c.updateCalls++
	c.lastID = id
	c.lastPatch = patch
	return c.err
}

func (c *countingStore) DeleteTask(ctx context.Context, id string) error {
	c.deleteCalls++
	c.lastID = id
	return c.err
}

func (c *countingStore) GetLists(ctx context.Context) ([]model.List, error) {
	c.getListsCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.lists, nil
}

func (c *countingStore) PutLists(ctx context.Context, lists []model.List) error {
	c.putListsCalls++
	if c.err != nil {
		return c.err
	}
	c.lists = lists
	return nil
}

func (c *countingStore) totalCalls() int {
	return c.listCalls + c.createCalls + c.updateCalls + c.deleteCalls + c.getListsCalls + c.putListsCalls
}

func newTestServer(st store.Store) *Server {
	return New(st, auth.NewGate("sekret"), nil)
}

func request(t *testing.T, srv *Server, method, target, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if key != "" {
		req.Header.Set("x-auth-key", key)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestAuthRejectedBeforeStoreAccess(t *testing.T) {
	cases := []struct {
		method, target, body string
	}{
		{http.MethodGet, "/api/tasks", ""},
		{http.MethodPost, "/api/tasks", `{"title":"x"}`},
		{http.MethodPut, "/api/tasks?id=t1", `{"is_done":true}`},
		{http.MethodDelete, "/api/tasks?id=t1", ""},
		{http.MethodGet, "/api/lists", ""},
		{http.MethodPost, "/api/lists", `[]`},
	}

	for _, key := range []string{"", "wrong"} {
		for _, tc := range cases {
			cs := &countingStore{}
			rec := request(t, newTestServer(cs), tc.method, tc.target, key, tc.body)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s %s key=%q: status %d, want 401", tc.method, tc.target, key, rec.Code)
			}
			var payload map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil || payload["error"] == "" {
				t.Errorf("%s %s: body %q, want error payload", tc.method, tc.target, rec.Body.String())
			}
			if cs.totalCalls() != 0 {
				t.Errorf("%s %s: store touched %d times on denied request", tc.method, tc.target, cs.totalCalls())
			}
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	cs := &countingStore{}
	srv := newTestServer(cs)

	if rec := request(t, srv, http.MethodPatch, "/api/tasks", "sekret", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH /api/tasks: status %d", rec.Code)
	}
	if rec := request(t, srv, http.MethodPut, "/api/lists", "sekret", `[]`); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT /api/lists: status %d", rec.Code)
	}
}

func TestListTasksEmptyIsArray(t *testing.T) {
	rec := request(t, newTestServer(&countingStore{}), http.MethodGet, "/api/tasks", "sekret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %q, want []", got)
	}
}

func TestListTasksScoped(t *testing.T) {
	cs := &countingStore{tasks: []model.Task{
		{ID: "a", Title: "work", GroupID: "g2"},
		{ID: "b", Title: "home", GroupID: "g1"},
	}}
	rec := request(t, newTestServer(cs), http.MethodGet, "/api/tasks?groupId=g2", "sekret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var tasks []model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "a" {
		t.Fatalf("tasks = %#v", tasks)
	}
}

func TestCreateTask(t *testing.T) {
	cs := &countingStore{}
	rec := request(t, newTestServer(cs), http.MethodPost, "/api/tasks", "sekret", `{"title":"Buy milk"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201", rec.Code)
	}
	var payload map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil || !payload["success"] {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if cs.createCalls != 1 {
		t.Fatalf("createCalls = %d", cs.createCalls)
	}
}

func TestCreateTaskBadJSON(t *testing.T) {
	cs := &countingStore{}
	rec := request(t, newTestServer(cs), http.MethodPost, "/api/tasks", "sekret", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if cs.createCalls != 0 {
		t.Fatal("store touched on malformed body")
	}
}

func TestUpdateTask(t *testing.T) {
	cs := &countingStore{}
	rec := request(t, newTestServer(cs), http.MethodPut, "/api/tasks?id=t9", "sekret", `{"is_done":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if cs.lastID != "t9" {
		t.Errorf("id = %q", cs.lastID)
	}
	if cs.lastPatch.IsDone == nil || !*cs.lastPatch.IsDone {
		t.Errorf("patch = %#v", cs.lastPatch)
	}
	if cs.lastPatch.Title != nil {
		t.Error("absent field decoded as set")
	}
}

func TestUpdateTaskRequiresID(t *testing.T) {
	cs := &countingStore{}
	rec := request(t, newTestServer(cs), http.MethodPut, "/api/tasks", "sekret", `{"title":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if cs.updateCalls != 0 {
		t.Fatal("store touched without id")
	}
}

func TestDeleteTask(t *testing.T) {
	cs := &countingStore{}
	rec := request(t, newTestServer(cs), http.MethodDelete, "/api/tasks?id=t3", "sekret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if cs.deleteCalls != 1 || cs.lastID != "t3" {
		t.Fatalf("deleteCalls = %d, id = %q", cs.deleteCalls, cs.lastID)
	}
}

func TestListsNullBeforeFirstSave(t *testing.T) {
	rec := request(t, newTestServer(&countingStore{}), http.MethodGet, "/api/lists", "sekret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "null" {
		t.Fatalf("body = %q, want null", got)
	}
}

func TestListsSaveAndFetch(t *testing.T) {
	cs := &countingStore{}
	srv := newTestServer(cs)

	body := `[{"id":"L1","name":"Work","groups":[{"id":"g1","name":"Urgent","color":"#ef4444"}]}]`
	rec := request(t, srv, http.MethodPost, "/api/lists", "sekret", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status %d", rec.Code)
	}

	rec = request(t, srv, http.MethodGet, "/api/lists", "sekret", "")
	var lists []model.List
	if err := json.Unmarshal(rec.Body.Bytes(), &lists); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lists) != 1 || lists[0].Groups[0].Color != "#ef4444" {
		t.Fatalf("lists = %#v", lists)
	}
}

func TestRejectedErrorKeepsStatus(t *testing.T) {
	cs := &countingStore{err: &store.RejectedError{Status: http.StatusBadRequest, Message: "title is required"}}
	rec := request(t, newTestServer(cs), http.MethodPost, "/api/tasks", "sekret", `{"title":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil || payload["error"] != "title is required" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestUnhandledErrorIs500(t *testing.T) {
	cs := &countingStore{err: errors.New("disk on fire")}
	rec := request(t, newTestServer(cs), http.MethodGet, "/api/tasks", "sekret", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil || payload["error"] == "" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}
