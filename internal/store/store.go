// Package store defines the backend-agnostic contract for task and
// list-configuration storage. Both backends and the HTTP client adapter
// implement it; callers never import a backend directly.
package store

import (
	"context"

	"taskboard/internal/model"
)

// Filter bounds which tasks a query or subscription returns. The zero
// value matches everything.
type Filter struct {
	GroupID string
}

// Matches reports whether a task falls inside the filter.
func (f Filter) Matches(t model.Task) bool {
	return f.GroupID == "" || t.GroupID == f.GroupID
}

// Draft holds the caller-supplied fields for a new task. The backend
// assigns the id and creation time.
type Draft struct {
	Title    string          `json:"title"`
	IsDone   bool            `json:"is_done"`
	GroupID  string          `json:"groupId"`
	Subtasks []model.Subtask `json:"subtasks"`
	DueDate  *string         `json:"dueDate"`
}

// Patch is a partial update. Nil fields keep their prior values.
type Patch struct {
	Title    *string          `json:"title"`
	IsDone   *bool            `json:"is_done"`
	GroupID  *string          `json:"groupId"`
	Subtasks *[]model.Subtask `json:"subtasks"`
	DueDate  *string          `json:"dueDate"`
}

// Apply merges the patch into a task, leaving nil fields untouched.
func (p Patch) Apply(t *model.Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.IsDone != nil {
		t.IsDone = *p.IsDone
	}
	if p.GroupID != nil {
		t.GroupID = *p.GroupID
	}
	if p.Subtasks != nil {
		t.Subtasks = append([]model.Subtask(nil), (*p.Subtasks)...)
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
}

// Store is the contract shared by the relational backend, the document
// backend, and the HTTP client adapter.
type Store interface {
	// ListTasks returns the full snapshot matching the filter, open
	// tasks first, newest first within each partition.
	ListTasks(ctx context.Context, filter Filter) ([]model.Task, error)

	// CreateTask persists a new task, assigning its id and creation
	// time. An empty group falls back to the default group.
	CreateTask(ctx context.Context, draft Draft) (model.Task, error)

	// UpdateTask merges the patch into an existing task.
	UpdateTask(ctx context.Context, id string, patch Patch) error

	// DeleteTask removes a task. Deleting an unknown id is not an error.
	DeleteTask(ctx context.Context, id string) error

	// GetLists returns the saved list configuration, or nil when none
	// has ever been saved.
	GetLists(ctx context.Context) ([]model.List, error)

	// PutLists replaces the entire stored configuration.
	PutLists(ctx context.Context, lists []model.List) error
}

// Subscription is a cancellable handle on a live query.
type Subscription interface {
	// Unsubscribe stops deliveries. Safe to call more than once.
	Unsubscribe()
}

// Subscribable is implemented by backends that push snapshots. Every
// delivery carries the full result set matching the filter, intended to
// replace the subscriber's collection wholesale.
type Subscribable interface {
	Subscribe(filter Filter, onSnapshot func([]model.Task), onError func(error)) Subscription
}
