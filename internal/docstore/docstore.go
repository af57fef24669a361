// Package docstore is the document backend: each task is a standalone
// record, and readers follow changes through live subscriptions that
// redeliver the full matching snapshot after every mutation.
package docstore

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// Store holds all documents in memory behind one mutex. It implements the
// same contract as the relational backend, so the two are interchangeable
// behind store.Store, plus store.Subscribable for push-based sync.
type Store struct {
	mu        sync.Mutex
	tasks     map[string]model.Task
	lists     []model.List
	haveLists bool
	subs      map[int]*subscription
	nextSub   int
	now       func() time.Time
}

func New() *Store {
	return &Store{
		tasks: make(map[string]model.Task),
		subs:  make(map[int]*subscription),
		now:   time.Now,
	}
}

// subscription is one live query. Snapshot callbacks always run outside
// the store lock, so a callback may call back into the store.
type subscription struct {
	id         int
	store      *Store
	filter     store.Filter
	onSnapshot func([]model.Task)
	onError    func(error)
}

func (s *subscription) Unsubscribe() {
	s.store.mu.Lock()
	delete(s.store.subs, s.id)
	s.store.mu.Unlock()
}

// Subscribe registers a live query. The current snapshot is delivered
// immediately, then the full matching set again after every change.
func (st *Store) Subscribe(filter store.Filter, onSnapshot func([]model.Task), onError func(error)) store.Subscription {
	st.mu.Lock()
	sub := &subscription{
		id:         st.nextSub,
		store:      st,
		filter:     filter,
		onSnapshot: onSnapshot,
		onError:    onError,
	}
	st.nextSub++
	st.subs[sub.id] = sub
	snapshot := st.snapshotLocked(filter)
	st.mu.Unlock()

	onSnapshot(snapshot)
	return sub
}

func (st *Store) ListTasks(ctx context.Context, filter store.Filter) ([]model.Task, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshotLocked(filter), nil
}

func (st *Store) CreateTask(ctx context.Context, draft store.Draft) (model.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return model.Task{}, &store.RejectedError{Status: http.StatusBadRequest, Message: "title is required"}
	}

	st.mu.Lock()
	task := model.Task{
		ID:        uuid.New().String(),
		Title:     draft.Title,
		IsDone:    draft.IsDone,
		GroupID:   draft.GroupID,
		Subtasks:  append([]model.Subtask(nil), draft.Subtasks...),
		DueDate:   draft.DueDate,
		CreatedAt: st.now(),
	}
	if task.GroupID == "" {
		task.GroupID = model.FallbackGroupID
	}
	if task.Subtasks == nil {
		task.Subtasks = []model.Subtask{}
	}
	st.tasks[task.ID] = task
	deliveries := st.pendingDeliveriesLocked()
	st.mu.Unlock()

	deliver(deliveries)
	return task, nil
}

func (st *Store) UpdateTask(ctx context.Context, id string, patch store.Patch) error {
	st.mu.Lock()
	task, ok := st.tasks[id]
	if ok {
		patch.Apply(&task)
		st.tasks[id] = task
	}
	deliveries := st.pendingDeliveriesLocked()
	st.mu.Unlock()

	// Updating an unknown id mirrors the relational backend: zero rows
	// touched, no error.
	deliver(deliveries)
	return nil
}

func (st *Store) DeleteTask(ctx context.Context, id string) error {
	st.mu.Lock()
	delete(st.tasks, id)
	deliveries := st.pendingDeliveriesLocked()
	st.mu.Unlock()

	deliver(deliveries)
	return nil
}

func (st *Store) GetLists(ctx context.Context) ([]model.List, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.haveLists {
		return nil, nil
	}
	return copyLists(st.lists), nil
}

func (st *Store) PutLists(ctx context.Context, lists []model.List) error {
	st.mu.Lock()
	st.lists = copyLists(lists)
	st.haveLists = true
	st.mu.Unlock()
	return nil
}

// delivery pairs a subscriber callback with the snapshot computed for it
// while the lock was held.
type delivery struct {
	fn       func([]model.Task)
	snapshot []model.Task
}

func (st *Store) pendingDeliveriesLocked() []delivery {
	deliveries := make([]delivery, 0, len(st.subs))
	for _, sub := range st.subs {
		deliveries = append(deliveries, delivery{
			fn:       sub.onSnapshot,
			snapshot: st.snapshotLocked(sub.filter),
		})
	}
	return deliveries
}

func deliver(deliveries []delivery) {
	for _, d := range deliveries {
		d.fn(d.snapshot)
	}
}

func (st *Store) snapshotLocked(filter store.Filter) []model.Task {
	tasks := make([]model.Task, 0, len(st.tasks))
	for _, task := range st.tasks {
		if !filter.Matches(task) {
			continue
		}
		task.Subtasks = append([]model.Subtask(nil), task.Subtasks...)
		if task.Subtasks == nil {
			task.Subtasks = []model.Subtask{}
		}
		tasks = append(tasks, task)
	}
	model.SortTasks(tasks)
	return tasks
}

func copyLists(lists []model.List) []model.List {
	out := make([]model.List, len(lists))
	for i, list := range lists {
		out[i] = list
		out[i].Groups = append([]model.Group(nil), list.Groups...)
	}
	return out
}
