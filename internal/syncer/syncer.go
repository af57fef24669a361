// Package syncer keeps an in-memory task collection consistent with a
// backend. It holds the last authoritative snapshot for one scope, layers
// pending optimistic edits over it, and replaces the snapshot wholesale
// whenever a newer one arrives. A failed sync never clears data already
// displayed: the last good snapshot stays, and the error is surfaced
// separately.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// PushStore is a backend that can both serve requests and push snapshots.
type PushStore interface {
	store.Store
	store.Subscribable
}

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opDelete
)

// pendingOp is one optimistic edit not yet superseded by an authoritative
// snapshot.
type pendingOp struct {
	kind  opKind
	id    string
	task  model.Task // create: the temp-id task shown locally
	patch store.Patch
}

// Synchronizer mirrors one scope of the backend task collection.
type Synchronizer struct {
	st       store.Store
	src      store.Subscribable // nil in pull mode
	interval time.Duration      // pull mode only

	mu       sync.Mutex
	scope    store.Filter
	scopeGen int
	issued   int
	applied  int
	snapshot []model.Task
	pending  []*pendingOp
	syncErr  error
	sub      store.Subscription
	sched    *scheduler
}

// NewPoller returns a pull-mode synchronizer: it refreshes on a fixed
// interval and immediately after every local mutation.
func NewPoller(st store.Store, scope store.Filter, interval time.Duration) *Synchronizer {
	if interval < time.Second {
		interval = time.Second
	}
	return &Synchronizer{st: st, scope: scope, interval: interval}
}

// NewSubscriber returns a push-mode synchronizer fed by one live
// subscription per scope.
func NewSubscriber(st PushStore, scope store.Filter) *Synchronizer {
	return &Synchronizer{st: st, src: st, scope: scope}
}

// Start begins syncing: pull mode fetches once and schedules the poll
// loop, push mode opens the subscription for the current scope.
func (s *Synchronizer) Start(ctx context.Context) error {
	if s.src != nil {
		s.resubscribe()
		return nil
	}

	sched := newScheduler()
	if _, err := sched.scheduleInterval(s.interval, func() {
		s.refresh(context.Background())
	}); err != nil {
		return err
	}
	s.mu.Lock()
	s.sched = sched
	s.mu.Unlock()

	s.refresh(ctx)
	sched.start()
	return nil
}

// Stop cancels the poll loop or the active subscription.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	sched := s.sched
	s.sched = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	if sched != nil {
		sched.stop()
	}
}

// SetScope switches the synchronizer to a new scope. The previous
// subscription is cancelled before a new one is established, pending
// edits and the old snapshot are discarded, and any in-flight request for
// the old scope is stale: its result will be dropped on arrival.
func (s *Synchronizer) SetScope(ctx context.Context, scope store.Filter) {
	s.mu.Lock()
	s.scope = scope
	s.scopeGen++
	s.snapshot = nil
	s.pending = nil
	s.syncErr = nil
	old := s.sub
	s.sub = nil
	s.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
	if s.src != nil {
		s.resubscribe()
		return
	}
	s.refresh(ctx)
}

// Scope returns the current filter.
func (s *Synchronizer) Scope() store.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Tasks returns the current view: the last good snapshot with pending
// optimistic edits applied, in listing order.
func (s *Synchronizer) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]model.Task, 0, len(s.snapshot)+len(s.pending))
	tasks = append(tasks, s.snapshot...)
	for _, op := range s.pending {
		switch op.kind {
		case opCreate:
			if s.scope.Matches(op.task) {
				tasks = append(tasks, op.task)
			}
		case opUpdate:
			for i := range tasks {
				if tasks[i].ID == op.id {
					op.patch.Apply(&tasks[i])
					break
				}
			}
		case opDelete:
			for i := range tasks {
				if tasks[i].ID == op.id {
					tasks = append(tasks[:i], tasks[i+1:]...)
					break
				}
			}
		}
	}
	model.SortTasks(tasks)
	return tasks
}

// Err returns the error from the most recent failed sync attempt, or nil
// after a healthy one.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncErr
}

// Create optimistically inserts the task under a temporary id, then asks
// the backend to persist it. On failure the local insert is rolled back
// and the error returned; on success the next snapshot is authoritative.
func (s *Synchronizer) Create(ctx context.Context, draft store.Draft) error {
	task := model.Task{
		ID:        "pending-" + uuid.New().String(),
		Title:     draft.Title,
		IsDone:    draft.IsDone,
		GroupID:   draft.GroupID,
		Subtasks:  draft.Subtasks,
		DueDate:   draft.DueDate,
		CreatedAt: time.Now(),
	}
	if task.GroupID == "" {
		task.GroupID = model.FallbackGroupID
	}
	if task.Subtasks == nil {
		task.Subtasks = []model.Subtask{}
	}

	op := &pendingOp{kind: opCreate, id: task.ID, task: task}
	s.addPending(op)

	if _, err := s.st.CreateTask(ctx, draft); err != nil {
		s.removePending(op)
		return err
	}
	s.settle(ctx, op)
	return nil
}

// Update applies the patch locally first, then persists it.
func (s *Synchronizer) Update(ctx context.Context, id string, patch store.Patch) error {
	op := &pendingOp{kind: opUpdate, id: id, patch: patch}
	s.addPending(op)

	if err := s.st.UpdateTask(ctx, id, patch); err != nil {
		s.removePending(op)
		return err
	}
	s.settle(ctx, op)
	return nil
}

// Delete drops the task locally first, then persists the removal. The
// backend treats unknown ids as success, so a second delete of the same
// task never fails.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	op := &pendingOp{kind: opDelete, id: id}
	s.addPending(op)

	if err := s.st.DeleteTask(ctx, id); err != nil {
		s.removePending(op)
		return err
	}
	s.settle(ctx, op)
	return nil
}

// settle reconciles a confirmed mutation: pull mode fetches the
// authoritative snapshot, push mode already received it synchronously
// from the backend's own redelivery. Either way the pending op has been
// superseded and is dropped.
func (s *Synchronizer) settle(ctx context.Context, op *pendingOp) {
	if s.src == nil {
		s.refresh(ctx)
	}
	s.removePending(op)
}

func (s *Synchronizer) addPending(op *pendingOp) {
	s.mu.Lock()
	s.pending = append(s.pending, op)
	s.mu.Unlock()
}

func (s *Synchronizer) removePending(op *pendingOp) {
	s.mu.Lock()
	for i, candidate := range s.pending {
		if candidate == op {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
}

// refresh fetches a full snapshot for the current scope. Results are
// applied only when they are neither from a stale scope nor older than a
// snapshot already applied; losers of that race are discarded, never
// merged.
func (s *Synchronizer) refresh(ctx context.Context) {
	s.mu.Lock()
	s.issued++
	issue := s.issued
	scopeGen := s.scopeGen
	scope := s.scope
	s.mu.Unlock()

	tasks, err := s.st.ListTasks(ctx, scope)

	s.mu.Lock()
	defer s.mu.Unlock()
	if scopeGen != s.scopeGen {
		return
	}
	if err != nil {
		s.syncErr = err
		return
	}
	if issue <= s.applied {
		return
	}
	s.applied = issue
	s.snapshot = tasks
	s.syncErr = nil
}

// resubscribe opens a push subscription for the current scope. Snapshot
// callbacks carry the scope generation they were opened under, so a
// delivery that straddles a scope change is discarded.
func (s *Synchronizer) resubscribe() {
	s.mu.Lock()
	scope := s.scope
	scopeGen := s.scopeGen
	s.mu.Unlock()

	sub := s.src.Subscribe(scope,
		func(tasks []model.Task) { s.applySnapshot(scopeGen, tasks) },
		func(err error) { s.applyError(scopeGen, err) },
	)

	s.mu.Lock()
	if scopeGen == s.scopeGen && s.sub == nil {
		s.sub = sub
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	sub.Unsubscribe()
}

func (s *Synchronizer) applySnapshot(scopeGen int, tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scopeGen != s.scopeGen {
		return
	}
	s.issued++
	s.applied = s.issued
	s.snapshot = tasks
	s.syncErr = nil
}

func (s *Synchronizer) applyError(scopeGen int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scopeGen != s.scopeGen {
		return
	}
	s.syncErr = err
}
