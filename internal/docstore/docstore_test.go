package docstore

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// stepClock hands out strictly increasing timestamps so creation order is
// unambiguous.
func stepClock() func() time.Time {
	t := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestSubscribeDeliversFullSnapshots(t *testing.T) {
	st := New()
	st.now = stepClock()
	ctx := context.Background()

	var snapshots [][]model.Task
	sub := st.Subscribe(store.Filter{}, func(tasks []model.Task) {
		snapshots = append(snapshots, tasks)
	}, nil)

	if len(snapshots) != 1 || len(snapshots[0]) != 0 {
		t.Fatalf("expected immediate empty snapshot, got %#v", snapshots)
	}

	created, err := st.CreateTask(ctx, store.Draft{Title: "one"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(snapshots) != 2 || len(snapshots[1]) != 1 {
		t.Fatalf("create not redelivered: %#v", snapshots)
	}

	if err := st.UpdateTask(ctx, created.ID, store.Patch{Title: strptr("renamed")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(snapshots) != 3 || snapshots[2][0].Title != "renamed" {
		t.Fatalf("update not redelivered: %#v", snapshots)
	}

	sub.Unsubscribe()
	if err := st.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(snapshots) != 3 {
		t.Fatal("delivery after unsubscribe")
	}
	// Unsubscribing twice is safe.
	sub.Unsubscribe()
}

func TestSubscribeScoped(t *testing.T) {
	st := New()
	st.now = stepClock()
	ctx := context.Background()

	var latest []model.Task
	st.Subscribe(store.Filter{GroupID: "g2"}, func(tasks []model.Task) {
		latest = tasks
	}, nil)

	if _, err := st.CreateTask(ctx, store.Draft{Title: "work", GroupID: "g2"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := st.CreateTask(ctx, store.Draft{Title: "home"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(latest) != 1 || latest[0].Title != "work" {
		t.Fatalf("scoped snapshot = %#v", latest)
	}
}

func TestListOrdering(t *testing.T) {
	st := New()
	st.now = stepClock()
	ctx := context.Background()

	first, _ := st.CreateTask(ctx, store.Draft{Title: "first"})
	st.CreateTask(ctx, store.Draft{Title: "second"})
	st.CreateTask(ctx, store.Draft{Title: "third"})
	if err := st.UpdateTask(ctx, first.ID, store.Patch{IsDone: boolptr(true)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	tasks, err := st.ListTasks(ctx, store.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	want := []string{"third", "second", "first"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("order = %v, want %v", titles, want)
		}
	}
}

func TestPartialUpdateMerges(t *testing.T) {
	st := New()
	st.now = stepClock()
	ctx := context.Background()

	created, err := st.CreateTask(ctx, store.Draft{Title: "keep me", GroupID: "g3", DueDate: strptr("2025-09-01")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.UpdateTask(ctx, created.ID, store.Patch{IsDone: boolptr(true)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	tasks, _ := st.ListTasks(ctx, store.Filter{})
	got := tasks[0]
	if !got.IsDone {
		t.Error("is_done not applied")
	}
	if got.Title != "keep me" || got.GroupID != "g3" || got.DueDate == nil {
		t.Fatalf("unrelated fields changed: %#v", got)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	st := New()
	ctx := context.Background()

	created, _ := st.CreateTask(ctx, store.Draft{Title: "gone"})
	if err := st.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := st.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestListsRoundTrip(t *testing.T) {
	st := New()
	ctx := context.Background()

	lists, err := st.GetLists(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if lists != nil {
		t.Fatalf("expected nil before first save, got %#v", lists)
	}

	want := []model.List{{ID: "L1", Name: "Work", Groups: []model.Group{{ID: "g1", Name: "Urgent", Color: "#ef4444"}}}}
	if err := st.PutLists(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := st.GetLists(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0].ID != "L1" || got[0].Groups[0] != want[0].Groups[0] {
		t.Fatalf("round trip mismatch: %#v", got)
	}

	// Mutating the returned value must not leak into the store.
	got[0].Groups[0].Color = "#000000"
	again, _ := st.GetLists(ctx)
	if again[0].Groups[0].Color != "#ef4444" {
		t.Fatal("stored configuration aliased by caller")
	}
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }
