package workspace

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/taskflow/internal/apperr"
	"github.com/starford/taskflow/internal/models"
	"github.com/starford/taskflow/internal/persist"
	"github.com/starford/taskflow/internal/testutil"
)

var t0 = time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)

func newWorkspace(t *testing.T) (*Workspace, *persist.Store) {
	t.Helper()
	store, _ := testutil.MemoryStore(t)
	return mustNew(t, store, WithClock(func() time.Time { return t0 })), store
}

func mustNew(t *testing.T, store Persister, opts ...Option) *Workspace {
	t.Helper()
	w, err := New(store, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func storedLists(s *persist.Store) []models.List {
	return persist.Load(s, s.Key(persist.DocLists), []models.List{})
}

func TestNewStartsWithDefaultList(t *testing.T) {
	w, _ := newWorkspace(t)
	lists := w.Lists()
	if len(lists) != 1 || lists[0].Title != "My Tasks" {
		t.Fatalf("lists = %+v", lists)
	}
}

func TestCreateListAndAddTask(t *testing.T) {
	ctx := context.Background()
	w, store := newWorkspace(t)

	l, err := w.CreateList(ctx, ListInput{Title: "Errands", Color: models.ColorRed})
	if err != nil {
		t.Fatal(err)
	}
	task, err := w.AddTask(ctx, l.ID, TaskInput{Title: "Buy milk"})
	if err != nil {
		t.Fatal(err)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want settings default", task.Priority)
	}
	if !task.CreatedAt.Equal(t0) || !task.UpdatedAt.Equal(t0) {
		t.Errorf("timestamps = %v %v", task.CreatedAt, task.UpdatedAt)
	}

	lists := storedLists(store)
	if len(lists) != 2 || len(lists[1].Tasks) != 1 || lists[1].Tasks[0].Title != "Buy milk" {
		t.Fatalf("stored = %+v", lists)
	}
}

func TestAddTaskValidation(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkspace(t)
	listID := w.Lists()[0].ID

	if _, err := w.AddTask(ctx, listID, TaskInput{}); !errors.Is(err, apperr.ErrInvalidDocument) {
		t.Errorf("empty title: err = %v", err)
	}
	if _, err := w.AddTask(ctx, "missing", TaskInput{Title: "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing list: err = %v", err)
	}
	if n := len(w.Lists()[0].Tasks); n != 0 {
		t.Errorf("failed add left %d tasks in memory", n)
	}
}

func TestToggleAndUpdateTask(t *testing.T) {
	ctx := context.Background()
	w, store := newWorkspace(t)
	listID := w.Lists()[0].ID
	task, _ := w.AddTask(ctx, listID, TaskInput{Title: "Draft"})

	toggled, err := w.ToggleTask(ctx, listID, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !toggled.Completed || toggled.CompletedAt == nil {
		t.Fatalf("toggle = %+v", toggled)
	}

	title := "Final"
	reopen := false
	updated, err := w.UpdateTask(ctx, listID, task.ID, TaskPatch{Title: &title, Completed: &reopen})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Final" || updated.Completed || updated.CompletedAt != nil {
		t.Errorf("updated = %+v", updated)
	}
	if got := storedLists(store)[0].Tasks[0]; got.Title != "Final" {
		t.Errorf("stored = %+v", got)
	}
}

func TestMoveTaskAcrossLists(t *testing.T) {
	ctx := context.Background()
	w, store := newWorkspace(t)
	from := w.Lists()[0].ID
	to, _ := w.CreateList(ctx, ListInput{Title: "Later"})
	a, _ := w.AddTask(ctx, to.ID, TaskInput{Title: "a"})
	moving, _ := w.AddTask(ctx, from, TaskInput{Title: "moving"})

	if _, err := w.MoveTask(ctx, from, moving.ID, to.ID, 0); err != nil {
		t.Fatal(err)
	}
	lists := storedLists(store)
	if len(lists[0].Tasks) != 0 {
		t.Errorf("source still has %d tasks", len(lists[0].Tasks))
	}
	if len(lists[1].Tasks) != 2 || lists[1].Tasks[0].ID != moving.ID || lists[1].Tasks[1].ID != a.ID {
		t.Errorf("destination = %+v", lists[1].Tasks)
	}

	// Same-list reorder with an out-of-range index appends.
	if _, err := w.MoveTask(ctx, to.ID, moving.ID, to.ID, 99); err != nil {
		t.Fatal(err)
	}
	if got := w.Lists()[1].Tasks; got[1].ID != moving.ID {
		t.Errorf("reorder = %+v", got)
	}
	if _, err := w.MoveTask(ctx, to.ID, moving.ID, "nope", 0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestDeleteTaskAndList(t *testing.T) {
	ctx := context.Background()
	w, store := newWorkspace(t)
	listID := w.Lists()[0].ID
	task, _ := w.AddTask(ctx, listID, TaskInput{Title: "gone"})

	if err := w.DeleteTask(ctx, listID, task.ID); err != nil {
		t.Fatal(err)
	}
	if err := w.DeleteTask(ctx, listID, task.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if err := w.DeleteList(ctx, listID); err != nil {
		t.Fatal(err)
	}
	if got := storedLists(store); len(got) != 0 {
		t.Errorf("stored = %+v", got)
	}
}

func TestApplyTemplate(t *testing.T) {
	ctx := context.Background()
	w, store := newWorkspace(t)
	listID := w.Lists()[0].ID

	tpl, err := w.CreateTemplate(ctx, TemplateInput{
		Name: "Weekly review", Title: "Review week", Priority: models.PriorityHigh,
		Subtasks: []models.TemplateSubtask{{Title: "Inbox zero"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	task, err := w.ApplyTemplate(ctx, tpl.ID, listID)
	if err != nil {
		t.Fatal(err)
	}
	if task.Title != "Review week" || len(task.Subtasks) != 1 {
		t.Errorf("task = %+v", task)
	}
	templates := persist.Load(store, store.Key(persist.DocTemplates), []models.Template{})
	if len(templates) != 1 || templates[0].UsageCount != 1 {
		t.Errorf("templates = %+v", templates)
	}
	if _, err := w.ApplyTemplate(ctx, "missing", listID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
	if err := w.DeleteTemplate(ctx, tpl.ID); err != nil {
		t.Fatal(err)
	}
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	w, store := newWorkspace(t)

	e, err := w.CreateEvent(ctx, EventInput{Title: "Standup", Start: t0, End: t0.Add(15 * time.Minute), ListID: "dangling"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Color != models.EventSky {
		t.Errorf("color = %q", e.Color)
	}
	if _, err := w.CreateEvent(ctx, EventInput{Title: "Backwards", Start: t0, End: t0.Add(-time.Hour)}); !errors.Is(err, apperr.ErrInvalidDocument) {
		t.Errorf("end before start: err = %v", err)
	}
	events := persist.Load(store, store.Key(persist.DocEvents), []models.Event{})
	if len(events) != 1 {
		t.Fatalf("events = %+v", events)
	}
	if err := w.DeleteEvent(ctx, e.ID); err != nil {
		t.Fatal(err)
	}
	if err := w.DeleteEvent(ctx, e.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestStateIsACopy(t *testing.T) {
	ctx := context.Background()
	w, _ := newWorkspace(t)
	listID := w.Lists()[0].ID
	_, _ = w.AddTask(ctx, listID, TaskInput{Title: "x"})

	st := w.State()
	st.Lists[0].Tasks[0].Title = "mutated"
	if w.Lists()[0].Tasks[0].Title != "x" {
		t.Error("State leaked internal slices")
	}
}

func TestReload(t *testing.T) {
	w, store := newWorkspace(t)
	if err := store.Save(store.Key(persist.DocLists), []models.List{{ID: "ext", Title: "External", Tasks: []models.Task{}}}); err != nil {
		t.Fatal(err)
	}
	w.Reload()
	if got := w.Lists(); len(got) != 1 || got[0].ID != "ext" {
		t.Errorf("lists = %+v", got)
	}
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	store, m := testutil.MemoryStore(t)
	w := mustNew(t, store)
	listID := w.Lists()[0].ID
	m.SetQuota(1)

	if _, err := w.AddTask(ctx, listID, TaskInput{Title: "wont fit"}); !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("err = %v", err)
	}
	if n := len(w.Lists()[0].Tasks); n != 0 {
		t.Errorf("memory has %d tasks after failed save", n)
	}
}

func TestWorkspaceSurvivesReopenOnSQLite(t *testing.T) {
	ctx := context.Background()
	store, _ := testutil.SQLiteStore(t)

	w := mustNew(t, store, WithClock(func() time.Time { return t0 }))
	l, err := w.CreateList(ctx, ListInput{Title: "Work"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.AddTask(ctx, l.ID, TaskInput{Title: "Write report", Tags: []string{"q1"}}); err != nil {
		t.Fatal(err)
	}

	again := mustNew(t, store)
	lists := again.Lists()
	if len(lists) != 2 || lists[1].ID != l.ID {
		t.Fatalf("lists after reopen = %+v", lists)
	}
	if got := lists[1].Tasks; len(got) != 1 || got[0].Tags[0] != "q1" {
		t.Errorf("tasks after reopen = %+v", got)
	}
}

func TestNewSeedsFirstRunDefaults(t *testing.T) {
	w, store := newWorkspace(t)
	id := w.Lists()[0].ID

	for i := 0; i < 2; i++ {
		if got := store.LoadState().Lists; len(got) != 1 || got[0].ID != id {
			t.Fatalf("load %d: lists = %+v, want id %s", i, got, id)
		}
	}
	w.Reload()
	if got := w.Lists()[0].ID; got != id {
		t.Errorf("id after reload = %s, want %s", got, id)
	}
}

func TestNewReturnsSeedError(t *testing.T) {
	store, m := testutil.MemoryStore(t)
	m.SetQuota(1)
	w, err := New(store)
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("err = %v", err)
	}
	if w == nil || len(w.Lists()) != 1 {
		t.Error("workspace should hold the loaded defaults")
	}
}

// pausingStore holds LoadState after reading until release is closed.
type pausingStore struct {
	*persist.Store
	armed   atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func (p *pausingStore) LoadState() persist.State {
	st := p.Store.LoadState()
	if p.armed.CompareAndSwap(true, false) {
		close(p.read)
		<-p.release
	}
	return st
}

func TestReloadDoesNotDropConcurrentMutation(t *testing.T) {
	ctx := context.Background()
	inner, _ := testutil.MemoryStore(t)
	store := &pausingStore{Store: inner, read: make(chan struct{}), release: make(chan struct{})}
	w := mustNew(t, store)

	store.armed.Store(true)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.Reload()
	}()
	<-store.read

	var createErr error
	go func() {
		defer wg.Done()
		_, createErr = w.CreateList(ctx, ListInput{Title: "Concurrent"})
	}()
	time.Sleep(50 * time.Millisecond)
	close(store.release)
	wg.Wait()

	if createErr != nil {
		t.Fatal(createErr)
	}
	if got := len(w.Lists()); got != 2 {
		t.Errorf("lists in memory = %d, want 2", got)
	}
	if got := len(inner.LoadState().Lists); got != 2 {
		t.Errorf("lists stored = %d, want 2", got)
	}
}
