// Package workspace keeps the in-memory copy of the documents and applies
// entity-level changes to them, saving the affected document on each one.
package workspace

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/starford/taskflow/internal/apperr"
	"github.com/starford/taskflow/internal/models"
	"github.com/starford/taskflow/internal/persist"
)

// Persister is the subset of *persist.Store the workspace needs.
type Persister interface {
	EnsureState() (persist.State, error)
	LoadState() persist.State
	Save(key string, value any) error
	Key(doc persist.Document) string
}

// Workspace is safe for concurrent use. Every mutation saves exactly the
// document it changed; memory is only updated after the save succeeds.
type Workspace struct {
	mu    sync.Mutex
	store Persister
	state persist.State
	now   func() time.Time
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// New loads the current state from store and writes any document that is
// not stored yet, so the first-run defaults keep their ids. On a seeding
// error the workspace is still returned, holding the loaded state.
func New(store Persister, opts ...Option) (*Workspace, error) {
	w := &Workspace{store: store, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	st, err := store.EnsureState()
	w.state = st
	if err != nil {
		return w, fmt.Errorf("workspace: seed documents: %w", err)
	}
	return w, nil
}

// Reload replaces the in-memory state with what is stored. mu is held
// across the read so a concurrent mutation is not overwritten.
func (w *Workspace) Reload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = w.store.LoadState()
}

// State returns a copy of the current state.
func (w *Workspace) State() persist.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return persist.State{
		Lists:     cloneLists(w.state.Lists),
		Templates: slices.Clone(w.state.Templates),
		Settings:  w.state.Settings,
		Events:    slices.Clone(w.state.Events),
	}
}

// Lists returns a copy of the lists document.
func (w *Workspace) Lists() []models.List {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneLists(w.state.Lists)
}

func cloneLists(in []models.List) []models.List {
	if in == nil {
		return nil
	}
	out := make([]models.List, len(in))
	for i, l := range in {
		l.Tasks = slices.Clone(l.Tasks)
		l.Collaborators = slices.Clone(l.Collaborators)
		out[i] = l
	}
	return out
}

// commitLists validates and saves lists, then adopts them. Callers hold mu.
func (w *Workspace) commitLists(lists []models.List) error {
	if err := models.ValidateLists(lists); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidDocument, err)
	}
	if err := w.store.Save(w.store.Key(persist.DocLists), lists); err != nil {
		return err
	}
	w.state.Lists = lists
	return nil
}

func (w *Workspace) commitTemplates(templates []models.Template) error {
	if err := models.ValidateTemplates(templates); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidDocument, err)
	}
	if err := w.store.Save(w.store.Key(persist.DocTemplates), templates); err != nil {
		return err
	}
	w.state.Templates = templates
	return nil
}

func (w *Workspace) commitEvents(events []models.Event) error {
	if err := models.ValidateEvents(events); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidDocument, err)
	}
	if err := w.store.Save(w.store.Key(persist.DocEvents), events); err != nil {
		return err
	}
	w.state.Events = events
	return nil
}

func listIndex(lists []models.List, id string) int {
	return slices.IndexFunc(lists, func(l models.List) bool { return l.ID == id })
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
}

// ListInput is the data for a new list.
type ListInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Color       models.ListColor `json:"color,omitempty"`
}

// CreateList appends a new empty list.
func (w *Workspace) CreateList(_ context.Context, in ListInput) (models.List, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	l := models.List{
		ID:          models.NewID(),
		Title:       in.Title,
		Description: in.Description,
		Color:       in.Color,
		Tasks:       []models.Task{},
		SortMethod:  models.SortSmart,
		CreatedAt:   w.now(),
	}
	if l.Color == "" {
		l.Color = models.ColorBlue
	}
	lists := append(cloneLists(w.state.Lists), l)
	if err := w.commitLists(lists); err != nil {
		return models.List{}, err
	}
	return l, nil
}

// DeleteList removes a list and its tasks.
func (w *Workspace) DeleteList(_ context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := listIndex(w.state.Lists, id)
	if i < 0 {
		return notFound("list", id)
	}
	lists := cloneLists(w.state.Lists)
	return w.commitLists(slices.Delete(lists, i, i+1))
}
