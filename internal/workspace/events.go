package workspace

import (
	"context"
	"slices"
	"time"

	"github.com/starford/taskflow/internal/models"
)

// EventInput is the data for a new calendar event.
type EventInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	AllDay      bool              `json:"allDay,omitempty"`
	Color       models.EventColor `json:"color,omitempty"`
	ListID      string            `json:"listId,omitempty"`
}

// CreateEvent appends a calendar event. The list reference is not checked.
func (w *Workspace) CreateEvent(_ context.Context, in EventInput) (models.Event, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := models.Event{
		ID:          models.NewID(),
		Title:       in.Title,
		Description: in.Description,
		Start:       in.Start,
		End:         in.End,
		AllDay:      in.AllDay,
		Color:       in.Color,
		ListID:      in.ListID,
	}
	if e.Color == "" {
		e.Color = models.EventSky
	}
	events := append(slices.Clone(w.state.Events), e)
	if err := w.commitEvents(events); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// DeleteEvent removes a calendar event.
func (w *Workspace) DeleteEvent(_ context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := slices.IndexFunc(w.state.Events, func(e models.Event) bool { return e.ID == id })
	if i < 0 {
		return notFound("event", id)
	}
	events := slices.Delete(slices.Clone(w.state.Events), i, i+1)
	return w.commitEvents(events)
}
