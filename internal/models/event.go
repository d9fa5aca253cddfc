package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// EventColor is the accent color of a calendar event.
type EventColor string

const (
	EventSky     EventColor = "sky"
	EventEmerald EventColor = "emerald"
	EventAmber   EventColor = "amber"
	EventOrange  EventColor = "orange"
	EventRose    EventColor = "rose"
	EventViolet  EventColor = "violet"
)

var eventColors = []interface{}{EventSky, EventEmerald, EventAmber, EventOrange, EventRose, EventViolet}

// Event is a calendar entry. ListID is a weak reference; a dangling id is tolerated.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	AllDay      bool       `json:"allDay,omitempty"`
	Color       EventColor `json:"color"`
	ListID      string     `json:"listId,omitempty"`
}

// Validate checks the event fields, including start <= end.
func (e Event) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.Required),
		validation.Field(&e.Title, validation.Required),
		validation.Field(&e.Start, validation.Required),
		validation.Field(&e.End, validation.Required, validation.Min(e.Start).Error("must not be before start")),
		validation.Field(&e.Color, validation.In(eventColors...)),
	)
}
