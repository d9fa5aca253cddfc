package models

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ListColor is the accent color of a list.
type ListColor string

const (
	ColorRed    ListColor = "red"
	ColorOrange ListColor = "orange"
	ColorYellow ListColor = "yellow"
	ColorGreen  ListColor = "green"
	ColorBlue   ListColor = "blue"
	ColorPurple ListColor = "purple"
)

var listColors = []interface{}{ColorRed, ColorOrange, ColorYellow, ColorGreen, ColorBlue, ColorPurple}

// SortMethod is stored verbatim; ordering views are a client concern.
type SortMethod string

const (
	SortSmart    SortMethod = "smart"
	SortPriority SortMethod = "priority"
	SortDueDate  SortMethod = "dueDate"
	SortManual   SortMethod = "manual"
)

var sortMethods = []interface{}{SortSmart, SortPriority, SortDueDate, SortManual}

// List is an ordered collection of tasks.
type List struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Color         ListColor      `json:"color"`
	Tasks         []Task         `json:"tasks"`
	SortMethod    SortMethod     `json:"sortMethod"`
	CreatedAt     time.Time      `json:"createdAt"`
	Archived      bool           `json:"archived,omitempty"`
	Shared        bool           `json:"shared,omitempty"`
	Collaborators []Collaborator `json:"collaborators,omitempty"`
}

// Collaborator is decorative metadata; it carries no access control.
type Collaborator struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joinedAt"`
}

// MarshalJSON always encodes tasks as an array, never null.
func (l List) MarshalJSON() ([]byte, error) {
	type plain List
	p := plain(l)
	if p.Tasks == nil {
		p.Tasks = []Task{}
	}
	return json.Marshal(p)
}

// Validate checks the list and every task in it.
func (l List) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.ID, validation.Required),
		validation.Field(&l.Title, validation.Required),
		validation.Field(&l.Color, validation.In(listColors...)),
		validation.Field(&l.SortMethod, validation.In(sortMethods...)),
		validation.Field(&l.Tasks),
	)
}

// TaskIndex returns the position of the task with id, or -1.
func (l *List) TaskIndex(id string) int {
	for i := range l.Tasks {
		if l.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}
