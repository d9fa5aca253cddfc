// Package models defines the domain types for taskflow.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Priority of a task or template.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var priorities = []interface{}{PriorityLow, PriorityMedium, PriorityHigh}

// Task is a unit of work owned by exactly one List.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Completed     bool       `json:"completed"`
	Priority      Priority   `json:"priority"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Tags          []string   `json:"tags"`
	Subtasks      []Subtask  `json:"subtasks"`
	EstimatedTime *int       `json:"estimatedTime,omitempty"` // minutes
	ActualTime    *int       `json:"actualTime,omitempty"`    // minutes
	Assignee      string     `json:"assignee,omitempty"`
}

// Subtask is a checklist item inside a Task. Subtasks do not nest.
type Subtask struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Completed     bool       `json:"completed"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Assignee      string     `json:"assignee,omitempty"`
	EstimatedTime *int       `json:"estimatedTime,omitempty"`
	ActualTime    *int       `json:"actualTime,omitempty"`
}

// Validate checks the task fields.
func (t Task) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Title, validation.Required),
		validation.Field(&t.Priority, validation.Required, validation.In(priorities...)),
		validation.Field(&t.Subtasks),
	)
}

// Validate checks the subtask fields.
func (s Subtask) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.Title, validation.Required),
	)
}

// SetCompleted flips the completion state, stamping or clearing CompletedAt.
func (t *Task) SetCompleted(done bool, now time.Time) {
	t.Completed = done
	if done {
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
}
