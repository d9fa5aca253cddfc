package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Template is a reusable task blueprint.
type Template struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Priority      Priority          `json:"priority"`
	EstimatedTime *int              `json:"estimatedTime,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Subtasks      []TemplateSubtask `json:"subtasks,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	Category      string            `json:"category,omitempty"`
	UsageCount    int               `json:"usageCount,omitempty"`
}

// TemplateSubtask is a subtask without identity; ids are assigned when a
// template is instantiated.
type TemplateSubtask struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Validate checks the template fields.
func (t Template) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Title, validation.Required),
		validation.Field(&t.Priority, validation.In(priorities...)),
	)
}

// Instantiate builds a fresh task from the template.
func (t Template) Instantiate(now time.Time) Task {
	task := Task{
		ID:            NewID(),
		Title:         t.Title,
		Description:   t.Description,
		Priority:      t.Priority,
		CreatedAt:     now,
		UpdatedAt:     now,
		EstimatedTime: cloneInt(t.EstimatedTime),
		Tags:          append([]string{}, t.Tags...),
		Subtasks:      make([]Subtask, 0, len(t.Subtasks)),
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	for _, st := range t.Subtasks {
		sub := Subtask{ID: NewID(), Title: st.Title, Completed: st.Completed, CreatedAt: now}
		if st.Completed {
			sub.CompletedAt = &now
		}
		task.Subtasks = append(task.Subtasks, sub)
	}
	return task
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
