package workspace

import (
	"context"
	"slices"

	"github.com/starford/taskflow/internal/models"
)

// TemplateInput is the data for a new template.
type TemplateInput struct {
	Name          string                   `json:"name"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description,omitempty"`
	Priority      models.Priority          `json:"priority,omitempty"`
	EstimatedTime *int                     `json:"estimatedTime,omitempty"`
	Tags          []string                 `json:"tags,omitempty"`
	Subtasks      []models.TemplateSubtask `json:"subtasks,omitempty"`
	Category      string                   `json:"category,omitempty"`
}

// CreateTemplate appends a template.
func (w *Workspace) CreateTemplate(_ context.Context, in TemplateInput) (models.Template, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	t := models.Template{
		ID:            models.NewID(),
		Name:          in.Name,
		Title:         in.Title,
		Description:   in.Description,
		Priority:      in.Priority,
		EstimatedTime: in.EstimatedTime,
		Tags:          in.Tags,
		Subtasks:      in.Subtasks,
		CreatedAt:     w.now(),
		Category:      in.Category,
	}
	if t.Priority == "" {
		t.Priority = w.defaultPriority()
	}
	templates := append(slices.Clone(w.state.Templates), t)
	if err := w.commitTemplates(templates); err != nil {
		return models.Template{}, err
	}
	return t, nil
}

// DeleteTemplate removes a template.
func (w *Workspace) DeleteTemplate(_ context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := slices.IndexFunc(w.state.Templates, func(t models.Template) bool { return t.ID == id })
	if i < 0 {
		return notFound("template", id)
	}
	templates := slices.Delete(slices.Clone(w.state.Templates), i, i+1)
	return w.commitTemplates(templates)
}

// ApplyTemplate creates a task from a template in list listID and bumps
// the template's usage count. The lists document is saved first; a failure
// saving the count is returned but the task stays.
func (w *Workspace) ApplyTemplate(_ context.Context, templateID, listID string) (models.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ti := slices.IndexFunc(w.state.Templates, func(t models.Template) bool { return t.ID == templateID })
	if ti < 0 {
		return models.Task{}, notFound("template", templateID)
	}
	li := listIndex(w.state.Lists, listID)
	if li < 0 {
		return models.Task{}, notFound("list", listID)
	}

	now := w.now()
	task := w.state.Templates[ti].Instantiate(now)
	lists := cloneLists(w.state.Lists)
	lists[li].Tasks = append(lists[li].Tasks, task)
	if err := w.commitLists(lists); err != nil {
		return models.Task{}, err
	}

	templates := slices.Clone(w.state.Templates)
	templates[ti].UsageCount++
	if err := w.commitTemplates(templates); err != nil {
		return task, err
	}
	return task, nil
}
