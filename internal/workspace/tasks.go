package workspace

import (
	"context"
	"slices"
	"time"

	"github.com/starford/taskflow/internal/models"
)

// TaskInput is the data for a new task.
type TaskInput struct {
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Priority      models.Priority `json:"priority,omitempty"`
	DueDate       *time.Time      `json:"dueDate,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	EstimatedTime *int            `json:"estimatedTime,omitempty"`
	Assignee      string          `json:"assignee,omitempty"`
}

// TaskPatch holds the fields to change; nil fields are left alone.
type TaskPatch struct {
	Title         *string          `json:"title,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Priority      *models.Priority `json:"priority,omitempty"`
	Completed     *bool            `json:"completed,omitempty"`
	DueDate       *time.Time       `json:"dueDate,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	EstimatedTime *int             `json:"estimatedTime,omitempty"`
	ActualTime    *int             `json:"actualTime,omitempty"`
	Assignee      *string          `json:"assignee,omitempty"`
}

// AddTask appends a task to a list. An empty priority takes the default
// from settings.
func (w *Workspace) AddTask(_ context.Context, listID string, in TaskInput) (models.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	li := listIndex(w.state.Lists, listID)
	if li < 0 {
		return models.Task{}, notFound("list", listID)
	}
	now := w.now()
	task := models.Task{
		ID:            models.NewID(),
		Title:         in.Title,
		Description:   in.Description,
		Priority:      in.Priority,
		CreatedAt:     now,
		UpdatedAt:     now,
		DueDate:       in.DueDate,
		Tags:          nonNil(in.Tags),
		Subtasks:      []models.Subtask{},
		EstimatedTime: in.EstimatedTime,
		Assignee:      in.Assignee,
	}
	if task.Priority == "" {
		task.Priority = w.defaultPriority()
	}

	lists := cloneLists(w.state.Lists)
	lists[li].Tasks = append(lists[li].Tasks, task)
	if err := w.commitLists(lists); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (w *Workspace) defaultPriority() models.Priority {
	if p := w.state.Settings.DefaultPriority; p != "" {
		return p
	}
	return models.PriorityMedium
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// UpdateTask applies patch to a task and refreshes its UpdatedAt.
func (w *Workspace) UpdateTask(_ context.Context, listID, taskID string, patch TaskPatch) (models.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	lists, li, ti, err := w.locateTask(listID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	now := w.now()
	t := &lists[li].Tasks[ti]
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if patch.Tags != nil {
		t.Tags = patch.Tags
	}
	if patch.EstimatedTime != nil {
		t.EstimatedTime = patch.EstimatedTime
	}
	if patch.ActualTime != nil {
		t.ActualTime = patch.ActualTime
	}
	if patch.Assignee != nil {
		t.Assignee = *patch.Assignee
	}
	if patch.Completed != nil && *patch.Completed != t.Completed {
		t.SetCompleted(*patch.Completed, now)
	}
	t.UpdatedAt = now

	if err := w.commitLists(lists); err != nil {
		return models.Task{}, err
	}
	return *t, nil
}

// ToggleTask flips the completion state of a task.
func (w *Workspace) ToggleTask(_ context.Context, listID, taskID string) (models.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	lists, li, ti, err := w.locateTask(listID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	t := &lists[li].Tasks[ti]
	t.SetCompleted(!t.Completed, w.now())
	if err := w.commitLists(lists); err != nil {
		return models.Task{}, err
	}
	return *t, nil
}

// MoveTask moves a task to position index of list toID, which may be the
// same list. A negative or out-of-range index appends. The whole move is a
// single save of the lists document.
func (w *Workspace) MoveTask(_ context.Context, fromID, taskID, toID string, index int) (models.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	lists, li, ti, err := w.locateTask(fromID, taskID)
	if err != nil {
		return models.Task{}, err
	}
	to := listIndex(lists, toID)
	if to < 0 {
		return models.Task{}, notFound("list", toID)
	}

	task := lists[li].Tasks[ti]
	task.UpdatedAt = w.now()
	lists[li].Tasks = slices.Delete(lists[li].Tasks, ti, ti+1)
	dst := lists[to].Tasks
	if index < 0 || index > len(dst) {
		index = len(dst)
	}
	lists[to].Tasks = slices.Insert(dst, index, task)

	if err := w.commitLists(lists); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task from its list.
func (w *Workspace) DeleteTask(_ context.Context, listID, taskID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	lists, li, ti, err := w.locateTask(listID, taskID)
	if err != nil {
		return err
	}
	lists[li].Tasks = slices.Delete(lists[li].Tasks, ti, ti+1)
	return w.commitLists(lists)
}

// locateTask returns a private copy of the lists with the indexes of the task.
func (w *Workspace) locateTask(listID, taskID string) ([]models.List, int, int, error) {
	li := listIndex(w.state.Lists, listID)
	if li < 0 {
		return nil, 0, 0, notFound("list", listID)
	}
	ti := w.state.Lists[li].TaskIndex(taskID)
	if ti < 0 {
		return nil, 0, 0, notFound("task", taskID)
	}
	return cloneLists(w.state.Lists), li, ti, nil
}
