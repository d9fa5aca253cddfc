package api

import (
	"github.com/starford/taskflow/internal/persist"
)

// SnapshotCreatedResponse is returned by POST /snapshots.
type SnapshotCreatedResponse struct {
	ID string `json:"id"`
}

// SnapshotListResponse wraps the retained snapshots, newest first.
type SnapshotListResponse struct {
	Snapshots []persist.SnapshotInfo `json:"snapshots"`
}

// ValidateResponse reports the structural check of every document.
type ValidateResponse struct {
	Valid     bool                                          `json:"valid"`
	Documents map[persist.Document]persist.ValidationResult `json:"documents"`
}

// MoveTaskRequest is the body of POST /lists/{listID}/tasks/{taskID}/move.
// A missing index appends to the destination list.
type MoveTaskRequest struct {
	ToListID string `json:"toListId"`
	Index    *int   `json:"index,omitempty"`
}

// ApplyTemplateRequest is the body of POST /templates/{templateID}/apply.
type ApplyTemplateRequest struct {
	ListID string `json:"listId"`
}
