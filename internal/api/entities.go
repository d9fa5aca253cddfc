package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taskflow/internal/workspace"
)

// CreateList handles POST /api/lists.
func (h *Handler) CreateList(w http.ResponseWriter, r *http.Request) {
	var in workspace.ListInput
	if !decodeBody(w, r, &in) {
		return
	}
	l, err := h.ws.CreateList(r.Context(), in)
	if err != nil {
		writeError(w, "create list", err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// DeleteList handles DELETE /api/lists/{listID}.
func (h *Handler) DeleteList(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.DeleteList(r.Context(), chi.URLParam(r, "listID")); err != nil {
		writeError(w, "delete list", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTask handles POST /api/lists/{listID}/tasks.
func (h *Handler) AddTask(w http.ResponseWriter, r *http.Request) {
	var in workspace.TaskInput
	if !decodeBody(w, r, &in) {
		return
	}
	t, err := h.ws.AddTask(r.Context(), chi.URLParam(r, "listID"), in)
	if err != nil {
		writeError(w, "add task", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateTask handles PATCH /api/lists/{listID}/tasks/{taskID}.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch workspace.TaskPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	t, err := h.ws.UpdateTask(r.Context(), chi.URLParam(r, "listID"), chi.URLParam(r, "taskID"), patch)
	if err != nil {
		writeError(w, "update task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ToggleTask handles POST /api/lists/{listID}/tasks/{taskID}/toggle.
func (h *Handler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.ws.ToggleTask(r.Context(), chi.URLParam(r, "listID"), chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, "toggle task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// MoveTask handles POST /api/lists/{listID}/tasks/{taskID}/move.
func (h *Handler) MoveTask(w http.ResponseWriter, r *http.Request) {
	var req MoveTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ToListID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("toListId is required"))
		return
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}
	t, err := h.ws.MoveTask(r.Context(), chi.URLParam(r, "listID"), chi.URLParam(r, "taskID"), req.ToListID, index)
	if err != nil {
		writeError(w, "move task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTask handles DELETE /api/lists/{listID}/tasks/{taskID}.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.DeleteTask(r.Context(), chi.URLParam(r, "listID"), chi.URLParam(r, "taskID")); err != nil {
		writeError(w, "delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateTemplate handles POST /api/templates.
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in workspace.TemplateInput
	if !decodeBody(w, r, &in) {
		return
	}
	t, err := h.ws.CreateTemplate(r.Context(), in)
	if err != nil {
		writeError(w, "create template", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ApplyTemplate handles POST /api/templates/{templateID}/apply.
func (h *Handler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req ApplyTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := h.ws.ApplyTemplate(r.Context(), chi.URLParam(r, "templateID"), req.ListID)
	if err != nil {
		writeError(w, "apply template", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// CreateEvent handles POST /api/events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in workspace.EventInput
	if !decodeBody(w, r, &in) {
		return
	}
	e, err := h.ws.CreateEvent(r.Context(), in)
	if err != nil {
		writeError(w, "create event", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// DeleteEvent handles DELETE /api/events/{eventID}.
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.DeleteEvent(r.Context(), chi.URLParam(r, "eventID")); err != nil {
		writeError(w, "delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
