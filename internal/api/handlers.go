package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taskflow/internal/apperr"
	"github.com/starford/taskflow/internal/models"
	"github.com/starford/taskflow/internal/persist"
	"github.com/starford/taskflow/internal/workspace"
)

// Handler holds API route handlers.
type Handler struct {
	store *persist.Store
	ws    *workspace.Workspace
	now   func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(store *persist.Store, ws *workspace.Workspace) *Handler {
	return &Handler{store: store, ws: ws, now: time.Now}
}

func documentParam(w http.ResponseWriter, r *http.Request) (persist.Document, bool) {
	name := chi.URLParam(r, "name")
	doc, ok := persist.ParseDocument(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody(fmt.Sprintf("unknown document %q", name)))
	}
	return doc, ok
}

func documentValue(st persist.State, doc persist.Document) any {
	switch doc {
	case persist.DocLists:
		return st.Lists
	case persist.DocTemplates:
		return st.Templates
	case persist.DocSettings:
		return st.Settings
	default:
		return st.Events
	}
}

// GetDocument handles GET /api/documents/{name}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := documentParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, documentValue(h.ws.State(), doc))
}

// PutDocument handles PUT /api/documents/{name}. The body replaces the
// whole document after entity validation.
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := documentParam(w, r)
	if !ok {
		return
	}

	var (
		value any
		err   error
	)
	switch doc {
	case persist.DocLists:
		var lists []models.List
		if !decodeBody(w, r, &lists) {
			return
		}
		value, err = nonNil(lists), models.ValidateLists(lists)
	case persist.DocTemplates:
		var templates []models.Template
		if !decodeBody(w, r, &templates) {
			return
		}
		value, err = nonNil(templates), models.ValidateTemplates(templates)
	case persist.DocSettings:
		settings := models.DefaultSettings()
		if !decodeBody(w, r, &settings) {
			return
		}
		value, err = settings, settings.Validate()
	case persist.DocEvents:
		var events []models.Event
		if !decodeBody(w, r, &events) {
			return
		}
		value, err = nonNil(events), models.ValidateEvents(events)
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		return
	}

	if err := h.store.Save(h.store.Key(doc), value); err != nil {
		writeError(w, "save document", err)
		return
	}
	h.ws.Reload()
	writeJSON(w, http.StatusOK, value)
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Migrate handles POST /api/documents/migrate.
func (h *Handler) Migrate(w http.ResponseWriter, _ *http.Request) {
	report := h.store.MigrateLegacyKeys()
	h.ws.Reload()
	writeJSON(w, http.StatusOK, report)
}

// Validate handles GET /api/documents/validate.
func (h *Handler) Validate(w http.ResponseWriter, _ *http.Request) {
	results := h.store.ValidateAll()
	resp := ValidateResponse{Valid: true, Documents: results}
	for _, res := range results {
		if !res.Valid {
			resp.Valid = false
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	st, err := h.store.Stats()
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ListSnapshots handles GET /api/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, _ *http.Request) {
	infos, err := h.store.ListSnapshots()
	if err != nil {
		writeError(w, "list snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, SnapshotListResponse{Snapshots: infos})
}

// CreateSnapshot handles POST /api/snapshots.
func (h *Handler) CreateSnapshot(w http.ResponseWriter, _ *http.Request) {
	id, err := h.store.CreateSnapshot()
	if err != nil {
		writeError(w, "create snapshot", err)
		return
	}
	writeJSON(w, http.StatusCreated, SnapshotCreatedResponse{ID: id})
}

// RestoreSnapshot handles POST /api/snapshots/{id}/restore.
func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.store.RestoreSnapshot(id)
	// A partial restore still changed documents.
	h.ws.Reload()
	if err != nil {
		writeError(w, "restore snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"restored": id})
}

// readJSON is used by handlers that accept raw documents.
func readJSON(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidImport, err)
	}
	return raw, nil
}
