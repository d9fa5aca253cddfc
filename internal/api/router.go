package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/taskflow/internal/persist"
	"github.com/starford/taskflow/internal/workspace"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(store *persist.Store, ws *workspace.Workspace, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(store, ws)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Whole documents.
	r.Post("/documents/migrate", h.Migrate)
	r.Get("/documents/validate", h.Validate)
	r.Get("/documents/{name}", h.GetDocument)
	r.Put("/documents/{name}", h.PutDocument)
	r.Get("/stats", h.Stats)

	// Snapshots.
	r.Get("/snapshots", h.ListSnapshots)
	r.Post("/snapshots", h.CreateSnapshot)
	r.Post("/snapshots/{id}/restore", h.RestoreSnapshot)

	// Exchange.
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
	r.Get("/report.csv", h.Report)

	// Entities.
	r.Post("/lists", h.CreateList)
	r.Delete("/lists/{listID}", h.DeleteList)
	r.Post("/lists/{listID}/tasks", h.AddTask)
	r.Patch("/lists/{listID}/tasks/{taskID}", h.UpdateTask)
	r.Delete("/lists/{listID}/tasks/{taskID}", h.DeleteTask)
	r.Post("/lists/{listID}/tasks/{taskID}/toggle", h.ToggleTask)
	r.Post("/lists/{listID}/tasks/{taskID}/move", h.MoveTask)
	r.Post("/templates", h.CreateTemplate)
	r.Post("/templates/{templateID}/apply", h.ApplyTemplate)
	r.Post("/events", h.CreateEvent)
	r.Delete("/events/{eventID}", h.DeleteEvent)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
