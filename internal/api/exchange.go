package api

import (
	"log/slog"
	"net/http"

	"github.com/starford/taskflow/internal/exchange"
)

// Export handles GET /api/export.
func (h *Handler) Export(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	f := exchange.Export(h.ws.State(), now)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exchange.ExportFilename(now)+`"`)
	if err := exchange.WriteExport(w, f); err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
	}
}

// Import handles POST /api/import.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := readJSON(w, r)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	res, err := exchange.Import(h.store, data)
	// A write failure partway through may still have replaced documents.
	h.ws.Reload()
	if err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Report handles GET /api/report.csv.
func (h *Handler) Report(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="taskflow-tasks.csv"`)
	if err := exchange.WriteCSV(w, h.ws.Lists()); err != nil {
		slog.Error("csv report failed", slog.String("error", err.Error()))
	}
}
