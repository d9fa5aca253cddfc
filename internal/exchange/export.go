// Package exchange moves workspace data in and out of the store: export
// files, imports, CSV reports and the watched import inbox.
package exchange

import (
	"encoding/json"
	"io"
	"time"

	"github.com/starford/taskflow/internal/models"
	"github.com/starford/taskflow/internal/persist"
)

// File is the export file format.
type File struct {
	Lists          []models.List     `json:"lists"`
	Templates      []models.Template `json:"templates"`
	Settings       models.Settings   `json:"settings"`
	CalendarEvents []models.Event    `json:"calendarEvents"`
	ExportedAt     time.Time         `json:"exportedAt"`
	Version        string            `json:"version"`
}

// Export builds an export file from st.
func Export(st persist.State, now time.Time) File {
	f := File{
		Lists:          st.Lists,
		Templates:      st.Templates,
		Settings:       st.Settings,
		CalendarEvents: st.Events,
		ExportedAt:     now.UTC(),
		Version:        persist.FormatVersion,
	}
	if f.Lists == nil {
		f.Lists = []models.List{}
	}
	if f.Templates == nil {
		f.Templates = []models.Template{}
	}
	if f.CalendarEvents == nil {
		f.CalendarEvents = []models.Event{}
	}
	return f
}

// WriteExport encodes f as indented JSON.
func WriteExport(w io.Writer, f File) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// ExportFilename is the suggested download name for an export made at now.
func ExportFilename(now time.Time) string {
	return "taskflow-export-" + now.UTC().Format(time.DateOnly) + ".json"
}
