package exchange

import (
	"encoding/json"
	"fmt"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/starford/taskflow/internal/apperr"
	"github.com/starford/taskflow/internal/models"
	"github.com/starford/taskflow/internal/persist"
)

// Target is where imported documents are written.
type Target interface {
	Key(doc persist.Document) string
	Save(key string, value any) error
	SchemaFor(doc persist.Document) *jsonschema.Schema
}

// ImportResult reports what an import wrote.
type ImportResult struct {
	Success           bool     `json:"success"`
	ListsImported     int      `json:"listsImported"`
	TemplatesImported int      `json:"templatesImported"`
	EventsImported    int      `json:"eventsImported"`
	SettingsImported  bool     `json:"settingsImported"`
	Errors            []string `json:"errors"`
}

type importFile struct {
	Lists          []models.List     `json:"lists"`
	Templates      []models.Template `json:"templates"`
	Settings       json.RawMessage   `json:"settings"`
	CalendarEvents []models.Event    `json:"calendarEvents"`
}

func reject(res ImportResult, format string, args ...any) (ImportResult, error) {
	msg := fmt.Sprintf(format, args...)
	res.Success = false
	res.Errors = append(res.Errors, msg)
	return res, fmt.Errorf("%s: %w", msg, apperr.ErrInvalidImport)
}

// Import checks an export file and writes its documents through the save
// path. The file must carry lists and templates arrays that match their
// schemas; settings and calendar events are optional but checked when
// present. Nothing is written when the file is rejected.
func Import(dst Target, data []byte) (ImportResult, error) {
	res := ImportResult{Errors: []string{}}

	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return reject(res, "invalid data format: %v", err)
	}
	for _, field := range []string{"lists", "templates"} {
		if _, ok := tree[field].([]any); !ok {
			return reject(res, "invalid data format: missing or invalid %s", field)
		}
	}
	checks := []struct {
		field string
		doc   persist.Document
	}{
		{"lists", persist.DocLists},
		{"templates", persist.DocTemplates},
		{"settings", persist.DocSettings},
		{"calendarEvents", persist.DocEvents},
	}
	for _, c := range checks {
		v, ok := tree[c.field]
		if !ok || v == nil {
			continue
		}
		if err := dst.SchemaFor(c.doc).Validate(v); err != nil {
			return reject(res, "invalid %s: %v", c.field, err)
		}
	}

	var f importFile
	if err := json.Unmarshal(data, &f); err != nil {
		return reject(res, "invalid data format: %v", err)
	}
	_, hasEvents := tree["calendarEvents"]
	hasSettings := len(f.Settings) > 0 && string(f.Settings) != "null"

	if err := dst.Save(dst.Key(persist.DocLists), f.Lists); err != nil {
		return res, fmt.Errorf("import lists: %w", err)
	}
	res.ListsImported = len(f.Lists)
	if err := dst.Save(dst.Key(persist.DocTemplates), f.Templates); err != nil {
		return res, fmt.Errorf("import templates: %w", err)
	}
	res.TemplatesImported = len(f.Templates)
	if hasSettings {
		if err := dst.Save(dst.Key(persist.DocSettings), f.Settings); err != nil {
			return res, fmt.Errorf("import settings: %w", err)
		}
		res.SettingsImported = true
	}
	if hasEvents && f.CalendarEvents != nil {
		if err := dst.Save(dst.Key(persist.DocEvents), f.CalendarEvents); err != nil {
			return res, fmt.Errorf("import events: %w", err)
		}
		res.EventsImported = len(f.CalendarEvents)
	}
	res.Success = true
	return res, nil
}
