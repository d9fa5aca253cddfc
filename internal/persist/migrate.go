package persist

import (
	"fmt"
	"log/slog"
)

// LegacyKeys maps the un-namespaced keys of earlier releases to documents.
var LegacyKeys = []struct {
	Legacy string
	Doc    Document
}{
	{"todo-lists", DocLists},
	{"task-templates", DocTemplates},
	{"app-settings", DocSettings},
	{"calendar-events", DocEvents},
}

// MigrationReport summarises a MigrateLegacyKeys run.
type MigrationReport struct {
	Success  bool     `json:"success"`
	Migrated []string `json:"migrated"`
	Errors   []string `json:"errors,omitempty"`
}

// MigrateLegacyKeys moves data from legacy keys to current keys. A legacy
// value is copied and then deleted only when the current key is empty;
// when both hold data neither is touched. Errors are collected per key and
// do not stop the run.
func (s *Store) MigrateLegacyKeys() MigrationReport {
	report := MigrationReport{Success: true, Migrated: []string{}}
	fail := func(legacy string, err error) {
		report.Success = false
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", legacy, err))
		s.logger.Warn("migration failed", slog.String("key", legacy), slog.String("error", err.Error()))
	}

	for _, m := range LegacyKeys {
		current := s.Key(m.Doc)
		if current == m.Legacy {
			continue
		}
		old, ok, err := s.medium.Get(m.Legacy)
		if err != nil {
			fail(m.Legacy, err)
			continue
		}
		if !ok {
			continue
		}
		existing, exists, err := s.medium.Get(current)
		if err != nil {
			fail(m.Legacy, err)
			continue
		}
		if exists && existing != "" {
			continue
		}
		if err := s.medium.Set(current, old); err != nil {
			fail(m.Legacy, err)
			continue
		}
		if err := s.medium.Remove(m.Legacy); err != nil {
			fail(m.Legacy, err)
			continue
		}
		report.Migrated = append(report.Migrated, m.Legacy+" -> "+current)
		s.logger.Info("migrated legacy key", slog.String("from", m.Legacy), slog.String("to", current))
	}
	return report
}
