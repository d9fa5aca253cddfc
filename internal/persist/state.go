package persist

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/taskflow/internal/kv"
	"github.com/starford/taskflow/internal/models"
)

// State holds all four documents.
type State struct {
	Lists     []models.List     `json:"lists"`
	Templates []models.Template `json:"templates"`
	Settings  models.Settings   `json:"settings"`
	Events    []models.Event    `json:"calendarEvents"`
}

// DefaultState is what a first run starts with: one empty list and the
// default settings.
func (s *Store) DefaultState() State {
	return State{
		Lists:     []models.List{models.DefaultList(s.now())},
		Templates: []models.Template{},
		Settings:  models.DefaultSettings(),
		Events:    []models.Event{},
	}
}

// LoadState loads every document, falling back per document.
func (s *Store) LoadState() State {
	def := s.DefaultState()
	return State{
		Lists:     Load(s, s.Key(DocLists), def.Lists),
		Templates: Load(s, s.Key(DocTemplates), def.Templates),
		Settings:  Load(s, s.Key(DocSettings), def.Settings),
		Events:    Load(s, s.Key(DocEvents), def.Events),
	}
}

// SaveState saves every document. All saves are attempted; the returned
// error joins the individual failures.
func (s *Store) SaveState(st State) error {
	return errors.Join(
		s.Save(s.Key(DocLists), nonNil(st.Lists)),
		s.Save(s.Key(DocTemplates), nonNil(st.Templates)),
		s.Save(s.Key(DocSettings), st.Settings),
		s.Save(s.Key(DocEvents), nonNil(st.Events)),
	)
}

// EnsureState loads every document and writes the ones that are absent,
// so first-run defaults get stable ids. Present documents are not
// rewritten. Save failures are joined; the loaded state is returned
// regardless.
func (s *Store) EnsureState() (State, error) {
	st := s.LoadState()
	var errs []error
	for _, d := range Documents {
		_, ok, err := s.medium.Get(s.Key(d))
		if err != nil {
			errs = append(errs, fmt.Errorf("persist: read %s: %w", d, err))
			continue
		}
		if ok {
			continue
		}
		if err := s.Save(s.Key(d), st.document(d)); err != nil {
			errs = append(errs, err)
			continue
		}
		s.logger.Info("seeded default document", slog.String("document", string(d)))
	}
	return st, errors.Join(errs...)
}

// document returns the value of doc in st.
func (st State) document(doc Document) any {
	switch doc {
	case DocLists:
		return nonNil(st.Lists)
	case DocTemplates:
		return nonNil(st.Templates)
	case DocSettings:
		return st.Settings
	default:
		return nonNil(st.Events)
	}
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Clear removes every document and its backup. Snapshots are kept.
func (s *Store) Clear() error {
	var errs []error
	for _, d := range Documents {
		key := s.Key(d)
		if err := s.medium.Remove(key); err != nil {
			errs = append(errs, err)
		}
		if err := s.medium.Remove(BackupKey(key)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("persist: clear: %w", err)
	}
	s.logger.Info("all documents cleared")
	s.notifier.Notify(Event{Type: EventDocumentsCleared})
	return nil
}

// RestoreBackups copies each document's backup over its live value.
// Documents without a backup are left alone.
func (s *Store) RestoreBackups() ([]Document, error) {
	restored := []Document{}
	var errs []error
	for _, d := range Documents {
		key := s.Key(d)
		raw, ok, err := s.medium.Get(BackupKey(key))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		if err := s.medium.Set(key, raw); err != nil {
			errs = append(errs, err)
			continue
		}
		restored = append(restored, d)
		s.notifier.Notify(Event{Type: EventDocumentSaved, Key: key, ByteSize: len(raw)})
	}
	if err := errors.Join(errs...); err != nil {
		return restored, fmt.Errorf("persist: restore backups: %w", err)
	}
	s.logger.Info("restored documents from backup", slog.Int("count", len(restored)))
	return restored, nil
}

// Stats describes how much of the medium the documents occupy.
type Stats struct {
	TotalBytes  int64              `json:"totalBytes"`
	ItemCount   int                `json:"itemCount"`
	Breakdown   map[Document]int64 `json:"breakdown"`
	MediumBytes int64              `json:"mediumBytes,omitempty"`
}

// Stats returns the stored size of each present document, in bytes of
// its serialized value.
func (s *Store) Stats() (Stats, error) {
	st := Stats{Breakdown: make(map[Document]int64, len(Documents))}
	for _, d := range Documents {
		raw, ok, err := s.medium.Get(s.Key(d))
		if err != nil {
			return Stats{}, fmt.Errorf("persist: stats: %w", err)
		}
		if !ok {
			continue
		}
		size := int64(len(raw))
		st.TotalBytes += size
		st.ItemCount++
		st.Breakdown[d] = size
	}
	if sz, ok := s.medium.(kv.Sizer); ok {
		if used, err := sz.Used(); err == nil {
			st.MediumBytes = used
		}
	}
	return st, nil
}

// InitReport is the outcome of Initialize.
type InitReport struct {
	Migration  MigrationReport               `json:"migration"`
	Validation map[Document]ValidationResult `json:"validation"`
	SnapshotID string                        `json:"snapshotId,omitempty"`
}

// Initialize runs the startup sequence: migrate legacy keys, validate
// every document, then take a snapshot. A snapshot failure is returned
// with the report filled in so far.
func (s *Store) Initialize() (InitReport, error) {
	report := InitReport{Migration: s.MigrateLegacyKeys()}
	report.Validation = s.ValidateAll()
	for d, r := range report.Validation {
		if !r.Valid {
			s.logger.Warn("document failed validation", slog.String("document", string(d)), slog.String("reason", r.Reason))
		}
	}
	id, err := s.CreateSnapshot()
	if err != nil {
		return report, err
	}
	report.SnapshotID = id
	return report, nil
}
