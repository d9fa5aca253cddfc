// Package persist loads, saves, validates, migrates and snapshots the
// taskflow documents on top of a kv.Medium.
package persist

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/starford/taskflow/internal/kv"
)

// Document names one of the four persisted documents.
type Document string

const (
	DocLists     Document = "lists"
	DocTemplates Document = "templates"
	DocSettings  Document = "settings"
	DocEvents    Document = "calendar-events"
)

// Documents lists every document in a stable order.
var Documents = []Document{DocLists, DocTemplates, DocSettings, DocEvents}

// ParseDocument resolves a document name.
func ParseDocument(name string) (Document, bool) {
	for _, d := range Documents {
		if string(d) == name {
			return d, true
		}
	}
	return "", false
}

const (
	// DefaultNamespace is prepended to every document key.
	DefaultNamespace = "task-flow-"
	// DefaultRetention is the number of snapshots kept.
	DefaultRetention = 5

	backupSuffix = "-backup"
)

// Store is the only component that touches the medium. It holds no state
// between calls besides its configuration.
type Store struct {
	medium    kv.Medium
	namespace string
	retention int
	logger    *slog.Logger
	notifier  Notifier
	now       func() time.Time
	schemas   map[Document]*jsonschema.Schema
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recovery paths.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithNamespace sets the key prefix for documents and snapshots.
func WithNamespace(ns string) Option {
	return func(s *Store) { s.namespace = ns }
}

// WithNotifier sets the receiver of store events.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithRetention sets how many snapshots are kept. Values below 1 are ignored.
func WithRetention(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.retention = n
		}
	}
}

// WithClock overrides time.Now, used for snapshot ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New builds a store over medium.
func New(medium kv.Medium, opts ...Option) (*Store, error) {
	if medium == nil {
		return nil, errors.New("persist: medium is required")
	}
	s := &Store{
		medium:    medium,
		namespace: DefaultNamespace,
		retention: DefaultRetention,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		notifier:  nopNotifier{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	schemas, err := builtinSchemas()
	if err != nil {
		return nil, fmt.Errorf("persist: compile schemas: %w", err)
	}
	s.schemas = schemas
	return s, nil
}

// Key returns the storage key of doc.
func (s *Store) Key(doc Document) string {
	return s.namespace + string(doc)
}

// BackupKey returns the one-generation backup key for key.
func BackupKey(key string) string {
	return key + backupSuffix
}

// Namespace returns the configured key prefix.
func (s *Store) Namespace() string {
	return s.namespace
}

// Medium exposes the underlying medium.
func (s *Store) Medium() kv.Medium {
	return s.medium
}

// documentFor maps a storage key back to its document.
func (s *Store) documentFor(key string) (Document, bool) {
	for _, d := range Documents {
		if s.Key(d) == key {
			return d, true
		}
	}
	return "", false
}
