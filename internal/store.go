package internal

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/taskflow/internal/kv"
	"github.com/starford/taskflow/internal/persist"
)

// NewLogger returns a JSON logger writing to w at the given level.
func NewLogger(level slog.Level, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// OpenStore opens the configured medium and builds a store on it. The
// returned Closer releases the medium.
func OpenStore(cfg *Config, logger *slog.Logger, opts ...persist.Option) (*persist.Store, io.Closer, error) {
	medium, closer, err := kv.Open(cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.QuotaBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("open medium: %w", err)
	}

	base := []persist.Option{
		persist.WithLogger(logger),
		persist.WithNamespace(cfg.Storage.Namespace),
		persist.WithRetention(cfg.Persistence.SnapshotRetention),
	}
	store, err := persist.New(medium, append(base, opts...)...)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return store, closer, nil
}
