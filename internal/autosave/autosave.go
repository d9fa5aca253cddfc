// Package autosave periodically re-saves the in-memory workspace state.
package autosave

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/taskflow/internal/persist"
)

// DefaultInterval between periodic saves.
const DefaultInterval = 30 * time.Second

// StateSource provides the state to persist.
type StateSource interface {
	State() persist.State
}

// StateSaver writes a full state.
type StateSaver interface {
	SaveState(persist.State) error
}

// Saver runs the periodic save loop.
type Saver struct {
	src      StateSource
	dst      StateSaver
	interval time.Duration
	logger   *slog.Logger
}

// New creates a saver. A non-positive interval uses DefaultInterval.
func New(src StateSource, dst StateSaver, interval time.Duration, logger *slog.Logger) *Saver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Saver{src: src, dst: dst, interval: interval, logger: logger}
}

// Flush saves the current state once.
func (s *Saver) Flush() error {
	return s.dst.SaveState(s.src.State())
}

// Run saves on every tick until ctx is cancelled, then performs one final
// synchronous save and returns its error.
func (s *Saver) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("autosave: started", slog.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			err := s.Flush()
			if err != nil {
				s.logger.Error("autosave: final save failed", slog.String("error", err.Error()))
			} else {
				s.logger.Info("autosave: final save done")
			}
			return err

		case <-ticker.C:
			if err := s.Flush(); err != nil {
				s.logger.Warn("autosave: save failed", slog.String("error", err.Error()))
				continue
			}
			s.logger.Debug("autosave: saved")
		}
	}
}
