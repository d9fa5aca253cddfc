package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/taskflow/internal/apperr"
	"github.com/starford/taskflow/internal/kv"
)

// Save serializes value as JSON and writes it to key, first copying the
// current value to the backup key. When the medium is full every backup is
// evicted and the write is retried once without a backup copy. A failed
// retry returns an error wrapping apperr.ErrQuotaExceeded; other documents
// are left as they were.
func (s *Store) Save(key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("persist: encode %s: %w", key, err)
	}
	data := string(b)

	err = s.writeWithBackup(key, data)
	if errors.Is(err, apperr.ErrQuotaExceeded) {
		s.logger.Warn("quota exceeded, evicting backups", slog.String("key", key), slog.Int("bytes", len(b)))
		if evictErr := s.evictBackups(); evictErr != nil {
			s.logger.Warn("evict backups", slog.String("error", evictErr.Error()))
		}
		err = s.medium.Set(key, data)
	}
	if err != nil {
		return fmt.Errorf("persist: save %s: %w", key, err)
	}

	s.logger.Debug("document saved", slog.String("key", key), slog.Int("bytes", len(b)))
	s.notifier.Notify(Event{Type: EventDocumentSaved, Key: key, ByteSize: len(b)})
	return nil
}

func (s *Store) writeWithBackup(key, data string) error {
	prev, ok, err := s.medium.Get(key)
	if err != nil {
		return err
	}
	if ok {
		if err := s.medium.Set(BackupKey(key), prev); err != nil {
			return err
		}
	}
	return s.medium.Set(key, data)
}

// evictBackups removes every key ending in the backup suffix.
func (s *Store) evictBackups() error {
	keys, err := kv.KeysWithSuffix(s.medium, backupSuffix)
	if err != nil {
		return err
	}
	var errs []error
	for _, k := range keys {
		if err := s.medium.Remove(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
