package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/starford/taskflow/internal/apperr"
	"github.com/starford/taskflow/internal/checksum"
	"github.com/starford/taskflow/internal/kv"
)

// FormatVersion is written into snapshots and export files.
const FormatVersion = "1.0.0"

const snapshotIDLen = 13

// Snapshot is a point-in-time bundle of every present document.
type Snapshot struct {
	ID        string                       `json:"id"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Checksum  string                       `json:"checksum"`
	Data      map[Document]json.RawMessage `json:"data"`
}

// SnapshotInfo describes a retained snapshot without its data.
type SnapshotInfo struct {
	ID        string     `json:"id"`
	Key       string     `json:"key"`
	Timestamp time.Time  `json:"timestamp"`
	Documents []Document `json:"documents"`
	Bytes     int        `json:"bytes"`
}

func (s *Store) snapshotPrefix() string {
	return s.namespace + "backup-"
}

// SnapshotKey returns the storage key of snapshot id.
func (s *Store) SnapshotKey(id string) string {
	return s.snapshotPrefix() + id
}

// snapshotIDs returns the retained snapshot ids, oldest first.
func (s *Store) snapshotIDs() ([]string, error) {
	keys, err := kv.KeysWithPrefix(s.medium, s.snapshotPrefix())
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimPrefix(k, s.snapshotPrefix())
		if len(id) != snapshotIDLen {
			continue
		}
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// nextSnapshotID is the current unix millis, bumped past the newest
// existing snapshot so ids strictly increase.
func (s *Store) nextSnapshotID(existing []string) string {
	next := s.now().UnixMilli()
	if n := len(existing); n > 0 {
		last, _ := strconv.ParseInt(existing[n-1], 10, 64)
		if next <= last {
			next = last + 1
		}
	}
	return fmt.Sprintf("%0*d", snapshotIDLen, next)
}

func snapshotChecksum(data map[Document]json.RawMessage) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return checksum.Sum(b), nil
}

// CreateSnapshot bundles every present document under a new snapshot key
// and prunes snapshots beyond the retention limit. Documents whose stored
// value is not valid JSON are left out.
func (s *Store) CreateSnapshot() (string, error) {
	existing, err := s.snapshotIDs()
	if err != nil {
		return "", fmt.Errorf("persist: list snapshots: %w", err)
	}

	snap := Snapshot{
		ID:        s.nextSnapshotID(existing),
		Timestamp: s.now().UTC(),
		Version:   FormatVersion,
		Data:      make(map[Document]json.RawMessage, len(Documents)),
	}
	for _, d := range Documents {
		raw, ok, err := s.medium.Get(s.Key(d))
		if err != nil {
			return "", fmt.Errorf("persist: read %s: %w", d, err)
		}
		if !ok {
			continue
		}
		if !json.Valid([]byte(raw)) {
			s.logger.Warn("skipping malformed document in snapshot", slog.String("key", s.Key(d)))
			continue
		}
		snap.Data[d] = json.RawMessage(raw)
	}
	sum, err := snapshotChecksum(snap.Data)
	if err != nil {
		return "", fmt.Errorf("persist: checksum snapshot: %w", err)
	}
	snap.Checksum = sum

	b, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("persist: encode snapshot: %w", err)
	}
	if err := s.medium.Set(s.SnapshotKey(snap.ID), string(b)); err != nil {
		return "", fmt.Errorf("persist: write snapshot: %w", err)
	}

	all := append(existing, snap.ID)
	for len(all) > s.retention {
		if err := s.medium.Remove(s.SnapshotKey(all[0])); err != nil {
			s.logger.Warn("prune snapshot", slog.String("id", all[0]), slog.String("error", err.Error()))
		}
		all = all[1:]
	}

	s.logger.Info("snapshot created", slog.String("id", snap.ID), slog.Int("documents", len(snap.Data)))
	s.notifier.Notify(Event{Type: EventSnapshotCreated, ID: snap.ID})
	return snap.ID, nil
}

// GetSnapshot reads and verifies snapshot id.
func (s *Store) GetSnapshot(id string) (Snapshot, error) {
	raw, ok, err := s.medium.Get(s.SnapshotKey(id))
	if err != nil {
		return Snapshot{}, fmt.Errorf("persist: read snapshot %s: %w", id, err)
	}
	if !ok {
		return Snapshot{}, fmt.Errorf("persist: snapshot %s: %w", id, apperr.ErrNotFound)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("persist: snapshot %s: %v: %w", id, err, apperr.ErrSnapshotCorrupt)
	}
	b, err := json.Marshal(snap.Data)
	if err != nil || !checksum.Verify(b, snap.Checksum) {
		return Snapshot{}, fmt.Errorf("persist: snapshot %s: checksum mismatch: %w", id, apperr.ErrSnapshotCorrupt)
	}
	return snap, nil
}

// ListSnapshots returns the retained snapshots, newest first. Unreadable
// snapshots are listed with only their id and key.
func (s *Store) ListSnapshots() ([]SnapshotInfo, error) {
	ids, err := s.snapshotIDs()
	if err != nil {
		return nil, fmt.Errorf("persist: list snapshots: %w", err)
	}
	out := make([]SnapshotInfo, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		info := SnapshotInfo{ID: id, Key: s.SnapshotKey(id), Documents: []Document{}}
		raw, ok, err := s.medium.Get(info.Key)
		if err == nil && ok {
			info.Bytes = len(raw)
			var snap Snapshot
			if json.Unmarshal([]byte(raw), &snap) == nil {
				info.Timestamp = snap.Timestamp
				for _, d := range Documents {
					if _, present := snap.Data[d]; present {
						info.Documents = append(info.Documents, d)
					}
				}
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// RestoreSnapshot writes every document in snapshot id back through Save,
// so the values being replaced become the backups. The restore is not
// transactional: a failure partway leaves earlier documents restored.
func (s *Store) RestoreSnapshot(id string) error {
	snap, err := s.GetSnapshot(id)
	if err != nil {
		return err
	}
	var errs []error
	for _, d := range Documents {
		raw, ok := snap.Data[d]
		if !ok {
			continue
		}
		if err := s.Save(s.Key(d), raw); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("persist: restore snapshot %s: %w", id, err)
	}
	s.logger.Info("snapshot restored", slog.String("id", id))
	s.notifier.Notify(Event{Type: EventSnapshotRestored, ID: id})
	return nil
}
