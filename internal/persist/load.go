package persist

import (
	"encoding/json"
	"errors"
	"log/slog"
)

var errNull = errors.New("null value")

// Load reads the document at key, falling back to its backup and then to
// def. It never fails: a missing key, a read error, malformed JSON, a value
// that does not match the document schema, or one that cannot be decoded
// into T all end in a fallback. The settings document is deep-merged into
// def so that fields added since the value was stored get their defaults.
func Load[T any](s *Store, key string, def T) T {
	raw, ok, err := s.medium.Get(key)
	if err != nil {
		s.logger.Warn("read failed, using default", slog.String("key", key), slog.String("error", err.Error()))
		return def
	}
	if !ok {
		return def
	}

	v, err := decode(s, key, raw, def)
	if err == nil {
		return v
	}
	if errors.Is(err, errNull) {
		return def
	}
	s.logger.Warn("stored value unusable, trying backup", slog.String("key", key), slog.String("error", err.Error()))

	braw, ok, berr := s.medium.Get(BackupKey(key))
	if berr != nil || !ok {
		s.logger.Warn("no backup available, using default", slog.String("key", key))
		return def
	}
	v, err = decode(s, key, braw, def)
	if err != nil {
		s.logger.Warn("backup unusable, using default", slog.String("key", key), slog.String("error", err.Error()))
		return def
	}
	s.logger.Info("recovered from backup", slog.String("key", key))
	return v
}

// decode parses raw for key into a T.
func decode[T any](s *Store, key, raw string, def T) (T, error) {
	var zero T
	tree, err := s.parse(key, raw)
	if err != nil {
		return zero, err
	}

	if doc, ok := s.documentFor(key); ok && doc == DocSettings {
		if stored, ok := tree.(map[string]any); ok {
			if base, err := toTree(def); err == nil {
				if baseMap, ok := base.(map[string]any); ok {
					tree = DeepMerge(baseMap, stored)
				}
			}
		}
	}

	b, err := json.Marshal(tree)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// parse turns raw into a generic JSON tree, unwraps the bulk-write
// envelope and checks the tree against the document schema when key
// belongs to a known document.
func (s *Store) parse(key, raw string) (any, error) {
	var tree any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, errNull
	}
	tree = unwrapEnvelope(tree)
	if doc, ok := s.documentFor(key); ok {
		if err := s.schemas[doc].Validate(tree); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// unwrapEnvelope strips a {data, timestamp, version} wrapper.
func unwrapEnvelope(tree any) any {
	m, ok := tree.(map[string]any)
	if !ok || len(m) != 3 {
		return tree
	}
	data, hasData := m["data"]
	_, hasTS := m["timestamp"]
	_, hasVersion := m["version"]
	if hasData && hasTS && hasVersion {
		return data
	}
	return tree
}

func toTree(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}
