package kv

import (
	"fmt"
	"io"
	"os"
)

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverFS     = "fs"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the medium named by driver. path is the database file for
// sqlite and the data directory for fs; it is ignored for memory.
// The returned Closer releases the backend and is never nil on success.
func Open(driver, path string, quota int64) (Medium, io.Closer, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(quota), nopCloser{}, nil
	case DriverSQLite:
		db, err := OpenSQLite(path, quota)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case DriverFS:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, nil, fmt.Errorf("kv: create data dir: %w", err)
		}
		fs, err := NewFS(path, quota)
		if err != nil {
			return nil, nil, err
		}
		return fs, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("kv: unknown driver %q", driver)
	}
}
