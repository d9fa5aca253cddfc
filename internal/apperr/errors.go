// Package apperr holds the sentinel errors shared across taskflow packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrQuotaExceeded is returned by a medium when a write would exceed its quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
	ErrInvalidImport   = errors.New("invalid import")
	ErrInvalidDocument = errors.New("invalid document")
)
