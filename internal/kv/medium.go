// Package kv defines the string-keyed storage medium the persistence store writes to.
package kv

import (
	"fmt"
	"sort"
	"strings"

	"github.com/starford/taskflow/internal/apperr"
)

// DefaultQuota mirrors the typical per-origin browser storage budget.
const DefaultQuota int64 = 5 << 20

// Medium is a synchronous, string-keyed key-value store with a finite quota.
// Implementations must be safe for concurrent use; writes are last-write-wins.
type Medium interface {
	// Get returns the value stored at key and whether it exists.
	Get(key string) (string, bool, error)
	// Set stores value at key, returning an error wrapping
	// apperr.ErrQuotaExceeded when the write would not fit.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// Keys returns every stored key in lexicographic order.
	Keys() ([]string, error)
}

// Sizer is implemented by media that can report their current usage in bytes.
type Sizer interface {
	Used() (int64, error)
}

// entrySize is the quota cost of one entry.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}

func quotaError(key string, need, quota int64) error {
	return fmt.Errorf("kv: set %s: %d bytes needed, quota %d: %w", key, need, quota, apperr.ErrQuotaExceeded)
}

// KeysWithSuffix returns the keys of m that end in suffix, sorted.
func KeysWithSuffix(m Medium, suffix string) ([]string, error) {
	return filterKeys(m, func(k string) bool { return strings.HasSuffix(k, suffix) })
}

// KeysWithPrefix returns the keys of m that start with prefix, sorted.
func KeysWithPrefix(m Medium, prefix string) ([]string, error) {
	return filterKeys(m, func(k string) bool { return strings.HasPrefix(k, prefix) })
}

func filterKeys(m Medium, keep func(string) bool) ([]string, error) {
	keys, err := m.Keys()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if keep(k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}
