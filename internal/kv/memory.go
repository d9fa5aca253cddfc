package kv

import (
	"sort"
	"sync"
)

// Memory is an in-process Medium. A quota of zero or less disables the limit.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
	used  int64
	quota int64

	// failSet, when set, is consulted before every Set and may veto it.
	failSet func(key, value string) error
}

// NewMemory creates an empty in-memory medium with the given quota in bytes.
func NewMemory(quota int64) *Memory {
	return &Memory{items: make(map[string]string), quota: quota}
}

// Get implements Medium.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

// Set implements Medium.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		if err := m.failSet(key, value); err != nil {
			return err
		}
	}
	var old int64
	if prev, ok := m.items[key]; ok {
		old = entrySize(key, prev)
	}
	next := m.used - old + entrySize(key, value)
	if m.quota > 0 && next > m.quota {
		return quotaError(key, next, m.quota)
	}
	m.items[key] = value
	m.used = next
	return nil
}

// Remove implements Medium.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.items[key]; ok {
		m.used -= entrySize(key, prev)
		delete(m.items, key)
	}
	return nil
}

// Keys implements Medium.
func (m *Memory) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.items))
	for k := range m.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Used implements Sizer.
func (m *Memory) Used() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used, nil
}

// SetQuota changes the quota. Existing entries are kept even when they exceed it.
func (m *Memory) SetQuota(quota int64) {
	m.mu.Lock()
	m.quota = quota
	m.mu.Unlock()
}

// FailSetWith installs a hook that can reject writes; nil removes it.
// Tests use it to inject storage failures.
func (m *Memory) FailSetWith(fn func(key, value string) error) {
	m.mu.Lock()
	m.failSet = fn
	m.mu.Unlock()
}
