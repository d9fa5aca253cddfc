package kv

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const fileExt = ".json"

// FS is a Medium storing one file per key inside a directory.
type FS struct {
	root  string // absolute path to the data directory
	quota int64

	// mu serialises writes so the quota scan and the rename do not interleave.
	mu sync.Mutex
}

// NewFS creates a medium rooted at dir. The directory must already exist.
func NewFS(dir string, quota int64) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("kv: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("kv: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("kv: root is not a directory: %s", abs)
	}
	return &FS{root: abs, quota: quota}, nil
}

// Root returns the absolute data directory.
func (f *FS) Root() string { return f.root }

// filePath maps a key to a file name that cannot escape the root:
// PathEscape encodes every separator.
func (f *FS) filePath(key string) (string, error) {
	if key == "" {
		return "", errors.New("kv: empty key")
	}
	return filepath.Join(f.root, url.PathEscape(key)+fileExt), nil
}

// Get implements Medium.
func (f *FS) Get(key string) (string, bool, error) {
	p, err := f.filePath(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set implements Medium: tmp file -> fsync -> rename.
func (f *FS) Set(key, value string) error {
	p, err := f.filePath(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.quota > 0 {
		sizes, err := f.sizes()
		if err != nil {
			return err
		}
		var others int64
		for k, n := range sizes {
			if k != key {
				others += n
			}
		}
		if need := others + entrySize(key, value); need > f.quota {
			return quotaError(key, need, f.quota)
		}
	}

	tmp, err := os.CreateTemp(f.root, ".taskflow-tmp-*")
	if err != nil {
		return fmt.Errorf("kv: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(value); err != nil {
		return fmt.Errorf("kv: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("kv: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kv: close temp: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("kv: rename: %w", err)
	}
	success = true
	return nil
}

// Remove implements Medium.
func (f *FS) Remove(key string) error {
	p, err := f.filePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("kv: remove %s: %w", key, err)
	}
	return nil
}

// Keys implements Medium.
func (f *FS) Keys() ([]string, error) {
	sizes, err := f.sizes()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(sizes))
	for k := range sizes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Used implements Sizer.
func (f *FS) Used() (int64, error) {
	sizes, err := f.sizes()
	if err != nil {
		return 0, err
	}
	var n int64
	for _, s := range sizes {
		n += s
	}
	return n, nil
}

// sizes returns the quota cost of every stored key.
func (f *FS) sizes() (map[string]int64, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("kv: list: %w", err)
	}
	out := make(map[string]int64, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, fileExt))
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("kv: stat %s: %w", name, err)
		}
		out[key] = int64(len(key)) + info.Size()
	}
	return out, nil
}
