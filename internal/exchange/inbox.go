package exchange

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Suffixes appended to inbox files once they are processed.
const (
	SuffixImported = ".imported"
	SuffixRejected = ".rejected"
)

const inboxSettle = 200 * time.Millisecond

// ImportFunc imports one file's contents.
type ImportFunc func(data []byte) (ImportResult, error)

// InboxCallback is called after each processed file.
type InboxCallback func(name string, res ImportResult, err error)

// WatchInbox imports every *.json file placed in dir until ctx is
// cancelled. Files already present are processed first. Each file is
// renamed with SuffixImported or SuffixRejected afterwards so it is
// handled once. Events are debounced so that files still being written
// are picked up after they settle.
func WatchInbox(ctx context.Context, dir string, importFn ImportFunc, logger *slog.Logger, cb InboxCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("inbox: watching", slog.String("dir", dir))

	process := func(path string) {
		processInboxFile(path, importFn, logger, cb)
	}

	existing, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	sort.Strings(existing)
	for _, p := range existing {
		process(p)
	}

	pending := make(map[string]struct{})
	var settleTimer *time.Timer
	var settleCh <-chan time.Time
	schedule := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(inboxSettle)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(inboxSettle)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("inbox: stopped")
			return nil

		case <-settleCh:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			for _, p := range paths {
				process(p)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				pending[ev.Name] = struct{}{}
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("inbox: watcher error", slog.String("error", err.Error()))
		}
	}
}

func processInboxFile(path string, importFn ImportFunc, logger *slog.Logger, cb InboxCallback) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Already renamed by an earlier pass.
		if os.IsNotExist(err) {
			return
		}
		logger.Warn("inbox: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	res, importErr := importFn(data)
	suffix := SuffixImported
	if importErr != nil {
		suffix = SuffixRejected
		logger.Warn("inbox: import rejected", slog.String("path", path), slog.String("error", importErr.Error()))
	} else {
		logger.Info("inbox: imported", slog.String("path", path),
			slog.Int("lists", res.ListsImported), slog.Int("templates", res.TemplatesImported))
	}
	if err := os.Rename(path, path+suffix); err != nil {
		logger.Warn("inbox: rename failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	if cb != nil {
		cb(filepath.Base(path), res, importErr)
	}
}
