package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/dusk/pkg/core"
)

type watchWorker struct {
	storage   *Storage
	pattern   string
	events    chan core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
}

// Watch reports changes to keys matching pattern (doublestar syntax,
// matched against the key, not the file name). Changes that leave a key
// exactly as this Storage last wrote it are not reported. The channel
// closes when ctx is cancelled.
func (s *Storage) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("fs: invalid watch pattern %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fs: create watcher: %w", err)
	}
	if err := watcher.Add(s.Path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("fs: watch %s: %w", s.Path, err)
	}

	w := &watchWorker{
		storage:   s,
		pattern:   pattern,
		events:    make(chan core.Event, 16),
		watcher:   watcher,
		debouncer: newDebouncer(s.config.Debounce),
	}
	s.setWatching(1)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		w.report(fmt.Errorf("watcher stopped: %w", err))
	}))
	return w.events, nil
}

// run is the main event loop.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.storage.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer close(w.events)
	defer w.storage.setWatching(-1)
	defer w.watcher.Close()

	if err = w.loop(ctx); err != nil {
		w.report(err)
	}

	// Debounced deliveries must finish before the channel closes.
	w.debouncer.stopAndWait(5 * time.Second)
	return err
}

func (w *watchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.process(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.report(wErr)
		}
	}
}

// process filters, maps and debounces one filesystem event.
func (w *watchWorker) process(ctx context.Context, event fsnotify.Event) bool {
	w.storage.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	key, ok := w.keyOf(event.Name)
	if !ok {
		return false
	}
	eType := mapEventType(event)
	if eType == "" {
		return false
	}

	w.storage.recordEvent()
	w.debouncer.add(core.Event{
		Type:      eType,
		Key:       key,
		Timestamp: time.Now().Unix(),
	}, func(e core.Event) {
		// The channel may already be closed if the loop panicked.
		defer func() { _ = recover() }()
		if w.storage.isOwnChange(e.Key) {
			w.storage.recordSuppressed()
			w.storage.config.Logger.Debug("own write, event dropped", "key", e.Key)
			return
		}
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
	return true
}

// keyOf maps a file path back to its storage key and applies the pattern.
func (w *watchWorker) keyOf(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, TempFilePrefix) || !strings.HasSuffix(base, Extension) {
		return "", false
	}
	key := strings.TrimSuffix(base, Extension)
	if core.ValidateKey(key) != nil {
		return "", false
	}
	matched, err := doublestar.Match(w.pattern, key)
	if err != nil || !matched {
		return "", false
	}
	return key, true
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

func (w *watchWorker) report(err error) {
	w.storage.config.Logger.Error("fsnotify error", "error", err)
	if w.storage.config.ErrorHandler != nil {
		w.storage.config.ErrorHandler(err)
	}
}
