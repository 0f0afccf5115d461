package filestore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch calls fn after the file changes, once per burst of changes, until ctx
// is done. The parent directory is watched so atomic replacements and
// re-creations are seen. Watch blocks; run it in its own goroutine.
//
// Nothing is cached, so fn typically just re-reads the fields it cares about.
func (s *Store) Watch(ctx context.Context, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("filestore: create watcher: %w", err)
	}
	defer w.Close()

	target, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("filestore: resolve %s: %w", s.path, err)
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("filestore: watch %s: %w", filepath.Dir(target), err)
	}
	s.logger.Debug("watching config file", zap.String("path", target))

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.debounce, func() {
				if ctx.Err() != nil {
					return
				}
				s.logger.Debug("config file changed", zap.String("path", target))
				fn()
			})
			mu.Unlock()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("config watcher error", zap.String("path", target), zap.Error(err))
		}
	}
}
