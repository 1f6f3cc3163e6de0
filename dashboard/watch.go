package dashboard

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// watchDataset invalidates the cached table whenever the dataset file is
// written, created or renamed into place. The parent directory is watched so
// editors that replace the file atomically are still seen.
func (s *Server) watchDataset(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("dashboard: create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	path := s.explorer.Path()
	target, err := filepath.Abs(path)
	if err != nil {
		target = filepath.Clean(path)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Warn("[dashboard] Not watching %s: %v", path, err)
		<-ctx.Done()
		return nil
	}
	s.logger.Info("[dashboard] Watching %s for changes", path)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDatasetEvent(event, target) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				s.logger.Info("[dashboard] %s changed, reloading on next request", path)
				s.cache.Invalidate(path)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("[dashboard] Watcher error: %v", err)
		}
	}
}

func isDatasetEvent(event fsnotify.Event, target string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		name = filepath.Clean(event.Name)
	}
	return name == target
}
