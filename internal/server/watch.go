package server

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the routes when the manifest, or a script next to it,
// changes. Bursts of events within the configured debounce interval cause a
// single reload. Watch blocks until ctx is done.
func (s *Server) Watch(ctx context.Context) error {
	manifestPath, err := filepath.Abs(s.cfg.Routes.File)
	if err != nil {
		return fmt.Errorf("server: watch %s: %w", s.cfg.Routes.File, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("server: create watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory so editors that replace the file by rename are seen.
	dir := filepath.Dir(manifestPath)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("server: watch %s: %w", dir, err)
	}

	debounce := s.cfg.Routes.Debounce.Duration
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	s.logger.Debug("watching routes", "file", manifestPath, "debounce", debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, manifestPath) {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			// Reload logs its own failures.
			_ = s.Reload()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("route watcher error", "error", err)
		}
	}
}

func relevant(ev fsnotify.Event, manifestPath string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	return name == manifestPath || strings.EqualFold(filepath.Ext(name), ".lua")
}
