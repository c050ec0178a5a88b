package schemaver

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hlop3z/schemaver/internal/alerr"
)

// watchDebounce coalesces the burst of writes a single transaction makes
// to the database file and its journal.
var watchDebounce = 200 * time.Millisecond

// Watch calls fn once, then again whenever the SQLite database file at path
// (or its -wal/-journal companions) changes. It returns when ctx is done or
// fn fails.
func Watch(ctx context.Context, path string, fn func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return alerr.Wrap(alerr.ErrConfig, err, "failed to start file watcher")
	}
	defer watcher.Close()

	dir, base := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		return alerr.Wrap(alerr.ErrConfig, err, "failed to watch directory").With("dir", dir)
	}

	if err := fn(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				timer.Reset(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return alerr.Wrap(alerr.ErrConfig, err, "file watcher failed").With("path", path)
		case <-timer.C:
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}

// Poll calls fn once, then every interval until ctx is done or fn fails.
// It serves databases without a local file to watch.
func Poll(ctx context.Context, interval time.Duration, fn func(context.Context) error) error {
	if interval <= 0 {
		return alerr.New(alerr.ErrConfig, "poll interval must be positive")
	}
	if err := fn(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}
