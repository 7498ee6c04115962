package i18n

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads bundles whenever a bundle file in dir changes. It returns once
// the watch is registered; the watch stops when ctx is done.
func (l *Localizer) Watch(ctx context.Context, dir string) error {
	if dir == "" {
		return fmt.Errorf("bundles dir required")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	l.mu.Lock()
	changed := l.overrideDir != dir
	l.overrideDir = dir
	l.mu.Unlock()
	if changed {
		if err := l.Reload(); err != nil {
			l.logger.Errorw("initial bundle load failed", "dir", dir, "error", err)
		}
	}

	l.logger.Infow("watching translation bundles", "dir", dir)
	go l.watchLoop(ctx, watcher)
	return nil
}

func (l *Localizer) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	timer := time.NewTimer(reloadDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !isBundleFile(filepath.Base(event.Name)) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(reloadDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warnw("bundle watcher error", "error", err)
		case <-timer.C:
			if err := l.Reload(); err != nil {
				l.logger.Errorw("bundle reload failed, keeping previous bundles", "error", err)
			}
		}
	}
}
