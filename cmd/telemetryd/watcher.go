package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/meshkit/telemetry/pkg/collector"
)

// watchToggleFile watches a kill-switch file: while the file exists the
// collector is disabled, and removing it re-enables collection. The
// watcher runs until ctx is cancelled. Operators touch or delete the file
// to flip collection without restarting the daemon.
func watchToggleFile(ctx context.Context, log *logrus.Logger, path string, c *collector.Collector) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the parent directory so create and remove of the file itself
	// are observed.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	apply := func() {
		_, err := os.Stat(path)
		disabled := err == nil
		if disabled == c.Enabled() {
			c.SetEnabled(!disabled)
			if disabled {
				log.Warnf("Kill switch present at %s, collection disabled", path)
			} else {
				log.Infof("Kill switch removed, collection enabled")
			}
		}
	}
	apply()

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) == filepath.Clean(path) {
					apply()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("Toggle watcher error: %v", err)
			}
		}
	}()

	log.Infof("Watching kill-switch file %s", path)
	return nil
}
