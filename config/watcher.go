package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/hedisam/actorcell/internal/logging"
)

// Watch reloads path whenever it is written or replaced and hands valid settings to
// onChange. Invalid files are logged and skipped. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory so editors that replace the file are still seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}

	logger := logging.Logger("config")
	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			settings, err := Load(path)
			if err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("ignoring invalid config change")
				continue
			}
			logger.Info().Str("path", path).Msg("config reloaded")
			onChange(settings)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Str("path", path).Msg("config watcher error")
		}
	}
}
