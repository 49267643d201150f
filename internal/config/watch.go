package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch reloads filePath whenever it is written or replaced and passes each
// valid configuration to onChange. Invalid or unreadable files are logged and
// skipped. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file so that editors which
// save by rename are still picked up.
func Watch(ctx context.Context, filePath string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating config watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(filePath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("error watching %s: %w", filePath, err)
	}
	log.Info().Str("path", target).Msg("watching configuration")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			cfg, err := Load(target)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				log.Warn().Err(err).Str("path", target).Msg("ignoring config change")
				continue
			}
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}
