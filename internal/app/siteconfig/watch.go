package siteconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce coalesces the burst of events editors produce for one save.
const watchDebounce = 150 * time.Millisecond

// Watch reloads the file whenever it changes until ctx is done. The parent
// directory is watched so atomic renames (write temp, rename over) are seen.
// A reload that fails is logged and the previous snapshot kept.
func (p *FileProvider) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("siteconfig: watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(p.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("siteconfig: watch %s: %w", dir, err)
	}
	p.logger.Info("watching site config", zap.String("path", p.path))

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != p.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(watchDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("site config watcher error", zap.Error(err))

		case <-timer.C:
			if _, err := p.Reload(); err != nil {
				p.logger.Warn("site config reload failed; keeping previous", zap.String("path", p.path), zap.Error(err))
			}
		}
	}
}
