package registry

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher hot-reloads an endpoints file into the store whenever it
// changes on disk. The containing directory is watched rather than the
// file itself so editors that replace the file atomically still trigger
// a reload.
type Watcher struct {
	fw   *fsnotify.Watcher
	path string
}

// WatchFile starts watching the endpoints file at path, applying it to
// the store on every write. Reload failures are logged and leave the
// store unchanged.
func WatchFile(path string, store *Store, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{fw: fw, path: abs}
	go w.run(store, logger)
	return w, nil
}

func (w *Watcher) run(store *Store, logger *zap.Logger) {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			seeds, err := LoadFile(w.path)
			if err != nil {
				logger.Error("endpoints_reload_failed",
					zap.String("file", w.path),
					zap.Error(err),
				)
				continue
			}
			added, updated := store.ApplySeeds(seeds)
			logger.Info("endpoints_reloaded",
				zap.String("file", w.path),
				zap.Int("added", added),
				zap.Int("updated", updated),
			)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logger.Error("endpoints_watch_error", zap.Error(err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
