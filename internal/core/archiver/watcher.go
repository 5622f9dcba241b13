package archiver

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/perflog/internal/infra/fswatch"
)

// Watcher is an active directory watch.
type Watcher interface {
	Close() error
}

// WatcherFactory creates a watch on dir that calls onChange for every
// write notification.
type WatcherFactory interface {
	NewWatcher(dir string, onChange func(path string), logger *slog.Logger) (Watcher, error)
}

// FSNotifyFactory watches directories with fsnotify.
type FSNotifyFactory struct{}

// NewWatcher implements WatcherFactory.
func (FSNotifyFactory) NewWatcher(dir string, onChange func(string), logger *slog.Logger) (Watcher, error) {
	w, err := fswatch.New(fswatch.WithOps(fsnotify.Write), fswatch.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := w.WatchDir(dir); err != nil {
		w.Stop()
		return nil, err
	}
	w.OnChange(onChange)
	w.StartAsync()
	return fswatchCloser{w}, nil
}

type fswatchCloser struct {
	w *fswatch.Watcher
}

func (c fswatchCloser) Close() error {
	return c.w.Stop()
}
