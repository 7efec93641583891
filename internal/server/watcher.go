package server

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher could not start.
var ErrWatcherFailed = errors.New("failed to start document watcher")

// Watcher invalidates the report source when the pattern document changes
// on disk. It watches the parent directory because a merge replaces the
// file via rename, which would drop a watch on the file itself.
type Watcher struct {
	source  *Source
	watcher *fsnotify.Watcher
	docPath string
	logger  *zap.Logger
}

// NewWatcher creates a watcher for the source's document path.
func NewWatcher(source *Source, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	if err := w.Add(filepath.Dir(source.docPath)); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	return &Watcher{
		source:  source,
		watcher: w,
		docPath: source.docPath,
		logger:  logger,
	}, nil
}

// Start runs the event loop until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.docPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Info("pattern document changed, invalidating report cache",
				zap.String("document", w.docPath),
				zap.String("op", event.Op.String()),
			)
			w.source.Invalidate()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("document watcher error", zap.Error(err))
		}
	}
}
