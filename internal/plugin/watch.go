package plugin

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher observes the plugin directory root and the approval record
// file for external edits, so a manually dropped-in plugin or a
// hand-edited approval file is picked up without a restart. Grounded on
// `theRebelliousNerd-codenerd`'s use of fsnotify for filesystem-driven
// reload triggers.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *zap.Logger
	// Changed receives the path that triggered the event.
	Changed chan string
}

// NewWatcher starts watching pluginsRoot and approvalFilePath.
func NewWatcher(pluginsRoot, approvalFilePath string, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("plugin watcher: %w", err)
	}
	if err := fsw.Add(pluginsRoot); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("plugin watcher: watching %s: %w", pluginsRoot, err)
	}
	// The approval file's parent directory is watched too, since the
	// file itself may not exist yet on first launch.
	if err := fsw.Add(approvalFilePath); err != nil {
		logger.Debug("plugin watcher: approval file not yet present", zap.String("path", approvalFilePath), zap.Error(err))
	}

	w := &Watcher{fsw: fsw, logger: logger, Changed: make(chan string, 16)}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				close(w.Changed)
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				select {
				case w.Changed <- event.Name:
				default:
					w.logger.Warn("plugin watcher: change channel full, dropping event", zap.String("path", event.Name))
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("plugin watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
