package workspace

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lixenwraith/termloop/core"
)

// Watcher turns filesystem events under root into scan requests
type Watcher struct {
	w *fsnotify.Watcher
}

// Watch starts watching root, calling onChange for every event until ctx is done or Close
func Watch(ctx context.Context, root string, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	if err := fw.Add(root); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "watch %s", root)
	}

	w := &Watcher{w: fw}
	core.Go(func() { w.run(ctx, onChange) })
	return w, nil
}

func (w *Watcher) run(ctx context.Context, onChange func()) {
	logger := log.WithField("component", "watcher")

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			logger.WithFields(log.Fields{"path": ev.Name, "op": ev.Op.String()}).Trace("fs event")
			onChange()

		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			logger.WithError(err).Warn("watch error")
		}
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.w.Close()
}
