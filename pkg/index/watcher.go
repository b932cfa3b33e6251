package index

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/Tibsfox/gsd-skill-creator-sub001/pkg/logger"
)

// defaultDebounce coalesces bursts of file events (editors often write a
// file several times in quick succession) into a single refresh.
const defaultDebounce = 500 * time.Millisecond

// Watcher refreshes an index when skill files change on disk, so staleness
// is reconciled as it happens instead of waiting for the next read.
type Watcher struct {
	index    *Index
	dirs     []string
	debounce time.Duration

	// invoked after each refresh; tests use it to observe debouncing
	onRefresh func()
}

// NewWatcher creates a watcher over the given skill directories.
func NewWatcher(ix *Index, dirs ...string) *Watcher {
	return &Watcher{
		index:    ix,
		dirs:     dirs,
		debounce: defaultDebounce,
	}
}

// Watch blocks until ctx is done, refreshing the index after each debounced
// burst of file events under the watched directories.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			logger.G(ctx).WithError(err).WithField("dir", dir).
				Debug("Cannot watch skill directory")
		}
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if strings.HasSuffix(event.Name, ".tmp") {
				continue
			}
			logger.G(ctx).WithFields(map[string]interface{}{
				"file":      event.Name,
				"operation": event.Op.String(),
			}).Debug("Skill file change detected")

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.index.Refresh(ctx); err != nil {
				logger.G(ctx).WithError(err).Error("Failed to refresh skill index after file change")
			}
			if w.onRefresh != nil {
				w.onRefresh()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Error("Skill directory watcher error")

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
