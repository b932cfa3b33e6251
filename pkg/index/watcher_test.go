package index

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startWatcher runs w.Watch in the background and returns the channel its
// result lands on. A short sleep gives fsnotify time to register the
// directories before the test starts mutating them.
func startWatcher(t *testing.T, ctx context.Context, w *Watcher) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx)
	}()
	time.Sleep(100 * time.Millisecond)
	return done
}

func TestWatcherAdoptsNewSkill(t *testing.T) {
	skillDir := t.TempDir()
	writeSkill(t, skillDir, "alpha", "First skill", "")

	ix := loadedIndex(t, skillDir)

	w := NewWatcher(ix, skillDir)
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := startWatcher(t, ctx, w)

	writeSkill(t, skillDir, "newcomer", "Added while watching", "")

	require.Eventually(t, func() bool {
		ix.mu.RLock()
		defer ix.mu.RUnlock()
		_, ok := ix.byName["newcomer"]
		return ok
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	skillDir := t.TempDir()
	writeSkill(t, skillDir, "alpha", "First skill", "")

	ix := loadedIndex(t, skillDir)

	var refreshes atomic.Int32
	w := NewWatcher(ix, skillDir)
	w.debounce = 200 * time.Millisecond
	w.onRefresh = func() { refreshes.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startWatcher(t, ctx, w)

	// A burst of changes inside one debounce window settles into a single
	// refresh.
	writeSkill(t, skillDir, "one", "Burst skill", "")
	time.Sleep(20 * time.Millisecond)
	writeSkill(t, skillDir, "two", "Burst skill", "")
	time.Sleep(20 * time.Millisecond)
	writeSkill(t, skillDir, "three", "Burst skill", "")

	require.Eventually(t, func() bool {
		return refreshes.Load() == 1
	}, 3*time.Second, 20*time.Millisecond)

	// All three changes landed in that one refresh.
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	assert.Len(t, ix.entries, 4)
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestWatcherIgnoresTempFiles(t *testing.T) {
	skillDir := t.TempDir()
	writeSkill(t, skillDir, "alpha", "First skill", "")

	ix := loadedIndex(t, skillDir)

	var refreshes atomic.Int32
	w := NewWatcher(ix, skillDir)
	w.debounce = 50 * time.Millisecond
	w.onRefresh = func() { refreshes.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	startWatcher(t, ctx, w)

	// The index's own save writes a .tmp next to the data; events for it
	// must not trigger a refresh loop.
	tmpPath := filepath.Join(skillDir, "index.json.tmp")
	require.NoError(t, os.WriteFile(tmpPath, []byte("scratch"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), refreshes.Load())
}
