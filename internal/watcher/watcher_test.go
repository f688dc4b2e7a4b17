package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_PublishesDebouncedChange(t *testing.T) {
	root := t.TempDir()
	seriesDir := filepath.Join(root, "study-1", "axial")
	require.NoError(t, os.MkdirAll(seriesDir, 0755))

	w, err := New(Config{Root: root, DebounceDur: 50 * time.Millisecond})
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := w.Broker().Subscribe(ctx)

	require.NoError(t, w.Start())

	// Burst of writes should collapse into one notification
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(seriesDir, "slice_001.dcm"), []byte("x"), 0644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case ev := <-ch:
		require.Equal(t, FileSetChanged, ev.Payload.Type)
	case <-time.After(2 * time.Second):
		require.Fail(t, "timeout waiting for change event")
	}

	// No second event should follow the single debounced burst
	select {
	case ev := <-ch:
		require.Fail(t, "unexpected extra event", "%v", ev)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_StartFailsOnMissingRoot(t *testing.T) {
	w, err := New(DefaultConfig(filepath.Join(t.TempDir(), "nope")))
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	require.Error(t, w.Start())
}
