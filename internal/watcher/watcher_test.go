package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/triad/internal/watcher"
)

func startWatcher(t *testing.T, paths ...string) <-chan string {
	t.Helper()
	w, err := watcher.New(watcher.Config{
		Paths:       paths,
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return onChange
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	script := filepath.Join(t.TempDir(), "script.tally")
	require.NoError(t, os.WriteFile(script, []byte("show\n"), 0o644))

	onChange := startWatcher(t, script)

	// Rapid writes should coalesce into a single notification
	for i := range 10 {
		require.NoError(t, os.WriteFile(script, []byte(fmt.Sprintf("add a %d\n", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case path := <-onChange:
		abs, err := filepath.Abs(script)
		require.NoError(t, err)
		require.Equal(t, abs, path)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "script.tally")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(script, []byte("show\n"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0o644))

	onChange := startWatcher(t, script)

	require.NoError(t, os.WriteFile(other, []byte("changed"), 0o644))

	select {
	case <-onChange:
		t.Fatal("should not notify for unrelated files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_NoticesRecreatedFile(t *testing.T) {
	script := filepath.Join(t.TempDir(), "script.tally")
	require.NoError(t, os.WriteFile(script, []byte("show\n"), 0o644))

	onChange := startWatcher(t, script)

	// Editors often save by writing a temp file and renaming it over the target.
	tmp := script + ".swp"
	require.NoError(t, os.WriteFile(tmp, []byte("add a\n"), 0o644))
	require.NoError(t, os.Rename(tmp, script))

	select {
	case <-onChange:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected notification for replaced file")
	}
}

func TestWatcher_Stop(t *testing.T) {
	script := filepath.Join(t.TempDir(), "script.tally")
	require.NoError(t, os.WriteFile(script, []byte("show\n"), 0o644))

	w, err := watcher.New(watcher.DefaultConfig(script))
	require.NoError(t, err)
	_, err = w.Start()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop())
		assert.NoError(t, w.Stop(), "second Stop is a no-op")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestNew_RequiresPaths(t *testing.T) {
	_, err := watcher.New(watcher.Config{})
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("a.tally", "b.tally")

	assert.Equal(t, []string{"a.tally", "b.tally"}, cfg.Paths)
	assert.Equal(t, 200*time.Millisecond, cfg.DebounceDur)
}
