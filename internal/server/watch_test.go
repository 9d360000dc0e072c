package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnoreEvent(t *testing.T) {
	tests := []struct {
		name   string
		ev     fsnotify.Event
		ignore bool
	}{
		{"markdown write", fsnotify.Event{Name: "/c/a.md", Op: fsnotify.Write}, false},
		{"create", fsnotify.Event{Name: "/c/new.md", Op: fsnotify.Create}, false},
		{"remove", fsnotify.Event{Name: "/c/a.md", Op: fsnotify.Remove}, false},
		{"chmod only", fsnotify.Event{Name: "/c/a.md", Op: fsnotify.Chmod}, true},
		{"chmod with write", fsnotify.Event{Name: "/c/a.md", Op: fsnotify.Chmod | fsnotify.Write}, false},
		{"vim swap", fsnotify.Event{Name: "/c/.a.md.swp", Op: fsnotify.Create}, true},
		{"vim write test file", fsnotify.Event{Name: "/c/4913", Op: fsnotify.Create}, true},
		{"backup", fsnotify.Event{Name: "/c/a.md~", Op: fsnotify.Write}, true},
		{"emacs autosave", fsnotify.Event{Name: "/c/#a.md#", Op: fsnotify.Write}, true},
		{"ds store", fsnotify.Event{Name: "/c/.DS_Store", Op: fsnotify.Write}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.ignore, shouldIgnoreEvent(tt.ev))
		})
	}
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	defer d.Stop()

	for range 10 {
		d.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-d.C():
	case <-time.After(time.Second):
		t.Fatal("no rebuild request")
	}
	select {
	case <-d.C():
		t.Fatal("burst produced more than one request")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncer_Stop(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	d.Trigger()
	d.Stop()
	d.Trigger()

	select {
	case <-d.C():
		t.Fatal("stopped debouncer fired")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatcher_MissingRootIsWatchedOnceCreated(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "templates", "layouts")
	w, err := newWatcher([]string{root})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	require.Equal(t, []string{root}, w.pending)
	require.True(t, w.parents[base])

	// Unrelated changes next to the missing root do not rebuild.
	require.NoError(t, os.WriteFile(filepath.Join(base, "tars.toml"), []byte(""), 0o600))
	require.False(t, w.handle(fsnotify.Event{Name: filepath.Join(base, "tars.toml"), Op: fsnotify.Write}))

	mid := filepath.Join(base, "templates")
	require.NoError(t, os.Mkdir(mid, 0o750))
	require.False(t, w.handle(fsnotify.Event{Name: mid, Op: fsnotify.Create}))
	require.True(t, w.parents[mid])
	require.False(t, w.parents[base])

	require.NoError(t, os.Mkdir(root, 0o750))
	require.True(t, w.handle(fsnotify.Event{Name: root, Op: fsnotify.Create}))
	require.Empty(t, w.pending)
	require.Empty(t, w.parents)
	require.True(t, w.inActive(filepath.Join(root, "page.html")))

	target := filepath.Join(root, "page.html")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o600))
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-w.fs.Events:
			if ev.Name == target {
				require.True(t, w.handle(ev))
				return
			}
		case <-timeout:
			t.Fatal("no event for file in created root")
		}
	}
}
