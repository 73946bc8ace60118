package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/assetdb/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 50 * time.Millisecond

func startWatcher(t *testing.T, root string) *Watcher {
	t.Helper()

	w, err := New(root, WithDebounce(testDebounce))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()

	select {
	case event := <-w.Events():
		return event
	case <-time.After(5 * time.Second):
		t.Fatalf("Expected an event, got none")
		return Event{}
	}
}

func assertQuiet(t *testing.T, w *Watcher) {
	t.Helper()

	select {
	case event := <-w.Events():
		t.Fatalf("Expected no further event, got %v '%s'", event.Kind, event.Path)
	case <-time.After(4 * testDebounce):
	}
}

func TestWatcherCoalescesAssetChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Assets", "Textures"), 0o755))

	w := startWatcher(t, root)

	writeFile(t, root, "Assets/Textures/a.png", "a")
	writeFile(t, root, "Assets/Textures/b.png", "b")
	writeFile(t, root, "Assets/Textures/a.png", "aa")

	event := nextEvent(t, w)
	assert.Equal(t, Event{Kind: AssetsChanged, Path: "Assets/Textures"}, event)
	assertQuiet(t, w)
}

func TestWatcherReportsScriptHeaders(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "EngineScripts"), 0o755))

	w := startWatcher(t, root)

	writeFile(t, root, "EngineScripts/Player.h", "class Player {};")

	event := nextEvent(t, w)
	assert.Equal(t, ScriptsChanged, event.Kind)
	assert.Equal(t, "EngineScripts", event.Path)
}

func TestWatcherIgnoresRegistryOutput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Assets", "Models"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Assets", "Scripts"), 0o755))

	w := startWatcher(t, root)

	writeFile(t, root, "Assets/Models/cube.fbx.meta", "{}")
	writeFile(t, root, "Assets/Models/.cube.fbx.1234.tmp", "x")
	writeFile(t, root, "Assets/Scripts/Player.alienscript", "{}")
	writeFile(t, root, "Library/Models/1.alienModel", "x")
	assertQuiet(t, w)

	writeFile(t, root, "Assets/Models/cube.fbx", "fbx")
	assert.Equal(t, Event{Kind: AssetsChanged, Path: "Assets/Models"}, nextEvent(t, w))
}

func TestWatcherPicksUpNewFolders(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Assets"), 0o755))
	w := startWatcher(t, root)

	// creating an asset root asks for its first reconcile
	require.NoError(t, os.Mkdir(filepath.Join(root, "Assets", "Scenes"), 0o755))
	assert.Equal(t, Event{Kind: AssetsChanged, Path: "Assets/Scenes"}, nextEvent(t, w))

	writeFile(t, root, "Assets/Scenes/main.alienscene", "{}")
	assert.Equal(t, Event{Kind: AssetsChanged, Path: "Assets/Scenes"}, nextEvent(t, w))
}

func TestWatcherClassify(t *testing.T) {
	w := &Watcher{options: &Options{Layout: data.DefaultLayout()}}

	tests := []struct {
		path string
		want Event
		ok   bool
	}{
		{"Assets/Textures/wall.png", Event{AssetsChanged, "Assets/Textures"}, true},
		{"assets/models/sub/cube.obj", Event{AssetsChanged, "Assets/Models"}, true},
		{"Assets/Prefabs", Event{AssetsChanged, "Assets/Prefabs"}, true},
		{"EngineScripts/Enemies/Grunt.hpp", Event{ScriptsChanged, "EngineScripts"}, true},
		{"EngineScripts/notes.md", Event{}, false},
		{"Assets/Textures/wall.png.meta", Event{}, false},
		{"Assets/Scripts/Player.alienscript", Event{}, false},
		{"Assets/readme.txt", Event{}, false},
		{"Library/Textures/1.alienTexture", Event{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			got, ok := w.classify(tc.path)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInvalidDebounce(t *testing.T) {
	_, err := New(t.TempDir(), WithDebounce(0))
	require.ErrorIs(t, err, data.ErrInvalid)
}
