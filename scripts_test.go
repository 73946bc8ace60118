package assetdb

import (
	"testing"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHeaders(t *testing.T, fsys storage.FileSystem, names ...string) {
	t.Helper()

	for _, name := range names {
		content := "#pragma once\nclass GAME_API " + name + " : public Script {};\n"
		require.NoError(t, fsys.WriteFile("EngineScripts/"+name+".h", []byte(content)))
	}
}

func TestReloadScriptsMarkAndSweep(t *testing.T) {
	fsys := newTestFileSystem(t)
	writeHeaders(t, fsys, "Player", "Enemy", "Door")

	reg := newTestRegistry(t, fsys)
	report := reg.ReloadScripts(t.Context())
	require.Len(t, report.Added, 3)
	require.Len(t, reg.List(data.KindScript), 3)

	door, ok := reg.GetByPath("Assets/Scripts/Door.alienscript")
	require.True(t, ok)
	script, ok := door.Script()
	require.True(t, ok)
	assert.Equal(t, "EngineScripts/Door.h", script.HeaderPath)
	assert.Equal(t, []string{"Door"}, script.DataStructures)
	doorLibrary := door.LibraryPath
	require.True(t, storage.Exists(fsys, doorLibrary))

	require.NoError(t, fsys.Remove("EngineScripts/Door.h"))

	report = reg.ReloadScripts(t.Context())
	assert.Equal(t, []string{"Assets/Scripts/Door.alienscript"}, report.Removed)
	assert.Len(t, report.Loaded, 2)

	scripts := reg.List(data.KindScript)
	require.Len(t, scripts, 2)
	assert.Equal(t, "Assets/Scripts/Enemy.alienscript", scripts[0].AssetPath)
	assert.Equal(t, "Assets/Scripts/Player.alienscript", scripts[1].AssetPath)

	_, ok = reg.GetByID(door.ID)
	assert.False(t, ok)
	assert.False(t, storage.Exists(fsys, "Assets/Scripts/Door.alienscript"))
	assert.False(t, storage.Exists(fsys, "Assets/Scripts/Door.alienscript.meta"))
	assert.False(t, storage.Exists(fsys, doorLibrary))
	require.NoError(t, reg.Verify())
}

func TestReloadScriptsRegeneratesChangedSignature(t *testing.T) {
	fsys := newTestFileSystem(t)
	writeHeaders(t, fsys, "Player")

	reg := newTestRegistry(t, fsys)
	reg.ReloadScripts(t.Context())

	player, ok := reg.GetByPath("Assets/Scripts/Player.alienscript")
	require.True(t, ok)
	before, _ := player.Script()
	signature := before.Signature

	header := "class GAME_API Player : public Script {};\nstruct GAME_API PlayerState {};\n"
	require.NoError(t, fsys.WriteFile("EngineScripts/Player.h", []byte(header)))

	report := reg.ReloadScripts(t.Context())
	assert.Equal(t, []string{"Assets/Scripts/Player.alienscript"}, report.Reimported)

	after, ok := reg.GetByPath("Assets/Scripts/Player.alienscript")
	require.True(t, ok)
	assert.Same(t, player, after)
	assert.Equal(t, player.ID, after.ID)

	script, ok := after.Script()
	require.True(t, ok)
	assert.NotEqual(t, signature, script.Signature)
	assert.Equal(t, []string{"Player", "PlayerState"}, script.DataStructures)

	// the script asset describes the new header
	content, err := fsys.ReadFile("Assets/Scripts/Player.alienscript")
	require.NoError(t, err)
	assert.Contains(t, string(content), "PlayerState")
}

func TestReloadScriptsSweepsUntrackedRecords(t *testing.T) {
	fsys := newTestFileSystem(t)
	writeHeaders(t, fsys, "Player", "Enemy")

	reg := newTestRegistry(t, fsys)
	reg.ReloadScripts(t.Context())
	require.NoError(t, reg.Close(t.Context()))

	// the header goes away between two sessions
	require.NoError(t, fsys.Remove("EngineScripts/Enemy.h"))

	fresh := newTestRegistry(t, fsys)
	report := fresh.ReloadScripts(t.Context())
	assert.Equal(t, []string{"Assets/Scripts/Player.alienscript"}, report.Loaded)
	assert.Equal(t, []string{"Assets/Scripts/Enemy.alienscript"}, report.Removed)
	assert.False(t, storage.Exists(fsys, "Assets/Scripts/Enemy.alienscript"))
	assert.False(t, storage.Exists(fsys, "Assets/Scripts/Enemy.alienscript.meta"))
}

func TestReloadScriptsWithoutHeaderFolder(t *testing.T) {
	reg := newTestRegistry(t, newTestFileSystem(t))

	report := reg.ReloadScripts(t.Context())
	assert.False(t, report.Changed())
	assert.Empty(t, reg.List(data.KindScript))
}
