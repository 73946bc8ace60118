package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/assetdb/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func GetTestFileSystemFactories(t *testing.T) map[string]func() FileSystem {
	return map[string]func() FileSystem{
		"memory": func() FileSystem {
			fsys, err := NewMemory()
			require.NoError(t, err)
			return fsys
		},
		"local": func() FileSystem {
			fsys, err := NewLocal(t.TempDir())
			require.NoError(t, err)
			return fsys
		},
	}
}

func TestFileSystems(t *testing.T) {
	for name, factory := range GetTestFileSystemFactories(t) {
		t.Run(name, func(t *testing.T) {
			fsys := factory()

			require.NoError(t, fsys.WriteFile("Assets/Textures/a.png", []byte("png")))
			assert.True(t, IsDir(fsys, "Assets/Textures"))
			assert.True(t, Exists(fsys, "Assets/Textures/a.png"))

			content, err := fsys.ReadFile("Assets/Textures/a.png")
			require.NoError(t, err)
			assert.Equal(t, "png", string(content))

			require.NoError(t, fsys.WriteFile("Assets/Textures/b.png", []byte("b")))
			entries, err := fsys.ReadDir("Assets/Textures")
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "a.png", entries[0].Name())
			assert.Equal(t, "b.png", entries[1].Name())

			mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
			require.NoError(t, fsys.Chtimes("Assets/Textures/a.png", mtime, mtime))
			info, err := fsys.Stat("Assets/Textures/a.png")
			require.NoError(t, err)
			assert.True(t, info.ModTime().Equal(mtime), "Expected %v, got %v", mtime, info.ModTime())

			require.NoError(t, fsys.Remove("Assets/Textures/b.png"))
			_, err = fsys.Stat("Assets/Textures/b.png")
			assert.ErrorIs(t, err, data.ErrNotExist)

			assert.NoError(t, RemoveIfExists(fsys, "Assets/Textures/b.png"))

			_, err = fsys.ReadFile("../escape")
			assert.ErrorIs(t, err, data.ErrOutsideRoot)
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	for name, factory := range GetTestFileSystemFactories(t) {
		t.Run(name, func(t *testing.T) {
			fsys := factory()

			require.NoError(t, WriteFileAtomic(fsys, "Assets/a.png.meta", []byte("one")))
			require.NoError(t, WriteFileAtomic(fsys, "Assets/a.png.meta", []byte("two")))

			content, err := fsys.ReadFile("Assets/a.png.meta")
			require.NoError(t, err)
			assert.Equal(t, "two", string(content))

			entries, err := fsys.ReadDir("Assets")
			require.NoError(t, err)
			assert.Len(t, entries, 1, "Expected temporary files to be renamed away")
		})
	}
}

func TestNewLocalRejectsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewLocal(file)
	assert.ErrorIs(t, err, data.ErrNotDirectory)

	_, err = NewLocal(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, data.ErrNotExist)
}
