package storage

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/mwantia/assetdb/data"
)

// ReadOnlyFS wraps a FileSystem for builds that ship only the compiled
// library. Reads pass through to the wrapped filesystem; every write
// returns data.ErrReadOnly.
type ReadOnlyFS struct {
	fsys FileSystem
}

func NewReadOnly(fsys FileSystem) *ReadOnlyFS {
	return &ReadOnlyFS{fsys: fsys}
}

func (ro *ReadOnlyFS) Name() string {
	return ro.fsys.Name() + "-readonly"
}

func (ro *ReadOnlyFS) Stat(name string) (fs.FileInfo, error) {
	return ro.fsys.Stat(name)
}

func (ro *ReadOnlyFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return ro.fsys.ReadDir(name)
}

func (ro *ReadOnlyFS) ReadFile(name string) ([]byte, error) {
	return ro.fsys.ReadFile(name)
}

func (ro *ReadOnlyFS) WriteFile(name string, content []byte) error {
	return fmt.Errorf("write %s: %w", name, data.ErrReadOnly)
}

func (ro *ReadOnlyFS) Rename(oldname, newname string) error {
	return fmt.Errorf("rename %s: %w", oldname, data.ErrReadOnly)
}

func (ro *ReadOnlyFS) Remove(name string) error {
	return fmt.Errorf("remove %s: %w", name, data.ErrReadOnly)
}

// MkdirAll succeeds for folders that already exist.
func (ro *ReadOnlyFS) MkdirAll(name string) error {
	if IsDir(ro.fsys, name) {
		return nil
	}
	return fmt.Errorf("mkdir %s: %w", name, data.ErrReadOnly)
}

func (ro *ReadOnlyFS) Chtimes(name string, atime, mtime time.Time) error {
	return fmt.Errorf("chtimes %s: %w", name, data.ErrReadOnly)
}
