package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/Bios-Marcel/wastebasket/v2"
	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	osfs "github.com/hack-pad/hackpadfs/os"
	"github.com/mwantia/assetdb/data"
)

// HackpadFS adapts a hackpadfs filesystem to FileSystem.
type HackpadFS struct {
	mu   sync.RWMutex
	name string
	fsys hackpadfs.FS

	// root is the host folder for local filesystems, empty in memory.
	root  string
	trash bool
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() (*HackpadFS, error) {
	memfs, err := mem.NewFS()
	if err != nil {
		return nil, fmt.Errorf("failed to create memory filesystem: %w", err)
	}

	return &HackpadFS{name: "memory", fsys: memfs}, nil
}

type LocalOption func(*HackpadFS)

// WithTrash moves removed files to the OS trash instead of deleting them.
func WithTrash() LocalOption {
	return func(h *HackpadFS) {
		h.trash = true
	}
}

// NewLocal roots a filesystem at the host folder dir, which must exist.
func NewLocal(dir string, opts ...LocalOption) (*HackpadFS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, mapError("open", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open %s: %w", abs, data.ErrNotDirectory)
	}

	host := osfs.NewFS()
	subPath, err := host.FromOSPath(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve '%s': %w", abs, err)
	}

	sub, err := host.Sub(subPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open '%s': %w", abs, err)
	}

	h := &HackpadFS{name: "local", fsys: sub, root: abs}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *HackpadFS) Name() string {
	return h.name
}

// Root returns the host folder, empty for memory filesystems.
func (h *HackpadFS) Root() string {
	return h.root
}

func (h *HackpadFS) Stat(name string) (fs.FileInfo, error) {
	p, err := toFSPath(name)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	info, err := hackpadfs.Stat(h.fsys, p)
	return info, mapError("stat", p, err)
}

func (h *HackpadFS) ReadDir(name string) ([]fs.DirEntry, error) {
	p, err := toFSPath(name)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	entries, err := hackpadfs.ReadDir(h.fsys, p)
	return entries, mapError("readdir", p, err)
}

func (h *HackpadFS) ReadFile(name string) ([]byte, error) {
	p, err := toFSPath(name)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	content, err := fs.ReadFile(h.fsys, p)
	return content, mapError("read", p, err)
}

func (h *HackpadFS) WriteFile(name string, content []byte) error {
	p, err := toFSPath(name)
	if err != nil {
		return err
	}
	if p == "." {
		return fmt.Errorf("write: %w", data.ErrIsDirectory)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if dir := path.Dir(p); dir != "." {
		if err := hackpadfs.MkdirAll(h.fsys, dir, 0o755); err != nil {
			return mapError("mkdir", dir, err)
		}
	}

	file, err := hackpadfs.OpenFile(h.fsys, p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return mapError("open", p, err)
	}

	writer, ok := file.(io.Writer)
	if !ok {
		file.Close()
		return mapError("write", p, hackpadfs.ErrNotImplemented)
	}

	if _, err := writer.Write(content); err != nil {
		file.Close()
		return mapError("write", p, err)
	}
	return mapError("close", p, file.Close())
}

func (h *HackpadFS) Rename(oldname, newname string) error {
	from, err := toFSPath(oldname)
	if err != nil {
		return err
	}
	to, err := toFSPath(newname)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	err = hackpadfs.Rename(h.fsys, from, to)
	if errors.Is(err, fs.ErrExist) {
		// Some filesystems refuse to replace an existing file.
		if rmErr := hackpadfs.Remove(h.fsys, to); rmErr != nil {
			return mapError("rename", to, rmErr)
		}
		err = hackpadfs.Rename(h.fsys, from, to)
	}
	return mapError("rename", from, err)
}

func (h *HackpadFS) Remove(name string) error {
	p, err := toFSPath(name)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.trash && h.root != "" {
		host := filepath.Join(h.root, filepath.FromSlash(p))
		if _, err := os.Stat(host); err != nil {
			return mapError("remove", p, err)
		}
		return mapError("trash", p, wastebasket.Trash(host))
	}

	return mapError("remove", p, hackpadfs.Remove(h.fsys, p))
}

func (h *HackpadFS) MkdirAll(name string) error {
	p, err := toFSPath(name)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return mapError("mkdir", p, hackpadfs.MkdirAll(h.fsys, p, 0o755))
}

func (h *HackpadFS) Chtimes(name string, atime, mtime time.Time) error {
	p, err := toFSPath(name)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	return mapError("chtimes", p, hackpadfs.Chtimes(h.fsys, p, atime, mtime))
}
