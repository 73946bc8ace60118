package library

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/storage"
)

// Store holds compiled artifacts addressed by their library path.
type Store interface {
	// Returns the identifier name defined for this store
	Name() string
	Open(ctx context.Context) error
	Close(ctx context.Context) error

	Put(ctx context.Context, libraryPath string, a *Artifact) error
	// Get returns data.ErrNotExist for missing and data.ErrCorrupt for
	// undecodable artifacts.
	Get(ctx context.Context, libraryPath string) (*Artifact, error)
	Exists(ctx context.Context, libraryPath string) bool
	Remove(ctx context.Context, libraryPath string) error
	// List returns the artifact paths directly inside folder, sorted.
	List(ctx context.Context, folder string) ([]string, error)
}

// LocalStore keeps artifacts on the project filesystem.
type LocalStore struct {
	fsys storage.FileSystem
}

func NewLocalStore(fsys storage.FileSystem) *LocalStore {
	return &LocalStore{fsys: fsys}
}

func (*LocalStore) Name() string {
	return "local"
}

func (*LocalStore) Open(ctx context.Context) error {
	return nil
}

func (*LocalStore) Close(ctx context.Context) error {
	return nil
}

func (ls *LocalStore) Put(ctx context.Context, libraryPath string, a *Artifact) error {
	content, err := Encode(a)
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(ls.fsys, libraryPath, content)
}

func (ls *LocalStore) Get(ctx context.Context, libraryPath string) (*Artifact, error) {
	content, err := ls.fsys.ReadFile(libraryPath)
	if err != nil {
		if errors.Is(err, data.ErrNotExist) {
			return nil, data.ErrNotExist
		}
		return nil, err
	}
	return Decode(content)
}

func (ls *LocalStore) Exists(ctx context.Context, libraryPath string) bool {
	info, err := ls.fsys.Stat(libraryPath)
	return err == nil && !info.IsDir()
}

func (ls *LocalStore) Remove(ctx context.Context, libraryPath string) error {
	if err := ls.fsys.Remove(libraryPath); err != nil {
		if errors.Is(err, data.ErrNotExist) {
			return data.ErrNotExist
		}
		return err
	}
	return nil
}

func (ls *LocalStore) List(ctx context.Context, folder string) ([]string, error) {
	entries, err := ls.fsys.ReadDir(folder)
	if err != nil {
		if errors.Is(err, data.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		paths = append(paths, path.Join(folder, entry.Name()))
	}
	return paths, nil
}
