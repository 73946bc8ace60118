package sidecar

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/metadata"
	"github.com/mwantia/assetdb/storage"
)

// SidecarStore keeps each record in a JSON document next to its asset.
type SidecarStore struct {
	mu     sync.RWMutex
	fsys   storage.FileSystem
	suffix string
}

func NewSidecarStore(fsys storage.FileSystem, suffix string) *SidecarStore {
	if suffix == "" {
		suffix = data.DefaultLayout().MetaSuffix
	}

	return &SidecarStore{
		fsys:   fsys,
		suffix: suffix,
	}
}

// Returns the identifier name defined for this store
func (*SidecarStore) Name() string {
	return "sidecar"
}

func (*SidecarStore) Open(ctx context.Context) error {
	return nil
}

// Close is a no-op; sidecars persist on the filesystem.
func (*SidecarStore) Close(ctx context.Context) error {
	return nil
}

func (s *SidecarStore) metaPath(assetPath string) string {
	return assetPath + s.suffix
}

func (s *SidecarStore) Read(ctx context.Context, assetPath string) (*data.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metaPath, err := storage.ResolveFold(s.fsys, s.metaPath(assetPath))
	if err != nil {
		if errors.Is(err, data.ErrNotExist) {
			return nil, data.ErrNotExist
		}
		return nil, err
	}
	return s.readUnsafe(metaPath, metaPath[:len(metaPath)-len(s.suffix)])
}

// readUnsafe MUST be called while holding a read lock.
func (s *SidecarStore) readUnsafe(metaPath, assetPath string) (*data.Record, error) {
	content, err := s.fsys.ReadFile(metaPath)
	if err != nil {
		if errors.Is(err, data.ErrNotExist) {
			return nil, data.ErrNotExist
		}
		return nil, err
	}

	rec, err := metadata.UnmarshalRecord(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", metaPath, err)
	}

	// The sidecar location is authoritative when the asset was moved along with it.
	rec.Origin = rec.AssetPath
	rec.AssetPath = assetPath
	return rec, nil
}

func (s *SidecarStore) Write(ctx context.Context, assetPath string, rec *data.Record) error {
	content, err := metadata.MarshalRecord(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	metaPath := s.metaPath(assetPath)
	if existing, err := storage.ResolveFold(s.fsys, metaPath); err == nil {
		metaPath = existing
	}
	return storage.WriteFileAtomic(s.fsys, metaPath, content)
}

func (s *SidecarStore) Delete(ctx context.Context, assetPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	metaPath, err := storage.ResolveFold(s.fsys, s.metaPath(assetPath))
	if err != nil {
		if errors.Is(err, data.ErrNotExist) {
			return data.ErrNotExist
		}
		return err
	}

	if err := s.fsys.Remove(metaPath); err != nil {
		if errors.Is(err, data.ErrNotExist) {
			return data.ErrNotExist
		}
		return err
	}
	return nil
}

func (s *SidecarStore) List(ctx context.Context, prefix string) ([]*data.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*data.Record
	var errs data.Errors

	var walk func(dir string) error
	walk = func(dir string) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		entries, err := s.fsys.ReadDir(dir)
		if err != nil {
			if errors.Is(err, data.ErrNotExist) || errors.Is(err, data.ErrNotDirectory) {
				return nil
			}
			return err
		}

		for _, entry := range entries {
			full := path.Join(dir, entry.Name())
			if entry.IsDir() {
				if err := walk(full); err != nil {
					return err
				}
				continue
			}

			if !strings.HasSuffix(data.FoldKey(full), data.FoldKey(s.suffix)) {
				continue
			}

			rec, err := s.readUnsafe(full, full[:len(full)-len(s.suffix)])
			if err != nil {
				errs.Add(err)
				continue
			}
			records = append(records, rec)
		}
		return nil
	}

	if err := walk(prefix); err != nil {
		return nil, err
	}

	metadata.SortRecords(records)
	return records, errs.Errors()
}
