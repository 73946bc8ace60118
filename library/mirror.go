package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwantia/assetdb/data"
)

// MirrorStore writes through to a primary and a secondary store and reads
// the primary first, falling back to the secondary.
type MirrorStore struct {
	primary   Store
	secondary Store
}

func NewMirrorStore(primary, secondary Store) *MirrorStore {
	return &MirrorStore{primary: primary, secondary: secondary}
}

func (ms *MirrorStore) Name() string {
	return fmt.Sprintf("%s+%s", ms.primary.Name(), ms.secondary.Name())
}

func (ms *MirrorStore) Open(ctx context.Context) error {
	if err := ms.primary.Open(ctx); err != nil {
		return err
	}
	if err := ms.secondary.Open(ctx); err != nil {
		ms.primary.Close(ctx)
		return err
	}
	return nil
}

func (ms *MirrorStore) Close(ctx context.Context) error {
	var errs data.Errors
	errs.Add(ms.primary.Close(ctx))
	errs.Add(ms.secondary.Close(ctx))
	return errs.Errors()
}

func (ms *MirrorStore) Put(ctx context.Context, libraryPath string, a *Artifact) error {
	if err := ms.primary.Put(ctx, libraryPath, a); err != nil {
		return err
	}
	return ms.secondary.Put(ctx, libraryPath, a)
}

func (ms *MirrorStore) Get(ctx context.Context, libraryPath string) (*Artifact, error) {
	a, err := ms.primary.Get(ctx, libraryPath)
	if err == nil {
		return a, nil
	}

	a, serr := ms.secondary.Get(ctx, libraryPath)
	if serr != nil {
		return nil, err
	}

	// repopulate the primary from the mirror; a failure here only costs a refetch
	_ = ms.primary.Put(ctx, libraryPath, a)
	return a, nil
}

func (ms *MirrorStore) Exists(ctx context.Context, libraryPath string) bool {
	return ms.primary.Exists(ctx, libraryPath) || ms.secondary.Exists(ctx, libraryPath)
}

func (ms *MirrorStore) Remove(ctx context.Context, libraryPath string) error {
	perr := ms.primary.Remove(ctx, libraryPath)
	serr := ms.secondary.Remove(ctx, libraryPath)

	if errors.Is(perr, data.ErrNotExist) && errors.Is(serr, data.ErrNotExist) {
		return data.ErrNotExist
	}

	var errs data.Errors
	if !errors.Is(perr, data.ErrNotExist) {
		errs.Add(perr)
	}
	if !errors.Is(serr, data.ErrNotExist) {
		errs.Add(serr)
	}
	return errs.Errors()
}

func (ms *MirrorStore) List(ctx context.Context, folder string) ([]string, error) {
	paths, err := ms.primary.List(ctx, folder)
	if err != nil || len(paths) > 0 {
		return paths, err
	}
	return ms.secondary.List(ctx, folder)
}
