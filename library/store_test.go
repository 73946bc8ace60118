package library_test

import (
	"errors"
	"os"
	"testing"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/library"
	"github.com/mwantia/assetdb/library/s3"
	"github.com/mwantia/assetdb/storage"
)

// TestStoreFactory creates a new artifact store instance for testing.
type TestStoreFactory func(t *testing.T) (library.Store, error)

// GetTestStoreFactories returns all artifact stores to test. The S3 store
// is included when ASSETDB_TEST_S3_ENDPOINT is exported.
func GetTestStoreFactories() map[string]TestStoreFactory {
	factories := map[string]TestStoreFactory{
		"local": func(t *testing.T) (library.Store, error) {
			fsys, err := storage.NewMemory()
			if err != nil {
				return nil, err
			}
			return library.NewLocalStore(fsys), nil
		},
		"mirror": func(t *testing.T) (library.Store, error) {
			primary, err := storage.NewMemory()
			if err != nil {
				return nil, err
			}
			secondary, err := storage.NewMemory()
			if err != nil {
				return nil, err
			}
			return library.NewMirrorStore(library.NewLocalStore(primary), library.NewLocalStore(secondary)), nil
		},
	}

	if endpoint := os.Getenv("ASSETDB_TEST_S3_ENDPOINT"); endpoint != "" {
		factories["s3"] = func(t *testing.T) (library.Store, error) {
			store, err := s3.NewS3Store(endpoint,
				os.Getenv("ASSETDB_TEST_S3_BUCKET"),
				os.Getenv("ASSETDB_TEST_S3_ACCESS_KEY"),
				os.Getenv("ASSETDB_TEST_S3_SECRET_KEY"),
				false)
			if err != nil {
				return nil, err
			}
			return store.WithPrefix(t.Name()), nil
		}
	}

	return factories
}

func TestAllStores_Artifacts(t *testing.T) {
	for name, factory := range GetTestStoreFactories() {
		t.Run(name, func(tst *testing.T) {
			ctx := tst.Context()

			store, err := factory(tst)
			if err != nil {
				tst.Fatalf("Store init failed: %v", err)
			}
			if err := store.Open(ctx); err != nil {
				tst.Fatalf("Store open failed: %v", err)
			}
			defer store.Close(ctx)

			layout := data.DefaultLayout()
			libraryPath := layout.LibraryPath(data.KindMesh, 77)

			if store.Exists(ctx, libraryPath) {
				tst.Fatalf("Expected empty store")
			}
			if _, err := store.Get(ctx, libraryPath); !errors.Is(err, data.ErrNotExist) {
				tst.Fatalf("Expected ErrNotExist, got %v", err)
			}

			mesh := &data.MeshData{
				Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
				Normals:   []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
				Indices:   []uint32{0, 1, 2},
				Model:     12,
			}
			artifact, err := library.Pack(77, "Hull", "1.0.0", mesh)
			if err != nil {
				tst.Fatalf("Pack failed: %v", err)
			}

			if err := store.Put(ctx, libraryPath, artifact); err != nil {
				tst.Fatalf("Put failed: %v", err)
			}
			if !store.Exists(ctx, libraryPath) {
				tst.Errorf("Expected artifact to exist after Put")
			}

			got, err := store.Get(ctx, libraryPath)
			if err != nil {
				tst.Fatalf("Get failed: %v", err)
			}
			if got.ID != 77 || got.Kind != data.KindMesh || got.Name != "Hull" {
				tst.Errorf("Unexpected artifact header: %+v", got)
			}

			payload, err := got.Unpack()
			if err != nil {
				tst.Fatalf("Unpack failed: %v", err)
			}
			decoded, ok := payload.(*data.MeshData)
			if !ok {
				tst.Fatalf("Expected *data.MeshData, got %T", payload)
			}
			if decoded.TriangleCount() != 1 || decoded.Model != 12 {
				tst.Errorf("Unexpected mesh payload: %+v", decoded)
			}

			paths, err := store.List(ctx, layout.LibraryMeshes)
			if err != nil {
				tst.Fatalf("List failed: %v", err)
			}
			if len(paths) != 1 || paths[0] != libraryPath {
				tst.Errorf("Expected [%s], got %v", libraryPath, paths)
			}

			if err := store.Remove(ctx, libraryPath); err != nil {
				tst.Fatalf("Remove failed: %v", err)
			}
			if store.Exists(ctx, libraryPath) {
				tst.Errorf("Expected artifact to be removed")
			}
			if err := store.Remove(ctx, libraryPath); !errors.Is(err, data.ErrNotExist) {
				tst.Errorf("Expected ErrNotExist, got %v", err)
			}
		})
	}
}

func TestDecodeCorrupt(t *testing.T) {
	if _, err := library.Decode([]byte("definitely not zstd")); !errors.Is(err, data.ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt, got %v", err)
	}

	if _, err := library.Pack(1, "x", "1.0.0", nil); !errors.Is(err, data.ErrInvalid) {
		t.Errorf("Expected ErrInvalid for nil payload, got %v", err)
	}
}

func TestMirrorFallsBackToSecondary(t *testing.T) {
	ctx := t.Context()

	primaryFS, _ := storage.NewMemory()
	secondaryFS, _ := storage.NewMemory()
	primary := library.NewLocalStore(primaryFS)
	secondary := library.NewLocalStore(secondaryFS)
	mirror := library.NewMirrorStore(primary, secondary)

	artifact, err := library.Pack(5, "wall", "1.0.0", &data.TextureData{Width: 2, Height: 2, Format: "png"})
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if err := secondary.Put(ctx, "Library/Textures/5.alienTexture", artifact); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := mirror.Get(ctx, "Library/Textures/5.alienTexture"); err != nil {
		t.Fatalf("Expected fallback read, got %v", err)
	}
	if !primary.Exists(ctx, "Library/Textures/5.alienTexture") {
		t.Errorf("Expected primary to be repopulated")
	}
}
