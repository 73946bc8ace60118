package assetdb

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/filetree"
	"github.com/mwantia/assetdb/storage"
)

// CreateInstanceFromModel expands the model compiled to libraryPath into
// scene objects through the configured spawner. It returns false when no
// model matches or the spawner fails.
func (r *Registry) CreateInstanceFromModel(ctx context.Context, libraryPath string) bool {
	cleaned, err := data.CleanPath(libraryPath)
	if err != nil {
		r.log.Warn("Invalid library path '%s': %v", libraryPath, err)
		return false
	}

	r.mu.Lock()
	var model *data.Resource
	for _, res := range r.resources {
		if res.Kind == data.KindModel && data.StringCmp(res.LibraryPath, cleaned) {
			model = res
			break
		}
	}
	if model == nil {
		r.mu.Unlock()
		r.log.Warn("No model compiled to '%s'", libraryPath)
		return false
	}

	var meshes []*data.Resource
	if payload, ok := model.Model(); ok {
		for _, id := range payload.Meshes {
			if mesh, ok := r.resources[id]; ok {
				meshes = append(meshes, mesh)
			}
		}
	}
	r.mu.Unlock()

	if r.options.Spawner != nil {
		if err := r.options.Spawner.Spawn(ctx, model, meshes); err != nil {
			r.log.Error("Unable to instantiate model '%s': %v", model.Name, err)
			return false
		}
	} else {
		r.log.Debug("No spawner configured, instantiating '%s' only counts references", model.Name)
	}

	if r.options.Instancing {
		r.mu.Lock()
		model.References++
		for _, mesh := range meshes {
			mesh.References++
		}
		r.mu.Unlock()
	}
	return true
}

// Drop copies a file into the asset folder of its kind and imports it. A
// file with the same name is replaced and keeps its identity.
func (r *Registry) Drop(ctx context.Context, name string, content []byte) (*data.Resource, error) {
	if r.isClosed() {
		return nil, r.errClosed()
	}

	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	kind := data.KindFromExtension(base)
	if kind == data.KindUnknown || base == "." || base == "/" {
		return nil, fmt.Errorf("%w: cannot drop '%s'", data.ErrUnsupported, name)
	}

	target := path.Join(r.options.Layout.AssetFolder(kind), base)
	if resolved, err := storage.ResolveFold(r.fsys, target); err == nil {
		target = resolved
	}

	if err := storage.WriteFileAtomic(r.fsys, target, content); err != nil {
		return nil, fmt.Errorf("failed to write '%s': %w", target, err)
	}

	r.mu.Lock()
	if r.tree != nil && data.HasPrefix(target, r.tree.Path) {
		filetree.InsertLeaf(r.tree, target, true)
	}
	r.mu.Unlock()

	r.log.Info("Dropped '%s' into '%s'", base, target)
	return r.Import(ctx, target)
}

// LoadLibrary registers resources straight from the compiled library,
// without touching assets or metadata. It is used by builds that ship
// only the library folder.
func (r *Registry) LoadLibrary(ctx context.Context) *Report {
	report := &Report{}
	if r.isClosed() {
		r.log.Warn("Ignoring library load: %v", r.errClosed())
		return report
	}

	layout := r.options.Layout
	// meshes first, so models find their meshes registered
	kinds := []data.Kind{data.KindMesh, data.KindTexture, data.KindModel, data.KindPrefab, data.KindScene, data.KindScript}

	for _, kind := range kinds {
		folder := layout.LibraryFolder(kind)
		paths, err := r.options.Library.List(ctx, folder)
		if err != nil {
			r.log.Warn("Unable to list library folder '%s': %v", folder, err)
			continue
		}

		for _, libraryPath := range paths {
			if err := ctx.Err(); err != nil {
				report.sort()
				return report
			}

			if err := r.loadLibraryArtifact(ctx, libraryPath, kind); err != nil {
				r.log.Warn("Skipping library artifact '%s': %v", libraryPath, err)
				report.add(&report.Failed, libraryPath)
				continue
			}
			report.add(&report.Loaded, libraryPath)
		}
	}

	report.sort()
	r.log.Info("Loaded library: %s", report)
	return report
}

func (r *Registry) loadLibraryArtifact(ctx context.Context, libraryPath string, kind data.Kind) error {
	art, err := r.options.Library.Get(ctx, libraryPath)
	if err != nil {
		return err
	}
	if art.Kind != kind {
		return fmt.Errorf("%w: '%s' holds %s instead of %s", data.ErrCorrupt, libraryPath, art.Kind, kind)
	}

	payload, err := art.Unpack()
	if err != nil {
		return err
	}

	_, err = r.register(&data.Resource{
		ID:          art.ID,
		Kind:        art.Kind,
		Name:        art.Name,
		AssetPath:   art.Source,
		LibraryPath: libraryPath,
		State:       data.StateLoaded,
		Payload:     payload,
	}, nil, nil)
	return err
}
