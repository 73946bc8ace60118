package assetdb

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/filetree"
	"github.com/mwantia/assetdb/importer"
	"github.com/mwantia/assetdb/library"
	"github.com/mwantia/assetdb/metadata"
	"github.com/mwantia/assetdb/storage"
	"golang.org/x/sync/errgroup"
)

type outcome int

const (
	outcomeLoaded outcome = iota
	outcomeAdded
	outcomeReimported
)

// ReconcileAll reconciles every asset root, reloads the scripts and
// rebuilds the cached folder tree.
func (r *Registry) ReconcileAll(ctx context.Context) *Report {
	report := &Report{}
	for _, root := range r.options.Layout.AssetRoots() {
		if ctx.Err() != nil {
			break
		}
		report.Merge(r.Reconcile(ctx, root))
	}
	report.Merge(r.ReloadScripts(ctx))

	tree := filetree.New(r.options.Layout.Assets)
	if err := filetree.Discover(ctx, r.fsys, tree, r.options.Layout.IsMeta); err != nil {
		r.log.Warn("Unable to rebuild file tree of '%s': %v", tree.Path, err)
	} else {
		r.mu.Lock()
		if !r.closed {
			r.tree = tree
		}
		r.mu.Unlock()
	}

	report.sort()
	return report
}

// Reconcile aligns the registry and the metadata store with the files below
// root. Stale or new assets are imported, resources whose asset vanished are
// removed together with their metadata and library artifacts.
func (r *Registry) Reconcile(ctx context.Context, root string) *Report {
	report := &Report{}
	if r.isClosed() {
		r.log.Warn("Ignoring reconciliation of '%s': %v", root, r.errClosed())
		return report
	}

	root, err := data.CleanPath(root)
	if err != nil {
		r.log.Warn("Ignoring reconciliation of '%s': %v", root, err)
		return report
	}

	if !storage.IsDir(r.fsys, root) {
		if err := r.fsys.MkdirAll(root); err != nil {
			r.log.Warn("Unable to create asset folder '%s': %v", root, err)
			return report
		}
	}

	node := filetree.New(root)
	if err := filetree.Discover(ctx, r.fsys, node, r.options.Layout.IsMeta); err != nil {
		r.log.Warn("Unable to enumerate '%s': %v", root, err)
		return report
	}

	var (
		mu   sync.Mutex
		seen = make(map[uint64]struct{})
	)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.options.Workers)

	for _, file := range filetree.Files(node) {
		kind := data.KindFromExtension(file)
		if kind == data.KindUnknown {
			r.log.Debug("Skipping '%s': unknown asset type", file)
			continue
		}

		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, result, err := r.reconcileFile(gctx, file, kind, false)
			if res != nil {
				mu.Lock()
				seen[res.ID] = struct{}{}
				mu.Unlock()
			}

			switch {
			case err != nil:
				report.add(&report.Failed, file)
			case result == outcomeAdded:
				report.add(&report.Added, file)
			case result == outcomeReimported:
				report.add(&report.Reimported, file)
			default:
				report.add(&report.Loaded, file)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		// an interrupted pass must not sweep what it has not visited
		r.log.Warn("Reconciliation of '%s' interrupted: %v", root, err)
		report.sort()
		return report
	}

	r.sweep(ctx, root, seen, report)
	r.mergeTree(node)

	report.sort()
	r.log.Info("Reconciled '%s': %s", root, report)
	return report
}

// Import re-imports a single asset regardless of its staleness.
func (r *Registry) Import(ctx context.Context, assetPath string) (*data.Resource, error) {
	if r.isClosed() {
		return nil, r.errClosed()
	}

	cleaned, err := data.CleanPath(assetPath)
	if err != nil {
		return nil, err
	}

	resolved, err := storage.ResolveFold(r.fsys, cleaned)
	if err != nil {
		return nil, err
	}

	kind := data.KindFromExtension(resolved)
	if kind == data.KindUnknown {
		return nil, fmt.Errorf("%w: %s", data.ErrUnsupported, resolved)
	}

	res, _, err := r.reconcileFile(ctx, resolved, kind, true)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.tree != nil && data.HasPrefix(resolved, r.tree.Path) {
		filetree.InsertLeaf(r.tree, resolved, true)
	}
	r.mu.Unlock()

	return res, nil
}

// reconcileFile brings one asset in line with its record. The returned
// resource is the registered one, which may be unloaded after a failure.
func (r *Registry) reconcileFile(ctx context.Context, assetPath string, kind data.Kind, force bool) (*data.Resource, outcome, error) {
	info, err := r.fsys.Stat(assetPath)
	if err != nil {
		r.log.Warn("Skipping unreadable asset '%s': %v", assetPath, err)
		return nil, outcomeLoaded, err
	}

	rec, found := metadata.Lookup(ctx, r.options.Metadata, r.log, assetPath)
	if found && r.isCopiedRecord(ctx, rec) {
		r.log.Warn("Metadata of '%s' was copied from '%s', assigning a new id", assetPath, rec.Origin)
		found = false
	}

	r.mu.Lock()
	existing, registered := r.getByPathUnsafe(assetPath)
	if found {
		// a sidecar copied along with its asset still carries the original id
		if other, ok := r.resources[rec.ID]; ok && other.AssetPath != "" && !data.StringCmp(other.AssetPath, assetPath) {
			r.log.Warn("Metadata of '%s' claims id '%d' of '%s', assigning a new id", assetPath, rec.ID, other.AssetPath)
			found = false
		} else if registered && existing.ID != rec.ID {
			r.log.Warn("Metadata of '%s' changed its id from '%d' to '%d'", assetPath, existing.ID, rec.ID)
			r.removeUnsafe(existing.ID)
			existing, registered = nil, false
		}
	}
	if !found {
		id := r.newIDUnsafe()
		if registered {
			id = existing.ID
		}
		rec = data.NewRecord(id, kind, assetPath)
	}
	r.mu.Unlock()

	rec.AssetPath = assetPath
	if rec.Kind == data.KindUnknown {
		rec.Kind = kind
	}
	if rec.LibraryPath == "" {
		rec.LibraryPath = r.options.Layout.LibraryPath(rec.Kind, rec.ID)
	}

	stale := force || !found || metadata.IsStale(ctx, r.fsys, r.options.Library, rec, r.options.Importer.Version())
	if !stale {
		res, err := r.load(ctx, rec)
		if err == nil {
			return res, outcomeLoaded, nil
		}
		r.log.Warn("Library artifact of '%s' is unusable, re-importing: %v", assetPath, err)
	}

	if registered {
		r.mu.Lock()
		existing.State = data.StateUnloaded
		existing.Payload = nil
		r.mu.Unlock()
	}

	res, err := r.importAsset(ctx, rec, info.ModTime())
	if err != nil {
		r.log.Error("Failed to import '%s': %v", assetPath, err)
		if registered {
			return existing, outcomeLoaded, err
		}
		return nil, outcomeLoaded, err
	}

	if !found && !registered {
		r.log.Debug("Added '%s' as '%d'", assetPath, res.ID)
		return res, outcomeAdded, nil
	}
	r.log.Debug("Re-imported '%s'", assetPath)
	return res, outcomeReimported, nil
}

// load registers a resource from its existing library artifacts.
func (r *Registry) load(ctx context.Context, rec *data.Record) (*data.Resource, error) {
	payload, _, err := r.loadArtifact(ctx, rec.LibraryPath, rec.Kind)
	if err != nil {
		return nil, err
	}

	meshes := make([]*data.Resource, 0, len(rec.Children))
	for _, child := range rec.Children {
		libraryPath := r.options.Layout.LibraryPath(data.KindMesh, child)
		mesh, name, err := r.loadArtifact(ctx, libraryPath, data.KindMesh)
		if err != nil {
			return nil, fmt.Errorf("mesh '%d': %w", child, err)
		}

		meshes = append(meshes, &data.Resource{
			ID:          child,
			Kind:        data.KindMesh,
			Name:        name,
			LibraryPath: libraryPath,
			State:       data.StateLoaded,
			Payload:     mesh,
		})
	}

	return r.register(&data.Resource{
		ID:          rec.ID,
		Kind:        rec.Kind,
		Name:        rec.Name,
		AssetPath:   rec.AssetPath,
		LibraryPath: rec.LibraryPath,
		State:       data.StateLoaded,
		Payload:     payload,
	}, meshes, nil)
}

func (r *Registry) loadArtifact(ctx context.Context, libraryPath string, kind data.Kind) (data.Payload, string, error) {
	art, err := r.options.Library.Get(ctx, libraryPath)
	if err != nil {
		return nil, "", err
	}
	if art.Kind != kind {
		return nil, "", fmt.Errorf("%w: '%s' holds %s instead of %s", data.ErrCorrupt, libraryPath, art.Kind, kind)
	}

	payload, err := art.Unpack()
	if err != nil {
		return nil, "", err
	}
	return payload, art.Name, nil
}

// importAsset runs the importer and persists artifacts and record before
// registering the result.
func (r *Registry) importAsset(ctx context.Context, rec *data.Record, modTime time.Time) (*data.Resource, error) {
	content, err := r.fsys.ReadFile(rec.AssetPath)
	if err != nil {
		return nil, err
	}

	work := rec.Clone()
	result, err := r.options.Importer.Import(ctx, &importer.Request{
		AssetPath: work.AssetPath,
		Kind:      work.Kind,
		Content:   content,
		Record:    work,
		NewID:     r.newID,
	})
	if err != nil {
		return nil, err
	}
	if result == nil || data.PayloadKind(result.Payload) != work.Kind {
		return nil, fmt.Errorf("%w: %s: importer returned no %s payload", data.ErrImportFailed, work.AssetPath, work.Kind)
	}

	version := r.options.Importer.Version()
	if err := r.putArtifact(ctx, work.LibraryPath, work.ID, work.Name, work.AssetPath, version, result.Payload); err != nil {
		return nil, err
	}

	children := make([]uint64, 0, len(result.Children))
	meshes := make([]*data.Resource, 0, len(result.Children))
	for _, child := range result.Children {
		libraryPath := r.options.Layout.LibraryPath(data.PayloadKind(child.Payload), child.ID)
		if err := r.putArtifact(ctx, libraryPath, child.ID, child.Name, "", version, child.Payload); err != nil {
			return nil, err
		}

		children = append(children, child.ID)
		meshes = append(meshes, &data.Resource{
			ID:          child.ID,
			Kind:        data.PayloadKind(child.Payload),
			Name:        child.Name,
			LibraryPath: libraryPath,
			State:       data.StateLoaded,
			Payload:     child.Payload,
		})
	}

	var dropped []uint64
	for _, old := range rec.Children {
		if !slices.Contains(children, old) {
			dropped = append(dropped, old)
			if err := ignoreNotExist(r.options.Library.Remove(ctx, r.options.Layout.LibraryPath(data.KindMesh, old))); err != nil {
				r.log.Warn("Unable to remove artifact of mesh '%d': %v", old, err)
			}
		}
	}

	work.Children = children
	work.LastModified = modTime
	work.ImporterVersion = version
	if script, ok := result.Payload.(*data.ScriptData); ok {
		work.Signature = script.Signature
	}

	if err := r.options.Metadata.Write(ctx, work.AssetPath, work); err != nil {
		return nil, fmt.Errorf("failed to write metadata: %w", err)
	}

	return r.register(&data.Resource{
		ID:          work.ID,
		Kind:        work.Kind,
		Name:        work.Name,
		AssetPath:   work.AssetPath,
		LibraryPath: work.LibraryPath,
		State:       data.StateLoaded,
		Payload:     result.Payload,
	}, meshes, dropped)
}

func (r *Registry) putArtifact(ctx context.Context, libraryPath string, id uint64, name, source, version string, payload data.Payload) error {
	art, err := library.Pack(id, name, version, payload)
	if err != nil {
		return err
	}
	art.Source = source

	if err := r.options.Library.Put(ctx, libraryPath, art); err != nil {
		return fmt.Errorf("failed to store artifact '%s': %w", libraryPath, err)
	}
	return nil
}

// register inserts a resource with its meshes in one step.
func (r *Registry) register(res *data.Resource, meshes []*data.Resource, dropped []uint64) (*data.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, r.errClosed()
	}

	for _, id := range dropped {
		delete(r.resources, id)
	}

	registered, err := r.insertUnsafe(res)
	if err != nil {
		r.log.Error("Refusing to register '%s': %v", res.AssetPath, err)
		return nil, err
	}

	for _, mesh := range meshes {
		if _, err := r.insertUnsafe(mesh); err != nil {
			r.log.Error("Refusing to register mesh '%d' of '%s': %v", mesh.ID, res.AssetPath, err)
			return nil, err
		}
	}
	return registered, nil
}

// sweep removes resources and records below root that were not seen.
func (r *Registry) sweep(ctx context.Context, root string, seen map[uint64]struct{}, report *Report) {
	r.mu.Lock()
	var removed []*data.Resource
	for id, res := range r.resources {
		if res.AssetPath == "" || !data.HasPrefix(res.AssetPath, root) {
			continue
		}
		if _, ok := seen[id]; !ok {
			removed = append(removed, res)
		}
	}
	for _, res := range removed {
		r.removeUnsafe(res.ID)
	}
	r.mu.Unlock()

	purged := make(map[uint64]struct{})
	for _, res := range removed {
		var children []uint64
		if model, ok := res.Model(); ok {
			children = model.Meshes
		}

		r.purge(ctx, res.AssetPath, res.LibraryPath, children)
		purged[res.ID] = struct{}{}
		report.add(&report.Removed, res.AssetPath)
		r.log.Info("Removed '%s': asset no longer exists", res.AssetPath)
	}

	records, err := r.options.Metadata.List(ctx, root)
	if err != nil {
		r.log.Warn("Unable to list all metadata below '%s': %v", root, err)
	}
	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		if _, ok := purged[rec.ID]; ok {
			continue
		}
		if storage.Exists(r.fsys, rec.AssetPath) {
			continue
		}

		r.purge(ctx, rec.AssetPath, rec.LibraryPath, rec.Children)
		report.add(&report.Removed, rec.AssetPath)
		r.log.Info("Removed orphaned metadata of '%s'", rec.AssetPath)
	}

	r.mu.Lock()
	if r.tree != nil {
		for _, res := range removed {
			filetree.Remove(r.tree, res.AssetPath)
		}
	}
	r.mu.Unlock()
}

// purge deletes the record and all library artifacts of an asset.
func (r *Registry) purge(ctx context.Context, assetPath, libraryPath string, children []uint64) {
	errs := &data.Errors{}
	if libraryPath != "" {
		errs.Add(ignoreNotExist(r.options.Library.Remove(ctx, libraryPath)))
	}
	for _, child := range children {
		errs.Add(ignoreNotExist(r.options.Library.Remove(ctx, r.options.Layout.LibraryPath(data.KindMesh, child))))
	}
	errs.Add(ignoreNotExist(r.options.Metadata.Delete(ctx, assetPath)))

	if err := errs.Errors(); err != nil {
		r.log.Warn("Incomplete cleanup of '%s': %v", assetPath, err)
	}
}

// mergeTree replaces the cached subtree at node.Path with node's children.
func (r *Registry) mergeTree(node *filetree.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tree == nil || !data.HasPrefix(node.Path, r.tree.Path) {
		return
	}

	target := filetree.InsertLeaf(r.tree, node.Path, false)
	target.Children = node.Children
	for _, child := range target.Children {
		child.Parent = target
	}
}

// isCopiedRecord reports whether rec was copied from another asset that
// still exists and still claims the same id. The asset at the stored path
// keeps the id no matter which of the two is reconciled first.
func (r *Registry) isCopiedRecord(ctx context.Context, rec *data.Record) bool {
	if rec.Origin == "" || data.StringCmp(rec.Origin, rec.AssetPath) {
		return false
	}
	if !storage.Exists(r.fsys, rec.Origin) {
		return false
	}

	original, err := r.options.Metadata.Read(ctx, rec.Origin)
	if err != nil {
		return false
	}
	return original.ID == rec.ID
}

func (r *Registry) newID() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.newIDUnsafe()
}

// newIDUnsafe allocates an id no live resource uses.
// MUST be called while holding a lock.
func (r *Registry) newIDUnsafe() uint64 {
	for {
		id := r.options.Allocator.NewID()
		if _, ok := r.resources[id]; !ok && id != 0 {
			return id
		}
	}
}
