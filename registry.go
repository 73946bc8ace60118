package assetdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/filetree"
	"github.com/mwantia/assetdb/identity"
	"github.com/mwantia/assetdb/importer"
	"github.com/mwantia/assetdb/library"
	"github.com/mwantia/assetdb/log"
	"github.com/mwantia/assetdb/metadata/sidecar"
	"github.com/mwantia/assetdb/storage"
	"github.com/tidwall/btree"
)

// Registry owns every live resource. Resources are reachable by id and,
// when they originate from an asset, by asset path.
type Registry struct {
	mu sync.RWMutex

	fsys    storage.FileSystem
	log     Logger
	options *Options
	closed  bool

	resources  map[uint64]*data.Resource
	paths      *btree.Map[string, uint64]
	primitives map[data.PrimitiveKind]uint64
	tree       *filetree.Node
}

func New(ctx context.Context, fsys storage.FileSystem, opts ...Option) (*Registry, error) {
	options := newDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	if options.Logger == nil {
		options.Logger = log.NewLogger("assetdb", options.LogLevel, options.LogFile, options.NoTerminalLog)
	}
	if options.Importer == nil {
		options.Importer = importer.NewDefault()
	}
	if options.Metadata == nil {
		options.Metadata = sidecar.NewSidecarStore(fsys, options.Layout.MetaSuffix)
	}
	if options.Library == nil {
		options.Library = library.NewLocalStore(fsys)
	}
	if options.Allocator == nil {
		options.Allocator = identity.New()
	}

	if err := options.Metadata.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open metadata store '%s': %w", options.Metadata.Name(), err)
	}
	if err := options.Library.Open(ctx); err != nil {
		_ = options.Metadata.Close(ctx)
		return nil, fmt.Errorf("failed to open library store '%s': %w", options.Library.Name(), err)
	}

	return &Registry{
		fsys:       fsys,
		log:        options.Logger,
		options:    options,
		resources:  make(map[uint64]*data.Resource),
		paths:      btree.NewMap[string, uint64](0),
		primitives: make(map[data.PrimitiveKind]uint64),
		tree:       filetree.New(options.Layout.Assets),
	}, nil
}

// Close drops every resource and closes the stores.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	r.log.Debug("Releasing %d resources", len(r.resources))
	clear(r.resources)
	clear(r.primitives)
	r.paths.Clear()
	r.tree = nil

	errs := &data.Errors{}
	errs.Add(r.options.Library.Close(ctx))
	errs.Add(r.options.Metadata.Close(ctx))
	return errs.Errors()
}

// Layout returns the folder layout the registry works on.
func (r *Registry) Layout() data.Layout {
	return r.options.Layout
}

// FileSystem returns the filesystem assets and artifacts are read from.
func (r *Registry) FileSystem() storage.FileSystem {
	return r.fsys
}

// GetByID returns the resource with id. A miss is logged.
func (r *Registry) GetByID(id uint64) (*data.Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resources[id]
	if !ok {
		r.log.Warn("Resource '%d' not found", id)
	}
	return res, ok
}

// GetByPath returns the resource imported from assetPath, ignoring ASCII case.
func (r *Registry) GetByPath(assetPath string) (*data.Resource, bool) {
	res, ok := r.Exists(assetPath)
	if !ok {
		r.log.Debug("No resource registered for '%s'", assetPath)
	}
	return res, ok
}

// Exists checks the path index without logging.
func (r *Registry) Exists(assetPath string) (*data.Resource, bool) {
	cleaned, err := data.CleanPath(assetPath)
	if err != nil || cleaned == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.getByPathUnsafe(cleaned)
}

// GetTextureByName returns the first texture, in path order, whose name
// matches ignoring ASCII case.
func (r *Registry) GetTextureByName(name string) (*data.Resource, bool) {
	return r.getByName(data.KindTexture, name)
}

func (r *Registry) GetSceneByName(name string) (*data.Resource, bool) {
	return r.getByName(data.KindScene, name)
}

func (r *Registry) getByName(kind data.Kind, name string) (*data.Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *data.Resource
	r.paths.Scan(func(_ string, id uint64) bool {
		res := r.resources[id]
		if res != nil && res.Kind == kind && data.StringCmp(res.Name, name) {
			found = res
			return false
		}
		return true
	})
	return found, found != nil
}

// List returns the resources of kind ordered by asset path, followed by
// resources without an asset ordered by id. KindUnknown lists everything.
func (r *Registry) List(kind data.Kind) []*data.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*data.Resource, 0)
	r.paths.Scan(func(_ string, id uint64) bool {
		if res := r.resources[id]; res != nil && (kind == data.KindUnknown || res.Kind == kind) {
			result = append(result, res)
		}
		return true
	})

	var detached []*data.Resource
	for _, res := range r.resources {
		if res.AssetPath == "" && (kind == data.KindUnknown || res.Kind == kind) {
			detached = append(detached, res)
		}
	}
	sort.Slice(detached, func(i, j int) bool {
		return detached[i].ID < detached[j].ID
	})
	return append(result, detached...)
}

// Acquire adds a reference to the resource.
func (r *Registry) Acquire(id uint64) (*data.Resource, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.resources[id]
	if !ok {
		r.log.Warn("Unable to acquire resource '%d': not found", id)
		return nil, false
	}

	res.References++
	return res, true
}

// Release drops a reference. It fails for unknown ids and for resources
// without references.
func (r *Registry) Release(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.resources[id]
	if !ok {
		r.log.Warn("Unable to release resource '%d': not found", id)
		return fmt.Errorf("release %d: %w", id, data.ErrNotExist)
	}
	if res.References == 0 {
		r.log.Warn("Unable to release resource '%d': no references held", id)
		return fmt.Errorf("release %d: %w: no references held", id, data.ErrInvalid)
	}

	res.References--
	return nil
}

// Tree returns the cached folder tree of the asset root.
func (r *Registry) Tree() *filetree.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tree
}

// Len returns the number of live resources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.resources)
}

// Verify checks that every resource is reachable by exactly one id and
// every asset backed resource by exactly one path.
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	errs := &data.Errors{}
	indexed := make(map[uint64]string)

	r.paths.Scan(func(key string, id uint64) bool {
		res, ok := r.resources[id]
		switch {
		case !ok:
			errs.Add(fmt.Errorf("%w: path '%s' points to missing resource '%d'", data.ErrInvalid, key, id))
		case data.FoldKey(res.AssetPath) != key:
			errs.Add(fmt.Errorf("%w: path '%s' points to resource '%d' of '%s'", data.ErrDuplicatePath, key, id, res.AssetPath))
		}
		if other, exists := indexed[id]; exists {
			errs.Add(fmt.Errorf("%w: '%d' indexed by '%s' and '%s'", data.ErrDuplicateID, id, other, key))
		}
		indexed[id] = key
		return true
	})

	for id, res := range r.resources {
		if id == 0 || res.ID != id {
			errs.Add(fmt.Errorf("%w: resource '%d' stored under '%d'", data.ErrDuplicateID, res.ID, id))
		}
		if res.AssetPath != "" {
			if _, ok := indexed[id]; !ok {
				errs.Add(fmt.Errorf("%w: resource '%d' of '%s' is not indexed", data.ErrInvalid, id, res.AssetPath))
			}
		}
	}

	if err := errs.Errors(); err != nil {
		r.log.Error("Registry failed verification: %v", err)
		return err
	}
	return nil
}

// getByPathUnsafe looks up a cleaned asset path.
// MUST be called while holding a lock.
func (r *Registry) getByPathUnsafe(assetPath string) (*data.Resource, bool) {
	id, ok := r.paths.Get(data.FoldKey(assetPath))
	if !ok {
		return nil, false
	}
	res, ok := r.resources[id]
	return res, ok
}

// insertUnsafe registers res or updates the registered resource with the
// same id in place, so handed out pointers stay valid.
// MUST be called while holding the write lock.
func (r *Registry) insertUnsafe(res *data.Resource) (*data.Resource, error) {
	if res.ID == 0 {
		return nil, fmt.Errorf("%w: resource without id", data.ErrInvalid)
	}

	key := data.FoldKey(res.AssetPath)
	if res.AssetPath != "" {
		if other, ok := r.paths.Get(key); ok && other != res.ID {
			return nil, fmt.Errorf("%w: '%s' already registered as '%d'", data.ErrDuplicatePath, res.AssetPath, other)
		}
	}

	existing, ok := r.resources[res.ID]
	if ok {
		if existing.AssetPath != "" && !data.StringCmp(existing.AssetPath, res.AssetPath) {
			return nil, fmt.Errorf("%w: '%d' already registered for '%s'", data.ErrDuplicateID, res.ID, existing.AssetPath)
		}

		existing.Kind = res.Kind
		existing.Name = res.Name
		existing.AssetPath = res.AssetPath
		existing.LibraryPath = res.LibraryPath
		existing.State = res.State
		existing.Payload = res.Payload
		res = existing
	} else {
		r.resources[res.ID] = res
	}

	if res.AssetPath != "" {
		r.paths.Set(key, res.ID)
	}
	return res, nil
}

// removeUnsafe drops a resource together with the meshes it owns.
// MUST be called while holding the write lock.
func (r *Registry) removeUnsafe(id uint64) *data.Resource {
	res, ok := r.resources[id]
	if !ok {
		return nil
	}

	delete(r.resources, id)
	if res.AssetPath != "" {
		if indexed, ok := r.paths.Get(data.FoldKey(res.AssetPath)); ok && indexed == id {
			r.paths.Delete(data.FoldKey(res.AssetPath))
		}
	}

	if model, ok := res.Model(); ok {
		for _, mesh := range model.Meshes {
			delete(r.resources, mesh)
		}
	}
	return res
}

func (r *Registry) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.closed
}

func (r *Registry) errClosed() error {
	return fmt.Errorf("registry: %w", data.ErrBackendClosed)
}

// ignoreNotExist filters data.ErrNotExist from cleanup errors.
func ignoreNotExist(err error) error {
	if errors.Is(err, data.ErrNotExist) {
		return nil
	}
	return err
}
