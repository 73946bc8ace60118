package assetdb

import (
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/geometry"
)

// GetPrimitive returns the shared mesh resource of a built-in shape,
// generating it on first use. Every call returns the same instance and,
// with instancing enabled, counts one more reference. Unknown kinds
// return nil.
func (r *Registry) GetPrimitive(kind data.PrimitiveKind) *data.Resource {
	if !kind.Valid() {
		r.log.Warn("Unknown primitive '%s' requested", kind)
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	res := r.getPrimitiveUnsafe(kind)
	if res == nil {
		mesh, err := geometry.Generate(kind)
		if err != nil {
			r.log.Error("Unable to generate primitive '%s': %v", kind, err)
			return nil
		}

		res = &data.Resource{
			ID:        r.newIDUnsafe(),
			Kind:      data.KindMesh,
			Name:      kind.String(),
			State:     data.StateLoaded,
			Primitive: kind,
			Payload:   mesh.Data(),
		}
		r.resources[res.ID] = res
		r.primitives[kind] = res.ID
		r.log.Debug("Generated primitive '%s' with %d triangles", kind, mesh.TriangleCount())
	}

	if r.options.Instancing {
		res.References++
	}
	return res
}

// getPrimitiveUnsafe returns the cached primitive of kind, if any.
// MUST be called while holding a lock.
func (r *Registry) getPrimitiveUnsafe(kind data.PrimitiveKind) *data.Resource {
	id, ok := r.primitives[kind]
	if !ok {
		return nil
	}
	return r.resources[id]
}
