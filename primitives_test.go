package assetdb

import (
	"testing"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPrimitiveSharesOneInstance(t *testing.T) {
	reg := newTestRegistry(t, newTestFileSystem(t))

	first := reg.GetPrimitive(data.PrimitiveTorus)
	require.NotNil(t, first)
	second := reg.GetPrimitive(data.PrimitiveTorus)

	assert.Same(t, first, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.References)
	assert.True(t, second.IsLoaded())
	assert.Equal(t, data.PrimitiveTorus, second.Primitive)

	mesh, ok := second.Mesh()
	require.True(t, ok)
	assert.Equal(t, (geometry.TorusSlices+1)*(geometry.TorusStacks+1), mesh.VertexCount())

	byID, ok := reg.GetByID(first.ID)
	require.True(t, ok)
	assert.Same(t, first, byID)
	require.NoError(t, reg.Verify())
}

func TestGetPrimitiveReferencesGrow(t *testing.T) {
	reg := newTestRegistry(t, newTestFileSystem(t))

	for _, kind := range data.Primitives() {
		previous := 0
		for i := 0; i < 5; i++ {
			res := reg.GetPrimitive(kind)
			require.NotNil(t, res, kind.String())
			assert.Greater(t, res.References, previous)
			previous = res.References
		}
	}

	sphere := reg.GetPrimitive(data.PrimitiveSphere)
	mesh, _ := sphere.Mesh()
	assert.Equal(t, 10242, mesh.VertexCount())
	assert.Equal(t, 20480, mesh.TriangleCount())

	// primitives are not asset backed
	for _, res := range reg.List(data.KindMesh) {
		assert.Empty(t, res.AssetPath)
	}
	assert.Len(t, reg.List(data.KindMesh), len(data.Primitives()))
}

func TestGetPrimitiveWithoutInstancing(t *testing.T) {
	reg := newTestRegistry(t, newTestFileSystem(t), WithInstancing(false))

	cube := reg.GetPrimitive(data.PrimitiveCube)
	require.NotNil(t, cube)
	reg.GetPrimitive(data.PrimitiveCube)
	assert.Equal(t, 0, cube.References)
}

func TestGetPrimitiveUnknownKind(t *testing.T) {
	reg := newTestRegistry(t, newTestFileSystem(t))

	assert.Nil(t, reg.GetPrimitive(data.PrimitiveNone))
	assert.Nil(t, reg.GetPrimitive(data.PrimitiveKind(42)))
	assert.Zero(t, reg.Len())
}
