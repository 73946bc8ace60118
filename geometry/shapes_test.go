package geometry

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/mwantia/assetdb/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closed reports whether every undirected edge is shared by exactly two
// triangles with opposite direction, i.e. a watertight consistently wound mesh.
func closed(m *Mesh) bool {
	edges := make(map[[2]uint32]int)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		tri := [3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]}
		for k := 0; k < 3; k++ {
			edges[[2]uint32{tri[k], tri[(k+1)%3]}]++
		}
	}

	for edge, count := range edges {
		if count != 1 || edges[[2]uint32{edge[1], edge[0]}] != 1 {
			return false
		}
	}
	return true
}

func TestGenerateAllPrimitives(t *testing.T) {
	for _, kind := range data.Primitives() {
		t.Run(kind.String(), func(t *testing.T) {
			m, err := Generate(kind)
			require.NoError(t, err)
			require.NotEmpty(t, m.Indices)

			assert.Len(t, m.Normals, len(m.Positions))
			assert.Len(t, m.UVs, len(m.Positions))
			assert.Zero(t, len(m.Indices)%3)
			assert.Greater(t, m.Volume(), float32(0), "Expected outward winding")

			for _, idx := range m.Indices {
				assert.Less(t, int(idx), len(m.Positions))
			}

			payload := m.Data()
			assert.Equal(t, len(m.Positions), payload.VertexCount())
			assert.Equal(t, m.TriangleCount(), payload.TriangleCount())
		})
	}

	_, err := Generate(data.PrimitiveNone)
	assert.ErrorIs(t, err, data.ErrUnsupported)
}

func TestCube(t *testing.T) {
	m := Cube()
	assert.Len(t, m.Positions, 24)
	assert.Equal(t, 12, m.TriangleCount())
	assert.InDelta(t, 1.0, m.Volume(), 1e-5)

	min, max := m.Bounds()
	assert.Equal(t, Vec3{-0.5, -0.5, -0.5}, min)
	assert.Equal(t, Vec3{0.5, 0.5, 0.5}, max)
}

func TestPlatonicSolids(t *testing.T) {
	ico := Icosahedron()
	assert.Len(t, ico.Positions, 12)
	assert.Equal(t, 20, ico.TriangleCount())
	assert.True(t, closed(ico))

	oct := Octahedron()
	assert.Len(t, oct.Positions, 6)
	assert.Equal(t, 8, oct.TriangleCount())
	assert.True(t, closed(oct))
	assert.InDelta(t, 4.0/3.0, oct.Volume(), 1e-5)

	dod := Dodecahedron()
	assert.Len(t, dod.Positions, 20)
	assert.Equal(t, 36, dod.TriangleCount())
	assert.True(t, closed(dod))
}

func TestSphere(t *testing.T) {
	m := Sphere(SphereSubdivisions)
	assert.Len(t, m.Positions, 10*1024+2)
	assert.Equal(t, 20*1024, m.TriangleCount())
	assert.True(t, closed(m))
	assert.InDelta(t, 4.0/3.0*math32.Pi, m.Volume(), 0.01)

	for _, p := range m.Positions {
		assert.InDelta(t, 1.0, p.Len(), 1e-5)
	}
}

func TestRockDeterministic(t *testing.T) {
	a := Rock(RockSeed, RockSubdivisions)
	b := Rock(RockSeed, RockSubdivisions)
	c := Rock(RockSeed+1, RockSubdivisions)

	assert.Equal(t, a.Positions, b.Positions)
	assert.NotEqual(t, a.Positions, c.Positions)
	assert.True(t, closed(a))
	assert.Equal(t, 20*64, a.TriangleCount())
}

func TestTorus(t *testing.T) {
	m := Torus(TorusSlices, TorusStacks, TorusRadius)
	assert.Len(t, m.Positions, (TorusSlices+1)*(TorusStacks+1))
	assert.Equal(t, 2*TorusSlices*TorusStacks, m.TriangleCount())

	// a 12x12 torus undershoots the analytic 2*pi^2*R*r^2
	analytic := float32(2 * math32.Pi * math32.Pi * TorusRadius * TorusRadius)
	assert.Less(t, m.Volume(), analytic)
	assert.Greater(t, m.Volume(), analytic*0.85)
}
