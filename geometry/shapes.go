package geometry

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/chewxy/math32"
	"github.com/mwantia/assetdb/data"
)

// Parameters the built-in primitives are generated with.
const (
	SphereSubdivisions = 5
	RockSeed           = 3
	RockSubdivisions   = 3
	TorusSlices        = 12
	TorusStacks        = 12
	TorusRadius        = 0.5
)

// Generate builds the mesh for a built-in primitive.
func Generate(kind data.PrimitiveKind) (*Mesh, error) {
	switch kind {
	case data.PrimitiveCube:
		return Cube(), nil
	case data.PrimitiveSphere:
		return Sphere(SphereSubdivisions), nil
	case data.PrimitiveRock:
		return Rock(RockSeed, RockSubdivisions), nil
	case data.PrimitiveTorus:
		return Torus(TorusSlices, TorusStacks, TorusRadius), nil
	case data.PrimitiveDodecahedron:
		return Dodecahedron(), nil
	case data.PrimitiveIcosahedron:
		return Icosahedron(), nil
	case data.PrimitiveOctahedron:
		return Octahedron(), nil
	}
	return nil, fmt.Errorf("%w: no generator for primitive %s", data.ErrUnsupported, kind)
}

// Cube returns a unit cube centred on the origin with four vertices per
// face so every face keeps a flat normal.
func Cube() *Mesh {
	faces := []struct{ n, u, v Vec3 }{
		{Vec3{1, 0, 0}, Vec3{0, 1, 0}, Vec3{0, 0, 1}},
		{Vec3{-1, 0, 0}, Vec3{0, 0, 1}, Vec3{0, 1, 0}},
		{Vec3{0, 1, 0}, Vec3{0, 0, 1}, Vec3{1, 0, 0}},
		{Vec3{0, -1, 0}, Vec3{1, 0, 0}, Vec3{0, 0, 1}},
		{Vec3{0, 0, 1}, Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		{Vec3{0, 0, -1}, Vec3{0, 1, 0}, Vec3{1, 0, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	m := &Mesh{}
	for _, f := range faces {
		base := uint32(len(m.Positions))
		for _, c := range corners {
			p := f.n.Scale(0.5).Add(f.u.Scale(c[0] * 0.5)).Add(f.v.Scale(c[1] * 0.5))
			m.addVertex(p)
			m.Normals = append(m.Normals, f.n)
			m.UVs = append(m.UVs, [2]float32{(c[0] + 1) / 2, (c[1] + 1) / 2})
		}
		m.addTriangle(base, base+1, base+2)
		m.addTriangle(base, base+2, base+3)
	}
	return m
}

var icosahedronFaces = [20][3]uint32{
	{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
	{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
	{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
	{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
}

func icosahedronBase() *Mesh {
	t := (1 + math32.Sqrt(5)) / 2
	points := []Vec3{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}

	m := &Mesh{}
	for _, p := range points {
		m.addVertex(p.Normalize())
	}
	for _, f := range icosahedronFaces {
		m.addTriangle(f[0], f[1], f[2])
	}
	m.orientOutward()
	return m
}

// Icosahedron returns a regular icosahedron inscribed in the unit sphere.
func Icosahedron() *Mesh {
	m := icosahedronBase()
	m.ComputeNormals()
	m.sphericalUVs()
	return m
}

// Octahedron returns a regular octahedron inscribed in the unit sphere.
func Octahedron() *Mesh {
	m := &Mesh{}
	for _, p := range []Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}} {
		m.addVertex(p)
	}

	for _, x := range []uint32{0, 1} {
		for _, y := range []uint32{2, 3} {
			for _, z := range []uint32{4, 5} {
				m.addTriangle(x, y, z)
			}
		}
	}

	m.orientOutward()
	m.ComputeNormals()
	m.sphericalUVs()
	return m
}

// Dodecahedron is built as the dual of the icosahedron: one vertex per
// icosahedron face, one pentagon per icosahedron vertex.
func Dodecahedron() *Mesh {
	ico := icosahedronBase()

	m := &Mesh{}
	for i := 0; i < len(ico.Indices); i += 3 {
		a, b, c := ico.Positions[ico.Indices[i]], ico.Positions[ico.Indices[i+1]], ico.Positions[ico.Indices[i+2]]
		m.addVertex(a.Add(b).Add(c).Normalize())
	}

	for v := range ico.Positions {
		axis := ico.Positions[v]

		var ring []uint32
		for f := 0; f < len(ico.Indices)/3; f++ {
			for k := 0; k < 3; k++ {
				if ico.Indices[f*3+k] == uint32(v) {
					ring = append(ring, uint32(f))
				}
			}
		}

		// order the surrounding face centres by angle around the vertex
		ref := tangent(m.Positions[ring[0]], axis)
		angle := func(idx uint32) float32 {
			d := tangent(m.Positions[idx], axis)
			return math32.Atan2(ref.Cross(d).Dot(axis), ref.Dot(d))
		}
		sort.Slice(ring, func(i, j int) bool {
			return angle(ring[i]) < angle(ring[j])
		})

		for k := 1; k+1 < len(ring); k++ {
			m.addTriangle(ring[0], ring[k], ring[k+1])
		}
	}

	m.orientOutward()
	m.ComputeNormals()
	m.sphericalUVs()
	return m
}

func tangent(p, axis Vec3) Vec3 {
	return p.Sub(axis.Scale(p.Dot(axis)))
}

// Sphere subdivides an icosahedron the given number of times and projects
// every vertex onto the unit sphere.
func Sphere(subdivisions int) *Mesh {
	m := icosahedronBase()
	for i := 0; i < subdivisions; i++ {
		subdivide(m)
	}

	m.Normals = make([]Vec3, len(m.Positions))
	for i, p := range m.Positions {
		m.Normals[i] = p.Normalize()
	}
	m.sphericalUVs()
	return m
}

// subdivide splits every triangle into four, sharing edge midpoints.
func subdivide(m *Mesh) {
	cache := make(map[[2]uint32]uint32)
	midpoint := func(a, b uint32) uint32 {
		key := [2]uint32{a, b}
		if a > b {
			key = [2]uint32{b, a}
		}
		if idx, ok := cache[key]; ok {
			return idx
		}

		idx := m.addVertex(m.Positions[a].Add(m.Positions[b]).Normalize())
		cache[key] = idx
		return idx
	}

	indices := m.Indices
	m.Indices = make([]uint32, 0, len(indices)*4)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		ab, bc, ca := midpoint(a, b), midpoint(b, c), midpoint(c, a)

		m.addTriangle(a, ab, ca)
		m.addTriangle(b, bc, ab)
		m.addTriangle(c, ca, bc)
		m.addTriangle(ab, bc, ca)
	}
}

// Rock displaces a subdivided sphere radially with a few seeded bumps.
// The same seed always yields the same rock.
func Rock(seed uint64, subdivisions int) *Mesh {
	m := icosahedronBase()
	for i := 0; i < subdivisions; i++ {
		subdivide(m)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	type bump struct {
		dir       Vec3
		amplitude float32
	}
	bumps := make([]bump, 8)
	for i := range bumps {
		dir := Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1}.Normalize()
		if dir.Len() == 0 {
			dir = Vec3{0, 1, 0}
		}
		bumps[i] = bump{dir: dir, amplitude: (rng.Float32()*2 - 1) * 0.08}
	}

	for i, p := range m.Positions {
		radius := float32(1)
		for _, b := range bumps {
			d := p.Dot(b.dir)
			radius += b.amplitude * d * d
		}
		m.Positions[i] = p.Scale(radius)
	}

	m.orientOutward()
	m.ComputeNormals()
	m.sphericalUVs()
	return m
}

// Torus wraps a slices x stacks grid around a ring of radius 1 with the
// given tube radius. Seam vertices are duplicated so UVs stay continuous.
func Torus(slices, stacks int, radius float32) *Mesh {
	m := &Mesh{}

	for i := 0; i <= slices; i++ {
		u := float32(i) / float32(slices)
		theta := u * 2 * math32.Pi
		cu, su := math32.Cos(theta), math32.Sin(theta)

		for j := 0; j <= stacks; j++ {
			v := float32(j) / float32(stacks)
			phi := v * 2 * math32.Pi
			cv, sv := math32.Cos(phi), math32.Sin(phi)

			ring := 1 + radius*cv
			m.addVertex(Vec3{ring * cu, ring * su, radius * sv})
			m.Normals = append(m.Normals, Vec3{cv * cu, cv * su, sv})
			m.UVs = append(m.UVs, [2]float32{u, v})
		}
	}

	row := uint32(stacks + 1)
	for i := 0; i < slices; i++ {
		for j := 0; j < stacks; j++ {
			a := uint32(i)*row + uint32(j)
			b := a + row
			m.addTriangle(a, b, b+1)
			m.addTriangle(a, b+1, a+1)
		}
	}
	return m
}
