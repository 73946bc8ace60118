package geometry

import (
	"github.com/chewxy/math32"
	"github.com/mwantia/assetdb/data"
)

type Vec3 [3]float32

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (a Vec3) Scale(s float32) Vec3 {
	return Vec3{a[0] * s, a[1] * s, a[2] * s}
}

func (a Vec3) Dot(b Vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a Vec3) Len() float32 {
	return math32.Sqrt(a.Dot(a))
}

func (a Vec3) Normalize() Vec3 {
	l := a.Len()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}

// Mesh is an indexed triangle list with per-vertex attributes.
type Mesh struct {
	Positions []Vec3
	Normals   []Vec3
	UVs       [][2]float32
	Indices   []uint32
}

func (m *Mesh) addVertex(p Vec3) uint32 {
	m.Positions = append(m.Positions, p)
	return uint32(len(m.Positions) - 1)
}

func (m *Mesh) addTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// orientOutward flips every triangle whose winding faces the origin. Only
// valid for shapes that are star-shaped around the origin.
func (m *Mesh) orientOutward() {
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Positions[m.Indices[i]], m.Positions[m.Indices[i+1]], m.Positions[m.Indices[i+2]]
		if a.Dot(b.Cross(c)) < 0 {
			m.Indices[i+1], m.Indices[i+2] = m.Indices[i+2], m.Indices[i+1]
		}
	}
}

// ComputeNormals averages the face normals around each vertex.
func (m *Mesh) ComputeNormals() {
	m.Normals = make([]Vec3, len(m.Positions))

	for i := 0; i+2 < len(m.Indices); i += 3 {
		ia, ib, ic := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		a, b, c := m.Positions[ia], m.Positions[ib], m.Positions[ic]

		// unnormalised, so larger faces weigh more
		n := b.Sub(a).Cross(c.Sub(a))
		m.Normals[ia] = m.Normals[ia].Add(n)
		m.Normals[ib] = m.Normals[ib].Add(n)
		m.Normals[ic] = m.Normals[ic].Add(n)
	}

	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalize()
	}
}

// sphericalUVs maps each vertex direction to longitude and latitude.
func (m *Mesh) sphericalUVs() {
	m.UVs = make([][2]float32, len(m.Positions))
	for i, p := range m.Positions {
		d := p.Normalize()
		u := 0.5 + math32.Atan2(d[2], d[0])/(2*math32.Pi)
		v := 0.5 - math32.Asin(clamp(d[1], -1, 1))/math32.Pi
		m.UVs[i] = [2]float32{u, v}
	}
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

// Volume returns the signed enclosed volume; positive for closed meshes
// with outward winding.
func (m *Mesh) Volume() float32 {
	var volume float32
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Positions[m.Indices[i]], m.Positions[m.Indices[i+1]], m.Positions[m.Indices[i+2]]
		volume += a.Dot(b.Cross(c))
	}
	return volume / 6
}

// Bounds returns the axis aligned bounding box.
func (m *Mesh) Bounds() (min, max Vec3) {
	if len(m.Positions) == 0 {
		return
	}

	min, max = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for k := 0; k < 3; k++ {
			min[k] = math32.Min(min[k], p[k])
			max[k] = math32.Max(max[k], p[k])
		}
	}
	return min, max
}

// Data flattens the mesh into a resource payload.
func (m *Mesh) Data() *data.MeshData {
	out := &data.MeshData{
		Positions: make([]float32, 0, len(m.Positions)*3),
		Normals:   make([]float32, 0, len(m.Normals)*3),
		UVs:       make([]float32, 0, len(m.UVs)*2),
		Indices:   append([]uint32(nil), m.Indices...),
	}

	for _, p := range m.Positions {
		out.Positions = append(out.Positions, p[0], p[1], p[2])
	}
	for _, n := range m.Normals {
		out.Normals = append(out.Normals, n[0], n[1], n[2])
	}
	for _, uv := range m.UVs {
		out.UVs = append(out.UVs, uv[0], uv[1])
	}
	return out
}
