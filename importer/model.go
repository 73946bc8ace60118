package importer

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/geometry"
)

// meshParamPrefix keys the record params that pin mesh identities by name.
const meshParamPrefix = "mesh:"

func importModel(req *Request) (*Result, error) {
	model := &data.ModelData{
		Format:   strings.TrimPrefix(data.Ext(req.AssetPath), "."),
		Checksum: Checksum(req.Content),
	}

	if model.Format != "obj" {
		// Only Wavefront OBJ is decoded; other formats are kept opaque.
		model.Source = req.Content
		return &Result{Payload: model}, nil
	}

	groups, err := parseOBJ(req.Content)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: model contains no faces", data.ErrUnsupported)
	}

	if req.Record.Params == nil {
		req.Record.Params = make(map[string]string)
	}

	previous := pinnedMeshIDs(req.Record)

	// drop pins of meshes that no longer exist
	for key := range req.Record.Params {
		if strings.HasPrefix(key, meshParamPrefix) {
			delete(req.Record.Params, key)
		}
	}

	result := &Result{Payload: model}
	for _, group := range groups {
		id, ok := previous[group.name]
		if !ok {
			id = req.NewID()
		}
		req.Record.Params[meshParamPrefix+group.name] = strconv.FormatUint(id, 10)

		payload := group.mesh.Data()
		payload.Model = req.Record.ID

		model.Meshes = append(model.Meshes, id)
		result.Children = append(result.Children, Child{
			ID:      id,
			Name:    group.name,
			Payload: payload,
		})
	}

	return result, nil
}

// pinnedMeshIDs returns the mesh name to id pins of an earlier import.
func pinnedMeshIDs(rec *data.Record) map[string]uint64 {
	ids := make(map[string]uint64)
	for key, value := range rec.Params {
		name, ok := strings.CutPrefix(key, meshParamPrefix)
		if !ok {
			continue
		}
		if id, err := strconv.ParseUint(value, 10, 64); err == nil && id != 0 {
			ids[name] = id
		}
	}
	return ids
}

type objGroup struct {
	name string
	mesh *geometry.Mesh

	// "v/vt/vn" -> vertex index within mesh
	lookup map[string]uint32
	hasUV  bool
}

// parseOBJ reads positions, texture coordinates, normals and faces. Every
// "o" or "g" statement starts a new mesh; faces are fan triangulated.
func parseOBJ(content []byte) ([]*objGroup, error) {
	var (
		positions []geometry.Vec3
		normals   []geometry.Vec3
		uvs       [][2]float32
		groups    []*objGroup
		current   *objGroup
		names     = make(map[string]int)
	)

	start := func(name string) {
		if name == "" {
			name = "default"
		}
		// group names must stay unique to pin identities
		if n := names[name]; n > 0 {
			names[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			names[name] = 1
		}
		current = &objGroup{name: name, mesh: &geometry.Mesh{}, lookup: make(map[string]uint32)}
		groups = append(groups, current)
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v", "vn":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if fields[0] == "v" {
				positions = append(positions, v)
			} else {
				normals = append(normals, v)
			}
		case "vt":
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: texture coordinate needs two values", line)
			}
			u, err1 := strconv.ParseFloat(fields[1], 32)
			v, err2 := strconv.ParseFloat(fields[2], 32)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("line %d: invalid texture coordinate", line)
			}
			uvs = append(uvs, [2]float32{float32(u), float32(v)})
		case "o", "g":
			start(strings.Join(fields[1:], " "))
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least three vertices", line)
			}
			if current == nil {
				start("")
			}

			corners := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := current.vertex(ref, positions, uvs, normals)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				corners = append(corners, idx)
			}
			for k := 1; k+1 < len(corners); k++ {
				current.mesh.Indices = append(current.mesh.Indices, corners[0], corners[k], corners[k+1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	result := groups[:0]
	for _, group := range groups {
		if len(group.mesh.Indices) == 0 {
			continue
		}
		if len(group.mesh.Normals) != len(group.mesh.Positions) {
			group.mesh.ComputeNormals()
		}
		if !group.hasUV {
			group.mesh.UVs = nil
		}
		result = append(result, group)
	}
	return result, nil
}

// vertex resolves an OBJ face reference "v", "v/vt", "v//vn" or "v/vt/vn".
func (g *objGroup) vertex(ref string, positions []geometry.Vec3, uvs [][2]float32, normals []geometry.Vec3) (uint32, error) {
	parts := strings.Split(ref, "/")

	pi, err := resolveIndex(parts[0], len(positions))
	if err != nil {
		return 0, fmt.Errorf("position: %w", err)
	}

	ti, ni := -1, -1
	if len(parts) > 1 && parts[1] != "" {
		if ti, err = resolveIndex(parts[1], len(uvs)); err != nil {
			return 0, fmt.Errorf("texture coordinate: %w", err)
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if ni, err = resolveIndex(parts[2], len(normals)); err != nil {
			return 0, fmt.Errorf("normal: %w", err)
		}
	}

	key := fmt.Sprintf("%d/%d/%d", pi, ti, ni)
	if idx, ok := g.lookup[key]; ok {
		return idx, nil
	}

	m := g.mesh
	idx := uint32(len(m.Positions))
	m.Positions = append(m.Positions, positions[pi])

	uv := [2]float32{}
	if ti >= 0 {
		uv = uvs[ti]
		g.hasUV = true
	}
	m.UVs = append(m.UVs, uv)

	// normals are only kept when every vertex carries one
	if ni >= 0 && len(m.Normals) == len(m.Positions)-1 {
		m.Normals = append(m.Normals, normals[ni])
	}

	g.lookup[key] = idx
	return idx, nil
}

// resolveIndex converts a 1-based or negative relative OBJ index.
func resolveIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index '%s'", s)
	}

	idx := n - 1
	if n < 0 {
		idx = count + n
	}
	if n == 0 || idx < 0 || idx >= count {
		return 0, fmt.Errorf("index %d out of range", n)
	}
	return idx, nil
}

func parseVec3(fields []string) (geometry.Vec3, error) {
	var v geometry.Vec3
	if len(fields) < 3 {
		return v, fmt.Errorf("expected three components")
	}

	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, fmt.Errorf("invalid component '%s'", fields[i])
		}
		v[i] = float32(f)
	}
	return v, nil
}
