package data

import "encoding/json"

type State int

const (
	StateUnloaded State = iota
	StateLoaded
)

func (s State) String() string {
	if s == StateLoaded {
		return "loaded"
	}
	return "unloaded"
}

// Resource is the in-memory counterpart of one imported asset or primitive.
// Only the registry constructs and mutates resources.
type Resource struct {
	ID          uint64        `json:"id"`
	Kind        Kind          `json:"kind"`
	Name        string        `json:"name"`
	AssetPath   string        `json:"asset_path,omitempty"`
	LibraryPath string        `json:"library_path,omitempty"`
	References  int           `json:"references"`
	State       State         `json:"state"`
	Primitive   PrimitiveKind `json:"primitive,omitempty"`
	Payload     Payload       `json:"-"`
}

// Payload is implemented by the per-kind data types of this package only.
type Payload interface {
	payloadKind() Kind
}

type MeshData struct {
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals"`
	UVs       []float32 `json:"uvs,omitempty"`
	Indices   []uint32  `json:"indices"`
	// Model is the owning model resource, zero for primitives.
	Model uint64 `json:"model,omitempty"`
}

type TextureData struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Thumbnail []byte `json:"thumbnail,omitempty"`
	Source    []byte `json:"source,omitempty"`
}

type ModelData struct {
	Format   string   `json:"format"`
	Meshes   []uint64 `json:"meshes"`
	Checksum string   `json:"checksum"`
	Source   []byte   `json:"source,omitempty"`
}

type PrefabData struct {
	Root     string          `json:"root,omitempty"`
	Document json.RawMessage `json:"document"`
}

type SceneData struct {
	Objects  int             `json:"objects"`
	Document json.RawMessage `json:"document"`
}

type ScriptData struct {
	HeaderPath     string   `json:"header_path"`
	Signature      string   `json:"signature"`
	DataStructures []string `json:"data_structures"`
}

func (*MeshData) payloadKind() Kind    { return KindMesh }
func (*TextureData) payloadKind() Kind { return KindTexture }
func (*ModelData) payloadKind() Kind   { return KindModel }
func (*PrefabData) payloadKind() Kind  { return KindPrefab }
func (*SceneData) payloadKind() Kind   { return KindScene }
func (*ScriptData) payloadKind() Kind  { return KindScript }

// PayloadKind reports the kind a payload belongs to, KindUnknown for nil.
func PayloadKind(p Payload) Kind {
	if p == nil {
		return KindUnknown
	}
	return p.payloadKind()
}

// NewPayload returns an empty payload for kind, or nil for KindUnknown.
func NewPayload(kind Kind) Payload {
	switch kind {
	case KindMesh:
		return &MeshData{}
	case KindTexture:
		return &TextureData{}
	case KindModel:
		return &ModelData{}
	case KindPrefab:
		return &PrefabData{}
	case KindScene:
		return &SceneData{}
	case KindScript:
		return &ScriptData{}
	}
	return nil
}

func (r *Resource) IsLoaded() bool {
	return r.State == StateLoaded
}

func (r *Resource) IsPrimitive() bool {
	return r.Primitive != PrimitiveNone
}

func (r *Resource) Mesh() (*MeshData, bool) {
	if r.Kind != KindMesh {
		return nil, false
	}
	p, ok := r.Payload.(*MeshData)
	return p, ok
}

func (r *Resource) Texture() (*TextureData, bool) {
	if r.Kind != KindTexture {
		return nil, false
	}
	p, ok := r.Payload.(*TextureData)
	return p, ok
}

func (r *Resource) Model() (*ModelData, bool) {
	if r.Kind != KindModel {
		return nil, false
	}
	p, ok := r.Payload.(*ModelData)
	return p, ok
}

func (r *Resource) Prefab() (*PrefabData, bool) {
	if r.Kind != KindPrefab {
		return nil, false
	}
	p, ok := r.Payload.(*PrefabData)
	return p, ok
}

func (r *Resource) Scene() (*SceneData, bool) {
	if r.Kind != KindScene {
		return nil, false
	}
	p, ok := r.Payload.(*SceneData)
	return p, ok
}

func (r *Resource) Script() (*ScriptData, bool) {
	if r.Kind != KindScript {
		return nil, false
	}
	p, ok := r.Payload.(*ScriptData)
	return p, ok
}

// VertexCount returns the number of vertices in the mesh.
func (m *MeshData) VertexCount() int {
	return len(m.Positions) / 3
}

// TriangleCount returns the number of indexed triangles in the mesh.
func (m *MeshData) TriangleCount() int {
	return len(m.Indices) / 3
}
