package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringCmp(t *testing.T) {
	assert.True(t, StringCmp("Assets/Textures/A.PNG", "assets/textures/a.png"))
	assert.True(t, StringCmp("", ""))
	assert.False(t, StringCmp("Assets/a.png", "Assets/a.pn"))
	assert.False(t, StringCmp("Assets/a.png", "Assets/b.png"))
	// only ASCII letters fold
	assert.False(t, StringCmp("Ä.png", "ä.png"))
}

func TestFoldKeyAgreesWithStringCmp(t *testing.T) {
	pairs := [][2]string{
		{"Assets/Models/Ship.FBX", "assets/models/ship.fbx"},
		{"Assets/x", "Assets/y"},
		{"ÄBC", "äbc"},
	}
	for _, p := range pairs {
		assert.Equal(t, StringCmp(p[0], p[1]), FoldKey(p[0]) == FoldKey(p[1]), "%s vs %s", p[0], p[1])
	}
}

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"Assets/Textures/a.png":    "Assets/Textures/a.png",
		"/Assets//Textures/a.png":  "Assets/Textures/a.png",
		"Assets\\Models\\ship.fbx": "Assets/Models/ship.fbx",
		"Assets/Models/../a.png":   "Assets/a.png",
		"/":                        "",
	}
	for in, want := range cases {
		got, err := CleanPath(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := CleanPath("../outside")
	assert.ErrorIs(t, err, ErrOutsideRoot)

	_, err = CleanPath("  ")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("Assets/Textures/a.png", "assets/textures"))
	assert.True(t, HasPrefix("Assets/Textures", "Assets/Textures/"))
	assert.True(t, HasPrefix("anything", ""))
	assert.False(t, HasPrefix("Assets/TexturesOld/a.png", "Assets/Textures"))
	assert.False(t, HasPrefix("Assets", "Assets/Textures"))

	assert.Equal(t, "a.png", ToRelativePath("Assets/Textures/a.png", "assets/textures"))
	assert.Equal(t, "", ToRelativePath("Assets", "Assets"))
}

func TestLayout(t *testing.T) {
	l := DefaultLayout()

	assert.Equal(t, KindTexture, KindFromExtension("Assets/Textures/wall.PNG"))
	assert.Equal(t, KindModel, KindFromExtension("ship.fbx"))
	assert.Equal(t, KindScene, KindFromExtension("level.alienScene"))
	assert.Equal(t, KindPrefab, KindFromExtension("enemy.alienPrefab"))
	assert.Equal(t, KindUnknown, KindFromExtension("notes.txt"))
	assert.True(t, IsHeader("EngineScripts/Player.h"))

	assert.Equal(t, "Library/Meshes/42.alienMesh", l.LibraryPath(KindMesh, 42))
	assert.Equal(t, "Library/Textures/7.alienTexture", l.LibraryPath(KindTexture, 7))
	assert.Equal(t, "Assets/Textures", l.AssetFolder(KindTexture))

	assert.True(t, l.IsMeta("Assets/Textures/a.png.meta"))
	assert.True(t, l.IsMeta("Assets/Textures/a.png.META"))
	assert.False(t, l.IsMeta("Assets/Textures/a.png"))
	assert.Equal(t, "Assets/Textures/a.png.meta", l.MetaPath("Assets/Textures/a.png"))
}

func TestResourceAccessors(t *testing.T) {
	r := &Resource{ID: 1, Kind: KindMesh, Payload: &MeshData{Positions: make([]float32, 9), Indices: []uint32{0, 1, 2}}}

	mesh, ok := r.Mesh()
	require.True(t, ok)
	assert.Equal(t, 3, mesh.VertexCount())
	assert.Equal(t, 1, mesh.TriangleCount())

	_, ok = r.Texture()
	assert.False(t, ok)

	assert.Equal(t, KindScript, PayloadKind(NewPayload(KindScript)))
	assert.Nil(t, NewPayload(KindUnknown))
}

func TestRecordClone(t *testing.T) {
	rec := NewRecord(9, KindModel, "Assets/Models/ship.fbx")
	rec.Children = []uint64{1, 2}
	rec.Params["scale"] = "1.0"

	clone := rec.Clone()
	clone.Children[0] = 99
	clone.Params["scale"] = "2.0"

	assert.Equal(t, uint64(1), rec.Children[0])
	assert.Equal(t, "1.0", rec.Params["scale"])
	assert.Equal(t, "ship", clone.Name)
	assert.NoError(t, clone.Validate())
	assert.ErrorIs(t, (&Record{}).Validate(), ErrMalformed)
}
