package builtin

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/mwantia/assetdb"
	"github.com/mwantia/assetdb/cmd"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/log"
	"github.com/mwantia/assetdb/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOBJ = `o Crate
v 0 0 0
v 1 0 0
v 1 1 0
f 1 2 3
`

func newTestManager(t *testing.T) (*cmd.Manager, *assetdb.Registry) {
	t.Helper()

	fsys, err := storage.NewMemory()
	require.NoError(t, err)

	files := map[string]string{
		"Assets/Models/crate.obj":         testOBJ,
		"Assets/Scenes/main.alienscene":   `{"objects":[{"name":"a"},{"name":"b"}]}`,
		"Assets/Prefabs/door.alienprefab": `{"root":{"name":"Door"}}`,
		"EngineScripts/Player.h":          "class GAME_API Player : public Script {};\n",
	}
	for p, content := range files {
		require.NoError(t, fsys.WriteFile(p, []byte(content)))
	}

	reg, err := assetdb.New(t.Context(), fsys, assetdb.WithLogger(log.NewDiscard()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = reg.Close(context.Background())
	})

	m := cmd.NewManager(reg)
	require.NoError(t, Register(m))
	return m, reg
}

func execute(t *testing.T, m *cmd.Manager, args ...string) (int, string, error) {
	t.Helper()

	var out bytes.Buffer
	code, err := m.Execute(t.Context(), &out, args...)
	return code, out.String(), err
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	m, _ := newTestManager(t)

	assert.Error(t, m.Register(&LsCommand{}))
	assert.Len(t, m.List(), 8)
	assert.Equal(t, "import", m.List()[0].Name())
}

func TestScanCommand(t *testing.T) {
	m, _ := newTestManager(t)

	code, out, err := execute(t, m, "scan", "-v")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "added=4")
	assert.Contains(t, out, "added      Assets/Models/crate.obj")

	code, out, err = execute(t, m, "scan", "Assets/Models")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "loaded=1")
}

func TestLsCommand(t *testing.T) {
	m, reg := newTestManager(t)
	reg.ReconcileAll(t.Context())

	code, out, err := execute(t, m, "ls", "--kind", "model,mesh")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Assets/Models/crate.obj")
	assert.Contains(t, out, "Crate")
	assert.NotContains(t, out, "main.alienscene")

	_, _, err = execute(t, m, "ls", "-k", "sound")
	assert.ErrorIs(t, err, data.ErrInvalid)
}

func TestShowCommand(t *testing.T) {
	m, reg := newTestManager(t)
	reg.ReconcileAll(t.Context())

	scene, ok := reg.GetByPath("Assets/Scenes/main.alienscene")
	require.True(t, ok)

	_, byPath, err := execute(t, m, "show", "Assets/Scenes/main.alienscene")
	require.NoError(t, err)
	_, byID, err := execute(t, m, "show", fmt.Sprint(scene.ID))
	require.NoError(t, err)

	assert.Equal(t, byPath, byID)
	assert.Contains(t, byID, "objects:")
	assert.Contains(t, byID, "2")

	code, _, err := execute(t, m, "show", "Assets/Scenes/missing.alienscene")
	assert.Equal(t, 1, code)
	assert.ErrorIs(t, err, data.ErrNotExist)
}

func TestPrimCommand(t *testing.T) {
	m, _ := newTestManager(t)

	code, out, err := execute(t, m, "prim", "sphere", "cube")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Sphere")
	assert.Contains(t, lines[1], "10242")
	assert.Contains(t, lines[2], "Cube")

	_, _, err = execute(t, m, "prim", "teapot")
	assert.ErrorIs(t, err, data.ErrInvalid)
}

func TestScriptsCommand(t *testing.T) {
	m, _ := newTestManager(t)

	code, out, err := execute(t, m, "scripts", "-r")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "added=1")
	assert.Contains(t, out, "Assets/Scripts/Player.alienscript")
	assert.Contains(t, out, "EngineScripts/Player.h")
}

func TestTreeCommand(t *testing.T) {
	m, reg := newTestManager(t)
	reg.ReconcileAll(t.Context())

	_, out, err := execute(t, m, "tree", "-i", "Assets/Models")
	require.NoError(t, err)

	model, ok := reg.GetByPath("Assets/Models/crate.obj")
	require.True(t, ok)
	assert.Contains(t, out, "Assets/Models/")
	assert.Contains(t, out, fmt.Sprintf("  crate.obj  [%d]", model.ID))
	assert.NotContains(t, out, ".meta")

	_, _, err = execute(t, m, "tree", "Assets/Sounds")
	assert.ErrorIs(t, err, data.ErrNotExist)
}

func TestImportCommand(t *testing.T) {
	m, reg := newTestManager(t)
	reg.ReconcileAll(t.Context())

	before, ok := reg.GetByPath("Assets/Prefabs/door.alienprefab")
	require.True(t, ok)

	_, out, err := execute(t, m, "import", "assets/prefabs/DOOR.alienprefab")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprint(before.ID))

	code, _, err := execute(t, m, "import")
	assert.Equal(t, 1, code)
	assert.Error(t, err)
}

func TestLibraryCommandOnReadOnlyProject(t *testing.T) {
	m, reg := newTestManager(t)
	_, _, err := execute(t, m, "scan")
	require.NoError(t, err)

	model, ok := reg.GetByPath("Assets/Models/crate.obj")
	require.True(t, ok)

	shipped, err := assetdb.New(t.Context(), storage.NewReadOnly(reg.FileSystem()), assetdb.WithLogger(log.NewDiscard()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = shipped.Close(context.Background())
	})

	game := cmd.NewManager(shipped)
	require.NoError(t, Register(game))

	code, out, err := execute(t, game, "library")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	// crate model and its mesh, scene, prefab and script
	assert.Contains(t, out, "loaded=5")

	_, out, err = execute(t, game, "show", fmt.Sprint(model.ID))
	require.NoError(t, err)
	assert.Contains(t, out, "Assets/Models/crate.obj")
	assert.Contains(t, out, "meshes:")
}

func TestUnknownCommand(t *testing.T) {
	m, _ := newTestManager(t)

	code, _, err := execute(t, m, "mount")
	assert.Equal(t, 1, code)
	assert.Error(t, err)

	code, _, err = execute(t, m, "ls", "--nope")
	assert.Equal(t, 1, code)
	assert.ErrorContains(t, err, "parse error")
}
