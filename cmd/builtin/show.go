package builtin

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/mwantia/assetdb/cmd"
	"github.com/mwantia/assetdb/data"
)

type ShowCommand struct {
}

// Name returns the command identifier
func (sc *ShowCommand) Name() string {
	return "show"
}

// Description returns human-readable help text
func (sc *ShowCommand) Description() string {
	return "Describe a resource by id or asset path"
}

// Usage returns a usage string for help
func (sc *ShowCommand) Usage() string {
	return "show <id|path>"
}

// Execute prints the identity and payload summary of one resource.
func (sc *ShowCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if len(args.Args) != 1 {
		return 1, fmt.Errorf("usage: %s", sc.Usage())
	}

	target := args.Args[0]
	res, ok := lookup(api, target)
	if !ok {
		return 1, fmt.Errorf("%w: no resource '%s'", data.ErrNotExist, target)
	}

	table := newTable(writer)
	fmt.Fprintf(table, "id:\t%d\n", res.ID)
	fmt.Fprintf(table, "kind:\t%s\n", res.Kind)
	fmt.Fprintf(table, "name:\t%s\n", res.Name)
	fmt.Fprintf(table, "state:\t%s\n", res.State)
	fmt.Fprintf(table, "references:\t%d\n", res.References)
	if res.AssetPath != "" {
		fmt.Fprintf(table, "asset:\t%s\n", res.AssetPath)
	}
	if res.LibraryPath != "" {
		fmt.Fprintf(table, "library:\t%s\n", res.LibraryPath)
	}
	if res.IsPrimitive() {
		fmt.Fprintf(table, "primitive:\t%s\n", res.Primitive)
	}
	describePayload(table, res)
	return 0, table.Flush()
}

func lookup(api cmd.API, target string) (*data.Resource, bool) {
	if id, err := strconv.ParseUint(target, 10, 64); err == nil {
		if res, ok := api.GetByID(id); ok {
			return res, true
		}
	}
	return api.GetByPath(target)
}

func describePayload(w io.Writer, res *data.Resource) {
	switch payload := res.Payload.(type) {
	case *data.MeshData:
		fmt.Fprintf(w, "vertices:\t%d\n", payload.VertexCount())
		fmt.Fprintf(w, "triangles:\t%d\n", payload.TriangleCount())
		if payload.Model != 0 {
			fmt.Fprintf(w, "model:\t%d\n", payload.Model)
		}
	case *data.TextureData:
		fmt.Fprintf(w, "size:\t%dx%d\n", payload.Width, payload.Height)
		fmt.Fprintf(w, "format:\t%s\n", payload.Format)
	case *data.ModelData:
		fmt.Fprintf(w, "format:\t%s\n", payload.Format)
		fmt.Fprintf(w, "meshes:\t%d\n", len(payload.Meshes))
		for _, id := range payload.Meshes {
			fmt.Fprintf(w, "\t%d\n", id)
		}
	case *data.PrefabData:
		fmt.Fprintf(w, "root:\t%s\n", payload.Root)
	case *data.SceneData:
		fmt.Fprintf(w, "objects:\t%d\n", payload.Objects)
	case *data.ScriptData:
		fmt.Fprintf(w, "header:\t%s\n", payload.HeaderPath)
		fmt.Fprintf(w, "signature:\t%s\n", payload.Signature)
		fmt.Fprintf(w, "structures:\t%s\n", joinOrDash(payload.DataStructures))
	}
}

// GetFlags returns the flag set for this command
func (sc *ShowCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
