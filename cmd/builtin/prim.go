package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/assetdb/cmd"
	"github.com/mwantia/assetdb/data"
)

type PrimCommand struct {
}

// Name returns the command identifier
func (pc *PrimCommand) Name() string {
	return "prim"
}

// Description returns human-readable help text
func (pc *PrimCommand) Description() string {
	return "Generate built-in primitive meshes"
}

// Usage returns a usage string for help
func (pc *PrimCommand) Usage() string {
	return "prim [shape...]"
}

// Execute requests the named primitives, or all of them, and prints their
// mesh statistics.
func (pc *PrimCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	kinds := data.Primitives()
	if len(args.Args) > 0 {
		kinds = kinds[:0:0]
		for _, name := range args.Args {
			kind, err := data.ParsePrimitive(name)
			if err != nil {
				return 1, err
			}
			kinds = append(kinds, kind)
		}
	}

	table := newTable(writer)
	fmt.Fprintln(table, "SHAPE\tID\tVERTICES\tTRIANGLES\tREFS")
	for _, kind := range kinds {
		res := api.GetPrimitive(kind)
		if res == nil {
			return 1, fmt.Errorf("%w: primitive '%s' is unavailable", data.ErrNotExist, kind)
		}

		mesh, ok := res.Mesh()
		if !ok {
			return 1, fmt.Errorf("%w: primitive '%s' has no mesh", data.ErrCorrupt, kind)
		}
		fmt.Fprintf(table, "%s\t%d\t%d\t%d\t%d\n", kind, res.ID, mesh.VertexCount(), mesh.TriangleCount(), res.References)
	}
	return 0, table.Flush()
}

// GetFlags returns the flag set for this command
func (pc *PrimCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
