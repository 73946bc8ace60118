package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/assetdb/cmd"
	"github.com/mwantia/assetdb/data"
)

type LsCommand struct {
}

// Name returns the command identifier
func (ls *LsCommand) Name() string {
	return "ls"
}

// Description returns human-readable help text
func (ls *LsCommand) Description() string {
	return "List registered resources"
}

// Usage returns a usage string for help
func (ls *LsCommand) Usage() string {
	return "ls [-k kind]..."
}

// Execute lists resources of the requested kinds, every kind by default.
func (ls *LsCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	kinds := []data.Kind{data.KindTexture, data.KindModel, data.KindMesh, data.KindPrefab, data.KindScene, data.KindScript}
	if names := args.Strings("kind"); len(names) > 0 {
		kinds = kinds[:0]
		for _, name := range names {
			kind, err := data.ParseKind(name)
			if err != nil {
				return 1, err
			}
			kinds = append(kinds, kind)
		}
	}

	table := newTable(writer)
	fmt.Fprintln(table, "ID\tKIND\tSTATE\tREFS\tNAME\tPATH")
	for _, kind := range kinds {
		for _, res := range api.List(kind) {
			location := res.AssetPath
			if location == "" {
				location = res.LibraryPath
			}
			if res.IsPrimitive() {
				location = "<primitive>"
			}
			fmt.Fprintf(table, "%d\t%s\t%s\t%d\t%s\t%s\n", res.ID, res.Kind, res.State, res.References, res.Name, location)
		}
	}
	return 0, table.Flush()
}

// GetFlags returns the flag set for this command
func (ls *LsCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"kind": {
				Name:        "kind",
				Short:       "k",
				Type:        "stringSlice",
				Description: "Only list resources of this kind",
			},
		},
	}
}
