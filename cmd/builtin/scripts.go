package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/assetdb/cmd"
	"github.com/mwantia/assetdb/data"
)

type ScriptsCommand struct {
}

// Name returns the command identifier
func (sc *ScriptsCommand) Name() string {
	return "scripts"
}

// Description returns human-readable help text
func (sc *ScriptsCommand) Description() string {
	return "List script resources, optionally after reloading the headers"
}

// Usage returns a usage string for help
func (sc *ScriptsCommand) Usage() string {
	return "scripts [-r] [-v]"
}

func (sc *ScriptsCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if args.Bool("reload") {
		report := api.ReloadScripts(ctx)
		writeReport(writer, report, args.Bool("verbose"))
	}

	table := newTable(writer)
	fmt.Fprintln(table, "ID\tSCRIPT\tHEADER\tSTRUCTURES")
	for _, res := range api.List(data.KindScript) {
		header, structures := "-", "-"
		if script, ok := res.Script(); ok {
			header = script.HeaderPath
			structures = joinOrDash(script.DataStructures)
		}
		fmt.Fprintf(table, "%d\t%s\t%s\t%s\n", res.ID, res.AssetPath, header, structures)
	}
	return 0, table.Flush()
}

// GetFlags returns the flag set for this command
func (sc *ScriptsCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"reload": {
				Name:        "reload",
				Short:       "r",
				Type:        "bool",
				Description: "Rescan the script headers first",
			},
			"verbose": {
				Name:        "verbose",
				Short:       "v",
				Type:        "bool",
				Description: "List every script the reload touched",
			},
		},
	}
}
