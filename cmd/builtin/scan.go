package builtin

import (
	"context"
	"io"

	"github.com/mwantia/assetdb"
	"github.com/mwantia/assetdb/cmd"
)

type ScanCommand struct {
}

// Name returns the command identifier
func (sc *ScanCommand) Name() string {
	return "scan"
}

// Description returns human-readable help text
func (sc *ScanCommand) Description() string {
	return "Reconcile asset folders with their metadata and library"
}

// Usage returns a usage string for help
func (sc *ScanCommand) Usage() string {
	return "scan [-v] [root...]"
}

// Execute reconciles the given roots, or every root and the scripts when
// none is given. The exit code is 1 when any asset failed to import.
func (sc *ScanCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	var report *assetdb.Report
	if len(args.Args) == 0 {
		report = api.ReconcileAll(ctx)
	} else {
		report = &assetdb.Report{}
		for _, root := range args.Args {
			report.Merge(api.Reconcile(ctx, root))
		}
	}

	if err := ctx.Err(); err != nil {
		return 1, err
	}

	writeReport(writer, report, args.Bool("verbose"))
	if len(report.Failed) > 0 {
		return 1, nil
	}
	return 0, nil
}

// GetFlags returns the flag set for this command
func (sc *ScanCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"verbose": {
				Name:        "verbose",
				Short:       "v",
				Type:        "bool",
				Description: "List every asset the pass touched",
			},
		},
	}
}
