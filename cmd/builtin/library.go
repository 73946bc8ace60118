package builtin

import (
	"context"
	"io"

	"github.com/mwantia/assetdb/cmd"
)

type LibraryCommand struct {
}

// Name returns the command identifier
func (lc *LibraryCommand) Name() string {
	return "library"
}

// Description returns human-readable help text
func (lc *LibraryCommand) Description() string {
	return "Register resources from the compiled library only"
}

// Usage returns a usage string for help
func (lc *LibraryCommand) Usage() string {
	return "library [-v]"
}

func (lc *LibraryCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	report := api.LoadLibrary(ctx)
	writeReport(writer, report, args.Bool("verbose"))
	if len(report.Failed) > 0 {
		return 1, nil
	}
	return 0, nil
}

// GetFlags returns the flag set for this command
func (lc *LibraryCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"verbose": {
				Name:        "verbose",
				Short:       "v",
				Type:        "bool",
				Description: "List every artifact that was loaded",
			},
		},
	}
}
