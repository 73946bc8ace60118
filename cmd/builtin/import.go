package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/assetdb/cmd"
)

type ImportCommand struct {
}

// Name returns the command identifier
func (ic *ImportCommand) Name() string {
	return "import"
}

// Description returns human-readable help text
func (ic *ImportCommand) Description() string {
	return "Force a reimport of single assets"
}

// Usage returns a usage string for help
func (ic *ImportCommand) Usage() string {
	return "import <path>..."
}

func (ic *ImportCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if len(args.Args) == 0 {
		return 1, fmt.Errorf("usage: %s", ic.Usage())
	}

	for _, p := range args.Args {
		res, err := api.Import(ctx, p)
		if err != nil {
			return 1, fmt.Errorf("failed to import '%s': %w", p, err)
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\n", res.ID, res.Kind, res.AssetPath)
	}
	return 0, nil
}

// GetFlags returns the flag set for this command
func (ic *ImportCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
