package builtin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mwantia/assetdb/cmd"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/filetree"
)

type TreeCommand struct {
}

// Name returns the command identifier
func (tc *TreeCommand) Name() string {
	return "tree"
}

// Description returns human-readable help text
func (tc *TreeCommand) Description() string {
	return "Print the cached asset folder tree"
}

// Usage returns a usage string for help
func (tc *TreeCommand) Usage() string {
	return "tree [-i] [path]"
}

// Execute prints the subtree at path, the whole asset folder by default.
// With --ids every registered file is followed by its resource id.
func (tc *TreeCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	root := api.Tree()
	if root == nil {
		return 1, fmt.Errorf("%w: file tree is not available", data.ErrNotExist)
	}

	node := root
	if len(args.Args) > 0 {
		found, ok := filetree.FindByPath(root, args.Args[0])
		if !ok {
			return 1, fmt.Errorf("%w: '%s' is not in the asset tree", data.ErrNotExist, args.Args[0])
		}
		node = found
	}

	ids := args.Bool("ids")
	base := strings.Count(node.Path, "/")
	filetree.Walk(node, func(n *filetree.Node) bool {
		depth := strings.Count(n.Path, "/") - base
		name := n.Name
		if n == node {
			name = n.Path
		}
		if !n.IsFile {
			name += "/"
		}

		line := strings.Repeat("  ", depth) + name
		if ids && n.IsFile {
			if res, ok := api.GetByPath(n.Path); ok {
				line += fmt.Sprintf("  [%d]", res.ID)
			}
		}
		fmt.Fprintln(writer, line)
		return true
	})
	return 0, nil
}

// GetFlags returns the flag set for this command
func (tc *TreeCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"ids": {
				Name:        "ids",
				Short:       "i",
				Type:        "bool",
				Description: "Show the resource id of every file",
			},
		},
	}
}
