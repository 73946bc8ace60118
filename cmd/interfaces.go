package cmd

import (
	"context"
	"io"

	"github.com/mwantia/assetdb"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/filetree"
)

// API is the part of the registry that commands operate on.
type API interface {
	// Layout returns the project folders the registry works on.
	Layout() data.Layout

	// ReconcileAll reconciles every asset root and reloads the scripts.
	ReconcileAll(ctx context.Context) *assetdb.Report

	// Reconcile brings a single asset root in line with the disk.
	Reconcile(ctx context.Context, root string) *assetdb.Report

	// ReloadScripts rescans the script headers.
	ReloadScripts(ctx context.Context) *assetdb.Report

	// LoadLibrary registers resources straight from the compiled library.
	LoadLibrary(ctx context.Context) *assetdb.Report

	// Import forces a reimport of a single asset.
	Import(ctx context.Context, path string) (*data.Resource, error)

	// GetByID returns the resource registered under id.
	GetByID(id uint64) (*data.Resource, bool)

	// GetByPath returns the resource originating from an asset path.
	GetByPath(path string) (*data.Resource, bool)

	// List returns the registered resources of kind.
	List(kind data.Kind) []*data.Resource

	// GetPrimitive returns the shared mesh for a built-in shape.
	GetPrimitive(kind data.PrimitiveKind) *data.Resource

	// Tree returns the cached file tree of the asset folder.
	Tree() *filetree.Node

	// Len returns the number of registered resources.
	Len() int
}

var _ API = (*assetdb.Registry)(nil)

// Command represents an executable command against the registry.
type Command interface {
	// Name returns the command identifier
	Name() string

	// Description returns human-readable help text
	Description() string

	// Usage returns a usage string for help (e.g. "ls --kind texture")
	Usage() string

	// Execute runs the command with parsed arguments
	// The writer parameter is where command output should be written
	// Returns exit code (0 = success) and error message
	Execute(ctx context.Context, api API, args *CommandArgs, writer io.Writer) (int, error)

	// GetFlags returns the flag set for this command (this is optional)
	GetFlags() *CommandFlagSet
}
