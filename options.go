package assetdb

import (
	"context"
	"fmt"

	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/identity"
	"github.com/mwantia/assetdb/importer"
	"github.com/mwantia/assetdb/library"
	"github.com/mwantia/assetdb/log"
	"github.com/mwantia/assetdb/metadata"
)

type Options struct {
	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool
	// Logger replaces the logger built from the fields above.
	Logger Logger

	Layout    data.Layout
	Importer  importer.Importer
	Metadata  metadata.Store
	Library   library.Store
	Allocator identity.Allocator
	Spawner   Spawner

	// Instancing counts a reference for every primitive or model request.
	Instancing bool
	// Workers bounds the number of files reconciled in parallel.
	Workers int
}

type Option func(*Options) error

func newDefaultOptions() *Options {
	return &Options{
		LogLevel:   log.Info,
		Layout:     data.DefaultLayout(),
		Instancing: true,
		Workers:    1,
	}
}

func WithLogLevel(logLevel log.LogLevel) Option {
	return func(opts *Options) error {
		opts.LogLevel = logLevel
		return nil
	}
}

func WithoutTerminalLog() Option {
	return func(opts *Options) error {
		opts.NoTerminalLog = true
		return nil
	}
}

func WithLogFile(logFile string) Option {
	return func(opts *Options) error {
		opts.LogFile = logFile
		return nil
	}
}

func WithLogger(logger Logger) Option {
	return func(opts *Options) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", data.ErrInvalid)
		}
		opts.Logger = logger
		return nil
	}
}

func WithLayout(layout data.Layout) Option {
	return func(opts *Options) error {
		opts.Layout = layout
		return nil
	}
}

func WithImporter(imp importer.Importer) Option {
	return func(opts *Options) error {
		opts.Importer = imp
		return nil
	}
}

// WithMetadata replaces the default sidecar store.
func WithMetadata(store metadata.Store) Option {
	return func(opts *Options) error {
		opts.Metadata = store
		return nil
	}
}

// WithLibrary replaces the default artifact store on the project filesystem.
func WithLibrary(store library.Store) Option {
	return func(opts *Options) error {
		opts.Library = store
		return nil
	}
}

func WithAllocator(allocator identity.Allocator) Option {
	return func(opts *Options) error {
		opts.Allocator = allocator
		return nil
	}
}

func WithSpawner(spawner Spawner) Option {
	return func(opts *Options) error {
		opts.Spawner = spawner
		return nil
	}
}

func WithInstancing(enabled bool) Option {
	return func(opts *Options) error {
		opts.Instancing = enabled
		return nil
	}
}

func WithWorkers(workers int) Option {
	return func(opts *Options) error {
		if workers < 1 {
			return fmt.Errorf("%w: workers must be at least 1, got %d", data.ErrInvalid, workers)
		}
		opts.Workers = workers
		return nil
	}
}

// Spawner expands a model into live scene objects.
type Spawner interface {
	Spawn(ctx context.Context, model *data.Resource, meshes []*data.Resource) error
}

type SpawnerFunc func(ctx context.Context, model *data.Resource, meshes []*data.Resource) error

func (f SpawnerFunc) Spawn(ctx context.Context, model *data.Resource, meshes []*data.Resource) error {
	return f(ctx, model, meshes)
}

// Logger is the subset of log.Logger used by the registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
