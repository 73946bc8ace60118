package config

import (
	"context"
	"fmt"

	"github.com/mwantia/assetdb"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/library"
	"github.com/mwantia/assetdb/library/s3"
	"github.com/mwantia/assetdb/log"
	"github.com/mwantia/assetdb/metadata"
	"github.com/mwantia/assetdb/metadata/consul"
	"github.com/mwantia/assetdb/metadata/ephemeral"
	"github.com/mwantia/assetdb/metadata/postgres"
	"github.com/mwantia/assetdb/metadata/sidecar"
	"github.com/mwantia/assetdb/metadata/sqlite"
	"github.com/mwantia/assetdb/storage"
)

// FileSystem opens the project folder on the host.
func (c *Config) FileSystem() (storage.FileSystem, error) {
	var opts []storage.LocalOption
	if c.Trash {
		opts = append(opts, storage.WithTrash())
	}
	fsys, err := storage.NewLocal(c.Project, opts...)
	if err != nil {
		return nil, err
	}
	if c.ReadOnly {
		return storage.NewReadOnly(fsys), nil
	}
	return fsys, nil
}

// NewMetadata creates the configured metadata store. The store is not opened;
// the registry opens it.
func (c *Config) NewMetadata(ctx context.Context, fsys storage.FileSystem) (metadata.Store, error) {
	switch c.Metadata.Backend {
	case "sidecar", "":
		return sidecar.NewSidecarStore(fsys, c.Layout.MetaSuffix), nil
	case "ephemeral":
		return ephemeral.NewEphemeralStore(), nil
	case "sqlite":
		store, err := sqlite.NewSQLiteStore(c.Metadata.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "postgres":
		store, err := postgres.NewPostgresStore(ctx, c.Metadata.PostgresURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "consul":
		store, err := consul.NewConsulStore(&consul.ConsulStoreConfig{
			Address:    c.Metadata.Consul.Address,
			Token:      c.Metadata.Consul.Token,
			Datacenter: c.Metadata.Consul.Datacenter,
			Namespace:  c.Metadata.Consul.Namespace,
			Prefix:     c.Metadata.Consul.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: metadata backend '%s'", data.ErrUnsupported, c.Metadata.Backend)
	}
}

// NewLibrary creates the configured library store.
func (c *Config) NewLibrary(fsys storage.FileSystem) (library.Store, error) {
	local := library.NewLocalStore(fsys)

	switch c.Library.Backend {
	case "local", "":
		return local, nil
	case "s3", "mirror":
		remote, err := s3.NewS3Store(c.Library.S3.Endpoint, c.Library.S3.Bucket,
			c.Library.S3.AccessKey, c.Library.S3.SecretKey, c.Library.S3.UseSSL)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 library: %w", err)
		}
		remote = remote.WithPrefix(c.Library.S3.Prefix)

		if c.Library.Backend == "mirror" {
			return library.NewMirrorStore(local, remote), nil
		}
		return remote, nil
	default:
		return nil, fmt.Errorf("%w: library backend '%s'", data.ErrUnsupported, c.Library.Backend)
	}
}

// Options translates the configuration into registry options.
func (c *Config) Options(ctx context.Context, fsys storage.FileSystem) ([]assetdb.Option, error) {
	store, err := c.NewMetadata(ctx, fsys)
	if err != nil {
		return nil, err
	}
	lib, err := c.NewLibrary(fsys)
	if err != nil {
		return nil, err
	}

	opts := []assetdb.Option{
		assetdb.WithLogLevel(c.Level()),
		assetdb.WithLayout(c.Layout),
		assetdb.WithMetadata(store),
		assetdb.WithLibrary(lib),
		assetdb.WithInstancing(c.Instancing),
		assetdb.WithWorkers(c.Workers),
	}
	if c.LogFile != "" {
		opts = append(opts, assetdb.WithLogFile(c.LogFile))
	}
	return opts, nil
}

// Open builds a registry for the configured project.
func (c *Config) Open(ctx context.Context, extra ...assetdb.Option) (*assetdb.Registry, error) {
	fsys, err := c.FileSystem()
	if err != nil {
		return nil, err
	}

	opts, err := c.Options(ctx, fsys)
	if err != nil {
		return nil, err
	}
	return assetdb.New(ctx, fsys, append(opts, extra...)...)
}

// Logger returns the logger described by the log settings.
func (c *Config) Logger(name string, noTerminal bool) *log.Logger {
	return log.NewLogger(name, c.Level(), c.LogFile, noTerminal)
}
