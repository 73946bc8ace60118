package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwantia/assetdb"
	"github.com/mwantia/assetdb/data"
	"github.com/mwantia/assetdb/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTOML = `
project = "game"
log_level = "debug"
workers = 4
instancing = false

[layout]
assets = "Content"
textures = "Content/Textures"
models = "Content/Models"
scenes = "Content/Scenes"
prefabs = "Content/Prefabs"
scripts = "Content/Scripts"
library = "Build"
library_textures = "Build/Textures"
library_models = "Build/Models"
library_meshes = "Build/Meshes"
library_scenes = "Build/Scenes"
library_prefabs = "Build/Prefabs"
library_scripts = "Build/Scripts"
script_headers = "Source"
meta_suffix = ".meta"

[metadata]
backend = "sqlite"
sqlite_path = "catalog.db"
`

const testYAML = `
project: /srv/game
library:
  backend: mirror
  s3:
    endpoint: localhost:9000
    bucket: artifacts
    prefix: main
metadata:
  backend: consul
  consul:
    address: consul:8500
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadTOML(t *testing.T) {
	p := writeConfig(t, "assetdb.toml", testTOML)

	cfg, err := Load(p)
	require.NoError(t, err)

	dir := filepath.Dir(p)
	assert.Equal(t, filepath.Join(dir, "game"), cfg.Project)
	assert.Equal(t, log.Debug, cfg.Level())
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.Instancing)
	assert.Equal(t, "Content/Textures", cfg.Layout.Textures)
	assert.Equal(t, "Source", cfg.Layout.ScriptHeaders)
	assert.Equal(t, "sqlite", cfg.Metadata.Backend)
	assert.Equal(t, filepath.Join(dir, "game", "catalog.db"), cfg.Metadata.SQLitePath)
	assert.Equal(t, "local", cfg.Library.Backend)
}

func TestLoadYAMLKeepsDefaults(t *testing.T) {
	p := writeConfig(t, "assetdb.yaml", testYAML)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "/srv/game", cfg.Project)
	assert.Equal(t, data.DefaultLayout(), cfg.Layout)
	assert.Equal(t, 1, cfg.Workers)
	assert.True(t, cfg.Instancing)
	assert.Equal(t, "mirror", cfg.Library.Backend)
	assert.Equal(t, "artifacts", cfg.Library.S3.Bucket)
	assert.Equal(t, "consul:8500", cfg.Metadata.Consul.Address)
}

func TestEnvironmentOverrides(t *testing.T) {
	p := writeConfig(t, "assetdb.toml", testTOML)

	t.Setenv("ASSETDB_WORKERS", "8")
	t.Setenv("ASSETDB_METADATA_BACKEND", "ephemeral")
	t.Setenv("ASSETDB_INSTANCING", "true")
	t.Setenv("ASSETDB_PROJECT", "/opt/project")

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "ephemeral", cfg.Metadata.Backend)
	assert.True(t, cfg.Instancing)
	assert.Equal(t, "/opt/project", cfg.Project)
}

func TestDotEnvNextToConfig(t *testing.T) {
	p := writeConfig(t, "assetdb.toml", testTOML)
	env := filepath.Join(filepath.Dir(p), ".env")
	require.NoError(t, os.WriteFile(env, []byte("ASSETDB_LOG_LEVEL=warn\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("ASSETDB_LOG_LEVEL") })

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, log.Warn, cfg.Level())
}

func TestInvalidEnvironment(t *testing.T) {
	t.Setenv("ASSETDB_WORKERS", "many")

	_, err := Load("")
	require.ErrorIs(t, err, data.ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"unknown metadata backend", func(c *Config) { c.Metadata.Backend = "redis" }},
		{"sqlite without path", func(c *Config) { c.Metadata.Backend = "sqlite" }},
		{"postgres without url", func(c *Config) { c.Metadata.Backend = "postgres" }},
		{"s3 without bucket", func(c *Config) {
			c.Library.Backend = "s3"
			c.Library.S3.Endpoint = "localhost:9000"
		}},
		{"missing layout folder", func(c *Config) { c.Layout.Textures = "" }},
		{"meta suffix without dot", func(c *Config) { c.Layout.MetaSuffix = "meta" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
	}

	require.NoError(t, Default().Validate())

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), data.ErrInvalid)
		})
	}
}

func TestUnsupportedFormat(t *testing.T) {
	p := writeConfig(t, "assetdb.ini", "project=.")

	_, err := Load(p)
	require.ErrorIs(t, err, data.ErrUnsupported)
}

func TestOpenRegistry(t *testing.T) {
	cfg := Default()
	cfg.Project = t.TempDir()
	cfg.Metadata.Backend = "ephemeral"
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Project, "Assets", "Textures"), 0o755))

	reg, err := cfg.Open(t.Context(), assetdb.WithoutTerminalLog())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close(context.Background()) })

	assert.Equal(t, cfg.Layout, reg.Layout())
	report := reg.ReconcileAll(t.Context())
	assert.Empty(t, report.Failed)
}

func TestNewLibraryBackends(t *testing.T) {
	cfg := Default()
	cfg.Project = t.TempDir()
	fsys, err := cfg.FileSystem()
	require.NoError(t, err)

	local, err := cfg.NewLibrary(fsys)
	require.NoError(t, err)
	assert.Equal(t, "local", local.Name())

	cfg.Library.Backend = "mirror"
	cfg.Library.S3 = S3Config{Endpoint: "localhost:9000", Bucket: "artifacts"}
	mirror, err := cfg.NewLibrary(fsys)
	require.NoError(t, err)
	assert.Equal(t, "local+s3", mirror.Name())

	cfg.Library.Backend = "ftp"
	_, err = cfg.NewLibrary(fsys)
	require.ErrorIs(t, err, data.ErrUnsupported)
}
